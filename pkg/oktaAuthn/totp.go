// SPDX-FileCopyrightText: 2024-Present gp-auth-okta authors
//
// SPDX-License-Identifier: MPL-2.0
//
// Copyright 2024-Present gp-auth-okta authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package oktaAuthn

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
	log "github.com/sirupsen/logrus"
)

// totpHandler covers the token family: token, token:software:totp,
// token:hardware. When a TOTP secret is configured the code is computed
// locally, otherwise the user types it. Submitted exactly once.
type totpHandler struct {
	c *Client
}

func (h *totpHandler) Supports(factor Factor) bool {
	return factor.FactorType == "token" || strings.HasPrefix(factor.FactorType, "token:")
}

func (h *totpHandler) Verify(factor Factor, state *AuthResult) (*AuthResult, error) {
	href, err := verifyHref(factor)
	if err != nil {
		return nil, err
	}

	var code string
	if factor.FactorType == FactorTypeTOTP && h.c.cfg.TOTPKey != "" {
		if code, err = totp.GenerateCode(h.c.cfg.TOTPKey, time.Now()); err != nil {
			return nil, fmt.Errorf("TOTP code generation: %w", err)
		}
		log.Debugf("TOTP code computed from configured secret")
	} else {
		label := fmt.Sprintf("One-time code for %s (%s)", factor.Provider, factor.VendorName)
		if code, err = h.c.prompter.Code(label); err != nil {
			return nil, err
		}
	}
	return h.c.verify(href, statePayload{StateToken: state.StateToken, PassCode: code})
}
