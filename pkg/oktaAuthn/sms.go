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

import "fmt"

// smsHandler triggers the SMS send with an empty verify post, then
// submits the user supplied code exactly once. A wrong code is fatal,
// Okta rejects it with an error status and the attempt ends.
type smsHandler struct {
	c *Client
}

func (h *smsHandler) Supports(factor Factor) bool {
	return factor.FactorType == FactorTypeSMS
}

func (h *smsHandler) Verify(factor Factor, state *AuthResult) (*AuthResult, error) {
	href, err := verifyHref(factor)
	if err != nil {
		return nil, err
	}

	res, err := h.c.verify(href, statePayload{StateToken: state.StateToken})
	if err != nil {
		return nil, err
	}
	if res.Status != StatusMFAChallenge {
		return nil, fmt.Errorf("SMS trigger ended in status %s: %w", res.Status, ErrProtocol)
	}

	label := "SMS code"
	if factor.Profile.PhoneNumber != "" {
		label = fmt.Sprintf("SMS code sent to %s", factor.Profile.PhoneNumber)
	}
	code, err := h.c.prompter.Code(label)
	if err != nil {
		return nil, err
	}
	return h.c.verify(href, statePayload{StateToken: res.StateToken, PassCode: code})
}
