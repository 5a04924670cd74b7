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
	"time"

	log "github.com/sirupsen/logrus"
)

// pushHandler triggers an Okta Verify push and polls until the user
// answers on the approving device. The poll is bounded by
// MFAPushMaxRetries / MFAPushDelaySeconds, an unbounded wait would
// leave the process hanging on a lost phone.
type pushHandler struct {
	c *Client
}

func (h *pushHandler) Supports(factor Factor) bool {
	return factor.FactorType == FactorTypePush
}

func (h *pushHandler) Verify(factor Factor, state *AuthResult) (*AuthResult, error) {
	href, err := verifyHref(factor)
	if err != nil {
		return nil, err
	}

	res, err := h.c.verify(href, statePayload{StateToken: state.StateToken})
	if err != nil {
		return nil, err
	}

	answered := false
	checkCount := 0
	for res.Status == StatusMFAChallenge {
		if res.FactorResult != factorResultWaiting {
			// REJECTED or TIMEOUT from the device
			return nil, fmt.Errorf("push MFA failed with %s: %w", res.FactorResult, ErrMFAFailed)
		}
		if !answered {
			if answer := pushAnswer(res); answer != nil {
				// number matching: shown once, confirmed on the device
				h.c.prompter.Notify(fmt.Sprintf("Correct answer on your device is: %d", *answer))
				answered = true
			}
		}
		if checkCount++; checkCount > h.c.cfg.MFAPushMaxRetries {
			log.Warningf("%s push MFA timed out", factor.Provider)
			return nil, fmt.Errorf("push MFA timed out: %w", ErrMFAFailed)
		}
		time.Sleep(time.Duration(h.c.cfg.MFAPushDelaySeconds) * time.Second)

		if res, err = h.c.verify(href, statePayload{StateToken: res.StateToken}); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func pushAnswer(res *AuthResult) *int {
	factor := res.Embedded.Factor
	if factor == nil || factor.Embedded.Challenge == nil {
		return nil
	}
	return factor.Embedded.Challenge.CorrectAnswer
}
