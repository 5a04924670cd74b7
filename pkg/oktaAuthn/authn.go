// SPDX-FileCopyrightText: 2024-Present gp-auth-okta authors
//
// SPDX-License-Identifier: MPL-2.0
//
// Copyright 2024-Present gp-auth-okta authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package oktaAuthn implements the Okta authentication transaction:
// primary credential submission, MFA factor selection and the per
// factor challenge/verify sub-protocols (push, SMS, one-time code,
// WebAuthn hardware key).
//
// https://developer.okta.com/docs/reference/api/authn
package oktaAuthn

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Authenticate runs the full transaction and returns the Okta session
// token. Terminal failures map onto the package sentinels: ErrLockedOut,
// ErrNoUsableFactor, ErrPasswordExpired, ErrEnrollRequired, ErrProtocol.
func (c *Client) Authenticate(username, password string) (string, error) {
	log.Infof("authenticating %s against %s", username, c.domain)
	res := &AuthResult{}
	err := c.sess.PostJSON(c.apiURL("/api/v1/authn"), credentialsPayload{
		Username: username,
		Password: password,
	}, res)
	if err != nil {
		return "", err
	}

	switch res.Status {
	case StatusSuccess:
		// fallthrough to the session token check

	case StatusLockedOut:
		return "", ErrLockedOut

	case StatusPasswordExpired:
		c.cancel(res.StateToken)
		return "", ErrPasswordExpired

	case StatusMFAEnroll, StatusMFAEnrollActivate:
		c.cancel(res.StateToken)
		return "", ErrEnrollRequired

	case StatusMFARequired:
		log.Debugf("MFA required, checking second factor")
		if res, err = c.challengeMFA(res); err != nil {
			return "", err
		}
		if res.Status == StatusLockedOut {
			return "", ErrLockedOut
		}
		if res.Status != StatusSuccess {
			return "", fmt.Errorf("MFA ended in status %s: %w", res.Status, ErrProtocol)
		}

	default:
		return "", fmt.Errorf("unknown authn status %s: %w", res.Status, ErrProtocol)
	}

	if res.SessionToken == "" {
		return "", fmt.Errorf("no session token in SUCCESS response: %w", ErrProtocol)
	}
	log.Infof("authenticated %s", username)
	return res.SessionToken, nil
}

// challengeMFA picks the highest ranked factor a handler can service
// and runs it. Exactly one factor is fully attempted; only a declined
// hardware key wait falls through to the next candidate.
func (c *Client) challengeMFA(res *AuthResult) (*AuthResult, error) {
	if len(res.Embedded.Factors) == 0 {
		c.cancel(res.StateToken)
		return nil, fmt.Errorf("MFA required but no factor offered: %w", ErrProtocol)
	}

	for _, factor := range sortFactors(res.Embedded.Factors, c.cfg.FactorPriorities) {
		handler := c.handlerFor(factor)
		if handler == nil {
			log.Debugf("unsupported factorType: %s, skipping", factor.FactorType)
			continue
		}
		log.Debugf("verifying %s factor (%s %s)",
			factor.FactorType,
			factor.Provider,
			factor.VendorName)
		out, err := handler.Verify(factor, res)
		if errors.Is(err, ErrUserCancelled) {
			log.Infof("%s factor declined, falling back", factor.FactorType)
			continue
		}
		if err != nil {
			c.cancel(res.StateToken)
			return nil, err
		}
		return out, nil
	}
	c.cancel(res.StateToken)
	return nil, ErrNoUsableFactor
}

func (c *Client) handlerFor(factor Factor) FactorHandler {
	for _, h := range c.handlers {
		if h.Supports(factor) {
			return h
		}
	}
	return nil
}

// verify posts payload to an authn verify endpoint and decodes the next
// transaction state.
func (c *Client) verify(rawURL string, payload any) (*AuthResult, error) {
	res := &AuthResult{}
	if err := c.sess.PostJSON(rawURL, payload, res); err != nil {
		return nil, err
	}
	return res, nil
}

// cancel closes a pending transaction so Okta does not keep waiting on
// an abandoned state token. Best effort, failures only logged.
func (c *Client) cancel(stateToken string) {
	if stateToken == "" {
		return
	}
	// the cancel response carries no state worth keeping
	var res struct{}
	err := c.sess.PostJSON(c.apiURL("/api/v1/authn/cancel"), statePayload{StateToken: stateToken}, &res)
	if err != nil {
		log.Debugf("cancel transaction: %s", err)
	}
}

func (c *Client) apiURL(path string) string {
	return fmt.Sprintf("https://%s%s", c.domain, path)
}

// verifyHref returns the factor's verify link, required by every
// sub-protocol except WebAuthn which uses the shared endpoint.
func verifyHref(factor Factor) (string, error) {
	if factor.Links.Verify == nil || factor.Links.Verify.Href == "" {
		return "", fmt.Errorf("%s factor without verify link: %w", factor.FactorType, ErrProtocol)
	}
	return factor.Links.Verify.Href, nil
}
