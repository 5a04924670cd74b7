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
	"errors"
	"fmt"

	u2fhost "github.com/marshallbrekka/go-u2fhost"

	"github.com/openconnect-tools/gp-auth-okta/pkg/fido"
)

// Several webauthn devices may be registered; instead of the per-factor
// verify link, Okta exposes a generic endpoint that accepts any of them
// and embeds the full allowed credential list in its challenge.
const webauthnVerifyPath = "/api/v1/authn/factors/webauthn/verify"

// webauthnHandler performs a hardware key assertion. It is the only
// handler allowed to be abandoned mid-attempt: declining the device
// wait falls back to the next factor instead of failing the login.
type webauthnHandler struct {
	c *Client
}

func (h *webauthnHandler) Supports(factor Factor) bool {
	return factor.FactorType == FactorTypeWebauthn && h.c.interaction != nil
}

func (h *webauthnHandler) Verify(factor Factor, state *AuthResult) (*AuthResult, error) {
	device, err := h.waitForDevice()
	if err != nil {
		return nil, err
	}

	res, err := h.c.verify(h.c.apiURL(webauthnVerifyPath), statePayload{StateToken: state.StateToken})
	if err != nil {
		return nil, err
	}
	if res.Status != StatusMFAChallenge {
		return nil, fmt.Errorf("webauthn challenge ended in status %s: %w", res.Status, ErrProtocol)
	}
	if res.Embedded.Challenge == nil || res.Embedded.Challenge.Challenge == "" {
		return nil, fmt.Errorf("webauthn response without challenge: %w", ErrProtocol)
	}
	if res.Links.Next == nil || res.Links.Next.Href == "" {
		return nil, fmt.Errorf("webauthn response without next link: %w", ErrProtocol)
	}

	// one eligible credential id per registered device
	var handles []string
	for _, f := range res.Embedded.Factors {
		if f.Profile.CredentialId != "" {
			handles = append(handles, f.Profile.CredentialId)
		}
	}
	if len(handles) == 0 {
		return nil, fmt.Errorf("webauthn challenge without credential ids: %w", ErrProtocol)
	}

	assertion, err := fido.Assert(device, &fido.Request{
		Challenge:  res.Embedded.Challenge.Challenge,
		RPID:       h.c.domain,
		Origin:     fmt.Sprintf("https://%s", h.c.domain),
		KeyHandles: handles,
	}, h.c.interaction)
	if err != nil {
		return nil, err
	}

	payload := webauthnPayload{StateToken: res.StateToken}
	if payload.AuthenticatorData, err = fido.Canonicalize(assertion.AuthenticatorData); err != nil {
		return nil, err
	}
	if payload.ClientData, err = fido.Canonicalize(assertion.ClientData); err != nil {
		return nil, err
	}
	if payload.SignatureData, err = fido.Canonicalize(assertion.SignatureData); err != nil {
		return nil, err
	}
	return h.c.verify(res.Links.Next.Href, payload)
}

// waitForDevice loops until an authenticator is attached or the user
// gives up on this factor.
func (h *webauthnHandler) waitForDevice() (u2fhost.Device, error) {
	for {
		dev, err := fido.FindDevice()
		if err == nil {
			return dev, nil
		}
		if !errors.Is(err, fido.ErrNoDevice) {
			return nil, err
		}
		h.c.prompter.Notify("Please insert a suitable hardware key to continue with WebAuthn MFA.")
		if !h.c.prompter.Confirm("Continue with WebAuthn MFA?") {
			return nil, ErrUserCancelled
		}
	}
}
