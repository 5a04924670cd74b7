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
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/h2non/gock.v1"

	"github.com/openconnect-tools/gp-auth-okta/pkg/session"
)

const (
	// Please update the fixtures if you modify one of these vars !!
	oktaEndpoint string = "https://example.oktapreview.com"
	oktaDomain   string = "example.oktapreview.com"
	username     string = "dade.murphy@example.com"
	password     string = "test_password"
	smsCode      string = "987654"
	sessionToken string = "00Fpzf4en68pCXTsMjcX8JPMctzN2Wiw4LDOBL_9pe"

	pushVerifyPath string = "/api/v1/authn/factors/opf3hkfocI4JTLAju0g4/verify"
	totpVerifyPath string = "/api/v1/authn/factors/ostfm3hPNYSOIOIVTQWY/verify"
	smsVerifyPath  string = "/api/v1/authn/factors/sms193zUBEROPBNZKPPE/verify"
	cancelPath     string = "/api/v1/authn/cancel"

	// valid base32 secret, codes derived from it are never checked by the
	// mocked endpoints
	totpSecret string = "JBSWY3DPEHPK3PXP"
)

// scriptedPrompter replaces the interactive console in tests. Codes are
// consumed in order, notices recorded for inspection.
type scriptedPrompter struct {
	codes   []string
	notices []string
	accept  bool
}

func (p *scriptedPrompter) Code(label string) (string, error) {
	if len(p.codes) == 0 {
		return "", fmt.Errorf("no scripted code left for %q", label)
	}
	code := p.codes[0]
	p.codes = p.codes[1:]
	return code, nil
}

func (p *scriptedPrompter) Notify(msg string) {
	p.notices = append(p.notices, msg)
}

func (p *scriptedPrompter) Confirm(string) bool {
	return p.accept
}

func (p *scriptedPrompter) PromptPresence() {}

type authRequest struct {
	path             string
	httpStatus       int
	jsonResponseFile string
}

type authTest struct {
	testName string
	cfg      *Config
	codes    []string
	requests []authRequest
	token    string
	sentinel error
	errMsg   string
	notices  int
}

func newTestClient(t *testing.T, prompter Prompter, cfg *Config) *Client {
	t.Helper()
	sess, err := session.New(nil)
	assert.NoError(t, err)
	gock.InterceptClient(sess.HTTPClient())
	return New(sess, oktaDomain, prompter, nil, cfg)
}

func TestAuthenticate(t *testing.T) {
	defer gock.Off()
	// Uncomment the following line to see HTTP requests intercepted by gock
	//gock.Observe(gock.DumpRequest)

	/*
	   the JSON response files used here follow
	     https://developer.okta.com/docs/reference/api/authn/#primary-authentication-with-public-application
	     https://developer.okta.com/docs/reference/api/authn/#multifactor-authentication-operations
	   with factor id and stateToken modifications
	*/

	// negative delay keeps the push poll from sleeping in tests; New()
	// only replaces a zero with the default
	noDelay := func(cfg *Config) *Config {
		cfg.MFAPushDelaySeconds = -1
		return cfg
	}

	tests := []authTest{
		{
			"successful without MFA - success",
			nil,
			nil,
			[]authRequest{
				{"/api/v1/authn", http.StatusOK, "preauth_success.json"},
			},
			sessionToken,
			nil,
			"",
			0,
		},

		{
			"locked out user - failure",
			nil,
			nil,
			[]authRequest{
				{"/api/v1/authn", http.StatusOK, "preauth_lockedout.json"},
			},
			"",
			ErrLockedOut,
			"",
			0,
		},

		{
			"expired password - failure",
			nil,
			nil,
			[]authRequest{
				{"/api/v1/authn", http.StatusOK, "preauth_password_expired.json"},
				{cancelPath, http.StatusOK, "cancel_success.json"},
			},
			"",
			ErrPasswordExpired,
			"",
			0,
		},

		{
			"MFA enrollment needed - failure",
			nil,
			nil,
			[]authRequest{
				{"/api/v1/authn", http.StatusOK, "preauth_mfa_enroll.json"},
				{cancelPath, http.StatusOK, "cancel_success.json"},
			},
			"",
			ErrEnrollRequired,
			"",
			0,
		},

		{
			"push MFA approved after two polls - success",
			noDelay(&Config{}),
			nil,
			[]authRequest{
				{"/api/v1/authn", http.StatusOK, "preauth_mfa_required.json"},
				{pushVerifyPath, http.StatusOK, "push_waiting.json"},
				{pushVerifyPath, http.StatusOK, "push_waiting.json"},
				{pushVerifyPath, http.StatusOK, "mfa_success.json"},
			},
			sessionToken,
			nil,
			"",
			// the number matching answer is shown exactly once
			1,
		},

		{
			"push MFA rejected on the device - failure",
			noDelay(&Config{}),
			nil,
			[]authRequest{
				{"/api/v1/authn", http.StatusOK, "preauth_mfa_required.json"},
				{pushVerifyPath, http.StatusOK, "push_rejected.json"},
				{cancelPath, http.StatusOK, "cancel_success.json"},
			},
			"",
			ErrMFAFailed,
			"push MFA failed with REJECTED: MFA failed",
			0,
		},

		{
			"push MFA approval timeout - failure",
			noDelay(&Config{MFAPushMaxRetries: 1}),
			nil,
			[]authRequest{
				{"/api/v1/authn", http.StatusOK, "preauth_mfa_required.json"},
				{pushVerifyPath, http.StatusOK, "push_waiting.json"},
				{pushVerifyPath, http.StatusOK, "push_waiting.json"},
				{cancelPath, http.StatusOK, "cancel_success.json"},
			},
			"",
			ErrMFAFailed,
			"push MFA timed out: MFA failed",
			1,
		},

		{
			"no supported factor offered - failure",
			nil,
			nil,
			[]authRequest{
				{"/api/v1/authn", http.StatusOK, "preauth_mfa_required_unknown.json"},
				{cancelPath, http.StatusOK, "cancel_success.json"},
			},
			"",
			ErrNoUsableFactor,
			"",
			0,
		},

		{
			"SMS MFA with prompted code - success",
			nil,
			[]string{smsCode},
			[]authRequest{
				{"/api/v1/authn", http.StatusOK, "preauth_mfa_required_sms.json"},
				{smsVerifyPath, http.StatusOK, "sms_challenge.json"},
				{smsVerifyPath, http.StatusOK, "mfa_success.json"},
			},
			sessionToken,
			nil,
			"",
			0,
		},

		{
			"TOTP computed from configured secret - success",
			&Config{TOTPKey: totpSecret},
			nil,
			[]authRequest{
				{"/api/v1/authn", http.StatusOK, "preauth_mfa_required.json"},
				{totpVerifyPath, http.StatusOK, "mfa_success.json"},
			},
			sessionToken,
			nil,
			"",
			0,
		},
	}

	for _, test := range tests {
		t.Run(test.testName, func(t *testing.T) {
			gock.Clean()
			gock.Flush()

			for _, req := range test.requests {
				responseFile := fmt.Sprintf("../../testing/fixtures/oktaAuthn/%s", req.jsonResponseFile)
				gock.New(oktaEndpoint).
					Post(req.path).
					Reply(req.httpStatus).
					File(responseFile)
			}

			prompter := &scriptedPrompter{codes: test.codes}
			client := newTestClient(t, prompter, test.cfg)
			// Lets ensure we wont reach the real okta API
			gock.DisableNetworking()

			token, err := client.Authenticate(username, password)
			switch {
			case test.sentinel != nil:
				assert.ErrorIs(t, err, test.sentinel)
				if test.errMsg != "" {
					assert.EqualError(t, err, test.errMsg)
				}
			case test.errMsg != "":
				if assert.Error(t, err) {
					assert.EqualError(t, err, test.errMsg)
				}
			default:
				assert.NoError(t, err)
				assert.Equal(t, test.token, token)
			}
			assert.Len(t, prompter.notices, test.notices)
			assert.Empty(t, prompter.codes, "every scripted code must be consumed")
			assert.True(t, gock.IsDone(), "every mocked request must be consumed")
		})
	}
}

func TestAuthenticateUnknownStatus(t *testing.T) {
	defer gock.Off()
	gock.Clean()
	gock.Flush()

	gock.New(oktaEndpoint).
		Post("/api/v1/authn").
		Reply(http.StatusOK).
		JSON(map[string]string{"status": "RECOVERY_CHALLENGE"})

	client := newTestClient(t, &scriptedPrompter{}, nil)
	gock.DisableNetworking()

	_, err := client.Authenticate(username, password)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestAuthenticateAPIError(t *testing.T) {
	defer gock.Off()
	gock.Clean()
	gock.Flush()

	gock.New(oktaEndpoint).
		Post("/api/v1/authn").
		Reply(http.StatusUnauthorized).
		File("../../testing/fixtures/oktaAuthn/api_error.json")

	client := newTestClient(t, &scriptedPrompter{}, nil)
	gock.DisableNetworking()

	_, err := client.Authenticate(username, password)
	if assert.Error(t, err) {
		assert.ErrorIs(t, err, session.ErrHTTPStatus)
		assert.Contains(t, err.Error(), "Authentication failed")
	}
}

func TestAuthenticateWebauthnDeclinedFallsBack(t *testing.T) {
	defer gock.Off()
	gock.Clean()
	gock.Flush()

	gock.New(oktaEndpoint).
		Post("/api/v1/authn").
		Reply(http.StatusOK).
		File("../../testing/fixtures/oktaAuthn/preauth_mfa_required_webauthn.json")
	gock.New(oktaEndpoint).
		Post(pushVerifyPath).
		Reply(http.StatusOK).
		File("../../testing/fixtures/oktaAuthn/mfa_success.json")

	sess, err := session.New(nil)
	assert.NoError(t, err)
	gock.InterceptClient(sess.HTTPClient())

	// accept stays false: the insert-a-device question is declined, which
	// must fall through to the next ranked factor instead of failing
	prompter := &scriptedPrompter{}
	client := New(sess, oktaDomain, prompter, prompter, &Config{
		FactorPriorities: map[string]int{
			FactorTypeWebauthn: 5,
			FactorTypePush:     1,
		},
	})
	gock.DisableNetworking()

	token, err := client.Authenticate(username, password)
	assert.NoError(t, err)
	assert.Equal(t, sessionToken, token)
	// the insert-device notice fired exactly once before the decline
	assert.Len(t, prompter.notices, 1)
	assert.True(t, gock.IsDone(), "the push factor must have been verified")
}

func TestWebauthnSupportsNeedsInteraction(t *testing.T) {
	factor := Factor{FactorType: FactorTypeWebauthn}

	withoutInteraction := newTestClient(t, &scriptedPrompter{}, nil)
	assert.Nil(t, withoutInteraction.handlerFor(factor))

	sess, err := session.New(nil)
	assert.NoError(t, err)
	withInteraction := New(sess, oktaDomain, &scriptedPrompter{}, &scriptedPrompter{}, nil)
	assert.NotNil(t, withInteraction.handlerFor(factor))
}
