// SPDX-FileCopyrightText: 2024-Present gp-auth-okta authors
//
// SPDX-License-Identifier: MPL-2.0
//
// Copyright 2024-Present gp-auth-okta authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package saml

import (
	"fmt"
	"net/url"

	log "github.com/sirupsen/logrus"

	"github.com/openconnect-tools/gp-auth-okta/pkg/oktaAuthn"
	"github.com/openconnect-tools/gp-auth-okta/pkg/session"
)

// The gateway hands its session cookie back under exactly one of these
// headers, depending on which interface completed the login.
const (
	CookiePrelogin   = "prelogin-cookie"
	CookiePortalAuth = "portal-userauthcookie"

	usernameHeader = "saml-username"
)

// Credential is the sole output of a login attempt, consumed by the
// VPN client handoff.
type Credential struct {
	Username    string
	CookieName  string
	CookieValue string
}

// OktaSAML completes the identity provider half of the SAML flow:
// primes the Okta tracking cookie, authenticates (including MFA), then
// exchanges the session token for the SAML response form addressed to
// the gateway.
func OktaSAML(sess *session.Session, authn *oktaAuthn.Client, username, password, samlReqURL string) (*Form, error) {
	// GET only for its cookie side effect, the body is irrelevant
	if _, err := sess.Get(samlReqURL); err != nil {
		return nil, err
	}

	token, err := authn.Authenticate(username, password)
	if err != nil {
		return nil, err
	}

	redirect := url.Values{
		"token":       {token},
		"redirectUrl": {samlReqURL},
	}
	reply, err := sess.Get(fmt.Sprintf("https://%s/login/sessionCookieRedirect?%s",
		authn.Domain(),
		redirect.Encode()))
	if err != nil {
		return nil, err
	}

	form, err := extractForm(reply.Body)
	if err != nil {
		return nil, err
	}
	if _, ok := form.Fields["SAMLResponse"]; !ok {
		return nil, fmt.Errorf("session redirect form without SAMLResponse field: %w", oktaAuthn.ErrProtocol)
	}
	return form, nil
}

// CompleteSAML resubmits the SAML response form to the gateway and
// extracts the session cookie from the response headers. The response
// must carry exactly one of the two recognized cookie headers, any
// other shape is an unrecoverable protocol mismatch.
func CompleteSAML(sess *session.Session, form *Form) (*Credential, error) {
	data := url.Values{}
	for name, value := range form.Fields {
		data.Set(name, value)
	}
	reply, err := sess.PostForm(form.URL, data)
	if err != nil {
		return nil, err
	}

	prelogin := reply.Header.Get(CookiePrelogin)
	portal := reply.Header.Get(CookiePortalAuth)
	cred := &Credential{Username: reply.Header.Get(usernameHeader)}
	switch {
	case prelogin != "" && portal != "":
		return nil, fmt.Errorf("gateway returned both %s and %s: %w",
			CookiePrelogin,
			CookiePortalAuth,
			oktaAuthn.ErrProtocol)
	case prelogin != "":
		cred.CookieName, cred.CookieValue = CookiePrelogin, prelogin
	case portal != "":
		cred.CookieName, cred.CookieValue = CookiePortalAuth, portal
	default:
		return nil, fmt.Errorf("gateway returned no session cookie header: %w", oktaAuthn.ErrProtocol)
	}
	if cred.Username == "" {
		return nil, fmt.Errorf("gateway returned no %s header: %w", usernameHeader, oktaAuthn.ErrProtocol)
	}

	log.Debugf("received %s for %s", cred.CookieName, cred.Username)
	return cred, nil
}
