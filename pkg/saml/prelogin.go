// SPDX-FileCopyrightText: 2024-Present gp-auth-okta authors
//
// SPDX-License-Identifier: MPL-2.0
//
// Copyright 2024-Present gp-auth-okta authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package saml bridges the GlobalProtect prelogin handshake to the
// Okta identity provider and relays the SAML response back into a
// gateway session cookie.
package saml

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"net/url"

	log "github.com/sirupsen/logrus"

	"github.com/openconnect-tools/gp-auth-okta/pkg/oktaAuthn"
	"github.com/openconnect-tools/gp-auth-okta/pkg/session"
)

// Gateway interface modes, selecting the prelogin path and the
// usergroup the VPN client later authenticates under.
const (
	InterfaceGateway = "gateway"
	InterfacePortal  = "portal"
)

const (
	preloginPathGateway = "/ssl-vpn/prelogin.esp"
	preloginPathPortal  = "/global-protect/prelogin.esp"

	// protocol version tag expected by current PAN-OS releases
	preloginClientVer = "4100"
)

type preloginResponse struct {
	XMLName     xml.Name `xml:"prelogin-response"`
	Status      string   `xml:"status"`
	Message     string   `xml:"msg"`
	SAMLMethod  string   `xml:"saml-auth-method"`
	SAMLRequest string   `xml:"saml-request"`
}

// Prelogin queries the gateway's prelogin endpoint and reconstructs the
// embedded SAML authentication request as a single GET URL toward the
// identity provider. Any malformed or non-SAML response is fatal.
func Prelogin(sess *session.Session, gateway, clientOS, iface string) (string, error) {
	path := preloginPathGateway
	if iface == InterfacePortal {
		path = preloginPathPortal
	}

	reply, err := sess.PostForm(fmt.Sprintf("https://%s%s", gateway, path), url.Values{
		"tmp":              {"tmp"},
		"kerberos-support": {"yes"},
		"ipv6-support":     {"yes"},
		"clientVer":        {preloginClientVer},
		"clientos":         {clientOS},
	})
	if err != nil {
		return "", err
	}

	var prelogin preloginResponse
	if err = xml.Unmarshal(reply.Body, &prelogin); err != nil {
		return "", fmt.Errorf("malformed prelogin response: %v: %w", err, oktaAuthn.ErrProtocol)
	}
	if prelogin.SAMLRequest == "" {
		if prelogin.Message != "" {
			return "", fmt.Errorf("no saml-request in prelogin response (%s): %w",
				prelogin.Message,
				oktaAuthn.ErrProtocol)
		}
		return "", fmt.Errorf("no saml-request in prelogin response: %w", oktaAuthn.ErrProtocol)
	}
	if prelogin.SAMLMethod != "" {
		log.Debugf("gateway saml-auth-method: %s", prelogin.SAMLMethod)
	}

	samlReqHTML, err := base64.StdEncoding.DecodeString(prelogin.SAMLRequest)
	if err != nil {
		return "", fmt.Errorf("undecodable saml-request payload: %v: %w", err, oktaAuthn.ErrProtocol)
	}
	form, err := extractForm(samlReqHTML)
	if err != nil {
		return "", err
	}
	if _, ok := form.Fields["SAMLRequest"]; !ok {
		return "", fmt.Errorf("prelogin form without SAMLRequest field: %w", oktaAuthn.ErrProtocol)
	}

	query := url.Values{}
	for name, value := range form.Fields {
		query.Set(name, value)
	}
	return fmt.Sprintf("%s?%s", form.URL, query.Encode()), nil
}
