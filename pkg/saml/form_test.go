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
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openconnect-tools/gp-auth-okta/pkg/oktaAuthn"
)

func TestExtractForm(t *testing.T) {
	body, err := os.ReadFile("../../testing/fixtures/saml/saml_response.html")
	assert.NoError(t, err)

	form, err := extractForm(body)
	assert.NoError(t, err)
	assert.Equal(t, "https://gateway.example.com/SAML20/SP/ACS", form.URL)
	assert.Equal(t, map[string]string{
		"SAMLResponse": "PHNhbWxwOlJlc3BvbnNlIElEPSJfMTMzOCIvPg==",
		"RelayState":   "/ssl-vpn",
	}, form.Fields)
}

func TestExtractFormNoForm(t *testing.T) {
	body, err := os.ReadFile("../../testing/fixtures/saml/no_form.html")
	assert.NoError(t, err)

	_, err = extractForm(body)
	assert.ErrorIs(t, err, oktaAuthn.ErrProtocol)
}

func TestExtractFormNoAction(t *testing.T) {
	body := []byte(`<html><body><form method="POST"><input name="a" value="b"/></form></body></html>`)
	_, err := extractForm(body)
	assert.ErrorIs(t, err, oktaAuthn.ErrProtocol)
}

func TestExtractFormFirstFormWins(t *testing.T) {
	body := []byte(`<html><body>
<form method="POST" action="https://first.example.com/post"><input name="one" value="1"/></form>
<form method="POST" action="https://second.example.com/post"><input name="two" value="2"/></form>
</body></html>`)
	form, err := extractForm(body)
	assert.NoError(t, err)
	assert.Equal(t, "https://first.example.com/post", form.URL)
	assert.Equal(t, map[string]string{"one": "1"}, form.Fields)
}
