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
	"bytes"
	"fmt"

	"golang.org/x/net/html"

	"github.com/openconnect-tools/gp-auth-okta/pkg/oktaAuthn"
)

// Form is an HTML auto-submit form: the POST target and its hidden
// input fields. Produced twice per login (the SAML request toward Okta
// and the SAML response back to the gateway) and never reused.
type Form struct {
	URL    string
	Fields map[string]string
}

// extractForm parses an HTML document and returns its first <form>
// element. Both Okta and the gateway wrap their SAML payloads in a
// single auto-submitting form, so the first one is authoritative.
func extractForm(body []byte) (*Form, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	node := findElement(doc, "form")
	if node == nil {
		return nil, fmt.Errorf("no form in HTML document: %w", oktaAuthn.ErrProtocol)
	}

	form := &Form{
		URL:    attrValue(node, "action"),
		Fields: map[string]string{},
	}
	collectInputs(node, form.Fields)
	if form.URL == "" {
		return nil, fmt.Errorf("form without action target: %w", oktaAuthn.ErrProtocol)
	}
	return form, nil
}

// findElement returns the first element named tag, depth first.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func collectInputs(n *html.Node, fields map[string]string) {
	if n.Type == html.ElementNode && n.Data == "input" {
		if name := attrValue(n, "name"); name != "" {
			fields[name] = attrValue(n, "value")
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectInputs(child, fields)
	}
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
