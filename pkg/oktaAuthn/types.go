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
	"github.com/openconnect-tools/gp-auth-okta/pkg/fido"
	"github.com/openconnect-tools/gp-auth-okta/pkg/session"
)

// Prompter is how the engine reaches the user for out-of-band input:
// one-time codes, push number matching, hardware key fallback. The
// console implementation lives in pkg/login; tests substitute a
// scripted one.
type Prompter interface {
	// Code asks for a one-time code
	Code(label string) (string, error)

	// Notify surfaces a message that needs no answer
	Notify(msg string)

	// Confirm asks a yes/no question
	Confirm(question string) bool
}

// Config tunes the MFA behaviour of a Client
type Config struct {
	// Number of retries when waiting for a push approval
	MFAPushMaxRetries int // default = 20

	// Number of seconds to wait between push approval checks
	MFAPushDelaySeconds int // default = 3

	// FactorPriorities ranks factor types, higher wins. Factors sort by
	// descending rank, ties keep the order Okta returned them in.
	FactorPriorities map[string]int

	// TOTPKey is the shared TOTP secret; when set, one-time codes for
	// token:software:totp factors are computed without prompting.
	TOTPKey string
}

// DefaultPriorities biases factor selection toward push, and toward
// TOTP when a TOTP secret is configured.
func DefaultPriorities(totpConfigured bool) map[string]int {
	totpRank := 0
	if totpConfigured {
		totpRank = 2
	}
	return map[string]int{
		FactorTypePush: 1,
		FactorTypeTOTP: totpRank,
	}
}

// Client drives one Okta authentication transaction: primary
// credentials first, then whichever MFA factor wins selection.
type Client struct {
	sess        *session.Session
	domain      string
	prompter    Prompter
	interaction fido.Interaction
	cfg         *Config
	handlers    []FactorHandler
}

// New prepares a Client for the Okta org at domain, reusing the login
// attempt's transport session.
func New(sess *session.Session, domain string, prompter Prompter, interaction fido.Interaction, cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.MFAPushMaxRetries == 0 {
		cfg.MFAPushMaxRetries = 20
	}
	if cfg.MFAPushDelaySeconds == 0 {
		cfg.MFAPushDelaySeconds = 3
	}
	if cfg.FactorPriorities == nil {
		cfg.FactorPriorities = DefaultPriorities(cfg.TOTPKey != "")
	}

	c := &Client{
		sess:        sess,
		domain:      domain,
		prompter:    prompter,
		interaction: interaction,
		cfg:         cfg,
	}
	c.handlers = []FactorHandler{
		&pushHandler{c},
		&totpHandler{c},
		&smsHandler{c},
		&webauthnHandler{c},
	}
	return c
}

// Domain returns the Okta org this client talks to.
func (c *Client) Domain() string {
	return c.domain
}
