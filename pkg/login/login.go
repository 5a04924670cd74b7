// SPDX-FileCopyrightText: 2024-Present gp-auth-okta authors
//
// SPDX-License-Identifier: MPL-2.0
//
// Copyright 2024-Present gp-auth-okta authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package login wires one full login attempt together: configuration,
// credential acquisition, the prelogin/authn/SAML pipeline, and the
// handoff to the VPN client.
package login

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"
	log "github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"

	"github.com/openconnect-tools/gp-auth-okta/pkg/launcher"
	"github.com/openconnect-tools/gp-auth-okta/pkg/oktaAuthn"
	"github.com/openconnect-tools/gp-auth-okta/pkg/saml"
	"github.com/openconnect-tools/gp-auth-okta/pkg/session"
)

// SetupLogger installs the run-scoped log format. The uuid correlates
// log lines of one run when several invocations share a terminal or a
// log file.
func SetupLogger(logLevel string) {
	luuid := uuid.NewString()
	log.SetFormatter(&easy.Formatter{
		TimestampFormat: time.ANSIC,
		LogFormat:       fmt.Sprintf("%%time%% [gp-auth-okta:%s](%%lvl%%): %%msg%%\n", luuid),
	})
	switch logLevel {
	case "DEBUG":
		log.SetLevel(log.DebugLevel)
	case "TRACE":
		log.SetLevel(log.TraceLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// resolveCredentials fills in username, password and TOTP key from the
// configured helper commands or interactive prompts.
func resolveCredentials(cfg *Config, prompter ConsolePrompter) error {
	var err error
	if cfg.TOTPKeyCmd != "" {
		if cfg.TOTPKey, err = launcher.RunHelper(cfg.TOTPKeyCmd, "totp-key-cmd"); err != nil {
			return err
		}
	}
	if cfg.Username == "" {
		if cfg.Username, err = prompter.Input("Username"); err != nil {
			return err
		}
	}
	if cfg.PasswordCmd != "" {
		if cfg.Password, err = launcher.RunHelper(cfg.PasswordCmd, "password-cmd"); err != nil {
			return err
		}
	}
	if cfg.Password == "" {
		if cfg.Password, err = prompter.Password("Password"); err != nil {
			return err
		}
	}
	return nil
}

// factorPriorities merges the configured ranks over the defaults.
func factorPriorities(cfg *Config) map[string]int {
	priorities := oktaAuthn.DefaultPriorities(cfg.TOTPKey != "")
	for factorType, rank := range cfg.FactorPriorities {
		priorities[factorType] = rank
	}
	return priorities
}

// Run performs one complete login and hands the resulting cookie to
// the VPN client. Returns the VPN client's exit code.
func Run(cfg *Config) (int, error) {
	prompter := ConsolePrompter{}
	if err := resolveCredentials(cfg, prompter); err != nil {
		return 1, err
	}

	sess, err := session.New(&session.Config{LegacyTLS: cfg.LegacyTLS})
	if err != nil {
		return 1, err
	}

	samlReqURL, err := saml.Prelogin(sess, cfg.Gateway, cfg.ClientOS, cfg.Interface)
	if err != nil {
		return 1, err
	}
	idpURL, err := url.Parse(samlReqURL)
	if err != nil {
		return 1, err
	}
	log.Debugf("SAML request redirects to %s", idpURL.Host)

	authn := oktaAuthn.New(sess, idpURL.Host, prompter, prompter, &oktaAuthn.Config{
		MFAPushMaxRetries:   cfg.MFAPushMaxRetries,
		MFAPushDelaySeconds: cfg.MFAPushDelaySeconds,
		FactorPriorities:    factorPriorities(cfg),
		TOTPKey:             cfg.TOTPKey,
	})

	form, err := saml.OktaSAML(sess, authn, cfg.Username, cfg.Password, samlReqURL)
	if err != nil {
		return 1, err
	}
	cred, err := saml.CompleteSAML(sess, form)
	if err != nil {
		return 1, err
	}

	extraArgs := cfg.ExtraArgs
	if len(extraArgs) == 0 && cfg.OpenconnectArgs != "" {
		if extraArgs, err = shellquote.Split(cfg.OpenconnectArgs); err != nil {
			return 1, fmt.Errorf("can not parse openconnect-args: %w", err)
		}
	}
	return launcher.Run(cred, &launcher.Options{
		Gateway:   cfg.Gateway,
		Interface: cfg.Interface,
		ClientOS:  cfg.ClientOS,
		Sudo:      cfg.Sudo,
		ExtraArgs: extraArgs,
	})
}
