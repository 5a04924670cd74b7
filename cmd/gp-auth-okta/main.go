// SPDX-FileCopyrightText: 2024-Present gp-auth-okta authors
//
// SPDX-License-Identifier: MPL-2.0
//
// Copyright 2024-Present gp-auth-okta authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"errors"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openconnect-tools/gp-auth-okta/pkg/login"
	"github.com/openconnect-tools/gp-auth-okta/pkg/oktaAuthn"
)

var (
	cfgFile          string
	debug            bool
	trace            bool
	factorPriorities map[string]int
)

func newRootCmd(cfg *login.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gp-auth-okta [flags] [gateway] [-- openconnect args...]",
		Short: "Log in to a GlobalProtect VPN through Okta SAML and hand off to openconnect",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logLevel := ""
			if debug {
				logLevel = "DEBUG"
			}
			if trace {
				logLevel = "TRACE"
			}
			login.SetupLogger(logLevel)

			if err := cfg.LoadFile(cfgFile); err != nil {
				return err
			}
			// CLI flags win over file values
			if err := applyFlags(cmd, cfg, args); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			rc, err := login.Run(cfg)
			if err != nil {
				reportFailure(err)
				os.Exit(1)
			}
			os.Exit(rc)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "path to the ini configuration file")
	cmd.Flags().StringP("username", "u", "", "Okta username")
	cmd.Flags().String("password", "", "Okta password, prefer password-cmd or the prompt")
	cmd.Flags().String("password-cmd", "", "command printing the password on stdout")
	cmd.Flags().String("totp-key", "", "TOTP secret used to compute one-time codes locally")
	cmd.Flags().String("totp-key-cmd", "", "command printing the TOTP secret on stdout")
	cmd.Flags().String("interface", "", "prelogin interface, gateway or portal")
	cmd.Flags().String("clientos", "", "OS reported to the gateway: Windows, Linux or Mac")
	cmd.Flags().StringToIntVar(&factorPriorities, "factor-priority", nil, "factorType=rank pairs, highest rank tried first")
	cmd.Flags().Bool("sudo", false, "run openconnect through sudo")
	cmd.Flags().Bool("legacy-tls", false, "accept TLS 1.0 and unsafe renegotiation for old gateways")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	cmd.Flags().BoolVar(&trace, "trace", false, "enable trace logging")
	return cmd
}

// applyFlags overlays explicitly set flags and positional arguments on
// the file-derived config.
func applyFlags(cmd *cobra.Command, cfg *login.Config, args []string) error {
	if len(args) > 0 {
		cfg.Gateway = args[0]
		if len(args) > 1 {
			// everything after the gateway goes to openconnect verbatim and
			// replaces openconnect-args from the file
			cfg.ExtraArgs = args[1:]
		}
	}
	stringFlags := map[string]*string{
		"username":     &cfg.Username,
		"password":     &cfg.Password,
		"password-cmd": &cfg.PasswordCmd,
		"totp-key":     &cfg.TOTPKey,
		"totp-key-cmd": &cfg.TOTPKeyCmd,
		"interface":    &cfg.Interface,
		"clientos":     &cfg.ClientOS,
	}
	for name, dest := range stringFlags {
		if cmd.Flags().Changed(name) {
			val, err := cmd.Flags().GetString(name)
			if err != nil {
				return err
			}
			*dest = val
		}
	}
	boolFlags := map[string]*bool{
		"sudo":       &cfg.Sudo,
		"legacy-tls": &cfg.LegacyTLS,
	}
	for name, dest := range boolFlags {
		if cmd.Flags().Changed(name) {
			val, err := cmd.Flags().GetBool(name)
			if err != nil {
				return err
			}
			*dest = val
		}
	}
	for factorType, rank := range factorPriorities {
		cfg.FactorPriorities[factorType] = rank
	}
	return nil
}

// reportFailure logs the failure with a user-facing hint for the
// well-known authentication outcomes.
func reportFailure(err error) {
	switch {
	case errors.Is(err, oktaAuthn.ErrLockedOut):
		log.Error("Okta account locked out, contact your administrator")
	case errors.Is(err, oktaAuthn.ErrPasswordExpired):
		log.Error("Okta password expired, renew it in a browser first")
	case errors.Is(err, oktaAuthn.ErrEnrollRequired):
		log.Error("MFA enrollment required, enroll a factor in a browser first")
	case errors.Is(err, oktaAuthn.ErrNoUsableFactor):
		log.Error("None of the enrolled MFA factors could be used")
	case errors.Is(err, oktaAuthn.ErrMFAFailed):
		log.Error("MFA verification failed, approve or retry the challenge")
	}
	log.Errorf("%s", err)
}

func main() {
	cfg := login.NewConfig()
	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}
