// SPDX-FileCopyrightText: 2024-Present gp-auth-okta authors
//
// SPDX-License-Identifier: MPL-2.0
//
// Copyright 2024-Present gp-auth-okta authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package launcher hands the gateway session cookie to the downstream
// VPN client and runs the configured credential helper commands.
package launcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/openconnect-tools/gp-auth-okta/pkg/saml"
)

// Options describes how the VPN client is launched.
type Options struct {
	Gateway string

	// Interface the login ran against, gateway or portal. Becomes the
	// usergroup openconnect authenticates under.
	Interface string

	// ClientOS declared during prelogin, kept consistent on the tunnel
	ClientOS string

	// Sudo prefixes the command, openconnect needs root to set up the tun
	Sudo bool

	// ExtraArgs are passed to openconnect verbatim
	ExtraArgs []string
}

// BuildArgs assembles the openconnect command line. The cookie is NOT
// part of it: it travels over stdin so it never shows up in process
// listings.
func BuildArgs(cred *saml.Credential, opts *Options) []string {
	args := []string{
		"openconnect",
		opts.Gateway,
		"--protocol=gp",
		fmt.Sprintf("--user=%s", cred.Username),
		fmt.Sprintf("--usergroup=%s:%s", opts.Interface, cred.CookieName),
		"--passwd-on-stdin",
	}
	if osTag := openconnectOS(opts.ClientOS); osTag != "" {
		args = append(args, fmt.Sprintf("--os=%s", osTag))
	}
	args = append(args, opts.ExtraArgs...)
	if opts.Sudo {
		args = append([]string{"sudo"}, args...)
	}
	return args
}

// openconnectOS maps the prelogin OS tag onto openconnect's --os values.
func openconnectOS(clientOS string) string {
	switch clientOS {
	case "Windows":
		return "win"
	case "Linux":
		return "linux-64"
	case "Mac":
		return "mac-intel"
	}
	return ""
}

// Run launches the VPN client, feeds it the session cookie on stdin,
// forwards termination signals, and blocks until it exits. Returns the
// client's exit code.
func Run(cred *saml.Credential, opts *Options) (int, error) {
	args := BuildArgs(cred, opts)
	log.Infof("launching %s", args[0])

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return 1, err
	}
	if err = cmd.Start(); err != nil {
		return 1, err
	}

	// the tunnel runs for as long as the user wants it, relay SIGINT and
	// SIGTERM to the child instead of dying around it
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		for sig := range signals {
			_ = cmd.Process.Signal(sig)
		}
	}()

	if _, err = io.WriteString(stdin, cred.CookieValue+"\n"); err != nil {
		_ = cmd.Process.Kill()
		return 1, fmt.Errorf("passing cookie to %s: %w", args[0], err)
	}
	_ = stdin.Close()

	if err = cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return 1, err
	}
	return 0, nil
}
