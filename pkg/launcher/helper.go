// SPDX-FileCopyrightText: 2024-Present gp-auth-okta authors
//
// SPDX-License-Identifier: MPL-2.0
//
// Copyright 2024-Present gp-auth-okta authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package launcher

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
	log "github.com/sirupsen/logrus"
)

// RunHelper executes a configured credential helper (password-cmd,
// totp-key-cmd) and returns the first line of its stdout. confvar
// names the config option in diagnostics.
func RunHelper(cmdline, confvar string) (string, error) {
	words, err := shellquote.Split(cmdline)
	if err != nil || len(words) == 0 {
		return "", fmt.Errorf("can not parse %s command: %v", confvar, err)
	}

	var stderr bytes.Buffer
	cmd := exec.Command(words[0], words[1:]...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		log.Errorf("%s command failed: %s", confvar, err)
		if stderr.Len() > 0 {
			log.Errorf("%s", stderr.String())
		}
		return "", fmt.Errorf("%s command failed: %w", confvar, err)
	}

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return "", fmt.Errorf("%s command produced no output", confvar)
	}
	if len(lines) > 1 {
		log.Warningf("%s command produced more than one line of output, using the first one", confvar)
	}
	return lines[0], nil
}
