// SPDX-FileCopyrightText: 2024-Present gp-auth-okta authors
//
// SPDX-License-Identifier: MPL-2.0
//
// Copyright 2024-Present gp-auth-okta authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package login

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
)

// ConsolePrompter is the interactive adapter behind both user-facing
// capability interfaces: oktaAuthn.Prompter for MFA codes and
// questions, fido.Interaction for the hardware key ceremony. Headless
// or scripted adapters can replace it without touching the handlers.
type ConsolePrompter struct{}

func (ConsolePrompter) Code(label string) (string, error) {
	var code string
	err := survey.AskOne(&survey.Input{Message: label + ":"}, &code, survey.WithValidator(survey.Required))
	return code, err
}

func (ConsolePrompter) Notify(msg string) {
	fmt.Println(msg)
}

func (ConsolePrompter) Confirm(question string) bool {
	answer := true
	if err := survey.AskOne(&survey.Confirm{Message: question, Default: true}, &answer); err != nil {
		return false
	}
	return answer
}

func (ConsolePrompter) PromptPresence() {
	fmt.Println("Touch your hardware key to confirm user presence")
}

// Input asks for a visible value, used for the username.
func (ConsolePrompter) Input(label string) (string, error) {
	var value string
	err := survey.AskOne(&survey.Input{Message: label + ":"}, &value, survey.WithValidator(survey.Required))
	return value, err
}

// Password asks for a hidden value.
func (ConsolePrompter) Password(label string) (string, error) {
	var value string
	err := survey.AskOne(&survey.Password{Message: label + ":"}, &value, survey.WithValidator(survey.Required))
	return value, err
}
