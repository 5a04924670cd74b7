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

import "errors"

var (
	// ErrProtocol marks a response that violates the expected contract:
	// a missing field, an unknown status, an absent link. Never retried.
	ErrProtocol = errors.New("unexpected protocol response")

	// ErrLockedOut: Okta reports the account locked, fatal at any step.
	ErrLockedOut = errors.New("user locked out of Okta")

	// ErrNoUsableFactor: every offered MFA factor was unsupported or declined.
	ErrNoUsableFactor = errors.New("no supported authentication factor")

	// ErrMFAFailed: the chosen factor ran its full sub-protocol and was
	// rejected or timed out. Fatal, the transaction is cancelled.
	ErrMFAFailed = errors.New("MFA failed")

	// ErrUserCancelled: the user declined the hardware key wait. Triggers
	// fallback to the next factor instead of failing the attempt.
	ErrUserCancelled = errors.New("cancelled by user")

	// ErrPasswordExpired, ErrEnrollRequired: conditions the engine can not
	// resolve, the user has to visit the Okta console first.
	ErrPasswordExpired = errors.New("user password expired")
	ErrEnrollRequired  = errors.New("user needs to enroll an MFA factor")
)
