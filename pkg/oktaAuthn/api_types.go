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

// Transaction statuses of the Okta authn API
// https://developer.okta.com/docs/reference/api/authn/#transaction-state
const (
	StatusSuccess           = "SUCCESS"
	StatusMFARequired       = "MFA_REQUIRED"
	StatusMFAChallenge      = "MFA_CHALLENGE"
	StatusLockedOut         = "LOCKED_OUT"
	StatusPasswordExpired   = "PASSWORD_EXPIRED"
	StatusMFAEnroll         = "MFA_ENROLL"
	StatusMFAEnrollActivate = "MFA_ENROLL_ACTIVATE"

	factorResultWaiting = "WAITING"
)

const (
	FactorTypePush     = "push"
	FactorTypeSMS      = "sms"
	FactorTypeTOTP     = "token:software:totp"
	FactorTypeWebauthn = "webauthn"
)

// AuthResult is the state the authn API reports after every call: the
// current transaction status, the continuation token, and whatever the
// pending step embeds (offered factors, push challenge, WebAuthn
// challenge). A stateToken is only valid for the next call of the same
// attempt.
type AuthResult struct {
	Status       string       `json:"status" validate:"required"`
	StateToken   string       `json:"stateToken"`
	SessionToken string       `json:"sessionToken"`
	FactorResult string       `json:"factorResult"`
	Embedded     AuthEmbedded `json:"_embedded"`
	Links        AuthLinks    `json:"_links"`
}

type AuthEmbedded struct {
	Factors   []Factor   `json:"factors"`
	Factor    *Factor    `json:"factor"`
	Challenge *Challenge `json:"challenge"`
}

type AuthLinks struct {
	Next *Link `json:"next"`
}

type Link struct {
	Href string `json:"href"`
}

// Factor is an immutable snapshot of one MFA option offered by Okta,
// with the protocol links and metadata its handler needs.
type Factor struct {
	Id         string         `json:"id"`
	FactorType string         `json:"factorType" validate:"required"`
	Provider   string         `json:"provider"`
	VendorName string         `json:"vendorName"`
	Profile    FactorProfile  `json:"profile"`
	Links      FactorLinks    `json:"_links"`
	Embedded   FactorEmbedded `json:"_embedded"`
}

type FactorProfile struct {
	CredentialId string `json:"credentialId"`
	PhoneNumber  string `json:"phoneNumber"`
}

type FactorLinks struct {
	Verify *Link `json:"verify"`
}

type FactorEmbedded struct {
	Challenge *Challenge `json:"challenge"`
}

// Challenge carries the WebAuthn nonce for webauthn factors, and the
// number-matching answer for push factors when the org has it enabled.
type Challenge struct {
	Challenge     string `json:"challenge"`
	CorrectAnswer *int   `json:"correctAnswer"`
}

// statePayload is the request body shared by every verify call; an
// empty PassCode is omitted on the wire.
type statePayload struct {
	StateToken string `json:"stateToken"`
	PassCode   string `json:"passCode,omitempty"`
}

// webauthnPayload submits a canonicalized WebAuthn assertion.
type webauthnPayload struct {
	StateToken        string `json:"stateToken"`
	AuthenticatorData string `json:"authenticatorData"`
	ClientData        string `json:"clientData"`
	SignatureData     string `json:"signatureData"`
}
