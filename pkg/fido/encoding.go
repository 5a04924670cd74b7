// SPDX-FileCopyrightText: 2024-Present gp-auth-okta authors
//
// SPDX-License-Identifier: MPL-2.0
//
// Copyright 2024-Present gp-auth-okta authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package fido

import "encoding/base64"

// The authenticator stack speaks websafe base64 (url alphabet, no
// padding) while the Okta API wants standard base64. Assertion fields
// must go through a decode/re-encode round trip before submission.

// WebsafeEncode encodes raw bytes in the unpadded url-safe alphabet.
func WebsafeEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// WebsafeDecode accepts unpadded url-safe base64.
func WebsafeDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

// Canonicalize re-expresses a websafe base64 value as the standard,
// padded base64 the Okta verify endpoint accepts.
func Canonicalize(s string) (string, error) {
	raw, err := WebsafeDecode(s)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
