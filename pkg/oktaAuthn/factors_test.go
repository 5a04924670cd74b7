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
	"testing"

	"github.com/stretchr/testify/assert"
)

type sortTest struct {
	testName   string
	priorities map[string]int
	factors    []Factor
	expected   []string
}

func factorList(types ...string) []Factor {
	factors := make([]Factor, 0, len(types))
	for _, t := range types {
		factors = append(factors, Factor{FactorType: t})
	}
	return factors
}

func factorTypes(factors []Factor) []string {
	types := make([]string, 0, len(factors))
	for _, f := range factors {
		types = append(types, f.FactorType)
	}
	return types
}

func TestSortFactors(t *testing.T) {
	tests := []sortTest{
		{
			"default priorities put push first",
			DefaultPriorities(false),
			factorList(FactorTypeTOTP, FactorTypePush, FactorTypeSMS),
			[]string{FactorTypePush, FactorTypeTOTP, FactorTypeSMS},
		},

		{
			"configured TOTP secret outranks push",
			DefaultPriorities(true),
			factorList(FactorTypeSMS, FactorTypePush, FactorTypeTOTP),
			[]string{FactorTypeTOTP, FactorTypePush, FactorTypeSMS},
		},

		{
			"explicit rank wins over the defaults",
			map[string]int{FactorTypeSMS: 5, FactorTypePush: 1},
			factorList(FactorTypeTOTP, FactorTypePush, FactorTypeSMS),
			[]string{FactorTypeSMS, FactorTypePush, FactorTypeTOTP},
		},

		{
			"equal ranks keep the server order",
			map[string]int{},
			factorList(FactorTypeTOTP, FactorTypeSMS, FactorTypeWebauthn),
			[]string{FactorTypeTOTP, FactorTypeSMS, FactorTypeWebauthn},
		},
	}

	for _, test := range tests {
		t.Run(test.testName, func(t *testing.T) {
			sorted := sortFactors(test.factors, test.priorities)
			assert.Equal(t, test.expected, factorTypes(sorted))

			// re-sorting a sorted list changes nothing
			assert.Equal(t, test.expected, factorTypes(sortFactors(sorted, test.priorities)))
		})
	}
}

func TestSortFactorsDoesNotMutateInput(t *testing.T) {
	factors := factorList(FactorTypeTOTP, FactorTypePush)
	_ = sortFactors(factors, DefaultPriorities(false))
	assert.Equal(t, []string{FactorTypeTOTP, FactorTypePush}, factorTypes(factors))
}

func TestDefaultPriorities(t *testing.T) {
	withoutKey := DefaultPriorities(false)
	assert.Equal(t, 1, withoutKey[FactorTypePush])
	assert.Equal(t, 0, withoutKey[FactorTypeTOTP])

	withKey := DefaultPriorities(true)
	assert.Equal(t, 1, withKey[FactorTypePush])
	assert.Equal(t, 2, withKey[FactorTypeTOTP])
}
