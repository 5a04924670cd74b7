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
	"slices"
	"sort"
)

// FactorHandler services one MFA modality. Verify runs the whole
// challenge/proof/verify sub-protocol for its factor and returns the
// resulting transaction state.
type FactorHandler interface {
	Supports(factor Factor) bool
	Verify(factor Factor, state *AuthResult) (*AuthResult, error)
}

// sortFactors orders factors by descending priority. The sort is
// stable: factor types sharing a rank keep the order Okta listed them
// in, and re-sorting a sorted list is a no-op.
func sortFactors(factors []Factor, priorities map[string]int) []Factor {
	sorted := slices.Clone(factors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return priorities[sorted[i].FactorType] > priorities[sorted[j].FactorType]
	})
	return sorted
}
