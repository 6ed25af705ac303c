// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package eligibility combines the registry and roster to decide who may
// vote in an election and which candidates appear on the ballot.
package eligibility
