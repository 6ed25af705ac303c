// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package roster holds the students registered for each election, their
// candidate flags and whether they have voted. Contacts are normalized on
// the way in (see NormalizeContact) so that voter lookups are exact matches.
package roster
