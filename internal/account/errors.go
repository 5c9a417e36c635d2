// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account

import "errors"

// ErrNotFound is returned by repositories when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrIdentifierTaken is returned by AccountRepository.Create when another
// account already holds the identifier.
var ErrIdentifierTaken = errors.New("identifier already taken")
