// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

// Package store owns the PostgreSQL schema and connection setup.
package store
