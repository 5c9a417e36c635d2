// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package accounttest

import "github.com/Imfractical/uprofile/internal/account"

// FastHasher returns an argon2id hasher with minimal cost, for tests.
func FastHasher() *account.Argon2idHasher {
	return account.NewArgon2idHasherWithParams(account.Argon2Params{
		Time:    1,
		Memory:  8 * 1024,
		Threads: 1,
		SaltLen: 16,
		KeyLen:  32,
	})
}
