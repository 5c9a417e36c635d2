// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxStripPasses bounds how many layers of character references
// PlainText peels off.
const maxStripPasses = 8

// textPolicy strips every element. A bluemonday policy is safe for
// concurrent use once built.
var textPolicy = bluemonday.StrictPolicy()

// PlainText removes markup from user-supplied text and trims it.
//
// Markup hidden behind character references (&lt;b&gt;) is decoded and
// stripped as well, so the result never decodes to live markup. Input that
// is still changing after maxStripPasses is returned in its escaped form.
func PlainText(s string) string {
	for range maxStripPasses {
		next := html.UnescapeString(textPolicy.Sanitize(s))
		if next == s {
			return strings.TrimSpace(next)
		}
		s = next
	}
	return strings.TrimSpace(textPolicy.Sanitize(s))
}
