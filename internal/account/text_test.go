// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Imfractical/uprofile/internal/account"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "  Curious girl ", want: "Curious girl"},
		{name: "tags", input: "Tea & <b>cakes</b>", want: "Tea & cakes"},
		{name: "script content dropped", input: "<script>alert(1)</script>Hi", want: "Hi"},
		{name: "entity-encoded markup", input: "&lt;script&gt;alert(1)&lt;/script&gt;Hi", want: "Hi"},
		{name: "double-encoded markup", input: "&amp;lt;b&amp;gt;bold&amp;lt;/b&amp;gt;", want: "bold"},
		{name: "encoded ampersand decodes", input: "Tom &amp; Jerry", want: "Tom & Jerry"},
		{name: "bare angle bracket kept", input: "a < b", want: "a < b"},
		{name: "apostrophe kept", input: "O'Brien", want: "O'Brien"},
		{name: "only markup", input: "<b></b>", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, account.PlainText(tt.input))
		})
	}
}
