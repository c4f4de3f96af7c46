// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package license

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/harvest-engine/pkg/types"
)

func TestAcceptable(t *testing.T) {
	tests := []struct {
		name    string
		license string
		policy  Policy
		want    bool
	}{
		{"cc-by 4.0 url", "https://creativecommons.org/licenses/by/4.0/", ArxivPolicy, true},
		{"cc-by 4.0 http url", "http://creativecommons.org/licenses/by/4.0/", ArxivPolicy, true},
		{"cc-by 3.0 url", "https://creativecommons.org/licenses/by/3.0/", ArxivPolicy, true},
		{"cc-by spdx", "CC-BY-4.0", ArxivPolicy, true},
		{"cc-by spaced", "CC BY 4.0", ArxivPolicy, true},
		{"cc-by underscored", "CC_BY_4.0", ArxivPolicy, true},
		{"cc0 spaced", "CC0 1.0", ArxivPolicy, true},
		{"nd spaced rejected without AllowND", "CC BY ND 4.0", ArxivPolicy, false},
		{"cc0 url", "https://creativecommons.org/publicdomain/zero/1.0/", ArxivPolicy, true},
		{"cc0 spdx", "CC0-1.0", ArxivPolicy, true},
		{"mit", "MIT", ArxivPolicy, true},
		{"apache", "Apache-2.0", ArxivPolicy, true},
		{"bsd3", "BSD-3-Clause", ArxivPolicy, true},
		{"isc", "ISC", ArxivPolicy, true},

		{"nc rejected", "https://creativecommons.org/licenses/by-nc/4.0/", ArxivPolicy, false},
		{"nc-sa rejected", "CC-BY-NC-SA-4.0", ArxivPolicy, false},
		{"sa rejected", "CC-BY-SA-4.0", ArxivPolicy, false},
		{"gpl rejected", "GPL-3.0", ArxivPolicy, false},
		{"agpl rejected", "AGPL-3.0", ArxivPolicy, false},
		{"lgpl rejected", "LGPL-2.1", ArxivPolicy, false},
		{"empty rejected", "", ArxivPolicy, false},
		{"unknown rejected", "all rights reserved", ArxivPolicy, false},

		{"nd rejected without AllowND", "https://creativecommons.org/licenses/by-nd/4.0/", ArxivPolicy, false},
		{"nd accepted with AllowND", "https://creativecommons.org/licenses/by-nd/4.0/", ZenodoPolicy, true},
		{"nd spdx with AllowND", "CC-BY-ND-4.0", ZenodoPolicy, true},
		{"nc still rejected with AllowND", "CC-BY-NC-ND-4.0", ZenodoPolicy, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Acceptable(tt.license, tt.policy))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"  HTTP://CreativeCommons.org/licenses/by/4.0/ ",
		"CC-BY-4.0",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestEligibleScholarlySignals(t *testing.T) {
	rec := &types.Record{
		License:    "https://creativecommons.org/licenses/by/4.0/",
		Authors:    []types.Author{{LastName: "Curie"}},
		Categories: []string{"physics"},
	}
	assert.True(t, Eligible(rec, ZenodoPolicy))

	noAuthors := *rec
	noAuthors.Authors = nil
	assert.False(t, Eligible(&noAuthors, ZenodoPolicy))

	noCategories := *rec
	noCategories.Categories = nil
	assert.False(t, Eligible(&noCategories, ZenodoPolicy))

	// The arXiv policy does not demand the signals.
	assert.True(t, Eligible(&noAuthors, ArxivPolicy))
	assert.False(t, Eligible(nil, ArxivPolicy))
}

func TestForSource(t *testing.T) {
	assert.Equal(t, ZenodoPolicy, ForSource(types.SourceZenodo))
	assert.Equal(t, ArxivPolicy, ForSource(types.SourceArxiv))
}
