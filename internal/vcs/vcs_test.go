package vcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameFromURL(t *testing.T) {
	cases := map[string]string{
		"https://github.com/modm-io/modm.git": "modm",
		"https://example.org/repo":            "repo",
		"git@github.com:modm-io/modm.git":     "modm",
		"https://example.org/repo/":           "repo",
		"":                                    "",
	}
	for url, expected := range cases {
		assert.Equal(t, expected, nameFromURL(url), url)
	}
}
