package amazon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrowserHeaders(t *testing.T) {
	h := browserHeaders("ja,en-US;q=0.9")
	assert.Equal(t, "ja,en-US;q=0.9", h["Accept-Language"])
	assert.Equal(t, "no-store", h["Cache-Control"])
	assert.Equal(t, "no-cache", h["Pragma"])
}

func TestBrowserHeaders_NoLanguage(t *testing.T) {
	h := browserHeaders("")
	assert.NotContains(t, h, "Accept-Language")
	assert.Len(t, h, 2)
}

func TestPrimaryLanguage(t *testing.T) {
	assert.Equal(t, "ja", primaryLanguage("ja,en-US;q=0.9,en;q=0.8"))
	assert.Equal(t, "en-US", primaryLanguage("en-US;q=0.9"))
	assert.Equal(t, "", primaryLanguage(""))
}
