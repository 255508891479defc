package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitWithEscapeCharacter(t *testing.T) {
	str := "opt1,opt2"
	parts := splitWithEscapeCharacter(str, ',', '\\', false)
	assert.Len(t, parts, 2)
	assert.Equal(t, "opt1", parts[0])
	assert.Equal(t, "opt2", parts[1])

	str = "opt1\\,opt2,,"
	parts = splitWithEscapeCharacter(str, ',', '\\', false)
	assert.Len(t, parts, 1)
	assert.Equal(t, "opt1,opt2", parts[0])

	str = "opt1,\\opt2,,"
	parts = splitWithEscapeCharacter(str, ',', '\\', false)
	assert.Len(t, parts, 2)
	assert.Equal(t, "opt1", parts[0])
	assert.Equal(t, "\\opt2", parts[1])

	str = "opt1,\\opt2,,"
	parts = splitWithEscapeCharacter(str, ',', '\\', true)
	assert.Len(t, parts, 4)
	assert.Equal(t, "opt1", parts[0])
	assert.Equal(t, "\\opt2", parts[1])
	assert.Equal(t, "", parts[2])
	assert.Equal(t, "", parts[3])
}

func TestIsDomainOrSubdomainOfAny(t *testing.T) {
	assert.True(t, isDomainOrSubdomainOfAny("example.org", []string{"example.org"}))
	assert.True(t, isDomainOrSubdomainOfAny("sub.example.org", []string{"example.org"}))
	assert.False(t, isDomainOrSubdomainOfAny("subexample.org", []string{"example.org"}))
	assert.False(t, isDomainOrSubdomainOfAny("example.com", []string{"example.org"}))

	// Wildcard TLD domains.
	assert.True(t, isDomainOrSubdomainOfAny("example.org", []string{"example.*"}))
	assert.True(t, isDomainOrSubdomainOfAny("example.co.uk", []string{"example.*"}))
	assert.True(t, isDomainOrSubdomainOfAny("sub.example.co.uk", []string{"example.*"}))
	assert.False(t, isDomainOrSubdomainOfAny("example.local", []string{"example.*"}))
}
