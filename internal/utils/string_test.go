package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmailAddress(t *testing.T) {
	assert.Equal(t, "jane@example.org", NormalizeEmailAddress(" Jane@Example.ORG "))
	assert.Equal(t, "", NormalizeEmailAddress("   "))
}

func TestNormalizeMessageID(t *testing.T) {
	assert.Equal(t, "abc@mail.example", NormalizeMessageID("<abc@mail.example>"))
	assert.Equal(t, "abc@mail.example", NormalizeMessageID("abc@mail.example"))
}

func TestUniqueEmails(t *testing.T) {
	got := UniqueEmails([]string{"a@x.org", "b@x.org", "a@x.org"})
	assert.Equal(t, []string{"a@x.org", "b@x.org"}, got)
}

func TestExtractDomainFromEmail(t *testing.T) {
	assert.Equal(t, "example.org", ExtractDomainFromEmail("jane@example.org"))
	assert.Equal(t, "example.org", ExtractDomainFromEmail("Jane Roe <jane@EXAMPLE.org>"))
	assert.Equal(t, "", ExtractDomainFromEmail("not-an-email"))
	assert.Equal(t, "", ExtractDomainFromEmail(""))
}

func TestDomainMatches(t *testing.T) {
	assert.True(t, DomainMatches("jane@example.org", "example.org"))
	assert.True(t, DomainMatches("jane@mail.example.org", "example.org"))
	assert.False(t, DomainMatches("jane@example.org.evil.com", "example.org"))
	assert.False(t, DomainMatches("jane@other.com", "example.org"))
	assert.False(t, DomainMatches("jane@example.org", ""))
}
