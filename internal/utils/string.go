package utils

import "strings"

// NormalizeEmailAddress lower-cases and trims an address. Empty input stays empty.
func NormalizeEmailAddress(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeMessageID(messageID string) string {
	messageID = strings.TrimSpace(messageID)
	messageID = strings.TrimPrefix(messageID, "<")
	messageID = strings.TrimSuffix(messageID, ">")
	return messageID
}

func UniqueEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	unique := make([]string, 0, len(emails))

	for _, email := range emails {
		if _, exists := seen[email]; !exists {
			seen[email] = struct{}{}
			unique = append(unique, email)
		}
	}

	return unique
}

// ExtractDomainFromEmail returns the lower-cased domain part of an address,
// handling "Name <email@domain.com>" forms. Returns "" when unparsable.
func ExtractDomainFromEmail(email string) string {
	if email == "" {
		return ""
	}

	email = strings.TrimSpace(email)

	if strings.Contains(email, "<") && strings.Contains(email, ">") {
		startIdx := strings.LastIndex(email, "<") + 1
		endIdx := strings.LastIndex(email, ">")
		if startIdx > 0 && endIdx > startIdx {
			email = email[startIdx:endIdx]
		}
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}

	return strings.ToLower(strings.TrimSpace(parts[1]))
}

// DomainMatches reports whether the address belongs to orgDomain: the parsed
// domain equals it or is a subdomain of it. Exact comparison is used instead
// of raw substring containment so "example.org.evil.com" never matches
// "example.org".
func DomainMatches(email, orgDomain string) bool {
	if orgDomain == "" {
		return false
	}
	domain := ExtractDomainFromEmail(email)
	if domain == "" {
		return false
	}
	orgDomain = strings.ToLower(strings.TrimSpace(orgDomain))
	return domain == orgDomain || strings.HasSuffix(domain, "."+orgDomain)
}
