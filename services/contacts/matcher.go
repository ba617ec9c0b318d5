package contacts

import (
	"strings"

	"github.com/caseflow/mailsync/internal/enum"
	"github.com/caseflow/mailsync/internal/utils"
	"github.com/caseflow/mailsync/services/graph"
)

// Match returns every contact a message relates to, deduplicated by contact
// key. Two signals are always consulted and unioned, never short-circuited:
// participant addresses against the email index, and the subject text against
// every indexed lead number.
func (idx *Index) Match(msg *graph.Message) []*NormalizedContact {
	var matches []*NormalizedContact
	seen := make(map[string]struct{})

	addMatch := func(c *NormalizedContact) {
		if _, ok := seen[c.Key()]; ok {
			return
		}
		seen[c.Key()] = struct{}{}
		matches = append(matches, c)
	}

	for _, address := range participantAddresses(msg) {
		for _, c := range idx.byEmail[address] {
			addMatch(c)
		}
	}

	// Subject references follow human conventions: bare number, L-prefixed,
	// hash-prefixed, or both. Lead numbers are indexed lower-cased, so one
	// case fold of the subject covers all of them.
	subject := strings.ToLower(msg.Subject)
	if subject != "" {
		for leadNumber, cs := range idx.byLeadNumber {
			if subjectReferencesLead(subject, leadNumber) {
				for _, c := range cs {
					addMatch(c)
				}
			}
		}
	}

	return matches
}

// participantAddresses collects the normalized sender, recipient and cc
// addresses of a message, dropping empties.
func participantAddresses(msg *graph.Message) []string {
	addresses := make([]string, 0, 2+len(msg.To)+len(msg.Cc))
	if a := utils.NormalizeEmailAddress(msg.From.Address); a != "" {
		addresses = append(addresses, a)
	}
	for _, r := range msg.To {
		if a := utils.NormalizeEmailAddress(r.Address); a != "" {
			addresses = append(addresses, a)
		}
	}
	for _, r := range msg.Cc {
		if a := utils.NormalizeEmailAddress(r.Address); a != "" {
			addresses = append(addresses, a)
		}
	}
	return addresses
}

func subjectReferencesLead(subjectLower, leadNumberLower string) bool {
	return strings.Contains(subjectLower, leadNumberLower) ||
		strings.Contains(subjectLower, "l"+leadNumberLower) ||
		strings.Contains(subjectLower, "#"+leadNumberLower) ||
		strings.Contains(subjectLower, "#l"+leadNumberLower)
}

// PreferredContact picks the single contact that owns a message when several
// match: the first current-schema contact wins, legacy records only own a
// message when nothing current matched. Nil on an empty match set.
func PreferredContact(matches []*NormalizedContact) *NormalizedContact {
	if len(matches) == 0 {
		return nil
	}
	for _, c := range matches {
		if c.Source == enum.LeadSourceCurrent {
			return c
		}
	}
	return matches[0]
}
