// Package contacts builds the per-run lookup structures that connect mailbox
// messages to CRM leads, and matches fetched messages against them.
package contacts

import (
	"strconv"
	"strings"

	"github.com/caseflow/mailsync/internal/enum"
	"github.com/caseflow/mailsync/internal/models"
	"github.com/caseflow/mailsync/internal/utils"
)

// NormalizedContact is the unified matching representation of a lead from
// either schema. Exactly one of LeadID/LegacyLeadID is meaningful, selected
// by Source. Built fresh per sync pass, never mutated.
type NormalizedContact struct {
	Source      enum.LeadSource
	LeadNumber  string
	LeadID      string
	LegacyID    int64
	HasLegacyID bool
	DisplayName string
	Email       string
}

// Key identifies a contact across both match signals so the same contact is
// never returned twice.
func (c *NormalizedContact) Key() string {
	if c.Source == enum.LeadSourceCurrent {
		return string(c.Source) + ":" + c.LeadID
	}
	return string(c.Source) + ":" + c.LeadNumber
}

// Index holds the two per-run mappings: normalized email to contacts (leads
// may share a mailbox) and lower-cased lead number to contacts. Rebuilt every
// pass because contact data can change between syncs.
type Index struct {
	byEmail      map[string][]*NormalizedContact
	byLeadNumber map[string][]*NormalizedContact
}

func NewIndex() *Index {
	return &Index{
		byEmail:      make(map[string][]*NormalizedContact),
		byLeadNumber: make(map[string][]*NormalizedContact),
	}
}

func (idx *Index) add(c *NormalizedContact) {
	if c.Email != "" {
		idx.byEmail[c.Email] = append(idx.byEmail[c.Email], c)
	}
	// An empty lead number is never indexed, so subject scans cannot
	// false-positive on the empty string.
	if c.LeadNumber != "" {
		idx.byLeadNumber[strings.ToLower(c.LeadNumber)] = append(idx.byLeadNumber[strings.ToLower(c.LeadNumber)], c)
	}
}

// Size returns the number of indexed emails and lead numbers.
func (idx *Index) Size() (int, int) {
	return len(idx.byEmail), len(idx.byLeadNumber)
}

// normalizeLegacyID parses the digits of a legacy identifier, tolerating a
// non-numeric prefix. Unparsable rows stay usable for name display but are
// excluded from attachment.
func normalizeLegacyID(id int64) (int64, bool) {
	if id <= 0 {
		return 0, false
	}
	return id, true
}

// BuildIndex produces the contact index from point-in-time reads of both
// lead tables. Malformed rows are normalized to empty fields and simply left
// out of the relevant mapping, never rejected. O(n) in contact count.
func BuildIndex(leads []*models.Lead, legacyLeads []*models.LegacyLead) *Index {
	idx := NewIndex()

	for _, lead := range leads {
		if lead == nil || lead.ID == "" {
			continue
		}
		idx.add(&NormalizedContact{
			Source:      enum.LeadSourceCurrent,
			LeadNumber:  strings.TrimSpace(lead.LeadNumber),
			LeadID:      lead.ID,
			DisplayName: lead.Name,
			Email:       utils.NormalizeEmailAddress(lead.Email),
		})
	}

	for _, lead := range legacyLeads {
		if lead == nil {
			continue
		}
		legacyID, ok := normalizeLegacyID(lead.ID)
		if !ok {
			continue
		}
		idx.add(&NormalizedContact{
			Source:      enum.LeadSourceLegacy,
			LeadNumber:  strconv.FormatInt(legacyID, 10),
			LegacyID:    legacyID,
			HasLegacyID: true,
			DisplayName: lead.Name,
			Email:       utils.NormalizeEmailAddress(lead.Email),
		})
	}

	return idx
}
