package dto

import "github.com/caseflow/mailsync/internal/enum"

// LeadEmailAttached is published after a synced message has been attached to
// a lead, so CRM consumers can refresh their views.
type LeadEmailAttached struct {
	ProviderMessageID string              `json:"providerMessageId"`
	LeadID            *string             `json:"leadId,omitempty"`
	LegacyLeadID      *int64              `json:"legacyLeadId,omitempty"`
	Direction         enum.EmailDirection `json:"direction"`
	Subject           string              `json:"subject"`
	Mailbox           string              `json:"mailbox"`
}
