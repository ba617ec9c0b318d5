package graph

import "time"

// Folder names understood by the provider's well-known folder routes.
const (
	FolderInbox     = "inbox"
	FolderSentItems = "sentitems"
)

// Recipient is one participant entry on a message.
type Recipient struct {
	Name    string
	Address string
}

// Message is the provider's message representation as fetched. Immutable once
// fetched; never persisted in this shape.
type Message struct {
	ID                string
	InternetMessageID string
	Subject           string
	From              Recipient
	To                []Recipient
	Cc                []Recipient
	SentAt            *time.Time
	ReceivedAt        *time.Time
	ConversationID    string
	BodyContentType   string
	Body              string
	HasAttachments    bool
}

// Attachment is one file attached to a provider message. ContentBytes is the
// base64 payload when the provider returned it inline, empty otherwise.
type Attachment struct {
	ID           string
	Name         string
	ContentType  string
	Size         int64
	IsInline     bool
	ContentBytes string
}

// FetchOptions bound one folder fetch.
type FetchOptions struct {
	// Since is the lower bound of the date filter (`<field> ge <Since>`).
	Since time.Time
	// Top caps the number of messages fetched across all pages.
	Top int
	// PageSize is the per-page $top clause; defaults to Top when zero.
	PageSize int
}

// graphRecipient mirrors the provider's recipient JSON shape.
type graphRecipient struct {
	EmailAddress struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	} `json:"emailAddress"`
}

// graphMessage mirrors the fields selected from the provider's message
// resource. All fields are treated as untrusted input.
type graphMessage struct {
	ID                string           `json:"id"`
	InternetMessageID string           `json:"internetMessageId"`
	Subject           string           `json:"subject"`
	From              *graphRecipient  `json:"from"`
	ToRecipients      []graphRecipient `json:"toRecipients"`
	CcRecipients      []graphRecipient `json:"ccRecipients"`
	SentDateTime      string           `json:"sentDateTime"`
	ReceivedDateTime  string           `json:"receivedDateTime"`
	ConversationID    string           `json:"conversationId"`
	Body              struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
	HasAttachments bool `json:"hasAttachments"`
}

type graphMessagesPage struct {
	Value    []graphMessage `json:"value"`
	NextLink string         `json:"@odata.nextLink"`
}

type graphAttachment struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
	IsInline     bool   `json:"isInline"`
	ContentBytes string `json:"contentBytes"`
}

type graphAttachmentsPage struct {
	Value []graphAttachment `json:"value"`
}

// parseGraphTime decodes a provider timestamp defensively; malformed or empty
// values become nil rather than errors.
func parseGraphTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func (m *graphMessage) toMessage() *Message {
	msg := &Message{
		ID:                m.ID,
		InternetMessageID: m.InternetMessageID,
		Subject:           m.Subject,
		SentAt:            parseGraphTime(m.SentDateTime),
		ReceivedAt:        parseGraphTime(m.ReceivedDateTime),
		ConversationID:    m.ConversationID,
		BodyContentType:   m.Body.ContentType,
		Body:              m.Body.Content,
		HasAttachments:    m.HasAttachments,
	}
	if m.From != nil {
		msg.From = Recipient{
			Name:    m.From.EmailAddress.Name,
			Address: m.From.EmailAddress.Address,
		}
	}
	for _, r := range m.ToRecipients {
		msg.To = append(msg.To, Recipient{Name: r.EmailAddress.Name, Address: r.EmailAddress.Address})
	}
	for _, r := range m.CcRecipients {
		msg.Cc = append(msg.Cc, Recipient{Name: r.EmailAddress.Name, Address: r.EmailAddress.Address})
	}
	return msg
}
