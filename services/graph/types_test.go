package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGraphTime(t *testing.T) {
	t.Run("valid timestamp", func(t *testing.T) {
		got := parseGraphTime("2026-08-12T09:30:00Z")
		require.NotNil(t, got)
		assert.Equal(t, 2026, got.Year())
	})

	t.Run("malformed becomes nil", func(t *testing.T) {
		assert.Nil(t, parseGraphTime("yesterday"))
	})

	t.Run("empty becomes nil", func(t *testing.T) {
		assert.Nil(t, parseGraphTime(""))
	})
}

// Provider payloads are untrusted; missing fields must decode to zero values,
// never panic.
func TestGraphMessageDecoding(t *testing.T) {
	payload := `{
		"value": [
			{
				"id": "msg-1",
				"subject": "Case L100",
				"from": {"emailAddress": {"name": "Jane", "address": "jane@example.org"}},
				"toRecipients": [{"emailAddress": {"address": "office@example.org"}}],
				"receivedDateTime": "2026-08-12T09:30:00Z",
				"body": {"contentType": "html", "content": "<p>hi</p>"}
			},
			{
				"id": "msg-2"
			}
		],
		"@odata.nextLink": "https://graph.example/next"
	}`

	var page graphMessagesPage
	require.NoError(t, json.Unmarshal([]byte(payload), &page))
	require.Len(t, page.Value, 2)
	assert.Equal(t, "https://graph.example/next", page.NextLink)

	full := page.Value[0].toMessage()
	assert.Equal(t, "msg-1", full.ID)
	assert.Equal(t, "jane@example.org", full.From.Address)
	require.Len(t, full.To, 1)
	require.NotNil(t, full.ReceivedAt)
	assert.Equal(t, "html", full.BodyContentType)

	sparse := page.Value[1].toMessage()
	assert.Equal(t, "msg-2", sparse.ID)
	assert.Empty(t, sparse.From.Address)
	assert.Nil(t, sparse.ReceivedAt)
	assert.Nil(t, sparse.SentAt)
}

func TestDateFilterField(t *testing.T) {
	assert.Equal(t, "sentDateTime", dateFilterField(FolderSentItems))
	assert.Equal(t, "receivedDateTime", dateFilterField(FolderInbox))
}
