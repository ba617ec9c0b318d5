package emailsync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/mailsync/config"
	mailsync_errors "github.com/caseflow/mailsync/errors"
	"github.com/caseflow/mailsync/internal/enum"
	"github.com/caseflow/mailsync/internal/logger"
	"github.com/caseflow/mailsync/internal/models"
	"github.com/caseflow/mailsync/services/graph"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

type fakeGraphClient struct {
	tokenCalls   int
	tokenErrOnce error
	byFolder     map[string][]*graph.Message
}

func (f *fakeGraphClient) AcquireToken(ctx context.Context) (string, error) {
	f.tokenCalls++
	if f.tokenErrOnce != nil && f.tokenCalls == 1 {
		return "", f.tokenErrOnce
	}
	return "test-token", nil
}

func (f *fakeGraphClient) FetchFolderMessages(ctx context.Context, token, mailbox, folder string, opts graph.FetchOptions) ([]*graph.Message, error) {
	return f.byFolder[folder], nil
}

func (f *fakeGraphClient) FetchAttachments(ctx context.Context, token, mailbox, messageID string) ([]*graph.Attachment, error) {
	return nil, nil
}

type fakeLeadRepo struct {
	leads []*models.Lead
}

func (f *fakeLeadRepo) GetAll(ctx context.Context) ([]*models.Lead, error) {
	return f.leads, nil
}

func (f *fakeLeadRepo) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	for _, l := range f.leads {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, nil
}

type fakeLegacyLeadRepo struct {
	leads []*models.LegacyLead
}

func (f *fakeLegacyLeadRepo) GetAll(ctx context.Context) ([]*models.LegacyLead, error) {
	return f.leads, nil
}

type fakeAppUserRepo struct {
	emails []string
}

func (f *fakeAppUserRepo) GetActiveEmails(ctx context.Context, domain string) ([]string, error) {
	return f.emails, nil
}

// fakeSyncedEmailRepo mirrors the real repository's conflict handling: rows
// are keyed by provider message id and an upsert replaces the derived columns
// of an existing row instead of adding a second one.
type fakeSyncedEmailRepo struct {
	upsertCalls [][]*models.SyncedEmail
	store       map[string]*models.SyncedEmail
}

func (f *fakeSyncedEmailRepo) UpsertBatch(ctx context.Context, records []*models.SyncedEmail) (int64, error) {
	f.upsertCalls = append(f.upsertCalls, records)
	if f.store == nil {
		f.store = make(map[string]*models.SyncedEmail)
	}
	for _, record := range records {
		f.store[record.ProviderMessageID] = record
	}
	return int64(len(records)), nil
}

func (f *fakeSyncedEmailRepo) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*models.SyncedEmail, error) {
	return f.store[providerMessageID], nil
}

func (f *fakeSyncedEmailRepo) ListByLead(ctx context.Context, leadID string, limit, offset int) ([]*models.SyncedEmail, int64, error) {
	return nil, 0, nil
}

func (f *fakeSyncedEmailRepo) ListByLegacyLead(ctx context.Context, legacyLeadID int64, limit, offset int) ([]*models.SyncedEmail, int64, error) {
	return nil, 0, nil
}

func (f *fakeSyncedEmailRepo) allRecords() []*models.SyncedEmail {
	var out []*models.SyncedEmail
	for _, batch := range f.upsertCalls {
		out = append(out, batch...)
	}
	return out
}

type testEnv struct {
	graph     *fakeGraphClient
	emailRepo *fakeSyncedEmailRepo
	service   *emailSyncService
}

func newTestEnv(cfg *config.SyncConfig, graphClient *fakeGraphClient, leads []*models.Lead, legacyLeads []*models.LegacyLead) *testEnv {
	emailRepo := &fakeSyncedEmailRepo{}
	svc := NewEmailSyncService(
		cfg,
		getLogger(),
		graphClient,
		&fakeLeadRepo{leads: leads},
		&fakeLegacyLeadRepo{leads: legacyLeads},
		&fakeAppUserRepo{},
		emailRepo,
		nil,
		nil,
	)
	return &testEnv{
		graph:     graphClient,
		emailRepo: emailRepo,
		service:   svc.(*emailSyncService),
	}
}

func syncCfg(mailboxes ...string) *config.SyncConfig {
	return &config.SyncConfig{
		Mailboxes:    mailboxes,
		OrgDomain:    "example.org",
		LookbackDays: 7,
		MaxPerFolder: 100,
	}
}

func msgAt(minutesAgo int) *time.Time {
	t := time.Now().UTC().Add(-time.Duration(minutesAgo) * time.Minute)
	return &t
}

func TestSyncMailboxes_EndToEnd(t *testing.T) {
	// The same self-addressed mail appears in both folders under one provider
	// id; the merge must collapse it to a single processed message.
	inboxCopy := &graph.Message{
		ID:              "msg-1",
		Subject:         "Re: Case L100 update",
		From:            graph.Recipient{Name: "Client", Address: "client@other.com"},
		To:              []graph.Recipient{{Address: "office@example.org"}},
		ReceivedAt:      msgAt(5),
		BodyContentType: "html",
		Body:            "<p>Please see the attached update.</p>",
	}
	sentCopy := &graph.Message{
		ID:      "msg-1",
		Subject: "Re: Case L100 update",
		From:    graph.Recipient{Name: "Client", Address: "client@other.com"},
		To:      []graph.Recipient{{Address: "office@example.org"}},
		SentAt:  msgAt(5),
	}

	env := newTestEnv(
		syncCfg("office@example.org"),
		&fakeGraphClient{byFolder: map[string][]*graph.Message{
			graph.FolderInbox:     {inboxCopy},
			graph.FolderSentItems: {sentCopy},
		}},
		[]*models.Lead{{ID: "jane-id", LeadNumber: "L100", Name: "Jane", Email: "jane@example.org"}},
		nil,
	)

	result, err := env.service.SyncMailboxes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Failures)
	assert.NotEmpty(t, result.RunID)

	records := env.emailRepo.allRecords()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "msg-1", rec.ProviderMessageID)
	require.NotNil(t, rec.LeadID)
	assert.Equal(t, "jane-id", *rec.LeadID)
	assert.Nil(t, rec.LegacyLeadID)
	assert.Equal(t, "Re: Case L100 update", rec.Subject)
	assert.Equal(t, enum.EmailIncoming, rec.Direction)
	assert.Contains(t, rec.BodyHTML, "attached update")
}

func TestSyncMailboxes_DirectionDerivation(t *testing.T) {
	outgoing := &graph.Message{
		ID:         "out-1",
		Subject:    "Case L100",
		From:       graph.Recipient{Address: "a@example.org"},
		To:         []graph.Recipient{{Address: "b@other.com"}},
		ReceivedAt: msgAt(1),
	}
	incoming := &graph.Message{
		ID:         "in-1",
		Subject:    "Case L100",
		From:       graph.Recipient{Address: "a@other.com"},
		To:         []graph.Recipient{{Address: "b@example.org"}},
		ReceivedAt: msgAt(2),
	}

	env := newTestEnv(
		syncCfg("office@example.org"),
		&fakeGraphClient{byFolder: map[string][]*graph.Message{
			graph.FolderInbox: {outgoing, incoming},
		}},
		[]*models.Lead{{ID: "jane-id", LeadNumber: "L100", Email: "jane@example.org"}},
		nil,
	)

	_, err := env.service.SyncMailboxes(context.Background())
	require.NoError(t, err)

	records := env.emailRepo.allRecords()
	require.Len(t, records, 2)

	byID := map[string]enum.EmailDirection{}
	for _, rec := range records {
		byID[rec.ProviderMessageID] = rec.Direction
	}
	assert.Equal(t, enum.EmailOutgoing, byID["out-1"])
	assert.Equal(t, enum.EmailIncoming, byID["in-1"])
}

func TestSyncMailboxes_DomainRelevanceFilter(t *testing.T) {
	// No participant on the organization's domain: never matched, never
	// stored, not in the skipped list either.
	external := &graph.Message{
		ID:         "ext-1",
		Subject:    "Case L100",
		From:       graph.Recipient{Address: "a@other.com"},
		To:         []graph.Recipient{{Address: "b@elsewhere.com"}},
		ReceivedAt: msgAt(1),
	}

	env := newTestEnv(
		syncCfg("office@example.org"),
		&fakeGraphClient{byFolder: map[string][]*graph.Message{
			graph.FolderInbox: {external},
		}},
		[]*models.Lead{{ID: "jane-id", LeadNumber: "L100", Email: "jane@example.org"}},
		nil,
	)

	result, err := env.service.SyncMailboxes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Matched)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, env.emailRepo.upsertCalls)
	require.Len(t, result.Mailboxes, 1)
	assert.Empty(t, result.Mailboxes[0].SkippedSubjects)
}

func TestSyncMailboxes_LookalikeDomainNotRelevant(t *testing.T) {
	lookalike := &graph.Message{
		ID:         "ext-2",
		Subject:    "Case L100",
		From:       graph.Recipient{Address: "a@example.org.evil.com"},
		To:         []graph.Recipient{{Address: "b@elsewhere.com"}},
		ReceivedAt: msgAt(1),
	}

	env := newTestEnv(
		syncCfg("office@example.org"),
		&fakeGraphClient{byFolder: map[string][]*graph.Message{
			graph.FolderInbox: {lookalike},
		}},
		nil,
		nil,
	)

	result, err := env.service.SyncMailboxes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, env.emailRepo.upsertCalls)
	assert.Equal(t, 0, result.Matched)
}

func TestSyncMailboxes_NoMatchRecordedAsSkipped(t *testing.T) {
	unmatched := &graph.Message{
		ID:         "msg-9",
		Subject:    "lunch on friday?",
		From:       graph.Recipient{Address: "stranger@other.com"},
		To:         []graph.Recipient{{Address: "office@example.org"}},
		ReceivedAt: msgAt(1),
	}

	env := newTestEnv(
		syncCfg("office@example.org"),
		&fakeGraphClient{byFolder: map[string][]*graph.Message{
			graph.FolderInbox: {unmatched},
		}},
		[]*models.Lead{{ID: "jane-id", LeadNumber: "L100", Email: "jane@example.org"}},
		nil,
	)

	result, err := env.service.SyncMailboxes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, env.emailRepo.upsertCalls)
	require.Len(t, result.Mailboxes, 1)
	assert.Equal(t, []string{"lunch on friday?"}, result.Mailboxes[0].SkippedSubjects)
}

func TestSyncMailboxes_LegacyContactKeepsQuotedHistory(t *testing.T) {
	body := "<p>new reply</p><blockquote>old thread</blockquote>"

	toLegacy := &graph.Message{
		ID:         "legacy-1",
		Subject:    "claim #1042",
		From:       graph.Recipient{Address: "old@example.org"},
		To:         []graph.Recipient{{Address: "someone@other.com"}},
		ReceivedAt: msgAt(1),
		Body:       body,
	}
	toCurrent := &graph.Message{
		ID:         "current-1",
		Subject:    "Case L100",
		From:       graph.Recipient{Address: "jane@example.org"},
		To:         []graph.Recipient{{Address: "someone@other.com"}},
		ReceivedAt: msgAt(2),
		Body:       body,
	}

	env := newTestEnv(
		syncCfg("office@example.org"),
		&fakeGraphClient{byFolder: map[string][]*graph.Message{
			graph.FolderInbox: {toLegacy, toCurrent},
		}},
		[]*models.Lead{{ID: "jane-id", LeadNumber: "L100", Email: "jane@example.org"}},
		[]*models.LegacyLead{{ID: 1042, Name: "Old Client", Email: "old@example.org"}},
	)

	_, err := env.service.SyncMailboxes(context.Background())
	require.NoError(t, err)

	records := env.emailRepo.allRecords()
	require.Len(t, records, 2)

	byID := map[string]*models.SyncedEmail{}
	for _, rec := range records {
		byID[rec.ProviderMessageID] = rec
	}

	require.NotNil(t, byID["legacy-1"].LegacyLeadID)
	assert.Equal(t, int64(1042), *byID["legacy-1"].LegacyLeadID)
	assert.Contains(t, byID["legacy-1"].BodyHTML, "old thread")

	require.NotNil(t, byID["current-1"].LeadID)
	assert.NotContains(t, byID["current-1"].BodyHTML, "old thread")
}

func TestSyncMailboxes_RerunDoesNotDuplicate(t *testing.T) {
	// The provider serves the same message on every run; storage must stay at
	// one row per provider message id with the derived columns replaced.
	original := &graph.Message{
		ID:         "msg-7",
		Subject:    "Case L100",
		From:       graph.Recipient{Address: "jane@example.org"},
		To:         []graph.Recipient{{Address: "someone@other.com"}},
		ReceivedAt: msgAt(10),
		Body:       "<p>first version</p>",
	}

	env := newTestEnv(
		syncCfg("office@example.org"),
		&fakeGraphClient{byFolder: map[string][]*graph.Message{
			graph.FolderInbox: {original},
		}},
		[]*models.Lead{{ID: "jane-id", LeadNumber: "L100", Email: "jane@example.org"}},
		nil,
	)

	first, err := env.service.SyncMailboxes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Inserted)

	edited := *original
	edited.Body = "<p>second version</p>"
	env.graph.byFolder[graph.FolderInbox] = []*graph.Message{&edited}

	_, err = env.service.SyncMailboxes(context.Background())
	require.NoError(t, err)

	require.Len(t, env.emailRepo.upsertCalls, 2)
	require.Len(t, env.emailRepo.store, 1)

	stored, err := env.emailRepo.GetByProviderMessageID(context.Background(), "msg-7")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Contains(t, stored.BodyHTML, "second version")
	assert.NotContains(t, stored.BodyHTML, "first version")
}

func TestSyncMailboxes_SubjectPlaceholderWhenAbsent(t *testing.T) {
	noSubject := &graph.Message{
		ID:         "msg-8",
		From:       graph.Recipient{Address: "jane@example.org"},
		To:         []graph.Recipient{{Address: "someone@other.com"}},
		ReceivedAt: msgAt(1),
		Body:       "<p>quick note</p>",
	}

	env := newTestEnv(
		syncCfg("office@example.org"),
		&fakeGraphClient{byFolder: map[string][]*graph.Message{
			graph.FolderInbox: {noSubject},
		}},
		[]*models.Lead{{ID: "jane-id", LeadNumber: "L100", Email: "jane@example.org"}},
		nil,
	)

	_, err := env.service.SyncMailboxes(context.Background())
	require.NoError(t, err)

	records := env.emailRepo.allRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "(no subject)", records[0].Subject)
	assert.NotEmpty(t, records[0].Subject)
}

func TestSyncMailboxes_MailboxIsolation(t *testing.T) {
	relevant := &graph.Message{
		ID:         "msg-2",
		Subject:    "Case L100",
		From:       graph.Recipient{Address: "jane@example.org"},
		To:         []graph.Recipient{{Address: "someone@other.com"}},
		ReceivedAt: msgAt(1),
	}

	env := newTestEnv(
		syncCfg("first@example.org", "second@example.org"),
		&fakeGraphClient{
			tokenErrOnce: errors.New("identity service unavailable"),
			byFolder: map[string][]*graph.Message{
				graph.FolderInbox: {relevant},
			},
		},
		[]*models.Lead{{ID: "jane-id", LeadNumber: "L100", Email: "jane@example.org"}},
		nil,
	)

	result, err := env.service.SyncMailboxes(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "first@example.org", result.Failures[0].Mailbox)
	assert.Contains(t, result.Failures[0].Error, "identity service unavailable")

	require.Len(t, result.Mailboxes, 1)
	assert.Equal(t, "second@example.org", result.Mailboxes[0].Mailbox)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Matched)
}

func TestResolveMailboxes(t *testing.T) {
	t.Run("explicit and configured are unioned and deduped", func(t *testing.T) {
		env := newTestEnv(syncCfg("Config@Example.org"), &fakeGraphClient{}, nil, nil)

		mailboxes, err := env.service.resolveMailboxes(context.Background(), []string{"Explicit@Example.org", "config@example.org"})
		require.NoError(t, err)
		assert.Equal(t, []string{"explicit@example.org", "config@example.org"}, mailboxes)
	})

	t.Run("directory fallback when nothing explicit", func(t *testing.T) {
		emailRepo := &fakeSyncedEmailRepo{}
		svc := NewEmailSyncService(
			syncCfg(),
			getLogger(),
			&fakeGraphClient{},
			&fakeLeadRepo{},
			&fakeLegacyLeadRepo{},
			&fakeAppUserRepo{emails: []string{"user@example.org", "USER@example.org"}},
			emailRepo,
			nil,
			nil,
		)

		mailboxes, err := svc.(*emailSyncService).resolveMailboxes(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"user@example.org"}, mailboxes)
	})

	t.Run("empty resolution is a configuration error", func(t *testing.T) {
		env := newTestEnv(syncCfg(), &fakeGraphClient{}, nil, nil)

		_, err := env.service.resolveMailboxes(context.Background(), nil)
		assert.ErrorIs(t, err, mailsync_errors.ErrNoMailboxesConfigured)
	})
}

// embeddedLogger lets warnRecorder embed logger.Logger without the embedded
// field name colliding with the interface's Logger() method.
type embeddedLogger = logger.Logger

type warnRecorder struct {
	embeddedLogger
	warnings []string
}

func (w *warnRecorder) Warn(args ...interface{}) {
	w.warnings = append(w.warnings, fmt.Sprint(args...))
}

func (w *warnRecorder) Warnf(template string, args ...interface{}) {
	w.warnings = append(w.warnings, fmt.Sprintf(template, args...))
}

func TestSyncMailboxes_WarnsWhenOrgDomainMissing(t *testing.T) {
	// With no org domain the relevance filter drops everything; the run must
	// say so instead of silently syncing nothing.
	msg := &graph.Message{
		ID:         "msg-10",
		Subject:    "Case L100",
		From:       graph.Recipient{Address: "jane@example.org"},
		To:         []graph.Recipient{{Address: "office@example.org"}},
		ReceivedAt: msgAt(1),
	}

	log := &warnRecorder{embeddedLogger: getLogger()}
	svc := NewEmailSyncService(
		&config.SyncConfig{Mailboxes: []string{"office@example.org"}, MaxPerFolder: 100},
		log,
		&fakeGraphClient{byFolder: map[string][]*graph.Message{
			graph.FolderInbox: {msg},
		}},
		&fakeLeadRepo{leads: []*models.Lead{{ID: "jane-id", LeadNumber: "L100", Email: "jane@example.org"}}},
		&fakeLegacyLeadRepo{},
		&fakeAppUserRepo{},
		&fakeSyncedEmailRepo{},
		nil,
		nil,
	)

	result, err := svc.SyncMailboxes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Matched)
	require.NotEmpty(t, log.warnings)
	assert.Contains(t, log.warnings[0], "org domain")
}

func TestPerFolderCapClamped(t *testing.T) {
	cases := []struct {
		configured int
		want       int
	}{
		{0, 10},
		{5, 10},
		{100, 100},
		{9999, 500},
	}

	for _, tc := range cases {
		env := newTestEnv(&config.SyncConfig{MaxPerFolder: tc.configured}, &fakeGraphClient{}, nil, nil)
		assert.Equal(t, tc.want, env.service.perFolderCap(), "configured: %d", tc.configured)
	}
}

func TestFetchAndMerge_NewestFirst(t *testing.T) {
	older := &graph.Message{ID: "old", ReceivedAt: msgAt(60)}
	newer := &graph.Message{ID: "new", ReceivedAt: msgAt(1)}
	sentOnly := &graph.Message{ID: "sent", SentAt: msgAt(30)}

	env := newTestEnv(
		syncCfg("office@example.org"),
		&fakeGraphClient{byFolder: map[string][]*graph.Message{
			graph.FolderInbox:     {older, newer},
			graph.FolderSentItems: {sentOnly},
		}},
		nil,
		nil,
	)

	merged, err := env.service.fetchAndMerge(context.Background(), "token", "office@example.org")
	require.NoError(t, err)
	require.Len(t, merged, 3)
	assert.Equal(t, "new", merged[0].ID)
	assert.Equal(t, "sent", merged[1].ID)
	assert.Equal(t, "old", merged[2].ID)
}
