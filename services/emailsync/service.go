// Package emailsync drives the mailbox-to-CRM batch: mailbox resolution,
// provider authentication, concurrent folder fetch, matching, sanitization
// and one bulk idempotent upsert per mailbox.
package emailsync

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/caseflow/mailsync/config"
	"github.com/caseflow/mailsync/dto"
	mailsync_errors "github.com/caseflow/mailsync/errors"
	"github.com/caseflow/mailsync/interfaces"
	"github.com/caseflow/mailsync/internal/enum"
	"github.com/caseflow/mailsync/internal/logger"
	"github.com/caseflow/mailsync/internal/models"
	"github.com/caseflow/mailsync/internal/tracing"
	"github.com/caseflow/mailsync/internal/utils"
	"github.com/caseflow/mailsync/services/contacts"
	"github.com/caseflow/mailsync/services/graph"
	"github.com/caseflow/mailsync/services/sanitizer"
)

const (
	minPerFolder        = 10
	maxPerFolder        = 500
	defaultLookbackDays = 7

	noSubjectPlaceholder = "(no subject)"
)

type emailSyncService struct {
	cfg             *config.SyncConfig
	log             logger.Logger
	graphClient     interfaces.GraphClient
	leadRepo        interfaces.LeadRepository
	legacyLeadRepo  interfaces.LegacyLeadRepository
	appUserRepo     interfaces.AppUserRepository
	syncedEmailRepo interfaces.SyncedEmailRepository
	eventsPublisher interfaces.EventsPublisher
	storage         interfaces.StorageService
}

// NewEmailSyncService wires the orchestrator. eventsPublisher and storage are
// optional; nil disables event publishing and attachment persistence.
func NewEmailSyncService(
	cfg *config.SyncConfig,
	log logger.Logger,
	graphClient interfaces.GraphClient,
	leadRepo interfaces.LeadRepository,
	legacyLeadRepo interfaces.LegacyLeadRepository,
	appUserRepo interfaces.AppUserRepository,
	syncedEmailRepo interfaces.SyncedEmailRepository,
	eventsPublisher interfaces.EventsPublisher,
	storage interfaces.StorageService,
) interfaces.EmailSyncService {
	return &emailSyncService{
		cfg:             cfg,
		log:             log,
		graphClient:     graphClient,
		leadRepo:        leadRepo,
		legacyLeadRepo:  legacyLeadRepo,
		appUserRepo:     appUserRepo,
		syncedEmailRepo: syncedEmailRepo,
		eventsPublisher: eventsPublisher,
		storage:         storage,
	}
}

// SyncMailboxes runs one full pass. Mailboxes are processed sequentially and
// fully isolated: a failing mailbox lands in the failure list and the run
// moves on. The only run-level error is an empty mailbox resolution.
func (s *emailSyncService) SyncMailboxes(ctx context.Context, explicit ...string) (*dto.SyncResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailSyncService.SyncMailboxes")
	defer span.Finish()
	tracing.TagComponentService(span)

	mailboxes, err := s.resolveMailboxes(ctx, explicit)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.LogKV("mailboxes", len(mailboxes))

	if s.cfg.OrgDomain == "" {
		s.log.Warn("org domain is not configured; the relevance filter will drop every message")
	}

	result := &dto.SyncResult{
		RunID: uuid.New().String(),
	}

	for _, mailbox := range mailboxes {
		mailboxResult, err := s.syncMailbox(ctx, mailbox)
		if err != nil {
			tracing.TraceErr(span, err)
			s.log.Errorf("mailbox %s sync failed: %v", mailbox, err)
			result.Failures = append(result.Failures, dto.SyncFailure{
				Mailbox: mailbox,
				Error:   err.Error(),
			})
			continue
		}

		result.Mailboxes = append(result.Mailboxes, *mailboxResult)
		result.Processed += mailboxResult.Processed
		result.Matched += mailboxResult.Matched
		result.Inserted += mailboxResult.Inserted
		result.Skipped += mailboxResult.Skipped
	}

	s.log.Infof("sync run %s done: mailboxes=%d processed=%d matched=%d inserted=%d skipped=%d failures=%d",
		result.RunID, len(result.Mailboxes), result.Processed, result.Matched, result.Inserted, result.Skipped, len(result.Failures))

	return result, nil
}

// resolveMailboxes unions every explicit source (call arguments and the
// configured list), lower-cased and deduplicated in order. Only when no
// explicit mailbox exists does it fall back to the active-user directory.
func (s *emailSyncService) resolveMailboxes(ctx context.Context, explicit []string) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailSyncService.resolveMailboxes")
	defer span.Finish()
	tracing.TagComponentService(span)

	var candidates []string
	candidates = append(candidates, explicit...)
	candidates = append(candidates, s.cfg.Mailboxes...)

	normalized := make([]string, 0, len(candidates))
	for _, mailbox := range candidates {
		if m := utils.NormalizeEmailAddress(mailbox); m != "" {
			normalized = append(normalized, m)
		}
	}
	normalized = utils.UniqueEmails(normalized)

	if len(normalized) > 0 {
		return normalized, nil
	}

	directoryEmails, err := s.appUserRepo.GetActiveEmails(ctx, s.cfg.OrgDomain)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "resolve mailboxes from directory")
	}
	for _, email := range directoryEmails {
		if m := utils.NormalizeEmailAddress(email); m != "" {
			normalized = append(normalized, m)
		}
	}
	normalized = utils.UniqueEmails(normalized)

	if len(normalized) == 0 {
		tracing.TraceErr(span, mailsync_errors.ErrNoMailboxesConfigured)
		return nil, mailsync_errors.ErrNoMailboxesConfigured
	}

	return normalized, nil
}

func (s *emailSyncService) lookbackWindow() time.Time {
	days := s.cfg.LookbackDays
	if days <= 0 {
		days = defaultLookbackDays
	}
	return utils.Now().AddDate(0, 0, -days)
}

func (s *emailSyncService) perFolderCap() int {
	limit := s.cfg.MaxPerFolder
	if limit < minPerFolder {
		limit = minPerFolder
	}
	if limit > maxPerFolder {
		limit = maxPerFolder
	}
	return limit
}

// syncMailbox runs the full pipeline for one mailbox: authenticate, fetch
// both folders concurrently, merge, match, sanitize, then one bulk upsert.
// Any returned error is recorded by the caller; it never aborts the run.
func (s *emailSyncService) syncMailbox(ctx context.Context, mailbox string) (*dto.MailboxSyncResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailSyncService.syncMailbox")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagMailbox(span, mailbox)

	token, err := s.graphClient.AcquireToken(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "authenticate")
	}

	// The contact index is rebuilt per mailbox so long runs see fresh
	// contact data.
	index, err := s.buildContactIndex(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "build contact index")
	}

	merged, err := s.fetchAndMerge(ctx, token, mailbox)
	if err != nil {
		return nil, errors.Wrap(err, "fetch")
	}

	mailboxResult := &dto.MailboxSyncResult{
		Mailbox:   mailbox,
		Processed: len(merged),
	}

	var records []*models.SyncedEmail
	var events []dto.LeadEmailAttached

	for _, msg := range merged {
		if !s.isDomainRelevant(msg) {
			continue
		}

		matches := index.Match(msg)
		if len(matches) == 0 {
			mailboxResult.Skipped++
			subject := msg.Subject
			if subject == "" {
				subject = msg.ID
			}
			mailboxResult.SkippedSubjects = append(mailboxResult.SkippedSubjects, subject)
			continue
		}

		preferred := contacts.PreferredContact(matches)
		record := s.buildRecord(ctx, token, mailbox, msg, preferred)
		records = append(records, record)
		events = append(events, dto.LeadEmailAttached{
			ProviderMessageID: record.ProviderMessageID,
			LeadID:            record.LeadID,
			LegacyLeadID:      record.LegacyLeadID,
			Direction:         record.Direction,
			Subject:           record.Subject,
			Mailbox:           mailbox,
		})
	}

	mailboxResult.Matched = len(records)

	if len(records) > 0 {
		inserted, err := s.syncedEmailRepo.UpsertBatch(ctx, records)
		if err != nil {
			return nil, errors.Wrap(err, "upsert")
		}
		mailboxResult.Inserted = int(inserted)
	}

	// Event publishing is best effort; a broker outage must not fail an
	// otherwise stored batch.
	if s.eventsPublisher != nil {
		for _, event := range events {
			if err := s.eventsPublisher.PublishLeadEmailAttached(ctx, event); err != nil {
				tracing.TraceErr(span, err)
				s.log.Warnf("failed to publish lead email event for %s: %v", event.ProviderMessageID, err)
			}
		}
	}

	span.LogKV("processed", mailboxResult.Processed, "matched", mailboxResult.Matched,
		"inserted", mailboxResult.Inserted, "skipped", mailboxResult.Skipped)

	return mailboxResult, nil
}

func (s *emailSyncService) buildContactIndex(ctx context.Context) (*contacts.Index, error) {
	leads, err := s.leadRepo.GetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read leads")
	}
	legacyLeads, err := s.legacyLeadRepo.GetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read legacy leads")
	}
	return contacts.BuildIndex(leads, legacyLeads), nil
}

// fetchAndMerge pulls the inbox and sent folders concurrently, dedupes by
// provider message id (a self-addressed mail shows up in both folders) and
// orders the result newest first.
func (s *emailSyncService) fetchAndMerge(ctx context.Context, token, mailbox string) ([]*graph.Message, error) {
	opts := graph.FetchOptions{
		Since: s.lookbackWindow(),
		Top:   s.perFolderCap(),
	}

	folders := []string{graph.FolderInbox, graph.FolderSentItems}
	results := make([][]*graph.Message, len(folders))
	fetchErrs := make([]error, len(folders))

	var wg sync.WaitGroup
	for i, folder := range folders {
		wg.Add(1)
		go func(i int, folder string) {
			defer wg.Done()
			results[i], fetchErrs[i] = s.graphClient.FetchFolderMessages(ctx, token, mailbox, folder, opts)
		}(i, folder)
	}
	wg.Wait()

	for i, err := range fetchErrs {
		if err != nil {
			return nil, errors.Wrapf(err, "folder %s", folders[i])
		}
	}

	byID := make(map[string]*graph.Message)
	var order []string
	for _, folderMessages := range results {
		for _, msg := range folderMessages {
			if msg.ID == "" {
				continue
			}
			if _, ok := byID[msg.ID]; !ok {
				order = append(order, msg.ID)
			}
			byID[msg.ID] = msg
		}
	}

	merged := make([]*graph.Message, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return effectiveTime(merged[i]).After(effectiveTime(merged[j]))
	})

	return merged, nil
}

// effectiveTime is the message's sort/storage timestamp: received when
// present, else sent, else zero.
func effectiveTime(msg *graph.Message) time.Time {
	if msg.ReceivedAt != nil {
		return *msg.ReceivedAt
	}
	if msg.SentAt != nil {
		return *msg.SentAt
	}
	return time.Time{}
}

// isDomainRelevant keeps only messages with at least one participant on the
// organization's domain, so fully-external mail visible in a shared mailbox
// is never matched or stored.
func (s *emailSyncService) isDomainRelevant(msg *graph.Message) bool {
	if utils.DomainMatches(msg.From.Address, s.cfg.OrgDomain) {
		return true
	}
	for _, r := range msg.To {
		if utils.DomainMatches(r.Address, s.cfg.OrgDomain) {
			return true
		}
	}
	for _, r := range msg.Cc {
		if utils.DomainMatches(r.Address, s.cfg.OrgDomain) {
			return true
		}
	}
	return false
}

func (s *emailSyncService) deriveDirection(msg *graph.Message) enum.EmailDirection {
	if utils.DomainMatches(msg.From.Address, s.cfg.OrgDomain) {
		return enum.EmailOutgoing
	}
	return enum.EmailIncoming
}

// buildRecord derives the stored row for one matched message. Legacy leads
// keep their full quoted history; current leads get signatures and quoted
// replies stripped.
func (s *emailSyncService) buildRecord(ctx context.Context, token, mailbox string, msg *graph.Message, preferred *contacts.NormalizedContact) *models.SyncedEmail {
	raw := msg.Body
	if strings.EqualFold(msg.BodyContentType, "text") {
		raw = sanitizer.PlainTextToHTML(raw)
	}

	preserveHistory := preferred.Source == enum.LeadSourceLegacy
	body, preview := sanitizer.CleanBody(raw, preserveHistory)

	subject := msg.Subject
	if subject == "" {
		subject = noSubjectPlaceholder
	}

	toAddresses := make([]string, 0, len(msg.To))
	for _, r := range msg.To {
		if a := utils.NormalizeEmailAddress(r.Address); a != "" {
			toAddresses = append(toAddresses, a)
		}
	}
	ccAddresses := make([]string, 0, len(msg.Cc))
	for _, r := range msg.Cc {
		if a := utils.NormalizeEmailAddress(r.Address); a != "" {
			ccAddresses = append(ccAddresses, a)
		}
	}

	record := &models.SyncedEmail{
		ProviderMessageID: msg.ID,
		InternetMessageID: utils.StringPtrNillable(utils.NormalizeMessageID(msg.InternetMessageID)),
		ThreadID:          msg.ConversationID,
		FromName:          msg.From.Name,
		FromAddress:       utils.NormalizeEmailAddress(msg.From.Address),
		ToAddresses:       toAddresses,
		CcAddresses:       ccAddresses,
		RecipientList:     strings.Join(append(append([]string{}, toAddresses...), ccAddresses...), ", "),
		Subject:           subject,
		BodyHTML:          body,
		BodyPreview:       preview,
		Direction:         s.deriveDirection(msg),
		UpdatedAt:         utils.Now(),
	}

	if t := effectiveTime(msg); !t.IsZero() {
		record.SentAt = &t
	}

	if preferred.Source == enum.LeadSourceCurrent {
		record.LeadID = utils.StringPtr(preferred.LeadID)
	} else if preferred.HasLegacyID {
		record.LegacyLeadID = utils.Int64Ptr(preferred.LegacyID)
	}

	if msg.HasAttachments {
		record.Attachments = s.collectAttachments(ctx, token, mailbox, msg)
	}

	return record
}

// collectAttachments fetches the attachment list and, when a store is
// configured, uploads inline payloads. Attachment failures degrade to a
// record without attachment metadata rather than failing the mailbox.
func (s *emailSyncService) collectAttachments(ctx context.Context, token, mailbox string, msg *graph.Message) models.JSONArray {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailSyncService.collectAttachments")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagMailbox(span, mailbox)

	attachments, err := s.graphClient.FetchAttachments(ctx, token, mailbox, msg.ID)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("failed to fetch attachments for message %s: %v", msg.ID, err)
		return nil
	}

	out := make(models.JSONArray, 0, len(attachments))
	for _, a := range attachments {
		entry := map[string]interface{}{
			"id":          a.ID,
			"name":        a.Name,
			"contentType": a.ContentType,
			"size":        a.Size,
			"isInline":    a.IsInline,
		}

		if s.storage != nil && a.ContentBytes != "" {
			data, decodeErr := base64.StdEncoding.DecodeString(a.ContentBytes)
			if decodeErr != nil {
				tracing.TraceErr(span, decodeErr)
				s.log.Warnf("failed to decode attachment %s of message %s: %v", a.ID, msg.ID, decodeErr)
			} else {
				key := fmt.Sprintf("%s/%s/%s", mailbox, msg.ID, a.Name)
				if uploadErr := s.storage.Upload(ctx, key, data, a.ContentType); uploadErr != nil {
					tracing.TraceErr(span, uploadErr)
					s.log.Warnf("failed to upload attachment %s of message %s: %v", a.ID, msg.ID, uploadErr)
				} else {
					entry["storageKey"] = key
				}
			}
		}

		out = append(out, entry)
	}

	return out
}
