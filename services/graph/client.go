package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/caseflow/mailsync/config"
	mailsync_errors "github.com/caseflow/mailsync/errors"
	"github.com/caseflow/mailsync/internal/logger"
	"github.com/caseflow/mailsync/internal/tracing"
)

const defaultScope = "https://graph.microsoft.com/.default"

type Service struct {
	cfg        *config.GraphConfig
	log        logger.Logger
	httpClient *http.Client
}

func NewGraphService(cfg *config.GraphConfig, log logger.Logger) *Service {
	return &Service{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// AcquireToken performs the client-credential grant against the identity
// service, scoped to the provider's default application scope.
func (s *Service) AcquireToken(ctx context.Context) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GraphService.AcquireToken")
	defer span.Finish()
	tracing.TagComponentService(span)

	if s.cfg.TenantID == "" || s.cfg.ClientID == "" || s.cfg.ClientSecret == "" {
		tracing.TraceErr(span, mailsync_errors.ErrGraphNotConfigured)
		return "", mailsync_errors.ErrGraphNotConfigured
	}

	creds := &clientcredentials.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", s.cfg.Authority, s.cfg.TenantID),
		Scopes:       []string{defaultScope},
	}

	token, err := creds.Token(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "acquire token")
	}
	if token.AccessToken == "" {
		tracing.TraceErr(span, mailsync_errors.ErrMissingAccessToken)
		return "", mailsync_errors.ErrMissingAccessToken
	}

	return token.AccessToken, nil
}

// dateFilterField returns the provider field the folder's date filter and
// sort apply to: received time for inbound folders, sent time for sentitems.
func dateFilterField(folder string) string {
	if folder == FolderSentItems {
		return "sentDateTime"
	}
	return "receivedDateTime"
}

// FetchFolderMessages pages through one folder's message list, newest first,
// following the provider's next-page links until opts.Top messages have been
// collected or pagination ends.
func (s *Service) FetchFolderMessages(ctx context.Context, token, mailbox, folder string, opts FetchOptions) ([]*Message, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GraphService.FetchFolderMessages")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagMailbox(span, mailbox)
	span.LogKV("folder", folder)

	field := dateFilterField(folder)
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > opts.Top {
		pageSize = opts.Top
	}

	params := url.Values{}
	params.Set("$select", "id,internetMessageId,subject,from,toRecipients,ccRecipients,sentDateTime,receivedDateTime,conversationId,body,hasAttachments")
	params.Set("$filter", fmt.Sprintf("%s ge %s", field, opts.Since.UTC().Format(time.RFC3339)))
	params.Set("$orderby", field+" desc")
	params.Set("$top", fmt.Sprintf("%d", pageSize))

	firstURL := fmt.Sprintf("%s/users/%s/mailFolders/%s/messages?%s",
		s.cfg.BaseURL, url.PathEscape(mailbox), folder, params.Encode())

	var messages []*Message
	for nextURL := firstURL; nextURL != "" && len(messages) < opts.Top; {
		page, err := s.fetchMessagesPage(ctx, token, nextURL)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}

		for i := range page.Value {
			if len(messages) >= opts.Top {
				break
			}
			messages = append(messages, page.Value[i].toMessage())
		}

		nextURL = page.NextLink
	}

	span.LogKV("fetched", len(messages))
	return messages, nil
}

func (s *Service) fetchMessagesPage(ctx context.Context, token, pageURL string) (*graphMessagesPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build messages request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch messages page")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		s.log.Errorf("graph messages request failed: status=%d body=%s", resp.StatusCode, string(body))
		return nil, errors.Errorf("graph messages request returned HTTP %d", resp.StatusCode)
	}

	var page graphMessagesPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, errors.Wrap(err, "decode messages page")
	}

	return &page, nil
}

// FetchAttachments retrieves the attachment list of one message.
func (s *Service) FetchAttachments(ctx context.Context, token, mailbox, messageID string) ([]*Attachment, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GraphService.FetchAttachments")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagMailbox(span, mailbox)

	attachmentsURL := fmt.Sprintf("%s/users/%s/messages/%s/attachments",
		s.cfg.BaseURL, url.PathEscape(mailbox), url.PathEscape(messageID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, attachmentsURL, nil)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "build attachments request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "fetch attachments")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		s.log.Errorf("graph attachments request failed: status=%d body=%s", resp.StatusCode, string(body))
		return nil, errors.Errorf("graph attachments request returned HTTP %d", resp.StatusCode)
	}

	var page graphAttachmentsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "decode attachments")
	}

	attachments := make([]*Attachment, 0, len(page.Value))
	for _, a := range page.Value {
		attachments = append(attachments, &Attachment{
			ID:           a.ID,
			Name:         a.Name,
			ContentType:  a.ContentType,
			Size:         a.Size,
			IsInline:     a.IsInline,
			ContentBytes: a.ContentBytes,
		})
	}

	return attachments, nil
}
