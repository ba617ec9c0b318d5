package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mailsync_errors "github.com/caseflow/mailsync/errors"
	"github.com/caseflow/mailsync/interfaces"
	"github.com/caseflow/mailsync/internal/tracing"
)

type syncRequest struct {
	// Mailboxes optionally narrows the run to specific addresses; empty means
	// the configured or directory-resolved set.
	Mailboxes []string `json:"mailboxes"`
}

// TriggerSync runs one sync pass synchronously and returns the aggregate
// result.
func TriggerSync(emailSync interfaces.EmailSyncService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "TriggerSync", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var req syncRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				tracing.TraceErr(span, err)
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		result, err := emailSync.SyncMailboxes(ctx, req.Mailboxes...)
		if err != nil {
			tracing.TraceErr(span, err)
			if err == mailsync_errors.ErrNoMailboxesConfigured {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
