package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/caseflow/mailsync/internal/repository"
	"github.com/caseflow/mailsync/internal/tracing"
)

const defaultPageSize = 50

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if limit <= 0 || limit > 200 {
		limit = defaultPageSize
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ListLeadEmails returns the synced emails attached to one current lead,
// newest first.
func ListLeadEmails(repos *repository.Repositories) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ListLeadEmails", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagLead(span, c.Param("id"))

		limit, offset := pagination(c)
		emails, total, err := repos.SyncedEmailRepository.ListByLead(ctx, c.Param("id"), limit, offset)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"emails": emails, "total": total})
	}
}

// ListLegacyLeadEmails returns the synced emails attached to one legacy lead.
func ListLegacyLeadEmails(repos *repository.Repositories) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ListLegacyLeadEmails", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		legacyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid legacy lead id"})
			return
		}

		limit, offset := pagination(c)
		emails, total, err := repos.SyncedEmailRepository.ListByLegacyLead(ctx, legacyID, limit, offset)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"emails": emails, "total": total})
	}
}

// GetEmail returns one synced email by its provider message id.
func GetEmail(repos *repository.Repositories) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "GetEmail", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		email, err := repos.SyncedEmailRepository.GetByProviderMessageID(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if email == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
			return
		}

		c.JSON(http.StatusOK, email)
	}
}
