package api

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/caseflow/mailsync/api/handlers"
	"github.com/caseflow/mailsync/api/middleware"
	"github.com/caseflow/mailsync/internal/repository"
	"github.com/caseflow/mailsync/internal/tracing"
	"github.com/caseflow/mailsync/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, s *services.Services, repos *repository.Repositories, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-CASEFLOW-API-KEY",
		ValidAPIKey: apikey,
	})

	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	{
		api.POST("/sync", handlers.TriggerSync(s.EmailSyncService))

		api.GET("/emails/:id", handlers.GetEmail(repos))
		api.GET("/leads/:id/emails", handlers.ListLeadEmails(repos))
		api.GET("/legacy-leads/:id/emails", handlers.ListLegacyLeadEmails(repos))
	}
}
