package services

import (
	"github.com/caseflow/mailsync/config"
	"github.com/caseflow/mailsync/interfaces"
	"github.com/caseflow/mailsync/internal/logger"
	"github.com/caseflow/mailsync/internal/repository"
	"github.com/caseflow/mailsync/services/emailsync"
	"github.com/caseflow/mailsync/services/events"
	"github.com/caseflow/mailsync/services/graph"
	"github.com/caseflow/mailsync/services/storage"
)

type Services struct {
	GraphService     interfaces.GraphClient
	EventsPublisher  interfaces.EventsPublisher
	StorageService   interfaces.StorageService
	EmailSyncService interfaces.EmailSyncService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	services := &Services{
		GraphService: graph.NewGraphService(cfg.GraphConfig, log),
	}

	// Broker and attachment store are optional; absence disables the feature
	// instead of failing startup.
	if cfg.AppConfig.RabbitMQURL != "" {
		publisher, err := events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log, nil)
		if err != nil {
			return nil, err
		}
		services.EventsPublisher = publisher
	}

	r2, err := storage.NewR2Service(cfg.R2StorageConfig)
	if err != nil {
		return nil, err
	}
	if r2 != nil {
		services.StorageService = r2
	}

	services.EmailSyncService = emailsync.NewEmailSyncService(
		cfg.SyncConfig,
		log,
		services.GraphService,
		repos.LeadRepository,
		repos.LegacyLeadRepository,
		repos.AppUserRepository,
		repos.SyncedEmailRepository,
		services.EventsPublisher,
		services.StorageService,
	)

	return services, nil
}

func (s *Services) Close() error {
	if s.EventsPublisher != nil {
		return s.EventsPublisher.Close()
	}
	return nil
}
