package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/caseflow/mailsync/internal/logger"
	"github.com/caseflow/mailsync/internal/tracing"
)

type Config struct {
	AppConfig         *AppConfig
	Logger            *logger.Config
	Tracing           *tracing.JaegerConfig
	CRMDatabaseConfig *CRMDatabaseConfig
	GraphConfig       *GraphConfig
	SyncConfig        *SyncConfig
	R2StorageConfig   *R2StorageConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:         &AppConfig{},
		Logger:            &logger.Config{},
		Tracing:           &tracing.JaegerConfig{},
		CRMDatabaseConfig: &CRMDatabaseConfig{},
		GraphConfig:       &GraphConfig{},
		SyncConfig:        &SyncConfig{},
		R2StorageConfig:   &R2StorageConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading mailsync config: %v", err)
	}

	config.AppConfig.Logger = config.Logger
	config.AppConfig.Tracing = config.Tracing

	return config, nil
}
