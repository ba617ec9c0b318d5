package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/opentracing/opentracing-go"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/caseflow/mailsync/config"
	"github.com/caseflow/mailsync/internal/database"
	"github.com/caseflow/mailsync/internal/logger"
	"github.com/caseflow/mailsync/internal/repository"
	"github.com/caseflow/mailsync/internal/tracing"
	"github.com/caseflow/mailsync/server"
	"github.com/caseflow/mailsync/services"
)

func main() {
	app := &cli.App{
		Name:  "mailsync",
		Usage: "syncs mailbox email into the caseflow CRM",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "run database migrations",
				Action: func(c *cli.Context) error {
					_, crmDB := mustSetup()
					if err := repository.MigrateDB(crmDB); err != nil {
						return fmt.Errorf("database migration failed: %w", err)
					}
					log.Println("Database migration completed successfully")
					return nil
				},
			},
			{
				Name:  "sync",
				Usage: "run one sync pass and print the result",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "mailbox",
						Usage: "mailbox address to sync; repeatable, defaults to configured mailboxes",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, crmDB := mustSetup()
					return runOnce(cfg, crmDB, c.StringSlice("mailbox"))
				},
			},
			{
				Name:  "server",
				Usage: "start the application server",
				Action: func(c *cli.Context) error {
					cfg, crmDB := mustSetup()

					log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
					log.Println("MailSync starting up...")

					srv, err := server.NewServer(cfg, crmDB)
					if err != nil {
						return fmt.Errorf("server setup failed: %w", err)
					}

					if err := srv.Run(); err != nil {
						return fmt.Errorf("server startup failed: %w", err)
					}

					log.Println("Shutdown complete")
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func mustSetup() (*config.Config, *gorm.DB) {
	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Config initialization failed: %v", err)
	}

	crmDB, err := database.InitCRMDatabase(&database.DatabaseConfig{
		DBName:          cfg.CRMDatabaseConfig.DBName,
		Host:            cfg.CRMDatabaseConfig.Host,
		Port:            cfg.CRMDatabaseConfig.Port,
		User:            cfg.CRMDatabaseConfig.User,
		Password:        cfg.CRMDatabaseConfig.Password,
		MaxConn:         cfg.CRMDatabaseConfig.MaxConn,
		MaxIdleConn:     cfg.CRMDatabaseConfig.MaxIdleConn,
		ConnMaxLifetime: cfg.CRMDatabaseConfig.ConnMaxLifetime,
		LogLevel:        cfg.CRMDatabaseConfig.LogLevel,
		SSLMode:         cfg.CRMDatabaseConfig.SSLMode,
	})
	if err != nil {
		log.Fatalf("CRM database initialization failed: %v", err)
	}

	return cfg, crmDB
}

// runOnce executes a single sync pass outside the server, for operators and
// cron-less deployments.
func runOnce(cfg *config.Config, crmDB *gorm.DB, mailboxes []string) error {
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		return fmt.Errorf("could not initialize jaeger tracer: %w", err)
	}
	defer closer.Close()
	opentracing.SetGlobalTracer(tracer)

	repos := repository.InitRepositories(crmDB)
	svcs, err := services.InitServices(cfg, appLogger, repos)
	if err != nil {
		return err
	}
	defer svcs.Close()

	result, err := svcs.EmailSyncService.SyncMailboxes(context.Background(), mailboxes...)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
