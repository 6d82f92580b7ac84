package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"iva-service/internal/config"
	"iva-service/internal/database"
	"iva-service/internal/handlers"
	"iva-service/internal/logger"
	"iva-service/internal/repositories"
	"iva-service/internal/services"
)

func main() {
	configPath := flag.String("config", ".env", "Path to the env config file")
	migrateCmd := flag.String("migrate", "", "Migration command (up/down/version)")
	steps := flag.Int("steps", 0, "Number of migration steps (0 means all)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatal().Err(err).Msg("Error setting up logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(ctx, cfg, logger.WithComponent("database"))
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	defer db.Close()

	if *migrateCmd != "" {
		handleMigration(cfg, *migrateCmd, *steps, logger.WithComponent("migrate"))
		return
	}

	salesRepo := repositories.NewSalesInvoiceRepository(db)
	purchaseRepo := repositories.NewPurchaseInvoiceRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	salesService := services.NewSalesService(db, salesRepo, auditRepo, logger.WithComponent("sales"))
	purchaseService := services.NewPurchaseService(db, purchaseRepo, auditRepo, logger.WithComponent("purchases"))
	reconcileService := services.NewReconcileService(logger.WithComponent("reconcile"))

	router := handlers.SetupRouter(handlers.Handlers{
		Sales:     handlers.NewSalesHandler(salesService, cfg.PageSize, cfg.MaxUploadBytes),
		Purchases: handlers.NewPurchaseHandler(purchaseService, cfg.PageSize, cfg.MaxUploadBytes),
		Close:     handlers.NewCloseHandler(salesService, purchaseService),
		Reconcile: handlers.NewReconcileHandler(reconcileService, cfg.PageSize, cfg.MaxUploadBytes),
	}, logger.WithComponent("http"))

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.ServerAddress).Str("environment", cfg.Environment).Msg("Server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown failed")
	}
	log.Info().Msg("Server exited gracefully")
}

// handleMigration runs after NewConnection, which creates the database
// when it does not exist yet.
func handleMigration(cfg *config.Config, command string, steps int, log zerolog.Logger) {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", cfg.Migration.Dir),
		cfg.GetMigrationDBURL(),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize migrate")
	}
	defer m.Close()

	switch command {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verErr := m.Version()
		if verErr != nil {
			if errors.Is(verErr, migrate.ErrNilVersion) {
				log.Info().Msg("No migrations have been applied yet")
				return
			}
			log.Fatal().Err(verErr).Msg("Failed to get version")
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current migration version")
		return
	default:
		log.Fatal().Str("command", command).Msg("Invalid migration command")
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("No migration changes to apply")
			return
		}
		log.Fatal().Err(err).Msg("Migration failed")
	}

	log.Info().Msg("Migration completed successfully")
}
