package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bloodbank/internal/adapter/repo"
	"bloodbank/internal/dhis2"
	"bloodbank/internal/health"
	"bloodbank/internal/http/handlers"
	"bloodbank/internal/http/httpapi"
	"bloodbank/internal/importer"
	"bloodbank/internal/infra"
	"bloodbank/internal/syncer"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	registry, err := dhis2.New(dhis2.Config{
		BaseURL:       cfg.DHIS2BaseURL,
		Username:      cfg.DHIS2Username,
		Password:      cfg.DHIS2Password,
		APIVersion:    cfg.DHIS2APIVersion,
		Timeout:       cfg.DHIS2Timeout,
		MaxTries:      uint(cfg.DHIS2MaxTries),
		RetryInterval: cfg.DHIS2RetryInterval,
		Mapper: dhis2.Mapper{
			OrgUnit: cfg.DHIS2OrgUnit,
			Elements: dhis2.ElementIDs{
				BloodType:      cfg.DHIS2ElementBloodType,
				Volume:         cfg.DHIS2ElementVolume,
				InventoryCount: cfg.DHIS2ElementInventory,
			},
			Attributes: dhis2.AttributeIDs{
				TrackedEntityType: cfg.DHIS2TrackedEntityType,
				DonorID:           cfg.DHIS2AttrDonorID,
				DonorAge:          cfg.DHIS2AttrDonorAge,
				DonorGender:       cfg.DHIS2AttrDonorGender,
			},
		},
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build registry client")
	}

	auditor := repo.NewAuditor(repo.NewAuditRepository(dbpool), "api", logger)
	donors := auditor.Donors(repo.NewDonorRepository(dbpool))
	donations := auditor.Donations(repo.NewDonationRepository(dbpool))
	products := auditor.Products(repo.NewProductRepository(dbpool))
	screenings := auditor.Screenings(repo.NewScreeningRepository(dbpool))
	movements := auditor.Movements(repo.NewMovementRepository(dbpool))
	jobs := repo.NewSyncJobRepository(dbpool)
	status := repo.NewSyncStatusRepository(dbpool)

	imp := importer.New(donors, donations, products, screenings, movements, logger)
	orch := syncer.New(jobs, status, donors, donations, products, registry, syncer.NewDedupCache(), syncer.Options{
		JobTimeout: cfg.SyncJobTimeout,
		BatchSize:  cfg.SyncBatchSize,
	}, logger)
	hlth := health.New(health.PingFunc(dbpool.Ping), registry, status, 5*time.Second)

	app := handlers.NewApp(imp, orch, hlth, jobs, products, logger)
	router := httpapi.NewRouter(app, logger, httpapi.RateLimits{
		General: cfg.RateLimitPerMin,
		Import:  cfg.ImportRateLimitPerMin,
		Sync:    cfg.SyncRateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

