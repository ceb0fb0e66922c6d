package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedledger/internal/config"
	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/metrics"
	"github.com/mamadbah2/feedledger/internal/repository"
	"github.com/mamadbah2/feedledger/internal/repository/memory"
	"github.com/mamadbah2/feedledger/internal/repository/mongodb"
	"github.com/mamadbah2/feedledger/internal/repository/sheets"
	"github.com/mamadbah2/feedledger/internal/scheduler"
	"github.com/mamadbah2/feedledger/internal/server/handlers"
	"github.com/mamadbah2/feedledger/internal/server/router"
	batchsvc "github.com/mamadbah2/feedledger/internal/service/batches"
	commandsvc "github.com/mamadbah2/feedledger/internal/service/commands"
	costsvc "github.com/mamadbah2/feedledger/internal/service/costs"
	"github.com/mamadbah2/feedledger/internal/service/feeding"
	inventorysvc "github.com/mamadbah2/feedledger/internal/service/inventory"
	"github.com/mamadbah2/feedledger/internal/service/notifications"
	reportingsvc "github.com/mamadbah2/feedledger/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/feedledger/internal/service/whatsapp"
	pushclient "github.com/mamadbah2/feedledger/pkg/clients/push"
	whatsappclient "github.com/mamadbah2/feedledger/pkg/clients/whatsapp"
	"github.com/mamadbah2/feedledger/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	var baseLogger *zap.Logger
	if cfg.Storage.Driver == config.StorageMemory {
		baseLogger = logger.Must(logger.NewDevelopment())
	} else {
		baseLogger = logger.Must(logger.New())
	}
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx := context.Background()

	store, err := openStore(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close storage", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(reg)

	ledgerLoc, _ := time.LoadLocation(cfg.Ledger.Timezone)
	ledger := feeding.NewLedger(
		feeding.Stores{Feedings: store, Batches: store, Inventory: store, Costs: store},
		baseLogger.Named("svc.feeding"),
		feeding.WithLocation(ledgerLoc),
		feeding.WithDefaults(cfg.Ledger.HistoryLimit, cfg.Ledger.SeriesDays),
		feeding.WithMetrics(appMetrics),
	)

	batchService := batchsvc.NewService(store, baseLogger.Named("svc.batches"))
	inventoryService := inventorysvc.NewService(store, store, baseLogger.Named("svc.inventory"))
	costService := costsvc.NewService(store, baseLogger.Named("svc.costs"))

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Warn("google sheets not configured, report export disabled")
	}
	reportingService := reportingsvc.NewService(store, store, ledger, sheetsRepo, cfg.Sheets.ReportRange, ledgerLoc, baseLogger.Named("svc.reporting"))

	senders := map[models.Channel]notifications.Sender{}
	if cfg.Push.Enabled() {
		senders[models.ChannelPush] = notifications.PushSender{Client: pushclient.NewClient(cfg.Push)}
	}

	var webhookHandler *handlers.WebhookHandler
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		senders[models.ChannelWhatsApp] = notifications.WhatsAppSender{Client: whatsClient}

		commandDispatcher := commandsvc.NewService(ledger, baseLogger.Named("svc.commands"))
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
		webhookHandler = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
	} else {
		baseLogger.Warn("whatsapp credentials missing, webhook and whatsapp notifications disabled")
	}
	notificationService := notifications.NewService(store, senders, appMetrics, baseLogger.Named("svc.notifications"))

	engine := router.New(router.Handlers{
		Batches:       handlers.NewBatchHandler(batchService, baseLogger.Named("handlers.batches")),
		Feedings:      handlers.NewFeedingHandler(ledger, baseLogger.Named("handlers.feedings")),
		Inventory:     handlers.NewInventoryHandler(inventoryService, baseLogger.Named("handlers.inventory")),
		Costs:         handlers.NewCostHandler(costService, baseLogger.Named("handlers.costs")),
		Notifications: handlers.NewNotificationHandler(notificationService, baseLogger.Named("handlers.notifications")),
		Reports:       handlers.NewReportHandler(reportingService, baseLogger.Named("handlers.reports")),
		Webhook:       webhookHandler,
	}, reg, appMetrics, baseLogger.Named("router"))

	if cfg.Reporting.Enabled {
		reportLoc, _ := time.LoadLocation(cfg.Reporting.Timezone)
		sched := scheduler.NewScheduler(cfg.Reporting.CronSchedule, reportLoc, reportingService, notificationService, baseLogger.Named("scheduler"))
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, base *zap.Logger) (repository.Store, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		base.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	repo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, base.Named("repo.mongodb"))
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureIndexes(connectCtx); err != nil {
		_ = repo.Close(ctx)
		return nil, err
	}
	return repo, nil
}
