package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"villaledger/internal/app/commands"
	"villaledger/internal/app/dto"
	backupapp "villaledger/internal/app/handlers/backup"
	calendarapp "villaledger/internal/app/handlers/calendar"
	pricingapp "villaledger/internal/app/handlers/pricing"
	"villaledger/internal/app/handlers/remotesync"
	reservationsapp "villaledger/internal/app/handlers/reservations"
	settingsapp "villaledger/internal/app/handlers/settings"
	"villaledger/internal/app/middleware"
	appoutbox "villaledger/internal/app/outbox"
	"villaledger/internal/app/policies"
	"villaledger/internal/app/queries"
	"villaledger/internal/domain/pricing"
	"villaledger/internal/domain/reservations"
	"villaledger/internal/domain/stay"
	"villaledger/internal/infra/broker/kafka"
	rediscache "villaledger/internal/infra/cache/redis"
	"villaledger/internal/infra/config"
	mongostore "villaledger/internal/infra/db/mongo"
	ginserver "villaledger/internal/infra/http/gin"
	"villaledger/internal/infra/obs"
	"villaledger/internal/infra/outbox"
	"villaledger/internal/infra/schedule"
	"villaledger/internal/infra/sheets"
	"villaledger/internal/infra/snapshot"
	"villaledger/internal/infra/storage/memory"
	"villaledger/internal/infra/storage/s3"
	"villaledger/internal/infra/validation"
)

type application struct {
	handlers         ginserver.Handlers
	commands         commands.Bus
	rules            pricing.RuleRepository
	relay            *outbox.Worker
	scheduler        *schedule.Runner
	checks           map[string]obs.Check
	remoteConfigured bool
	closers          []namedCloser
}

type namedCloser struct {
	name string
	fn   func() error
}

func (a *application) close(logger *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		closeQuietly(logger, a.closers[i].name, a.closers[i].fn)
	}
}

// outboxStore is both the sink commands write to and the queue the relay drains.
type outboxStore interface {
	appoutbox.Outbox
	outbox.Queue
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{checks: map[string]obs.Check{}}
	loc := cfg.Location()

	precedence, err := stay.ParsePrecedence(cfg.PricePrecedence)
	if err != nil {
		return nil, err
	}

	var (
		reservationRepo reservations.Repository
		settingsStore   policies.SettingsStore
		idemStore       middleware.IdempotencyStore
		events          outboxStore
		ruleRepo        pricing.RuleRepository
		mongoClient     *mongostore.Client
	)

	if cfg.StorageMode == config.StorageMongo || cfg.RulesStore == config.StorageMongo {
		mongoClient, err = mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		app.checks["mongo"] = mongoClient.Ping
		app.closers = append(app.closers, namedCloser{"mongo", func() error { return mongoClient.Close(context.Background()) }})
	}

	switch cfg.StorageMode {
	case config.StorageMongo:
		reservationRepo = mongostore.NewReservationRepository(mongoClient.DB)
		settingsStore = mongostore.NewSettingsStore(mongoClient.DB, cfg.CommissionRate)
		idemStore = mongostore.NewIdempotencyStore(mongoClient.DB, cfg.IdempotencyTTL)
		events = outbox.NewMongoStore(mongoClient.DB)
	default:
		reservationRepo = memory.NewReservationRepository()
		settingsStore = memory.NewSettingsStore(cfg.CommissionRate)
		idemStore = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
		events = outbox.NewMemoryStore()
	}

	switch cfg.RulesStore {
	case config.StorageMongo:
		ruleRepo = mongostore.NewRuleRepository(mongoClient.DB)
	case config.StorageRedis:
		client, err := rediscache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		app.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		app.closers = append(app.closers, namedCloser{"redis", client.Close})
		ruleRepo = rediscache.NewRuleRepository(client, cfg.RedisRulesKey)
	default:
		ruleRepo = memory.NewRuleRepository(nil)
	}
	app.rules = ruleRepo

	var producer outbox.Producer = outbox.LogProducer{Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := kafka.NewProducer(cfg.KafkaBrokers, "villaledger")
		if err != nil {
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		app.closers = append(app.closers, namedCloser{"kafka", kp.Close})
		producer = kp
	}
	app.relay = &outbox.Worker{
		Queue:       events,
		Producer:    producer,
		Logger:      logger,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
	}

	snap := snapshot.NewFileStore(cfg.SnapshotPath, loc)
	snap.Logger = logger
	if cfg.S3Endpoint != "" {
		mirror, err := s3.NewMirror(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, logger)
		if err != nil {
			return nil, err
		}
		snap.Mirror = mirror
		app.checks["s3"] = mirror.Ping
	}

	var remote policies.RemoteStore
	if cfg.RemoteStoreURL != "" {
		remote = sheets.NewClient(cfg.RemoteStoreURL, cfg.RemoteStoreTimeout)
		app.remoteConfigured = true
	}

	backupSvc := &backupapp.Service{
		Reservations: reservationRepo,
		Rules:        ruleRepo,
		Snapshot:     snap,
		Logger:       logger,
	}
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler[pricingapp.AddRuleCommand, dto.PriceRule](commandBus, pricingapp.AddRuleCommand{}.Key(), &pricingapp.AddRuleHandler{
		Rules: ruleRepo, Outbox: events, Encoder: encoder, Backup: backupSvc,
	})
	commands.RegisterHandler[pricingapp.DeleteRuleCommand, []dto.PriceRule](commandBus, pricingapp.DeleteRuleCommand{}.Key(), &pricingapp.DeleteRuleHandler{
		Rules: ruleRepo, Outbox: events, Encoder: encoder, Backup: backupSvc,
	})
	commands.RegisterHandler[reservationsapp.SaveReservationCommand, dto.SaveReservationResult](commandBus, reservationsapp.SaveReservationCommand{}.Key(), &reservationsapp.SaveReservationHandler{
		Reservations: reservationRepo,
		Rules:        ruleRepo,
		Settings:     settingsStore,
		Remote:       remote,
		Outbox:       events,
		Encoder:      encoder,
		Backup:       backupSvc,
		Precedence:   precedence,
		StrictRates:  cfg.StrictRates,
	})
	commands.RegisterHandler[reservationsapp.DeleteReservationCommand, struct{}](commandBus, reservationsapp.DeleteReservationCommand{}.Key(), &reservationsapp.DeleteReservationHandler{
		Reservations: reservationRepo, Remote: remote, Outbox: events, Encoder: encoder, Backup: backupSvc,
	})
	commands.RegisterHandler[backupapp.RunBackupCommand, dto.BackupResult](commandBus, backupapp.RunBackupCommand{}.Key(), &backupapp.RunBackupHandler{Service: backupSvc})
	commands.RegisterHandler[remotesync.SyncRemoteCommand, dto.SyncResult](commandBus, remotesync.SyncRemoteCommand{}.Key(), &remotesync.SyncRemoteHandler{
		Remote:       remote,
		Reservations: reservationRepo,
		Rules:        ruleRepo,
		Settings:     settingsStore,
		Snapshot:     snap,
		Backup:       backupSvc,
		Logger:       logger,
	})
	commands.RegisterHandler[settingsapp.UpdateSettingsCommand, dto.Settings](commandBus, settingsapp.UpdateSettingsCommand{}.Key(), &settingsapp.UpdateSettingsHandler{
		Settings: settingsStore, Precedence: precedence,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[pricingapp.ListRulesQuery, []dto.PriceRule](queryBus, pricingapp.ListRulesQuery{}.Key(), &pricingapp.ListRulesHandler{Rules: ruleRepo})
	queries.RegisterHandler[pricingapp.ResolveNightlyQuery, dto.NightlyPrice](queryBus, pricingapp.ResolveNightlyQuery{}.Key(), &pricingapp.ResolveNightlyHandler{Rules: ruleRepo})
	queries.RegisterHandler[pricingapp.RangePriceQuery, dto.RangePrice](queryBus, pricingapp.RangePriceQuery{}.Key(), &pricingapp.RangePriceHandler{Rules: ruleRepo})
	queries.RegisterHandler[pricingapp.QuoteStayQuery, dto.StayQuote](queryBus, pricingapp.QuoteStayQuery{}.Key(), &pricingapp.QuoteStayHandler{Rules: ruleRepo, Settings: settingsStore})
	queries.RegisterHandler[pricingapp.QuickCalcQuery, dto.QuickCalc](queryBus, pricingapp.QuickCalcQuery{}.Key(), &pricingapp.QuickCalcHandler{Rules: ruleRepo})
	queries.RegisterHandler[reservationsapp.ListReservationsQuery, []dto.Reservation](queryBus, reservationsapp.ListReservationsQuery{}.Key(), &reservationsapp.ListReservationsHandler{Reservations: reservationRepo})
	queries.RegisterHandler[reservationsapp.GetReservationQuery, dto.Reservation](queryBus, reservationsapp.GetReservationQuery{}.Key(), &reservationsapp.GetReservationHandler{Reservations: reservationRepo})
	queries.RegisterHandler[reservationsapp.DashboardQuery, dto.Dashboard](queryBus, reservationsapp.DashboardQuery{}.Key(), &reservationsapp.DashboardHandler{Reservations: reservationRepo, Location: loc})
	queries.RegisterHandler[reservationsapp.CheckoutAlertsQuery, []dto.CheckoutAlert](queryBus, reservationsapp.CheckoutAlertsQuery{}.Key(), &reservationsapp.CheckoutAlertsHandler{Reservations: reservationRepo, Location: loc})
	queries.RegisterHandler[calendarapp.MonthCalendarQuery, dto.Calendar](queryBus, calendarapp.MonthCalendarQuery{}.Key(), &calendarapp.MonthCalendarHandler{Reservations: reservationRepo, Location: loc})
	queries.RegisterHandler[backupapp.ReadBackupQuery, dto.Backup](queryBus, backupapp.ReadBackupQuery{}.Key(), &backupapp.ReadBackupHandler{Snapshot: snap})
	queries.RegisterHandler[settingsapp.GetSettingsQuery, dto.Settings](queryBus, settingsapp.GetSettingsQuery{}.Key(), &settingsapp.GetSettingsHandler{Settings: settingsStore, Precedence: precedence})

	validator := validation.New()
	commandPipeline := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Validation(validator),
		middleware.Idempotency(idemStore, nil),
		middleware.OutboxFlush(events),
	)
	queryPipeline := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(validator),
	)
	app.commands = commandPipeline

	app.handlers = ginserver.Handlers{
		Pricing:      ginserver.PricingHandler{Commands: commandPipeline, Queries: queryPipeline, Logger: logger},
		Reservations: ginserver.ReservationHandler{Commands: commandPipeline, Queries: queryPipeline, Logger: logger},
		Calendar:     ginserver.CalendarHandler{Queries: queryPipeline, Logger: logger},
		Admin:        ginserver.AdminHandler{Commands: commandPipeline, Queries: queryPipeline, Logger: logger},
	}

	if cfg.BackupSchedule != "" {
		runner := schedule.NewRunner(loc, logger)
		err := runner.Add("snapshot-backup", cfg.BackupSchedule, func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			_, err := backupSvc.Run(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		app.scheduler = runner
	}

	logger.Info("application wired",
		"commands", len(commandBus.Keys()),
		"queries", len(queryBus.Keys()),
		"remote_store", app.remoteConfigured,
		"kafka", len(cfg.KafkaBrokers) > 0,
	)
	return app, nil
}
