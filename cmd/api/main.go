package main

import (
	adminHandler "canchas/internal/admin/handler"
	availabilityHandler "canchas/internal/availability/handler"
	availabilityService "canchas/internal/availability/service"
	"canchas/internal/events"
	partiesHandler "canchas/internal/parties/handler"
	partiesRepository "canchas/internal/parties/repository"
	partiesService "canchas/internal/parties/service"
	reservationsHandler "canchas/internal/reservations/handler"
	reservationsRepository "canchas/internal/reservations/repository"
	reservationsService "canchas/internal/reservations/service"
	reservationsValidator "canchas/internal/reservations/validator"
	"canchas/internal/retention"
	"canchas/internal/slotlock"
	venuesHandler "canchas/internal/venues/handler"
	venuesRepository "canchas/internal/venues/repository"
	venuesService "canchas/internal/venues/service"
	venuesValidator "canchas/internal/venues/validator"
	"canchas/pkg/app"
	"canchas/pkg/cache"
	"canchas/pkg/config"
	"canchas/pkg/kafka"
	kafka_config "canchas/pkg/kafka/config"
	kafka_middleware "canchas/pkg/kafka/middleware"
	"canchas/pkg/scheduler"
)

const ServiceName = "canchas-api"

type repositories struct {
	venues       venuesRepository.VenueRepository
	courts       venuesRepository.CourtRepository
	reservations reservationsRepository.ReservationRepository
	parties      partiesRepository.PartyRepository
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.LogConfiguration()

	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Canchas service")
	serverApp := app.NewApplication(cfg)

	publisher := initPublisher(cfg, serverApp)
	repos := initRepositories(cfg)
	handlers := initHandlers(cfg, repos, publisher)
	initRetention(cfg, repos, serverApp)

	serverApp.SetApp(handlers...)
	serverApp.Run()
}

func initRepositories(cfg *config.Config) repositories {
	repos := repositories{
		venues:       venuesRepository.NewMongoVenueRepository(cfg),
		courts:       venuesRepository.NewMongoCourtRepository(cfg),
		reservations: reservationsRepository.NewMongoReservationRepository(cfg),
		parties:      partiesRepository.NewMongoPartyRepository(cfg),
	}
	cfg.Log.Info("Repositories initialized", "database", cfg.MongoDatabaseName)
	return repos
}

// initPublisher falls back to a no-op publisher when events are disabled.
// A broker misconfiguration with events enabled is fatal.
func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Domain events disabled")
		return events.Nop()
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.EventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Warn("Failed to close Kafka producer", "error", err)
		}
	})

	cfg.Log.Info("Domain events enabled", "topic", cfg.EventsTopic, "brokers", kafkaCfg.Brokers)
	return events.NewKafkaPublisher(producer, ServiceName, cfg.Log)
}

func initHandlers(cfg *config.Config, repos repositories, publisher events.Publisher) []app.Handler {
	locker := slotlock.NewLocker(
		slotlock.NewMongoRepository(cfg),
		slotlock.Options{
			TTL:        cfg.LockTTL,
			Attempts:   cfg.LockRetryAttempts,
			RetryDelay: cfg.LockRetryDelay,
		},
		cfg.Log,
	)
	bookingValidator := reservationsValidator.NewReservationValidator(cfg.Log)
	searchCache := cache.NewSearchCache(cfg.Client.Redis, cfg.SearchCacheTTL, cfg.Log)
	publisher = availabilityService.InvalidatingPublisher(publisher, searchCache)

	venueService := venuesService.NewVenueService(
		repos.venues,
		repos.courts,
		repos.reservations,
		repos.parties,
		venuesValidator.NewVenueValidator(cfg.Log),
		publisher,
		cfg,
	)
	reservationService := reservationsService.NewReservationService(
		repos.reservations,
		repos.courts,
		repos.venues,
		repos.parties,
		locker,
		bookingValidator,
		publisher,
		cfg,
	)
	partyService := partiesService.NewPartyService(
		repos.parties,
		repos.venues,
		repos.reservations,
		locker,
		bookingValidator,
		publisher,
		cfg,
	)
	searchService := availabilityService.NewSearchService(
		repos.venues,
		repos.courts,
		repos.reservations,
		repos.parties,
		searchCache,
		cfg,
	)

	cfg.Log.Info("Services initialized",
		"consistency", cfg.ReservationConsistency,
		"party_blocks_courts", cfg.PartyBlocksCourts,
	)

	return []app.Handler{
		venuesHandler.NewVenueHandler(venueService, cfg.Log),
		reservationsHandler.NewReservationHandler(reservationService, bookingValidator, cfg.Location(), cfg.Log),
		partiesHandler.NewPartyHandler(partyService, bookingValidator, cfg.Location(), cfg.Log),
		availabilityHandler.NewSearchHandler(searchService, cfg.Log),
		adminHandler.NewAdminHandler(venueService, cfg.Log),
	}
}

func initRetention(cfg *config.Config, repos repositories, serverApp *app.Application) {
	if !cfg.RetentionEnabled {
		cfg.Log.Info("Booking retention disabled")
		return
	}

	sched, err := scheduler.New(cfg.Log, cfg.Location())
	if err != nil {
		cfg.Log.Fatal("Failed to create scheduler", "error", err)
	}

	purger := retention.NewPurger(repos.reservations, repos.parties, repos.courts, repos.venues, cfg)
	if err := purger.Register(sched); err != nil {
		cfg.Log.Fatal("Failed to register retention job", "error", err)
	}
	sched.Start()

	serverApp.OnShutdown(func() {
		if err := sched.Stop(); err != nil {
			cfg.Log.Warn("Failed to stop scheduler", "error", err)
		}
	})
}
