package main

import (
	"context"

	"megastrength/internal/bookings/events"
	"megastrength/internal/bookings/handler"
	"megastrength/internal/bookings/metrics"
	"megastrength/internal/bookings/repository"
	"megastrength/internal/bookings/service"
	"megastrength/internal/bookings/validator"
	"megastrength/pkg/app"
	"megastrength/pkg/config"
	"megastrength/pkg/kafka"
	kafkamiddleware "megastrength/pkg/kafka/middleware"
	"megastrength/pkg/obs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Bookings service")

	shutdownTracer, err := obs.InitTracer(context.Background(), cfg.Log, ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		cfg.Log.Fatal("Failed to initialise tracing", "error", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	repo := initRepository(cfg)
	if cfg.UsesRedis() {
		cfg.SetRedis()
	}
	publisher := initPublisher(cfg, registry)
	bookingService := service.NewBookingService(
		repo,
		initSlotLocker(cfg),
		validator.NewBookingValidator(cfg.Log, cfg.BookingTimeSlots, cfg.PhoneRegion),
		publisher,
		metrics.New(registry),
		cfg,
	)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewBookingHandler(bookingService, cfg.Log),
		handler.NewHealthHandler(repo, registry, cfg.Log),
	)
	serverApp.OnShutdown(func(ctx context.Context) error { return publisher.Close() })
	serverApp.OnShutdown(app.ShutdownHook(shutdownTracer))
	serverApp.Run()
}

func initRepository(cfg *config.Config) repository.BookingRepository {
	if cfg.UsesSQL() {
		cfg.SetSQL()
		cfg.Log.Info("Booking repository initialized", "backend", cfg.StorageBackend, "database", cfg.SQLDatabase)
		return repository.NewGormBookingRepository(cfg.Client.SQL)
	}

	cfg.SetMongo()
	cfg.Log.Info("Booking repository initialized", "backend", cfg.StorageBackend, "database", cfg.MongoDatabaseName)
	return repository.NewMongoBookingRepository(cfg)
}

func initSlotLocker(cfg *config.Config) repository.SlotLocker {
	switch cfg.SlotLockBackend {
	case config.SlotLockRedis:
		return repository.NewRedisSlotLocker(cfg.Client.Redis)
	case config.SlotLockMongo:
		if cfg.Client.Mongo == nil {
			cfg.SetMongo()
		}
		return repository.NewMongoSlotLocker(cfg.Client.Mongo.Database(cfg.MongoDatabaseName))
	default:
		cfg.Log.Warn("Slot locking disabled; the storage unique index still prevents double booking")
		return repository.NewNoopSlotLocker()
	}
}

func initPublisher(cfg *config.Config, registry prometheus.Registerer) events.Publisher {
	if !cfg.Kafka.Enabled {
		cfg.Log.Info("Kafka disabled, booking events will not be published")
		return events.NewNoopPublisher()
	}

	producer, err := kafka.NewProducer(cfg.Kafka, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafkamiddleware.NewMetrics(registry).ProducerMiddleware())

	cfg.Log.Info("Publishing booking events", "topic", cfg.Kafka.BookingTopic)
	return events.NewKafkaPublisher(producer)
}
