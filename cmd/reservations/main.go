package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"

	fleethandler "fleetbook/internal/fleet/handler"
	fleetrepository "fleetbook/internal/fleet/repository"
	fleetservice "fleetbook/internal/fleet/service"
	"fleetbook/internal/identity"
	"fleetbook/internal/reservations/availability"
	"fleetbook/internal/reservations/handler"
	"fleetbook/internal/reservations/notify"
	"fleetbook/internal/reservations/repository"
	"fleetbook/internal/reservations/service"
	"fleetbook/internal/reservations/sweeper"
	"fleetbook/internal/reservations/validator"
	"fleetbook/pkg/app"
	"fleetbook/pkg/config"
	"fleetbook/pkg/kafka"
	kafkaconfig "fleetbook/pkg/kafka/config"
)

const serviceName = "reservations"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(serviceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	mongoClient := cfg.Client.Mongo

	kafkaCfg, err := kafkaconfig.Load()
	if err != nil {
		cfg.Log.Fatal("Failed to load Kafka configuration", "error", err)
	}
	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotifyTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	defer producer.Close()

	vehicleRepo := fleetrepository.NewMongoVehicleRepository(mongoClient, cfg.MongoDatabaseName)
	vehicleService := fleetservice.NewVehicleService(vehicleRepo, cfg.Log)

	identityService := identity.NewService(mongoClient, cfg.MongoDatabaseName)

	reservationRepo := repository.NewMongoReservationRepository(mongoClient, cfg.MongoDatabaseName)
	index := availability.NewIndex()
	reservationValidator := validator.NewReservationValidator()

	reservationService := service.NewReservationService(
		reservationRepo,
		index,
		vehicleService,
		identityService,
		notify.NewKafkaNotifier(producer, serviceName, cfg.Log),
		reservationValidator,
		service.Settings{
			DefaultCleaningBuffer: time.Duration(cfg.CleaningBufferHours) * time.Hour,
			PendingTTL:            cfg.PendingReservationTTL,
		},
		cfg.Log,
	)

	warmCtx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()
	if err := reservationService.WarmAvailability(warmCtx); err != nil {
		cfg.Log.Fatal("Failed to warm availability index", "error", err)
	}

	sweep, err := sweeper.New(cfg.SweepSchedule, reservationService, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Invalid sweep schedule", "schedule", cfg.SweepSchedule, "error", err)
	}
	sweep.Start()

	application := app.NewApplication(cfg)
	application.SetApp(
		handler.NewHealthHandler(mongoClient, cfg.Log),
		handler.NewReservationHandler(reservationService, reservationValidator, cfg.Log),
		fleethandler.NewVehicleHandler(vehicleService, cfg.Log),
	)
	application.AddWorker(sweep)
	application.Run()
}
