package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/pitabwire/frame"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/taibogaston/admininmo-sub000/config"
	"github.com/taibogaston/admininmo-sub000/integrations/cache"
	"github.com/taibogaston/admininmo-sub000/integrations/gateway"
	"github.com/taibogaston/admininmo-sub000/integrations/notify"
	"github.com/taibogaston/admininmo-sub000/integrations/storage"
	"github.com/taibogaston/admininmo-sub000/service/business"
	"github.com/taibogaston/admininmo-sub000/service/events"
	"github.com/taibogaston/admininmo-sub000/service/handlers"
	"github.com/taibogaston/admininmo-sub000/service/models"
	"github.com/taibogaston/admininmo-sub000/service/repository"
	"github.com/taibogaston/admininmo-sub000/service/utility"
)

func main() {
	serviceName := "service_rent"
	ctx := context.Background()

	// Local development only, a missing .env is fine.
	_ = godotenv.Load()

	rentConfig, err := frame.ConfigFromEnv[config.RentConfig]()
	if err != nil {
		fmt.Printf("could not load config: %v\n", err)
		return
	}

	ctx, service := frame.NewServiceWithContext(ctx, serviceName, frame.WithConfig(&rentConfig))
	defer service.Stop(ctx)
	logger := service.Log(ctx).WithField("type", "main")

	serviceOptions := []frame.Option{frame.WithDatastore()}
	service.Init(ctx, serviceOptions...)

	if rentConfig.DoDatabaseMigrate() {
		err = service.MigrateDatastore(ctx, rentConfig.GetDatabaseMigrationPath(), models.All()...)
		if err != nil {
			logger.WithError(err).Fatal("could not migrate successfully")
		}
		return
	}

	platformPct, err := rentConfig.PlatformCommission()
	if err != nil {
		logger.WithError(err).Fatal("invalid platform commission")
	}

	store := repository.NewStore(service)
	serviceLogger := &utility.ServiceLogger{Service: service}
	notifier := events.NewDispatcher(service)

	files, err := storage.NewMinioStore(rentConfig.MinioEndpoint, rentConfig.MinioAccessKey,
		rentConfig.MinioSecretKey, rentConfig.MinioBucket, rentConfig.MinioUseSSL)
	if err != nil {
		logger.WithError(err).Fatal("could not setup proof storage")
	}
	if err = files.EnsureBucket(ctx); err != nil {
		logger.WithError(err).Fatal("could not prepare proof bucket")
	}

	gatewayCli := gateway.New(rentConfig.GatewayBaseURL, rentConfig.GatewayAccessToken, rentConfig.GatewayCurrency,
		rentConfig.GatewayNotificationURL, rentConfig.GatewayTimeout())

	var deduper business.Deduper
	if rentConfig.RedisAddress != "" {
		redisCli, redisErr := cache.NewRedisClient(ctx, rentConfig.RedisAddress, rentConfig.RedisPassword, rentConfig.RedisDB)
		if redisErr != nil {
			logger.WithError(redisErr).Warn("webhook de-duplication disabled, redis is unreachable")
		} else {
			defer func() { _ = redisCli.Close() }()
			deduper = cache.NewWebhookDeduper(redisCli, rentConfig.WebhookDedupeTTL())
		}
	}

	ledger, err := business.NewPaymentLedger(store, notifier, serviceLogger, platformPct)
	if err != nil {
		logger.WithError(err).Fatal("could not setup payment ledger")
	}
	reconciliation, err := business.NewTransferReconciliation(store, ledger, files, notifier, serviceLogger)
	if err != nil {
		logger.WithError(err).Fatal("could not setup transfer reconciliation")
	}
	webhooks, err := business.NewGatewayWebhookProcessor(store, ledger, gatewayCli, deduper, serviceLogger)
	if err != nil {
		logger.WithError(err).Fatal("could not setup gateway webhook processor")
	}

	var sink events.Sink
	switch strings.ToLower(rentConfig.NotificationBackend) {
	case config.NotificationBackendKafka:
		kafkaSink, kafkaErr := notify.NewKafkaSink(rentConfig.KafkaBrokerList(), rentConfig.NotificationTopic, 10, 2*time.Second)
		if kafkaErr != nil {
			logger.WithError(kafkaErr).Fatal("could not connect to kafka")
		}
		defer func() { _ = kafkaSink.Close() }()
		sink = kafkaSink
	default:
		publisherURL := natsPublisherURL(ctx, service, rentConfig.NatsURL, rentConfig.NotificationTopic)
		serviceOptions = append(serviceOptions, frame.WithRegisterPublisher(rentConfig.NotificationTopic, publisherURL))
		sink = &notify.PublisherSink{Service: service, Reference: rentConfig.NotificationTopic}
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	router := handlers.NewRouter(&handlers.RentServer{
		Ledger:         ledger,
		Reconciliation: reconciliation,
		Webhooks:       webhooks,
		Files:          files,
		Logger:         serviceLogger,
		MaxUploadBytes: rentConfig.MaxUploadBytes(),
	})

	serviceOptions = append(serviceOptions,
		frame.WithGRPCServer(grpcServer),
		frame.WithHTTPHandler(router),
		frame.WithRegisterEvents(
			&events.NotificationDispatch{Statuses: store.Statuses(), Sink: sink, Logger: serviceLogger},
		))

	service.Init(ctx, serviceOptions...)

	logger.WithField("server http port", rentConfig.HTTPServerPort).
		WithField("server grpc port", rentConfig.GrpcServerPort).
		Info("Initiating server operations")

	err = service.Run(ctx, "")
	if err != nil {
		logger.WithError(err).Fatal("could not run Server")
	}
}

// natsPublisherURL checks the broker and falls back to an in memory queue when it stays unreachable.
func natsPublisherURL(ctx context.Context, service *frame.Service, raw, topic string) string {
	logger := service.Log(ctx).WithField("type", "nats")

	natsURL := strings.TrimSpace(raw)
	if strings.HasPrefix(natsURL, "mem://") {
		return natsURL
	}
	if !strings.HasPrefix(natsURL, "nats://") {
		logger.Warn("NATS_URL missing 'nats://' prefix; assuming host:port format")
		natsURL = "nats://" + natsURL
	}

	const maxRetries = 10
	for i := range maxRetries {
		nc, err := nats.Connect(natsURL)
		if err != nil {
			logger.WithError(err).WithField("attempt", i+1).Warn("Failed to connect to NATS, retrying after delay")
			time.Sleep(2 * time.Second)
			continue
		}
		nc.Close()

		separator := "?"
		if strings.Contains(natsURL, "?") {
			separator = "&"
		}
		return natsURL + separator + "subject=" + topic
	}

	logger.WithField("retries", maxRetries).Warn("Failed to connect to NATS - falling back to memory-based pubsub")
	return "mem://" + topic
}
