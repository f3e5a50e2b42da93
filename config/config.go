package config

import (
	"strings"
	"time"

	"github.com/pitabwire/frame"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	NotificationBackendNats  = "nats"
	NotificationBackendKafka = "kafka"
)

type RentConfig struct {
	frame.ConfigurationDefault

	PlatformCommissionPercent string `envDefault:"0" env:"PLATFORM_COMMISSION_PERCENT"`

	GatewayBaseURL         string `envDefault:"https://api.mercadopago.com" env:"GATEWAY_BASE_URL"`
	GatewayAccessToken     string `envDefault:"" env:"GATEWAY_ACCESS_TOKEN"`
	GatewayCurrency        string `envDefault:"ARS" env:"GATEWAY_CURRENCY"`
	GatewayNotificationURL string `envDefault:"" env:"GATEWAY_NOTIFICATION_URL"`
	GatewayTimeoutSeconds  int    `envDefault:"15" env:"GATEWAY_TIMEOUT_SECONDS"`

	MinioEndpoint  string `envDefault:"127.0.0.1:9000" env:"MINIO_ENDPOINT"`
	MinioAccessKey string `envDefault:"" env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `envDefault:"" env:"MINIO_SECRET_KEY"`
	MinioBucket    string `envDefault:"rent-proofs" env:"MINIO_BUCKET"`
	MinioUseSSL    bool   `envDefault:"false" env:"MINIO_USE_SSL"`

	// RedisAddress left empty disables webhook de-duplication.
	RedisAddress            string `envDefault:"" env:"REDIS_ADDRESS"`
	RedisPassword           string `envDefault:"" env:"REDIS_PASSWORD"`
	RedisDB                 int    `envDefault:"0" env:"REDIS_DB"`
	WebhookDedupeTTLMinutes int    `envDefault:"1440" env:"WEBHOOK_DEDUPE_TTL_MINUTES"`

	NotificationBackend string `envDefault:"nats" env:"NOTIFICATION_BACKEND"`
	NotificationTopic   string `envDefault:"rent.notifications" env:"NOTIFICATION_TOPIC"`
	NatsURL             string `envDefault:"nats://nats:4222" env:"NATS_URL"`
	KafkaBrokers        string `envDefault:"127.0.0.1:9092" env:"KAFKA_BROKERS"`

	MaxUploadMegabytes int64 `envDefault:"10" env:"MAX_UPLOAD_MEGABYTES"`
}

// PlatformCommission parses the platform share, a percentage between 0 and 100.
func (c *RentConfig) PlatformCommission() (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.PlatformCommissionPercent)
	if raw == "" {
		return decimal.Zero, nil
	}
	pct, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "invalid PLATFORM_COMMISSION_PERCENT")
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, errors.Errorf("PLATFORM_COMMISSION_PERCENT out of range: %s", raw)
	}
	return pct, nil
}

func (c *RentConfig) GatewayTimeout() time.Duration {
	if c.GatewayTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.GatewayTimeoutSeconds) * time.Second
}

func (c *RentConfig) WebhookDedupeTTL() time.Duration {
	return time.Duration(c.WebhookDedupeTTLMinutes) * time.Minute
}

func (c *RentConfig) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (c *RentConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMegabytes << 20
}
