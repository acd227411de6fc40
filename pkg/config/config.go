package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App         AppConfig
	Service     ServiceConfig
	DB          DBConfig
	Redis       RedisConfig
	JWT         JWTConfig
	MercadoPago MercadoPagoConfig
	MelhorEnvio MelhorEnvioConfig
	Shipping    ShippingConfig
	GCP         GCPConfig
	PubSub      PubSubConfig
	Outbox      OutboxConfig
	Webhook     WebhookConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BLACKBASS_APP_ENV" required:"true"`
	Port         string `envconfig:"BLACKBASS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BLACKBASS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BLACKBASS_LOG_WARN_STACK" default:"false"`
	BaseURL      string `envconfig:"BLACKBASS_APP_BASE_URL" required:"true"`
	FrontendURL  string `envconfig:"BLACKBASS_FRONTEND_URL" required:"true"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BLACKBASS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BLACKBASS_DB_DSN"`
	Driver string `envconfig:"BLACKBASS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BLACKBASS_DB_HOST"`
	LegacyPort     int    `envconfig:"BLACKBASS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BLACKBASS_DB_USER"`
	LegacyPassword string `envconfig:"BLACKBASS_DB_PASSWORD"`
	LegacyName     string `envconfig:"BLACKBASS_DB_NAME"`
	LegacySSLMode  string `envconfig:"BLACKBASS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BLACKBASS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BLACKBASS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BLACKBASS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BLACKBASS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"BLACKBASS_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BLACKBASS_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"BLACKBASS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BLACKBASS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BLACKBASS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BLACKBASS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BLACKBASS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BLACKBASS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BLACKBASS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BLACKBASS_JWT_EXPIRATION_MINUTES" default:"60"`
}

type MercadoPagoConfig struct {
	AccessToken string        `envconfig:"BLACKBASS_MP_ACCESS_TOKEN" required:"true"`
	BaseURL     string        `envconfig:"BLACKBASS_MP_BASE_URL" default:"https://api.mercadopago.com"`
	Timeout     time.Duration `envconfig:"BLACKBASS_MP_TIMEOUT" default:"5s"`
}

// Sandbox reports whether the configured credential is a test credential.
// Mercado Pago test tokens are prefixed with TEST-.
func (m MercadoPagoConfig) Sandbox() bool {
	return strings.HasPrefix(m.AccessToken, "TEST-")
}

type MelhorEnvioConfig struct {
	ClientID     string        `envconfig:"BLACKBASS_ME_CLIENT_ID" required:"true"`
	ClientSecret string        `envconfig:"BLACKBASS_ME_CLIENT_SECRET" required:"true"`
	BaseURL      string        `envconfig:"BLACKBASS_ME_BASE_URL" default:"https://sandbox.melhorenvio.com.br"`
	RedirectURL  string        `envconfig:"BLACKBASS_ME_REDIRECT_URL" required:"true"`
	UserAgent    string        `envconfig:"BLACKBASS_ME_USER_AGENT" default:"BlackBass (suporte@blackbass.com.br)"`
	Timeout      time.Duration `envconfig:"BLACKBASS_ME_TIMEOUT" default:"10s"`
}

// ShippingConfig carries label-generation defaults applied when a store has
// no per-store override.
type ShippingConfig struct {
	DefaultServiceID    int           `envconfig:"BLACKBASS_SHIPPING_DEFAULT_SERVICE_ID" default:"2"`
	DefaultWeightKG     float64       `envconfig:"BLACKBASS_SHIPPING_DEFAULT_WEIGHT_KG" default:"0.3"`
	DefaultDimensionCM  int           `envconfig:"BLACKBASS_SHIPPING_DEFAULT_DIMENSION_CM" default:"11"`
	TokenRefreshSkew    time.Duration `envconfig:"BLACKBASS_SHIPPING_TOKEN_REFRESH_SKEW" default:"5m"`
	OAuthStateTTL       time.Duration `envconfig:"BLACKBASS_SHIPPING_OAUTH_STATE_TTL" default:"10m"`
	LabelReceiptTimeout time.Duration `envconfig:"BLACKBASS_SHIPPING_LABEL_TIMEOUT" default:"30s"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"BLACKBASS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON string `envconfig:"BLACKBASS_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"BLACKBASS_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"BLACKBASS_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	DeadLetterTopic    string `envconfig:"BLACKBASS_PUBSUB_DEAD_LETTER_TOPIC"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BLACKBASS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BLACKBASS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BLACKBASS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type WebhookConfig struct {
	IdempotencyTTL  time.Duration `envconfig:"BLACKBASS_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
	RateLimit       int           `envconfig:"BLACKBASS_WEBHOOK_RATE_LIMIT" default:"120"`
	RateLimitWindow time.Duration `envconfig:"BLACKBASS_WEBHOOK_RATE_LIMIT_WINDOW" default:"1m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
