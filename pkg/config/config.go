package config

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Storefront   StorefrontConfig
	MelhorEnvio  MelhorEnvioConfig
	Secrets      SecretsConfig
	FeatureFlags FeatureFlagsConfig
}

// Load reads every VITRINE_* variable, fills derived values and reports all
// invalid settings at once.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	err := multierr.Combine(
		cfg.DB.resolveDSN(),
		cfg.Redis.validate(),
		cfg.Secrets.validate(),
		cfg.MelhorEnvio.validate(),
	)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VITRINE_APP_ENV" required:"true"`
	Port         string `envconfig:"VITRINE_APP_PORT" required:"true"`
	ServiceName  string `envconfig:"VITRINE_SERVICE_NAME" default:"vitrine-api"`
	LogLevel     string `envconfig:"VITRINE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"VITRINE_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"VITRINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// DBConfig takes a full DSN, or the discrete Host/User/Name parts that some
// hosting panels hand out instead.
type DBConfig struct {
	DSN    string `envconfig:"VITRINE_DB_DSN"`
	Driver string `envconfig:"VITRINE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"VITRINE_DB_HOST"`
	Port     int    `envconfig:"VITRINE_DB_PORT" default:"5432"`
	User     string `envconfig:"VITRINE_DB_USER"`
	Password string `envconfig:"VITRINE_DB_PASSWORD"`
	Name     string `envconfig:"VITRINE_DB_NAME"`
	SSLMode  string `envconfig:"VITRINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VITRINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VITRINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VITRINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VITRINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"VITRINE_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VITRINE_REDIS_URL"`
	Address      string        `envconfig:"VITRINE_REDIS_ADDR"`
	Password     string        `envconfig:"VITRINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"VITRINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VITRINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VITRINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VITRINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VITRINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VITRINE_REDIS_WRITE_TIMEOUT" default:"5s"`

	IdempotencyTTL time.Duration `envconfig:"VITRINE_IDEMPOTENCY_TTL" default:"24h"`
	OrderLockTTL   time.Duration `envconfig:"VITRINE_ORDER_LOCK_TTL" default:"30s"`
}

type JWTConfig struct {
	Secret string `envconfig:"VITRINE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"VITRINE_JWT_ISSUER" required:"true"`
}

// StorefrontConfig drives tenant resolution for public shop routes.
type StorefrontConfig struct {
	BaseDomain      string   `envconfig:"VITRINE_STOREFRONT_BASE_DOMAIN" default:"vitrine.app"`
	AllowedOrigins  []string `envconfig:"VITRINE_STOREFRONT_ALLOWED_ORIGINS" default:"*"`
	WhatsAppBaseURL string   `envconfig:"VITRINE_WHATSAPP_BASE_URL" default:"https://wa.me"`
	OrderMessageTag string   `envconfig:"VITRINE_WHATSAPP_ORDER_TAG" default:"Novo pedido"`

	// TrustForwardedHost is only safe behind a proxy that overwrites the header.
	TrustForwardedHost bool `envconfig:"VITRINE_STOREFRONT_TRUST_FORWARDED_HOST" default:"false"`
}

type MelhorEnvioConfig struct {
	AppName          string        `envconfig:"VITRINE_MELHOR_ENVIO_APP_NAME" default:"Vitrine"`
	ContactEmail     string        `envconfig:"VITRINE_MELHOR_ENVIO_CONTACT_EMAIL" default:"suporte@vitrine.app"`
	Timeout          time.Duration `envconfig:"VITRINE_MELHOR_ENVIO_TIMEOUT" default:"20s"`
	BreakerMaxFails  uint32        `envconfig:"VITRINE_MELHOR_ENVIO_BREAKER_MAX_FAILURES" default:"5"`
	BreakerOpenFor   time.Duration `envconfig:"VITRINE_MELHOR_ENVIO_BREAKER_OPEN_FOR" default:"30s"`
	BreakerHalfOpen  uint32        `envconfig:"VITRINE_MELHOR_ENVIO_BREAKER_HALF_OPEN_REQUESTS" default:"1"`
	SandboxBaseURL   string        `envconfig:"VITRINE_MELHOR_ENVIO_SANDBOX_URL" default:"https://sandbox.melhorenvio.com.br"`
	ProductionURL    string        `envconfig:"VITRINE_MELHOR_ENVIO_PRODUCTION_URL" default:"https://melhorenvio.com.br"`
}

// UserAgent is the identification header the carrier requires on every call.
func (m MelhorEnvioConfig) UserAgent() string {
	return fmt.Sprintf("%s (%s)", m.AppName, m.ContactEmail)
}

func (m MelhorEnvioConfig) validate() error {
	if strings.TrimSpace(m.AppName) == "" || strings.TrimSpace(m.ContactEmail) == "" {
		return fmt.Errorf("melhor envio app name and contact email are required")
	}
	if m.Timeout <= 0 {
		return fmt.Errorf("melhor envio timeout must be positive")
	}
	return nil
}

func (r RedisConfig) validate() error {
	if r.URL == "" && r.Address == "" {
		return fmt.Errorf("redis: %s or %s is required", EnvRedisURL, EnvRedisAddr)
	}
	if r.OrderLockTTL <= 0 {
		return fmt.Errorf("redis: order lock ttl must be positive")
	}
	return nil
}

// SecretsConfig holds the key that seals carrier tokens at rest.
type SecretsConfig struct {
	Key string `envconfig:"VITRINE_SECRETS_KEY" required:"true"`
}

func (s SecretsConfig) validate() error {
	if len(s.Key) < minSecretsKeyLen {
		return fmt.Errorf("secrets: key must be at least %d characters", minSecretsKeyLen)
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VITRINE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) resolveDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Driver == "sqlite" {
		return fmt.Errorf("db: %s is required for sqlite", EnvDBDSN)
	}

	var missing []string
	for env, value := range map[string]string{EnvDBHost: db.Host, EnvDBUser: db.User, EnvDBName: db.Name} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("db: set %s or all of %s", EnvDBDSN, strings.Join(missing, ", "))
	}

	user := url.User(db.User)
	if db.Password != "" {
		user = url.UserPassword(db.User, db.Password)
	}
	dsn := url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		dsn.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	db.DSN = dsn.String()
	return nil
}
