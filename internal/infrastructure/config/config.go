package config

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	valueobjects "depixsync/internal/domain/value_objects"

	"github.com/spf13/viper"
)

const (
	defaultPort                     = "8080"
	defaultOpenAPISpec              = "api/openapi.yaml"
	defaultShutdownTimeout          = "10s"
	defaultDBReadinessTimeout       = "30s"
	defaultDBReadinessRetryInterval = "2s"
	defaultMigrationsPath           = "internal/adapters/outbound/persistence/postgresql/migrations"
	defaultLogLevel                 = "info"
	defaultMetricsNamespace         = "depixsync"
	defaultDepixBaseURL             = "https://depix.eulen.app/api"
	defaultDepixTimeout             = "10s"
	defaultMaxDepositAmountMinor    = 500000
	defaultRateLimitTimezone        = "Local"
	defaultReconcilerTickInterval   = "2m"
	defaultReconcilerLookback       = "2h"
	defaultReconcilerBatchSize      = 50
	defaultReconcilerInterItemDelay = "500ms"
	defaultHealthPingCacheTTL       = "60s"
)

// Matches the provider's published quotas per endpoint class.
var defaultQuotas = map[valueobjects.EndpointClass]Quota{
	valueobjects.EndpointClassLivenessCheck:      {PerMinute: 1, Burst: 1, Daily: 1440},
	valueobjects.EndpointClassDepositCreation:    {PerMinute: 6, Burst: 3, Daily: 1000},
	valueobjects.EndpointClassDepositStatusQuery: {PerMinute: 60, Burst: 10, Daily: 20000},
}

type ConfigError struct {
	Code     string
	Message  string
	Metadata map[string]string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

type Quota struct {
	PerMinute int
	Burst     int
	Daily     int
}

type SettlementConfig struct {
	BaseURL               string
	Token                 string
	Timeout               time.Duration
	MaxDepositAmountMinor int64
}

type ReconcilerConfig struct {
	Enabled        bool
	TickInterval   time.Duration
	LookbackWindow time.Duration
	BatchSize      int
	InterItemDelay time.Duration
}

type Config struct {
	Port                     string
	OpenAPISpecPath          string
	ShutdownTimeout          time.Duration
	DatabaseURL              string
	DatabaseTarget           string
	DBReadinessTimeout       time.Duration
	DBReadinessRetryInterval time.Duration
	MigrationsPath           string
	LogLevel                 string
	MetricsNamespace         string
	HealthPingCacheTTL       time.Duration
	Settlement               SettlementConfig
	RateLimits               map[valueobjects.EndpointClass]Quota
	RateLimitLocation        *time.Location
	Reconciler               ReconcilerConfig
}

// LoadConfig reads the environment and, when CONFIG_FILE is set, a YAML file
// whose keys are the lower-cased variable names. Environment wins.
func LoadConfig() (Config, *ConfigError) {
	v := newViper()
	if configFile := strings.TrimSpace(v.GetString("CONFIG_FILE")); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, &ConfigError{
				Code:     "CONFIG_FILE_UNREADABLE",
				Message:  "CONFIG_FILE could not be read",
				Metadata: map[string]string{"path": configFile, "error": err.Error()},
			}
		}
	}
	return loadFrom(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("PORT", defaultPort)
	v.SetDefault("OPENAPI_SPEC_PATH", defaultOpenAPISpec)
	v.SetDefault("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	v.SetDefault("DB_READINESS_TIMEOUT", defaultDBReadinessTimeout)
	v.SetDefault("DB_READINESS_RETRY_INTERVAL", defaultDBReadinessRetryInterval)
	v.SetDefault("MIGRATIONS_PATH", defaultMigrationsPath)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("METRICS_NAMESPACE", defaultMetricsNamespace)
	v.SetDefault("HEALTH_PING_CACHE_TTL", defaultHealthPingCacheTTL)
	v.SetDefault("DEPIX_API_BASE_URL", defaultDepixBaseURL)
	v.SetDefault("DEPIX_API_TIMEOUT", defaultDepixTimeout)
	v.SetDefault("DEPIX_MAX_DEPOSIT_AMOUNT_MINOR", defaultMaxDepositAmountMinor)
	v.SetDefault("RATE_LIMIT_TIMEZONE", defaultRateLimitTimezone)
	v.SetDefault("RECONCILER_ENABLED", true)
	v.SetDefault("RECONCILER_TICK_INTERVAL", defaultReconcilerTickInterval)
	v.SetDefault("RECONCILER_LOOKBACK_WINDOW", defaultReconcilerLookback)
	v.SetDefault("RECONCILER_BATCH_SIZE", defaultReconcilerBatchSize)
	v.SetDefault("RECONCILER_INTER_ITEM_DELAY", defaultReconcilerInterItemDelay)
	for class, quota := range defaultQuotas {
		prefix := quotaKeyPrefix(class)
		v.SetDefault(prefix+"_PER_MINUTE", quota.PerMinute)
		v.SetDefault(prefix+"_BURST", quota.Burst)
		v.SetDefault(prefix+"_DAILY", quota.Daily)
	}
	return v
}

func loadFrom(v *viper.Viper) (Config, *ConfigError) {
	databaseURL := strings.TrimSpace(v.GetString("DATABASE_URL"))
	if databaseURL == "" {
		return Config{}, &ConfigError{
			Code:    "CONFIG_DATABASE_URL_REQUIRED",
			Message: "DATABASE_URL is required",
		}
	}

	databaseTarget, parseErr := parseDatabaseTarget(databaseURL)
	if parseErr != nil {
		return Config{}, parseErr
	}

	settlement, settlementErr := loadSettlement(v)
	if settlementErr != nil {
		return Config{}, settlementErr
	}

	rateLimits, quotaErr := loadQuotas(v)
	if quotaErr != nil {
		return Config{}, quotaErr
	}

	timezone := strings.TrimSpace(v.GetString("RATE_LIMIT_TIMEZONE"))
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return Config{}, &ConfigError{
			Code:     "CONFIG_RATE_LIMIT_TIMEZONE_INVALID",
			Message:  "RATE_LIMIT_TIMEZONE must be an IANA time zone name",
			Metadata: map[string]string{"value": timezone},
		}
	}

	reconciler, reconcilerErr := loadReconciler(v)
	if reconcilerErr != nil {
		return Config{}, reconcilerErr
	}

	shutdownTimeout, cfgErr := positiveDuration(v, "SHUTDOWN_TIMEOUT")
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	readinessTimeout, cfgErr := positiveDuration(v, "DB_READINESS_TIMEOUT")
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	readinessRetry, cfgErr := positiveDuration(v, "DB_READINESS_RETRY_INTERVAL")
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	pingCacheTTL, cfgErr := positiveDuration(v, "HEALTH_PING_CACHE_TTL")
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	if minimum := MinimumPingCacheTTL(rateLimits[valueobjects.EndpointClassLivenessCheck]); pingCacheTTL < minimum {
		return Config{}, &ConfigError{
			Code:    "CONFIG_HEALTH_PING_CACHE_TTL_TOO_SHORT",
			Message: "HEALTH_PING_CACHE_TTL must cover the liveness_check spacing and burst window",
			Metadata: map[string]string{
				"value":   pingCacheTTL.String(),
				"minimum": minimum.String(),
			},
		}
	}

	return Config{
		Port:                     strings.TrimSpace(v.GetString("PORT")),
		OpenAPISpecPath:          strings.TrimSpace(v.GetString("OPENAPI_SPEC_PATH")),
		ShutdownTimeout:          shutdownTimeout,
		DatabaseURL:              databaseURL,
		DatabaseTarget:           databaseTarget,
		DBReadinessTimeout:       readinessTimeout,
		DBReadinessRetryInterval: readinessRetry,
		MigrationsPath:           strings.TrimSpace(v.GetString("MIGRATIONS_PATH")),
		LogLevel:                 strings.TrimSpace(v.GetString("LOG_LEVEL")),
		MetricsNamespace:         strings.TrimSpace(v.GetString("METRICS_NAMESPACE")),
		HealthPingCacheTTL:       pingCacheTTL,
		Settlement:               settlement,
		RateLimits:               rateLimits,
		RateLimitLocation:        location,
		Reconciler:               reconciler,
	}, nil
}

// MinimumPingCacheTTL is the shortest health cache lifetime at which a cache
// miss never waits inside the liveness_check budget.
func MinimumPingCacheTTL(quota Quota) time.Duration {
	calls := min(quota.PerMinute, quota.Burst)
	if calls <= 0 {
		return 0
	}
	return time.Minute / time.Duration(calls)
}

func (c Config) Address() string {
	return ":" + c.Port
}

func loadSettlement(v *viper.Viper) (SettlementConfig, *ConfigError) {
	token := strings.TrimSpace(v.GetString("DEPIX_API_TOKEN"))
	if token == "" {
		return SettlementConfig{}, &ConfigError{
			Code:    "CONFIG_DEPIX_API_TOKEN_REQUIRED",
			Message: "DEPIX_API_TOKEN is required",
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(v.GetString("DEPIX_API_BASE_URL")), "/")
	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
		return SettlementConfig{}, &ConfigError{
			Code:     "CONFIG_DEPIX_API_BASE_URL_INVALID",
			Message:  "DEPIX_API_BASE_URL must be an absolute http(s) URL",
			Metadata: map[string]string{"value": baseURL},
		}
	}

	timeout, timeoutErr := positiveDuration(v, "DEPIX_API_TIMEOUT")
	if timeoutErr != nil {
		return SettlementConfig{}, timeoutErr
	}

	maxAmount, amountErr := nonNegativeInt(v, "DEPIX_MAX_DEPOSIT_AMOUNT_MINOR")
	if amountErr != nil {
		return SettlementConfig{}, amountErr
	}

	return SettlementConfig{
		BaseURL:               baseURL,
		Token:                 token,
		Timeout:               timeout,
		MaxDepositAmountMinor: int64(maxAmount),
	}, nil
}

func loadQuotas(v *viper.Viper) (map[valueobjects.EndpointClass]Quota, *ConfigError) {
	quotas := make(map[valueobjects.EndpointClass]Quota, len(defaultQuotas))
	for _, class := range valueobjects.EndpointClasses() {
		prefix := quotaKeyPrefix(class)
		var quota Quota
		for suffix, target := range map[string]*int{
			"_PER_MINUTE": &quota.PerMinute,
			"_BURST":      &quota.Burst,
			"_DAILY":      &quota.Daily,
		} {
			value, err := nonNegativeInt(v, prefix+suffix)
			if err != nil {
				return nil, err
			}
			if value == 0 {
				return nil, &ConfigError{
					Code:     "CONFIG_RATE_LIMIT_INVALID",
					Message:  prefix + suffix + " must be greater than zero",
					Metadata: map[string]string{"endpoint_class": class.String()},
				}
			}
			*target = value
		}
		quotas[class] = quota
	}
	return quotas, nil
}

func loadReconciler(v *viper.Viper) (ReconcilerConfig, *ConfigError) {
	enabled, err := strconv.ParseBool(strings.TrimSpace(v.GetString("RECONCILER_ENABLED")))
	if err != nil {
		return ReconcilerConfig{}, &ConfigError{
			Code:    "CONFIG_RECONCILER_ENABLED_INVALID",
			Message: "RECONCILER_ENABLED must be a boolean",
		}
	}

	tickInterval, cfgErr := positiveDuration(v, "RECONCILER_TICK_INTERVAL")
	if cfgErr != nil {
		return ReconcilerConfig{}, cfgErr
	}
	lookback, cfgErr := positiveDuration(v, "RECONCILER_LOOKBACK_WINDOW")
	if cfgErr != nil {
		return ReconcilerConfig{}, cfgErr
	}
	batchSize, cfgErr := nonNegativeInt(v, "RECONCILER_BATCH_SIZE")
	if cfgErr != nil {
		return ReconcilerConfig{}, cfgErr
	}
	if batchSize == 0 {
		return ReconcilerConfig{}, &ConfigError{
			Code:    "CONFIG_RECONCILER_BATCH_SIZE_INVALID",
			Message: "RECONCILER_BATCH_SIZE must be greater than zero",
		}
	}
	interItemDelay, parseErr := time.ParseDuration(strings.TrimSpace(v.GetString("RECONCILER_INTER_ITEM_DELAY")))
	if parseErr != nil || interItemDelay < 0 {
		return ReconcilerConfig{}, &ConfigError{
			Code:    "CONFIG_RECONCILER_INTER_ITEM_DELAY_INVALID",
			Message: "RECONCILER_INTER_ITEM_DELAY must be a non-negative duration",
		}
	}

	return ReconcilerConfig{
		Enabled:        enabled,
		TickInterval:   tickInterval,
		LookbackWindow: lookback,
		BatchSize:      batchSize,
		InterItemDelay: interItemDelay,
	}, nil
}

func quotaKeyPrefix(class valueobjects.EndpointClass) string {
	return "RATE_LIMIT_" + strings.ToUpper(class.String())
}

func positiveDuration(v *viper.Viper, key string) (time.Duration, *ConfigError) {
	raw := strings.TrimSpace(v.GetString(key))
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return 0, &ConfigError{
			Code:     "CONFIG_DURATION_INVALID",
			Message:  key + " must be a positive duration",
			Metadata: map[string]string{"key": key, "value": raw},
		}
	}
	return parsed, nil
}

func nonNegativeInt(v *viper.Viper, key string) (int, *ConfigError) {
	raw := strings.TrimSpace(v.GetString(key))
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return 0, &ConfigError{
			Code:     "CONFIG_INTEGER_INVALID",
			Message:  key + " must be a non-negative integer",
			Metadata: map[string]string{"key": key, "value": raw},
		}
	}
	return parsed, nil
}

func parseDatabaseTarget(databaseURL string) (string, *ConfigError) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_INVALID",
			Message: "DATABASE_URL is invalid",
		}
	}

	switch parsed.Scheme {
	case "postgres", "postgresql":
	default:
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_SCHEME_INVALID",
			Message: "DATABASE_URL must use postgres or postgresql scheme",
		}
	}

	if parsed.Host == "" {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_HOST_MISSING",
			Message: "DATABASE_URL host is required",
		}
	}

	databaseName := strings.TrimPrefix(parsed.Path, "/")
	if databaseName == "" {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_NAME_MISSING",
			Message: "DATABASE_URL database name is required",
		}
	}

	return parsed.Host + "/" + databaseName, nil
}
