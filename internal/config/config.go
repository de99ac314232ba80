package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/team-schedule/internal/platform/logging"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	LogLevel                logging.Level
	CORSAllowedOrigins      []string
	StoreDriver             string
	DBURL                   string
	DBDisablePreparedBinary bool
	CacheEnabled            bool
	CacheTTL                time.Duration

	WSPingInterval    time.Duration
	WSReadTimeout     time.Duration
	WSWriteTimeout    time.Duration
	WSMaxMessageBytes int64
	WSSendBuffer      int

	NATSEnabled       bool
	NATSURL           string
	NATSSubjectPrefix string

	CalendarFetchTimeout          time.Duration
	CalendarFetchMaxBytes         int64
	CalendarFetchWorkers          int
	CalendarCircuitEnabled        bool
	CalendarCircuitFailureCount   int
	CalendarCircuitOpenTimeout    time.Duration
	CalendarCircuitHalfOpenMaxReq int

	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                strings.TrimSpace(getEnv("APP_SERVICE_NAME", "team-schedule-api")),
		ServiceVersion:             strings.TrimSpace(getEnv("APP_SERVICE_VERSION", "dev")),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		NATSURL:                    strings.TrimSpace(getEnv("NATS_URL", "")),
		NATSSubjectPrefix:          strings.Trim(strings.TrimSpace(getEnv("NATS_SUBJECT_PREFIX", "team-schedule.notifications")), "."),
		PprofAddr:                  strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
	}
	if cfg.ServiceName == "" {
		return Config{}, fmt.Errorf("APP_SERVICE_NAME cannot be empty")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	cfg.LogLevel, err = logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_LOG_LEVEL: %w", err)
	}
	if cfg.ReadTimeout, err = getEnvAsPositiveDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsPositiveDuration("APP_WRITE_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}

	if err := loadStore(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadWebsocket(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadCalendarFetch(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadObservability(&cfg); err != nil {
		return Config{}, err
	}

	cfg.NATSEnabled, err = getEnvAsBool("NATS_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	if cfg.NATSEnabled && cfg.NATSURL == "" {
		return Config{}, fmt.Errorf("NATS_URL is required when NATS_ENABLED=true")
	}
	if cfg.NATSSubjectPrefix == "" {
		return Config{}, fmt.Errorf("NATS_SUBJECT_PREFIX cannot be empty")
	}

	return cfg, nil
}

func loadStore(cfg *Config) error {
	driver := strings.ToLower(strings.TrimSpace(getEnv("STORE_DRIVER", StoreMemory)))
	switch driver {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: valid values are %s, %s", driver, StoreMemory, StorePostgres)
	}
	cfg.StoreDriver = driver

	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))
	if driver == StorePostgres && cfg.DBURL == "" {
		return fmt.Errorf("DB_URL is required when STORE_DRIVER=postgres")
	}

	var err error
	if cfg.DBDisablePreparedBinary, err = getEnvAsBool("DB_DISABLE_PREPARED_BINARY_RESULT", true); err != nil {
		return err
	}
	if cfg.CacheEnabled, err = getEnvAsBool("CACHE_ENABLED", false); err != nil {
		return err
	}
	if cfg.CacheTTL, err = getEnvAsPositiveDuration("CACHE_TTL", "30s"); err != nil {
		return err
	}
	return nil
}

func loadWebsocket(cfg *Config) error {
	var err error
	if cfg.WSPingInterval, err = getEnvAsPositiveDuration("WS_PING_INTERVAL", "30s"); err != nil {
		return err
	}
	if cfg.WSReadTimeout, err = getEnvAsPositiveDuration("WS_READ_TIMEOUT", "60s"); err != nil {
		return err
	}
	if cfg.WSWriteTimeout, err = getEnvAsPositiveDuration("WS_WRITE_TIMEOUT", "10s"); err != nil {
		return err
	}
	if cfg.WSPingInterval >= cfg.WSReadTimeout {
		return fmt.Errorf("WS_PING_INTERVAL must be shorter than WS_READ_TIMEOUT")
	}

	maxBytes, err := getEnvAsInt("WS_MAX_MESSAGE_BYTES", 256<<10)
	if err != nil {
		return fmt.Errorf("parse WS_MAX_MESSAGE_BYTES: %w", err)
	}
	if maxBytes <= 0 {
		return fmt.Errorf("WS_MAX_MESSAGE_BYTES must be > 0")
	}
	cfg.WSMaxMessageBytes = int64(maxBytes)

	sendBuffer, err := getEnvAsInt("WS_SEND_BUFFER", 256)
	if err != nil {
		return fmt.Errorf("parse WS_SEND_BUFFER: %w", err)
	}
	if sendBuffer < 1 {
		return fmt.Errorf("WS_SEND_BUFFER must be >= 1")
	}
	cfg.WSSendBuffer = sendBuffer
	return nil
}

func loadCalendarFetch(cfg *Config) error {
	var err error
	if cfg.CalendarFetchTimeout, err = getEnvAsPositiveDuration("CALENDAR_FETCH_TIMEOUT", "15s"); err != nil {
		return err
	}

	maxBytes, err := getEnvAsInt("CALENDAR_FETCH_MAX_BYTES", 2<<20)
	if err != nil {
		return fmt.Errorf("parse CALENDAR_FETCH_MAX_BYTES: %w", err)
	}
	if maxBytes <= 0 {
		return fmt.Errorf("CALENDAR_FETCH_MAX_BYTES must be > 0")
	}
	cfg.CalendarFetchMaxBytes = int64(maxBytes)

	if cfg.CalendarFetchWorkers, err = getEnvAsInt("CALENDAR_FETCH_WORKERS", 4); err != nil {
		return fmt.Errorf("parse CALENDAR_FETCH_WORKERS: %w", err)
	}
	if cfg.CalendarFetchWorkers < 1 {
		return fmt.Errorf("CALENDAR_FETCH_WORKERS must be >= 1")
	}

	if cfg.CalendarCircuitEnabled, err = getEnvAsBool("CALENDAR_CIRCUIT_ENABLED", true); err != nil {
		return err
	}
	if cfg.CalendarCircuitFailureCount, err = getEnvAsInt("CALENDAR_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return fmt.Errorf("parse CALENDAR_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.CalendarCircuitFailureCount < 1 {
		return fmt.Errorf("CALENDAR_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	if cfg.CalendarCircuitOpenTimeout, err = getEnvAsPositiveDuration("CALENDAR_CIRCUIT_OPEN_TIMEOUT", "30s"); err != nil {
		return err
	}
	if cfg.CalendarCircuitHalfOpenMaxReq, err = getEnvAsInt("CALENDAR_CIRCUIT_HALF_OPEN_MAX_REQ", 1); err != nil {
		return fmt.Errorf("parse CALENDAR_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if cfg.CalendarCircuitHalfOpenMaxReq < 1 {
		return fmt.Errorf("CALENDAR_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	return nil
}

func loadObservability(cfg *Config) error {
	var err error
	if cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", false); err != nil {
		return err
	}
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false); err != nil {
		return err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false); err != nil {
		return err
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeUploadRate, err = getEnvAsPositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return err
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	out, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func getEnvAsPositiveDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
