package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// Browser origins allowed to call the API. Empty disables the CORS
	// gate entirely (same-origin or non-browser clients only).
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("PONTOON_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("PONTOON_LOG_LEVEL", "info"),
		LogFormat: EnvString("PONTOON_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("PONTOON_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("PONTOON_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("PONTOON_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("PONTOON_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("PONTOON_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("PONTOON_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("PONTOON_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("PONTOON_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("PONTOON_READINESS_REQUIRE_DB", false),

		CORSAllowedOrigins:   EnvStrings("PONTOON_CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("PONTOON_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("PONTOON_CORS_MAX_AGE_SECONDS", 600),
	}
}
