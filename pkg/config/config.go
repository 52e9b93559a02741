package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Engine holds query limits
	Engine EngineConfig `mapstructure:"engine"`

	// Loader configures the seed sources read at startup
	Loader LoaderConfig `mapstructure:"loader"`

	// Snapshot configures on-disk persistence of the store
	Snapshot SnapshotConfig `mapstructure:"snapshot"`

	// Cache configures the shared statistics cache
	Cache CacheConfig `mapstructure:"cache"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Tracing configures OpenTelemetry export
	Tracing TracingConfig `mapstructure:"tracing"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test

	// CORSOrigins lists allowed origins; empty allows any origin.
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// EngineConfig holds pagination and traversal limits
type EngineConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
	DefaultMaxDepth int `mapstructure:"default_max_depth"`
	MaxDepthLimit   int `mapstructure:"max_depth_limit"`
	SuggestLimit    int `mapstructure:"suggest_limit"`
	SuggestMax      int `mapstructure:"suggest_max"`
}

// LoaderConfig lists seed sources
type LoaderConfig struct {
	// EntityFiles and RelationshipFiles are JSON or YAML documents
	EntityFiles       []string    `mapstructure:"entity_files"`
	RelationshipFiles []string    `mapstructure:"relationship_files"`
	LenientJSON       bool        `mapstructure:"lenient_json"`
	Neo4j             Neo4jConfig `mapstructure:"neo4j"`
}

// Neo4jConfig holds the optional Neo4j seed source
type Neo4jConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// SnapshotConfig holds badger snapshot settings
type SnapshotConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// CacheConfig holds redis cache settings
type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // in seconds
	Prefix   string `mapstructure:"prefix"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// TracingConfig holds OTLP trace export settings
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"` // host:port of an OTLP gRPC collector
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// Validate checks limits that would make the engine misbehave.
func (c *Config) Validate() error {
	e := c.Engine
	if e.DefaultPageSize <= 0 || e.MaxPageSize <= 0 {
		return fmt.Errorf("engine page sizes must be positive")
	}
	if e.DefaultPageSize > e.MaxPageSize {
		return fmt.Errorf("engine.default_page_size %d exceeds engine.max_page_size %d", e.DefaultPageSize, e.MaxPageSize)
	}
	if e.DefaultMaxDepth <= 0 || e.DefaultMaxDepth > e.MaxDepthLimit {
		return fmt.Errorf("engine.default_max_depth must be between 1 and %d", e.MaxDepthLimit)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Loader.Neo4j.Enabled && c.Loader.Neo4j.URI == "" {
		return fmt.Errorf("loader.neo4j.uri is required when the neo4j source is enabled")
	}
	if c.Snapshot.Enabled && c.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path is required when snapshots are enabled")
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Engine defaults
	viper.SetDefault("engine.default_page_size", 50)
	viper.SetDefault("engine.max_page_size", 1000)
	viper.SetDefault("engine.default_max_depth", 4)
	viper.SetDefault("engine.max_depth_limit", 8)
	viper.SetDefault("engine.suggest_limit", 10)
	viper.SetDefault("engine.suggest_max", 20)

	// Loader defaults
	viper.SetDefault("loader.lenient_json", true)
	viper.SetDefault("loader.neo4j.enabled", false)
	viper.SetDefault("loader.neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("loader.neo4j.username", "neo4j")
	viper.SetDefault("loader.neo4j.database", "neo4j")

	// Cache defaults
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.addr", "localhost:6379")
	viper.SetDefault("cache.ttl", 300)
	viper.SetDefault("cache.prefix", "nutrigraph")

	// Tracing defaults
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.service_name", "nutrigraph")
	viper.SetDefault("tracing.endpoint", "localhost:4317")
	viper.SetDefault("tracing.sample_rate", 1.0)

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	// Snapshot and telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("snapshot.path", fmt.Sprintf("%s/.nutrigraph/snapshot", home))
		viper.SetDefault("telemetry.parquet_path", fmt.Sprintf("%s/.nutrigraph/telemetry", home))
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	// Neo4j seed source
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Loader.Neo4j.URI = uri
		config.Loader.Neo4j.Enabled = true
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Loader.Neo4j.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Loader.Neo4j.Password = pass
	}

	// Seed files, comma separated
	if files := os.Getenv("NUTRIGRAPH_ENTITY_FILES"); files != "" {
		config.Loader.EntityFiles = splitList(files)
	}
	if files := os.Getenv("NUTRIGRAPH_RELATIONSHIP_FILES"); files != "" {
		config.Loader.RelationshipFiles = splitList(files)
	}

	// Redis
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Cache.Addr = addr
		config.Cache.Enabled = true
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		config.Cache.Password = pass
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Tracing
	if endpoint := os.Getenv("NUTRIGRAPH_OTLP_ENDPOINT"); endpoint != "" {
		config.Tracing.Endpoint = endpoint
		config.Tracing.Enabled = true
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
