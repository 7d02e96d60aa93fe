package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Blob drivers.
const (
	BlobCloudinary = "cloudinary"
	BlobLocal      = "local"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Blob      BlobConfig      `mapstructure:"blob"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Boundary  BoundaryConfig  `mapstructure:"boundary"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Mail      MailConfig      `mapstructure:"mail"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
}

type ServerConfig struct {
	Port          int    `mapstructure:"port"`
	ReadTimeout   int    `mapstructure:"read_timeout"`
	WriteTimeout  int    `mapstructure:"write_timeout"`
	BodyLimitMB   int    `mapstructure:"body_limit_mb"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type MongoConfig struct {
	URI                  string `mapstructure:"uri"`
	Database             string `mapstructure:"database"`
	ReportsCollection    string `mapstructure:"reports_collection"`
	AuthorityCollection  string `mapstructure:"authority_collection"`
	UpvotesCollection    string `mapstructure:"upvotes_collection"`
	OperationTimeoutSecs int    `mapstructure:"operation_timeout"`
}

type BlobConfig struct {
	Driver     string           `mapstructure:"driver"`
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
	LocalDir   string           `mapstructure:"local_dir"`
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string `mapstructure:"folder"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type AuthConfig struct {
	Secret         string `mapstructure:"secret"`
	ProtectResolve bool   `mapstructure:"protect_resolve"`
}

type BoundaryConfig struct {
	Path            string `mapstructure:"path"`
	AuthoritiesPath string `mapstructure:"authorities_path"`
}

type RoutingConfig struct {
	Buckets []domain.CategoryBucket `mapstructure:"buckets"`
}

type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// Load reads configuration from .env, file and environment variables and
// validates all of it.
func Load(service string) (*Config, error) {
	cfg, err := read(service)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStorage is Load for tools that only talk to the store, such as
// migrations and seeding. Only the storage sections are validated.
func LoadStorage(service string) (*Config, error) {
	cfg, err := read(service)
	if err != nil {
		return nil, err
	}
	if err := joinErrs(cfg.storageErrs()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.body_limit_mb", 16)
	v.SetDefault("server.public_base_url", "http://localhost:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "communityeye")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "communityeye")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "communityeye")
	v.SetDefault("mongo.reports_collection", "reports")
	v.SetDefault("mongo.authority_collection", "authorities")
	v.SetDefault("mongo.upvotes_collection", "upvotes")
	v.SetDefault("mongo.operation_timeout", 5)
	v.SetDefault("blob.driver", BlobLocal)
	v.SetDefault("blob.local_dir", "./uploads")
	v.SetDefault("blob.cloudinary.folder", "reports")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("auth.protect_resolve", true)
	v.SetDefault("boundary.path", "./data/boundary.geojson")
	v.SetDefault("boundary.authorities_path", "./data/authorities.geojson")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "noreply@communityeye.local")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "authority-notifications")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: COMMUNITYEYE_DATABASE_HOST → database.host
	v.SetEnvPrefix("COMMUNITYEYE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.Routing.Buckets) == 0 {
		cfg.Routing.Buckets = domain.DefaultCategoryBuckets()
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.BodyLimitMB <= 0 {
		errs = append(errs, "server.body_limit_mb must be positive")
	}

	errs = append(errs, c.storageErrs()...)

	switch c.Blob.Driver {
	case BlobCloudinary:
		if c.Blob.Cloudinary.CloudName == "" || c.Blob.Cloudinary.APIKey == "" || c.Blob.Cloudinary.APISecret == "" {
			errs = append(errs, "blob.cloudinary.cloud_name, api_key and api_secret are required")
		}
	case BlobLocal:
		if c.Blob.LocalDir == "" {
			errs = append(errs, "blob.local_dir is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("blob.driver must be cloudinary or local, got %q", c.Blob.Driver))
	}

	if c.Boundary.Path == "" {
		errs = append(errs, "boundary.path is required")
	}
	if c.Auth.Secret == "" {
		errs = append(errs, "auth.secret is required")
	}

	return joinErrs(errs)
}

func (c *Config) storageErrs() []string {
	var errs []string

	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	case DriverMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, "mongo.uri is required")
		}
		if c.Mongo.Database == "" {
			errs = append(errs, "mongo.database is required")
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Sprintf("storage.driver must be postgres, mongo or memory, got %q", c.Storage.Driver))
	}
	return errs
}

func joinErrs(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
