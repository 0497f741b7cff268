package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"production"`
	LogLevel   string     `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Storage    Storage    `yaml:"storage"`
	PGSQL      PQSQL      `yaml:"pgsql"`
	Mongo      Mongo      `yaml:"mongo"`
	Redis      Redis      `yaml:"redis"`
	JWT        JWT        `yaml:"jwt"`
	Streak     Streak     `yaml:"streak"`
	MinIO      MinIO      `yaml:"minio"`
	Media      Media      `yaml:"media"`
	RateLimit  RateLimit  `yaml:"rate_limit"`
	Worker     Worker     `yaml:"worker"`
}

type HTTPServer struct {
	Address      string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10s"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

type PQSQL struct {
	Host     string `yaml:"host" env:"PG_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"PG_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"PG_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"PG_PASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"PG_DBNAME" env-default:"journal_db"`
	SSLMode  string `yaml:"sslmode" env:"PG_SSLMODE" env-default:"disable"`
}

type Mongo struct {
	URI      string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"swe_journal"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type JWT struct {
	Secret     string        `yaml:"secret" env:"JWT_SECRET" env-default:"super_secret_key"`
	AccessTTL  time.Duration `yaml:"access_ttl" env-default:"1h"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env-default:"168h"`
}

// Streak holds the posting cooldown and the window within which a follow-up
// post still continues the streak. MinInterval must be shorter than Window.
type Streak struct {
	MinInterval time.Duration `yaml:"min_interval" env:"STREAK_MIN_INTERVAL" env-default:"20h"`
	Window      time.Duration `yaml:"window" env:"STREAK_WINDOW" env-default:"28h"`
}

type MinIO struct {
	Endpoint        string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_ACCESS_KEY"`
	BucketName      string `yaml:"bucket_name" env:"MINIO_BUCKET" env-default:"journal-media"`
	UseSSL          bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

type Media struct {
	AllowedMimeTypes []string `yaml:"allowed_mime_types" env-default:"image/jpeg,image/png,image/gif"`
	MaxFileSize      int64    `yaml:"max_file_size" env-default:"10485760"`
	PresignedURLTTL  int      `yaml:"presigned_url_ttl" env-default:"900"`
}

type RateLimit struct {
	SocialPerMinute int64 `yaml:"social_per_minute" env-default:"60"`
	LoginPerMinute  int64 `yaml:"login_per_minute" env-default:"10"`
}

type Worker struct {
	Interval time.Duration `yaml:"interval" env:"WORKER_INTERVAL" env-default:"10m"`
}

// Enabled reports whether object storage is configured.
func (m MinIO) Enabled() bool {
	return m.Endpoint != ""
}

func (c *Config) Validate() error {
	if c.Streak.MinInterval <= 0 || c.Streak.Window <= 0 {
		return errors.New("streak intervals must be positive")
	}
	if c.Streak.MinInterval >= c.Streak.Window {
		return fmt.Errorf("streak min_interval (%s) must be shorter than window (%s)",
			c.Streak.MinInterval, c.Streak.Window)
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("jwt token lifetimes must be positive")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt secret must be set")
	}
	switch c.Storage.Driver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// Load reads the config file at path and validates it.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	// a missing .env is fine, the environment may already be populated
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %s", err)
	}

	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist at path: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	return cfg
}
