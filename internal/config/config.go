package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Ledger  LedgerConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

type LoggingConfig struct {
	Level string
}

type LedgerConfig struct {
	// LogStore selects the transaction log backend: memory or bolt.
	LogStore string
	// LogDir holds the bolt transaction log files. Empty means the OS temp dir.
	LogDir string
}

// Load reads .env from the working directory if present, then the process
// environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values")
	}

	return FromEnv(os.Getenv)
}

// FromEnv builds a config from getenv, falling back to defaults for unset or
// unparsable values.
func FromEnv(getenv func(string) string) *Config {
	e := env{getenv: getenv}

	return &Config{
		Server: ServerConfig{
			Port:            e.lookup("SERVER_PORT", "8080"),
			Host:            e.lookup("SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: e.lookupDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxUploadBytes:  e.lookupInt64("MAX_UPLOAD_SIZE", 32<<20),
		},
		Logging: LoggingConfig{
			Level: e.lookup("LOG_LEVEL", "info"),
		},
		Ledger: LedgerConfig{
			LogStore: e.lookup("TX_LOG_STORE", "memory"),
			LogDir:   e.lookup("TX_LOG_DIR", ""),
		},
	}
}

// ParseFlags overrides the config with command-line flags and returns the
// remaining positional arguments.
func (c *Config) ParseFlags(name string, args []string) ([]string, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	fs.StringVarP(&c.Logging.Level, "log-level", "l", c.Logging.Level, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Server.Port, "port", "p", c.Server.Port, "HTTP listen port (serve mode)")
	fs.StringVar(&c.Server.Host, "host", c.Server.Host, "HTTP listen host (serve mode)")
	fs.DurationVar(&c.Server.ShutdownTimeout, "shutdown-timeout", c.Server.ShutdownTimeout, "Graceful shutdown timeout (serve mode)")
	fs.Int64Var(&c.Server.MaxUploadBytes, "max-upload-bytes", c.Server.MaxUploadBytes, "Maximum upload size in bytes (serve mode)")
	fs.StringVarP(&c.Ledger.LogStore, "tx-log", "s", c.Ledger.LogStore, "Transaction log backend (memory, bolt)")
	fs.StringVar(&c.Ledger.LogDir, "tx-log-dir", c.Ledger.LogDir, "Directory for bolt transaction logs")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return fs.Args(), nil
}

func (c *Config) Validate() error {
	switch c.Ledger.LogStore {
	case "memory", "bolt":
	default:
		return fmt.Errorf("%w: unknown transaction log store %q", ErrInvalidConfig, c.Ledger.LogStore)
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max upload size must be positive", ErrInvalidConfig)
	}

	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

type env struct {
	getenv func(string) string
}

func (e env) lookup(key, defaultValue string) string {
	value := e.getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func (e env) lookupInt64(key string, defaultValue int64) int64 {
	valueStr := e.getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func (e env) lookupDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := e.getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid duration for %s: %s, using default: %s", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}
