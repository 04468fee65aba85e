package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/alarm-manager/internal/logger"
)

// Config holds the settings of the daemon and the CLI.
type Config struct {
	// GRPCAddress is the address the daemon serves gRPC on and the CLI dials.
	GRPCAddress string `yaml:"grpc_addr"`
	// HTTPAddress is the REST and metrics address; empty disables HTTP.
	HTTPAddress string `yaml:"http_addr"`
	// LogLevel is the minimum level of log messages.
	LogLevel string `yaml:"log_level"`
	// Timeout bounds RPC calls and store round trips.
	Timeout time.Duration `yaml:"timeout"`
	// PIDFile guards against running two daemons for the same user.
	PIDFile string `yaml:"pid_file"`
	// Store selects where alarms are persisted.
	Store StoreConfig `yaml:"store"`
	// Notifier configures how notices are raised.
	Notifier NotifierConfig `yaml:"notifier"`
	// Sound configures sound playback.
	Sound SoundConfig `yaml:"sound"`
}

// StoreConfig selects and configures the store backend.
type StoreConfig struct {
	// Backend is one of BackendFile, BackendRedis or BackendMemory.
	Backend string `yaml:"backend"`
	// Path is the YAML file of the file backend.
	Path string `yaml:"path"`
	// RedisAddress is the host:port of the redis backend.
	RedisAddress string `yaml:"redis_addr"`
	// RedisUsername is the ACL user of the redis backend.
	RedisUsername string `yaml:"redis_username"`
	// RedisPassword authenticates against redis.
	RedisPassword string `yaml:"redis_password"`
	// RedisDB selects the logical redis database.
	RedisDB int `yaml:"redis_db"`
	// RedisKey is the hash holding the alarms.
	RedisKey string `yaml:"redis_key"`
}

// NotifierConfig configures notice delivery.
type NotifierConfig struct {
	// Desktop enables desktop notifications.
	Desktop bool `yaml:"desktop"`
	// DesktopCommand overrides the platform notification command.
	DesktopCommand string `yaml:"desktop_command"`
	// MQTTBroker is the broker URL, e.g. tcp://127.0.0.1:1883; empty disables MQTT.
	MQTTBroker string `yaml:"mqtt_broker"`
	// MQTTTopic is the topic notices are published to.
	MQTTTopic string `yaml:"mqtt_topic"`
	// MQTTClientID identifies the publisher; defaults to a host-specific id.
	MQTTClientID string `yaml:"mqtt_client_id"`
}

// SoundConfig configures sound playback.
type SoundConfig struct {
	// Enabled turns the audio device on.
	Enabled bool `yaml:"enabled"`
}

// Store backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "alarm-manager-settings.yaml"

	// DefaultStoreFilename is the default file of the file backend.
	DefaultStoreFilename = "alarm-manager-alarms.yaml"

	// DefaultPIDFilename is the default pid file.
	DefaultPIDFilename = "alarm-manager.pid"

	// DefaultEnvFilename is the optional dotenv file read by Load.
	DefaultEnvFilename = ".env"

	// DefaultGRPCAddress is the loopback address the daemon listens on.
	DefaultGRPCAddress = "127.0.0.1:50061"

	// DefaultTimeout is the default duration for RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultMQTTTopic is the topic used when a broker is set without a topic.
	DefaultMQTTTopic = "alarm-manager/alerts"

	// DefaultFilePermissions is the default file permission for files written by the manager.
	DefaultFilePermissions = 0o600

	// envPrefix prefixes every environment override.
	envPrefix = "ALARM_MANAGER_"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errGRPCAddressRequired is returned when the gRPC address is missing.
	errGRPCAddressRequired = errors.New("grpc address must be provided")
	// errUnknownBackend is returned for unsupported store backends.
	errUnknownBackend = errors.New("unknown store backend")
	// errRedisAddressRequired is returned when the redis backend has no address.
	errRedisAddressRequired = errors.New("redis address must be provided for the redis backend")
	// errUnknownLogLevel is returned for unparsable log levels.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns the settings used when no file exists.
func Default() *Config {
	cfg := &Config{
		GRPCAddress: DefaultGRPCAddress,
		Notifier: NotifierConfig{
			Desktop: true,
		},
		Sound: SoundConfig{
			Enabled: true,
		},
	}

	_ = Validate(cfg)

	return cfg
}

// Load reads settings from path, falling back to Default when the file does
// not exist, then applies the optional .env file and ALARM_MANAGER_*
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	cfg := Default()

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case err == nil:
		cfg = new(Config)
		if err = yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Keep defaults.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = loadDotEnv(filepath.Join(filepath.Dir(path), DefaultEnvFilename)); err != nil {
		return nil, err
	}

	if err = ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions: the file may hold the redis password.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// loadDotEnv exports the variables of an existing dotenv file without
// overriding variables already set in the environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil //nolint:nilerr // The dotenv file is optional.
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	return nil
}

// ApplyEnv overrides settings from ALARM_MANAGER_* variables found by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"GRPC_ADDR":       &cfg.GRPCAddress,
		"HTTP_ADDR":       &cfg.HTTPAddress,
		"LOG_LEVEL":       &cfg.LogLevel,
		"PID_FILE":        &cfg.PIDFile,
		"STORE_BACKEND":   &cfg.Store.Backend,
		"STORE_PATH":      &cfg.Store.Path,
		"REDIS_ADDR":      &cfg.Store.RedisAddress,
		"REDIS_USERNAME":  &cfg.Store.RedisUsername,
		"REDIS_PASSWORD":  &cfg.Store.RedisPassword,
		"REDIS_KEY":       &cfg.Store.RedisKey,
		"DESKTOP_COMMAND": &cfg.Notifier.DesktopCommand,
		"MQTT_BROKER":     &cfg.Notifier.MQTTBroker,
		"MQTT_TOPIC":      &cfg.Notifier.MQTTTopic,
	}

	for name, target := range strs {
		if value, ok := lookup(envPrefix + name); ok {
			*target = value
		}
	}

	bools := map[string]*bool{
		"DESKTOP_NOTIFICATIONS": &cfg.Notifier.Desktop,
		"SOUND_ENABLED":         &cfg.Sound.Enabled,
	}

	for name, target := range bools {
		value, ok := lookup(envPrefix + name)
		if !ok {
			continue
		}

		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parse %s%s: %w", envPrefix, name, err)
		}

		*target = parsed
	}

	if value, ok := lookup(envPrefix + "REDIS_DB"); ok {
		db, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse %sREDIS_DB: %w", envPrefix, err)
		}

		cfg.Store.RedisDB = db
	}

	if value, ok := lookup(envPrefix + "TIMEOUT"); ok {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parse %sTIMEOUT: %w", envPrefix, err)
		}

		cfg.Timeout = timeout
	}

	return nil
}

// Validate checks the provided settings and fills in defaults.
//
//nolint:cyclop // Flat list of independent checks.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.GRPCAddress == "" {
		return errGRPCAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.GRPCAddress); err != nil {
		return fmt.Errorf("invalid grpc address: %w", err)
	}

	if settings.HTTPAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.HTTPAddress); err != nil {
			return fmt.Errorf("invalid http address: %w", err)
		}
	}

	if settings.LogLevel == "" {
		settings.LogLevel = "info"
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	// Set default timeout if not specified
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.PIDFile == "" {
		settings.PIDFile = DefaultPIDFilename
	}

	if err := validateStore(&settings.Store); err != nil {
		return err
	}

	return validateNotifier(&settings.Notifier)
}

func validateStore(store *StoreConfig) error {
	if store.Backend == "" {
		store.Backend = BackendFile
	}

	switch store.Backend {
	case BackendFile:
		if store.Path == "" {
			store.Path = DefaultStoreFilename
		}
	case BackendRedis:
		if store.RedisAddress == "" {
			return errRedisAddressRequired
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, store.Backend)
	}

	return nil
}

func validateNotifier(notifier *NotifierConfig) error {
	if notifier.MQTTBroker == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(notifier.MQTTBroker); err != nil {
		return fmt.Errorf("invalid mqtt broker URI: %w", err)
	}

	if notifier.MQTTTopic == "" {
		notifier.MQTTTopic = DefaultMQTTTopic
	}

	return nil
}
