package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Server  ServerConfig  `yaml:"server"`
	Theme   ThemeConfig   `yaml:"theme"`
	Storage StorageConfig `yaml:"storage"`
	Admin   AdminConfig   `yaml:"admin"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Logging LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type SiteConfig struct {
	Name        string `yaml:"name" default:"Ясный слух"`
	Description string `yaml:"description" default:"Hearing aids, fitting and service"`
	Tagline     string `yaml:"tagline" default:"Hear the world clearly again"`
	Phone       string `yaml:"phone" default:""`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port string `yaml:"port" default:"12600"`
}

type ThemeConfig struct {
	Default        string `yaml:"default" default:"dark-theme"`
	AllowSwitching bool   `yaml:"allow_switching" default:"true"`
}

// StorageConfig selects and configures the ContentStore.
// Backend is one of sqlite, postgres, remote, kv, file or s3.
type StorageConfig struct {
	Backend      string        `yaml:"backend" default:"sqlite"`
	SQLitePath   string        `yaml:"sqlite_path" default:"./content.db"`
	PostgresDSN  string        `yaml:"postgres_dsn" default:""`
	Endpoint     string        `yaml:"endpoint" default:""`
	KVDir        string        `yaml:"kv_dir" default:"./content-kv"`
	Key          string        `yaml:"key" default:"yasny-slukh-data"`
	FilePath     string        `yaml:"file_path" default:"./content.json"`
	Compression  string        `yaml:"compression" default:"zstd"`
	PollInterval time.Duration `yaml:"poll_interval" default:"2s"`
	S3           S3Config      `yaml:"s3"`
}

type S3Config struct {
	Bucket   string `yaml:"bucket" default:""`
	Endpoint string `yaml:"endpoint" default:""`
	Region   string `yaml:"region" default:"auto"`
}

type AdminConfig struct {
	// Passphrase is normally supplied through ADMIN_PASSPHRASE.
	Passphrase string `yaml:"passphrase" default:""`
	// ClientIDs makes the editor assign ids to new records before saving.
	ClientIDs bool `yaml:"client_ids" default:"false"`
	// Mirror pushes every edit to the store immediately.
	Mirror bool `yaml:"mirror" default:"false"`
	// Follow applies store change notifications to open drafts.
	Follow         bool          `yaml:"follow" default:"false"`
	LoginRate      time.Duration `yaml:"login_rate" default:"1s"`
	LoginBurst     int           `yaml:"login_burst" default:"5"`
	SessionTimeout time.Duration `yaml:"session_timeout" default:"12h"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	OrdersTopic string   `yaml:"orders_topic" default:"storefront.orders"`
	StatusTopic string   `yaml:"status_topic" default:"orders.status"`
	GroupID     string   `yaml:"group_id" default:"yasny-slukh-admin"`
}

var AppConfig *Config

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	// Try to read and parse the config file
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		AppConfig = config
		return nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return err
	}

	AppConfig = config
	return nil
}

// ApplyEnv overrides secrets from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("DATABASE_URL"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := getenv("ADMIN_PASSPHRASE"); v != "" {
		c.Admin.Passphrase = v
	}
	if v := getenv("DATA_MANAGER_API"); v != "" {
		c.Storage.Endpoint = v
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendPostgres, BackendKV, BackendFile, BackendS3:
	case BackendRemote:
		if c.Storage.Endpoint == "" {
			return fmt.Errorf("storage.endpoint is required for the %q backend", BackendRemote)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Storage.Compression {
	case CompressionZstd, CompressionGzip, CompressionNone:
	default:
		return fmt.Errorf("unknown compression %q", c.Storage.Compression)
	}

	if c.Storage.PollInterval <= 0 {
		return fmt.Errorf("storage.poll_interval must be positive")
	}
	return nil
}

// IsLocal reports whether the backend lives on this machine, in which case
// the admin draft mirrors edits and follows changes like browser storage did.
func (c *StorageConfig) IsLocal() bool {
	return c.Backend == BackendKV || c.Backend == BackendFile
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

var durationType = reflect.TypeOf(time.Duration(0))

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		if field.Type() == durationType {
			if d, err := time.ParseDuration(defaultValue); err == nil {
				field.SetInt(int64(d))
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
