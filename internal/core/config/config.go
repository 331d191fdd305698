package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the order tracking service.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Redis holds the document store connection.
	Redis RedisConfig `mapstructure:",squash"`

	// Gateway holds the mutation gateway tuning.
	Gateway GatewayConfig `mapstructure:",squash"`

	// Auth holds bearer token verification settings.
	Auth AuthConfig `mapstructure:",squash"`

	// Audit holds the audit trail database settings.
	Audit AuditConfig `mapstructure:",squash"`

	// Telemetry holds the trace exporter settings.
	Telemetry TelemetryConfig `mapstructure:",squash"`

	// Feed holds change feed and stream settings.
	Feed FeedConfig `mapstructure:",squash"`
}

// RedisConfig holds the Redis document store settings.
type RedisConfig struct {
	// URL is in the format redis://[:password@]host[:port][/database].
	URL string `mapstructure:"REDIS_URL" default:"redis://localhost:6379/0"`
	// HealthCheckInterval is how long a change subscription may stay silent before it is pinged.
	HealthCheckInterval time.Duration `mapstructure:"REDIS_HEALTH_CHECK_INTERVAL" default:"30s"`
}

// GatewayConfig tunes the optimistic read-modify-write loop.
type GatewayConfig struct {
	// MaxAttempts bounds how many times a conflicting write is retried.
	MaxAttempts int `mapstructure:"GATEWAY_MAX_ATTEMPTS" default:"5"`
}

// AuthConfig holds the shared secret for HS256 bearer tokens.
type AuthConfig struct {
	JWTSecret string `mapstructure:"JWT_SECRET" required:"true"`
}

// AuditConfig holds the audit trail database. An empty URL disables the trail.
type AuditConfig struct {
	DatabaseURL string `mapstructure:"AUDIT_DATABASE_URL"`
}

// TelemetryConfig holds the OTLP trace exporter settings.
type TelemetryConfig struct {
	// OTLPEndpoint is the collector address, e.g. "localhost:4317". Empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// Insecure uses a plaintext gRPC connection to the collector.
	Insecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE" default:"false"`
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME" default:"order-tracker"`
}

// FeedConfig holds subscription and stream timing.
type FeedConfig struct {
	// ReconnectInterval is the minimum spacing between resubscribe attempts.
	ReconnectInterval time.Duration `mapstructure:"FEED_RECONNECT_INTERVAL" default:"2s"`
	// HeartbeatInterval is how often an idle stream writes a keep-alive comment.
	HeartbeatInterval time.Duration `mapstructure:"STREAM_HEARTBEAT_INTERVAL" default:"15s"`
}

const maxGatewayAttempts = 10

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	if err := validateBounds(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags iterates over the struct fields and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			if err := v.BindEnv(key); err != nil {
				return fmt.Errorf("failed to bind %s: %w", key, err)
			}
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("required") == "true" && isZero(val.Field(i)) {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
	}
	return nil
}

// validateBounds rejects values that would make the gateway or feed misbehave.
func validateBounds(config *AppConfig) error {
	if config.Gateway.MaxAttempts < 1 || config.Gateway.MaxAttempts > maxGatewayAttempts {
		return fmt.Errorf("GATEWAY_MAX_ATTEMPTS must be between 1 and %d, got %d", maxGatewayAttempts, config.Gateway.MaxAttempts)
	}
	if config.Feed.ReconnectInterval <= 0 {
		return fmt.Errorf("FEED_RECONNECT_INTERVAL must be positive")
	}
	if config.Feed.HeartbeatInterval <= 0 {
		return fmt.Errorf("STREAM_HEARTBEAT_INTERVAL must be positive")
	}
	if config.Redis.HealthCheckInterval <= 0 {
		return fmt.Errorf("REDIS_HEALTH_CHECK_INTERVAL must be positive")
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
