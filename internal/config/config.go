// Package config builds the gateway configuration from flags, environment
// variables and an optional .env file.
package config

import (
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Environment variables holding the upstream API keys.
const (
	EnvCricketKey = "CRICAPI_KEY"
	EnvWeatherKey = "OPENWEATHER_KEY"
	EnvNewsKey    = "NEWSAPI_KEY"
)

// EnvPrefix prefixes every other setting read from the environment,
// e.g. GATEWAY_ADDR.
const EnvPrefix = "GATEWAY"

// Viper keys.
const (
	KeyAddr            = "addr"
	KeyCricketKey      = "cricapi_key"
	KeyWeatherKey      = "openweather_key"
	KeyNewsKey         = "newsapi_key"
	KeyCricketURL      = "cricket_url"
	KeyWeatherURL      = "weather_url"
	KeyNewsURL         = "news_url"
	KeyAllowedOrigins  = "allowed_origins"
	KeyPlayground      = "playground"
	KeyMaxBodyBytes    = "max_body_bytes"
	KeyUpstreamTimeout = "upstream_timeout"
	KeyMetricsAddr     = "metrics_addr"
	KeyMaxParallelism  = "max_parallelism"
	KeyTracing         = "tracing"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
)

// Tracing backends understood by the GraphQL engine.
const (
	TracingOTel        = "otel"
	TracingOpenTracing = "opentracing"
	TracingNone        = "none"
)

// Keys are the credentials forwarded to the upstream APIs. An absent key is
// the empty string; nothing checks for it.
type Keys struct {
	Cricket string
	Weather string
	News    string
}

// Config is constructed once at startup and handed to the server.
type Config struct {
	Addr            string
	Keys            Keys
	CricketURL      string
	WeatherURL      string
	NewsURL         string
	AllowedOrigins  []string
	Playground      bool
	MaxBodyBytes    int64
	UpstreamTimeout time.Duration
	MetricsAddr     string
	MaxParallelism  int
	Tracing         string
	LogLevel        string
	LogFormat       string
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Addr:           ":4000",
		CricketURL:     "https://api.cricapi.com/v1",
		WeatherURL:     "https://api.openweathermap.org/data/2.5",
		NewsURL:        "https://newsapi.org/v2",
		AllowedOrigins: []string{"*"},
		Playground:     true,
		MaxBodyBytes:   1 << 20,
		Tracing:        TracingOTel,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// RegisterFlags declares the command line flags mirrored by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(flagName(KeyAddr), d.Addr, "Address the GraphQL server listens on.")
	fs.String(flagName(KeyCricketURL), d.CricketURL, "Base URL of the cricket API.")
	fs.String(flagName(KeyWeatherURL), d.WeatherURL, "Base URL of the weather API.")
	fs.String(flagName(KeyNewsURL), d.NewsURL, "Base URL of the news API.")
	fs.StringSlice(flagName(KeyAllowedOrigins), d.AllowedOrigins, "Origins allowed by CORS, * for any.")
	fs.Bool(flagName(KeyPlayground), d.Playground, "Serve the GraphQL Playground on browser GETs.")
	fs.Int64(flagName(KeyMaxBodyBytes), d.MaxBodyBytes, "Maximum size of a request body.")
	fs.Duration(flagName(KeyUpstreamTimeout), d.UpstreamTimeout, "Timeout for upstream calls, 0 for none.")
	fs.String(flagName(KeyMetricsAddr), d.MetricsAddr, "Address of the Prometheus listener, empty to disable.")
	fs.Int(flagName(KeyMaxParallelism), d.MaxParallelism, "Fields of one query resolved concurrently, 0 for the engine default.")
	fs.String(flagName(KeyTracing), d.Tracing, "GraphQL tracer: otel, opentracing or none.")
	fs.String(flagName(KeyLogLevel), d.LogLevel, "Log level: debug, info, warn, error.")
	fs.String(flagName(KeyLogFormat), d.LogFormat, "Log encoding: json or console.")
}

// NewViper returns a viper instance with defaults and environment bindings in
// place. Flags registered with RegisterFlags can be bound on top of it.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault(KeyAddr, d.Addr)
	v.SetDefault(KeyCricketURL, d.CricketURL)
	v.SetDefault(KeyWeatherURL, d.WeatherURL)
	v.SetDefault(KeyNewsURL, d.NewsURL)
	v.SetDefault(KeyAllowedOrigins, d.AllowedOrigins)
	v.SetDefault(KeyPlayground, d.Playground)
	v.SetDefault(KeyMaxBodyBytes, d.MaxBodyBytes)
	v.SetDefault(KeyUpstreamTimeout, d.UpstreamTimeout.String())
	v.SetDefault(KeyMetricsAddr, d.MetricsAddr)
	v.SetDefault(KeyMaxParallelism, d.MaxParallelism)
	v.SetDefault(KeyTracing, d.Tracing)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)

	// The key variables keep their historical unprefixed names.
	_ = v.BindEnv(KeyCricketKey, EnvCricketKey)
	_ = v.BindEnv(KeyWeatherKey, EnvWeatherKey)
	_ = v.BindEnv(KeyNewsKey, EnvNewsKey)
	return v
}

// BindFlags binds every flag in fs to the viper key of the same name.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return errors.Wrap(err, "binding flags")
}

// LoadDotEnv loads variables from path into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return errors.Wrapf(err, "loading %s", path)
}

// Load reads the configuration out of v. The API keys are copied verbatim;
// only malformed settings are rejected.
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{
		Addr: v.GetString(KeyAddr),
		Keys: Keys{
			Cricket: v.GetString(KeyCricketKey),
			Weather: v.GetString(KeyWeatherKey),
			News:    v.GetString(KeyNewsKey),
		},
		CricketURL:     strings.TrimSuffix(v.GetString(KeyCricketURL), "/"),
		WeatherURL:     strings.TrimSuffix(v.GetString(KeyWeatherURL), "/"),
		NewsURL:        strings.TrimSuffix(v.GetString(KeyNewsURL), "/"),
		AllowedOrigins: splitList(v.GetStringSlice(KeyAllowedOrigins)),
		Playground:     v.GetBool(KeyPlayground),
		MaxBodyBytes:   v.GetInt64(KeyMaxBodyBytes),
		MetricsAddr:    v.GetString(KeyMetricsAddr),
		MaxParallelism: v.GetInt(KeyMaxParallelism),
		Tracing:        strings.ToLower(v.GetString(KeyTracing)),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
	}

	if raw := v.GetString(KeyUpstreamTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", KeyUpstreamTimeout)
		}
		if d < 0 {
			return nil, errors.Errorf("invalid %s: must not be negative", KeyUpstreamTimeout)
		}
		c.UpstreamTimeout = d
	}

	switch c.Tracing {
	case TracingOTel, TracingOpenTracing, TracingNone:
	default:
		return nil, errors.Errorf("invalid %s %q: want %s, %s or %s",
			KeyTracing, c.Tracing, TracingOTel, TracingOpenTracing, TracingNone)
	}

	if c.MaxParallelism < 0 {
		return nil, errors.Errorf("invalid %s: must not be negative", KeyMaxParallelism)
	}

	if c.MaxBodyBytes <= 0 {
		return nil, errors.Errorf("invalid %s: must be positive", KeyMaxBodyBytes)
	}
	return c, nil
}

// splitList accepts both repeated values and comma separated lists, which is
// what an environment variable carries.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}
