// Package config defines the run configuration for taxietl and loads it from
// flags, environment, a config file, and a .env file.
//
// Precedence, highest first:
//
//  1. command-line flags
//  2. environment variables (TAXIETL_ prefix, dashes become underscores)
//  3. the --config file (JSON, YAML or TOML; keys may use _ or -)
//  4. a .env file, loaded into the environment first without overriding it
//  5. flag defaults
package config

import (
	"net/url"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Config is the complete run configuration.
type Config struct {
	Job string `yaml:"job"`

	InputPath       string `yaml:"input_path"`
	LookupPath      string `yaml:"lookup_path"`
	LookupDelimiter string `yaml:"lookup_delimiter"`
	LookupEncoding  string `yaml:"lookup_encoding"`

	SinkURL      string `yaml:"sink_url"`
	SinkTable    string `yaml:"sink_table"`
	SinkUser     string `yaml:"sink_user"`
	SinkPassword string `yaml:"sink_password"`

	S3Region    string        `yaml:"s3_region"`
	HDFSUser    string        `yaml:"hdfs_user"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	Runtime Runtime `yaml:"runtime"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	MetricsBackend string `yaml:"metrics_backend"`
	PushgatewayURL string `yaml:"pushgateway_url"`
	DatadogAddr    string `yaml:"datadog_addr"`

	NotifyAMQPURL    string `yaml:"notify_amqp_url"`
	NotifyExchange   string `yaml:"notify_exchange"`
	NotifyRoutingKey string `yaml:"notify_routing_key"`
}

// Runtime controls concurrency, batching, and channel buffer sizes.
type Runtime struct {
	TransformWorkers int `yaml:"transform_workers"`
	BatchSize        int `yaml:"batch_size"`
	ChannelBuffer    int `yaml:"channel_buffer"`
}

// Defaults.
const (
	DefaultJob              = "nyc_taxi_etl"
	DefaultLookupDelimiter  = ","
	DefaultLookupEncoding   = "utf-8"
	DefaultS3Region         = "us-east-1"
	DefaultHTTPTimeout      = 5 * time.Minute
	DefaultTransformWorkers = 4
	DefaultBatchSize        = 10000
	DefaultChannelBuffer    = 4096
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultMetricsBackend   = "none"
)

const redactedSecret = "xxxxx"

// Redacted returns a copy safe to print: the sink password is masked and
// URL passwords in the sink and notify URLs are hidden.
func (c Config) Redacted() Config {
	if c.SinkPassword != "" {
		c.SinkPassword = redactedSecret
	}
	c.SinkURL = redactURL(c.SinkURL)
	c.NotifyAMQPURL = redactURL(c.NotifyAMQPURL)
	return c
}

// LookupComma returns the first rune of LookupDelimiter, or ',' when it is
// empty.
func (c Config) LookupComma() rune {
	if c.LookupDelimiter == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(c.LookupDelimiter)
	return r
}

// YAML renders the redacted configuration.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}

func redactURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	return u.Redacted()
}
