package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TAXIETL"

// Flag names. Environment variables and config keys derive from these.
const (
	FlagConfig           = "config"
	FlagEnvFile          = "env-file"
	FlagJob              = "job"
	FlagInputPath        = "input-path"
	FlagLookupPath       = "lookup-path"
	FlagLookupDelimiter  = "lookup-delimiter"
	FlagLookupEncoding   = "lookup-encoding"
	FlagSinkURL          = "sink-url"
	FlagSinkTable        = "sink-table"
	FlagSinkUser         = "sink-user"
	FlagSinkPassword     = "sink-password"
	FlagS3Region         = "s3-region"
	FlagHDFSUser         = "hdfs-user"
	FlagHTTPTimeout      = "http-timeout"
	FlagTransformWorkers = "transform-workers"
	FlagBatchSize        = "batch-size"
	FlagChannelBuffer    = "channel-buffer"
	FlagLogLevel         = "log-level"
	FlagLogFormat        = "log-format"
	FlagMetricsBackend   = "metrics-backend"
	FlagPushgatewayURL   = "pushgateway-url"
	FlagDatadogAddr      = "datadog-addr"
	FlagNotifyAMQPURL    = "notify-amqp-url"
	FlagNotifyExchange   = "notify-exchange"
	FlagNotifyRoutingKey = "notify-routing-key"
)

// RegisterFlags defines every configuration flag, with its default, on flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(FlagConfig, "", "config file (json, yaml or toml)")
	flags.String(FlagEnvFile, ".env", "dotenv file loaded into the environment if present")

	flags.String(FlagJob, DefaultJob, "run name used in logs and metrics")
	flags.String(FlagInputPath, "", "trip Parquet URI (path, file://, s3://, http(s)://, hdfs://)")
	flags.String(FlagLookupPath, "", "zone lookup CSV URI")
	flags.String(FlagLookupDelimiter, DefaultLookupDelimiter, "lookup CSV delimiter")
	flags.String(FlagLookupEncoding, DefaultLookupEncoding, "lookup CSV charset")

	flags.String(FlagSinkURL, "", "JDBC URL or native DSN of the sink database")
	flags.String(FlagSinkTable, "", "destination table, optionally schema-qualified")
	flags.String(FlagSinkUser, "", "sink user, used when the URL carries none")
	flags.String(FlagSinkPassword, "", "sink password, used when the URL carries none")

	flags.String(FlagS3Region, DefaultS3Region, "region for s3:// sources")
	flags.String(FlagHDFSUser, "", "user for hdfs:// sources")
	flags.Duration(FlagHTTPTimeout, DefaultHTTPTimeout, "timeout for http(s) sources")

	flags.Int(FlagTransformWorkers, DefaultTransformWorkers, "transform worker goroutines")
	flags.Int(FlagBatchSize, DefaultBatchSize, "rows per sink insert batch")
	flags.Int(FlagChannelBuffer, DefaultChannelBuffer, "buffer size of stage channels")

	flags.String(FlagLogLevel, DefaultLogLevel, "log level (trace, debug, info, warn, error)")
	flags.String(FlagLogFormat, DefaultLogFormat, "log format (text or json)")

	flags.String(FlagMetricsBackend, DefaultMetricsBackend, "metrics backend (none, pushgateway, datadog)")
	flags.String(FlagPushgatewayURL, "", "Prometheus Pushgateway base URL")
	flags.String(FlagDatadogAddr, "", "DogStatsD address")

	flags.String(FlagNotifyAMQPURL, "", "AMQP URL for the run completion event")
	flags.String(FlagNotifyExchange, "", "AMQP exchange for the run completion event")
	flags.String(FlagNotifyRoutingKey, "", "AMQP routing key for the run completion event")
}

// Load resolves the configuration from flags (already parsed), the
// environment, the optional config file and the optional .env file.
func Load(flags *pflag.FlagSet) (Config, error) {
	if err := loadDotEnv(flags); err != nil {
		return Config{}, err
	}

	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		return Config{}, fmt.Errorf("config: bind flags: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString(FlagConfig); path != "" {
		if err := mergeConfigFile(v, path); err != nil {
			return Config{}, err
		}
	}

	return Config{
		Job:              v.GetString(FlagJob),
		InputPath:        v.GetString(FlagInputPath),
		LookupPath:       v.GetString(FlagLookupPath),
		LookupDelimiter:  v.GetString(FlagLookupDelimiter),
		LookupEncoding:   v.GetString(FlagLookupEncoding),
		SinkURL:          v.GetString(FlagSinkURL),
		SinkTable:        v.GetString(FlagSinkTable),
		SinkUser:         v.GetString(FlagSinkUser),
		SinkPassword:     v.GetString(FlagSinkPassword),
		S3Region:         v.GetString(FlagS3Region),
		HDFSUser:         v.GetString(FlagHDFSUser),
		HTTPTimeout:      v.GetDuration(FlagHTTPTimeout),
		LogLevel:         v.GetString(FlagLogLevel),
		LogFormat:        v.GetString(FlagLogFormat),
		MetricsBackend:   v.GetString(FlagMetricsBackend),
		PushgatewayURL:   v.GetString(FlagPushgatewayURL),
		DatadogAddr:      v.GetString(FlagDatadogAddr),
		NotifyAMQPURL:    v.GetString(FlagNotifyAMQPURL),
		NotifyExchange:   v.GetString(FlagNotifyExchange),
		NotifyRoutingKey: v.GetString(FlagNotifyRoutingKey),
		Runtime: Runtime{
			TransformWorkers: v.GetInt(FlagTransformWorkers),
			BatchSize:        v.GetInt(FlagBatchSize),
			ChannelBuffer:    v.GetInt(FlagChannelBuffer),
		},
	}, nil
}

// loadDotEnv loads the .env file without overriding variables already set.
// A missing default file is fine; a missing explicit one is an error.
func loadDotEnv(flags *pflag.FlagSet) error {
	f := flags.Lookup(FlagEnvFile)
	if f == nil || f.Value.String() == "" {
		return nil
	}
	err := godotenv.Load(f.Value.String())
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !f.Changed {
		return nil
	}
	return fmt.Errorf("config: load %s: %w", f.Value.String(), err)
}

// mergeConfigFile reads path and merges it under the flag-named keys, so
// both input_path and input-path are accepted. Nested tables (runtime:)
// are flattened one level.
func mergeConfigFile(v *viper.Viper, path string) error {
	fv := viper.New()
	fv.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
		fv.SetConfigType("yaml")
	}
	if err := fv.ReadInConfig(); err != nil {
		return fmt.Errorf("config: reading configuration file '%s': %w", path, err)
	}

	flat := map[string]any{}
	for _, key := range fv.AllKeys() {
		leaf := key
		if i := strings.LastIndexByte(key, '.'); i >= 0 {
			leaf = key[i+1:]
		}
		flat[strings.ReplaceAll(leaf, "_", "-")] = fv.Get(key)
	}
	return v.MergeConfigMap(flat)
}
