package config

import (
	"strings"
	"testing"
	"time"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validConfig() Config {
	return Config{
		Job:             DefaultJob,
		InputPath:       "s3://nyc-tlc/trip-data/yellow_tripdata_2024-01.parquet",
		LookupPath:      "/data/taxi_zone_lookup.csv",
		LookupDelimiter: ",",
		LookupEncoding:  "utf-8",
		SinkURL:         "jdbc:postgresql://db:5432/taxi",
		SinkTable:       "public.yellow_trips",
		SinkUser:        "etl",
		SinkPassword:    "pw",
		S3Region:        DefaultS3Region,
		HTTPTimeout:     time.Minute,
		Runtime:         Runtime{TransformWorkers: 4, BatchSize: 10000, ChannelBuffer: 4096},
		LogLevel:        "info",
		LogFormat:       "json",
		MetricsBackend:  "none",
	}
}

func TestValidateConfig_ValidHasNoIssues(t *testing.T) {
	t.Parallel()

	if issues := ValidateConfig(validConfig()); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidateConfig_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"empty job", func(c *Config) { c.Job = " " }, SeverityError, "job", "must not be empty"},
		{"missing input", func(c *Config) { c.InputPath = "" }, SeverityError, "input_path", "required"},
		{"ftp input", func(c *Config) { c.InputPath = "ftp://host/x.parquet" }, SeverityError, "input_path", "unsupported scheme"},
		{"csv input", func(c *Config) { c.InputPath = "/data/trips.csv" }, SeverityWarning, "input_path", ".parquet"},
		{"missing lookup", func(c *Config) { c.LookupPath = "" }, SeverityError, "lookup_path", "required"},
		{"long delimiter", func(c *Config) { c.LookupDelimiter = "||" }, SeverityError, "lookup_delimiter", "exactly one"},
		{"quote delimiter", func(c *Config) { c.LookupDelimiter = `"` }, SeverityError, "lookup_delimiter", "not allowed"},
		{"bad encoding", func(c *Config) { c.LookupEncoding = "klingon" }, SeverityError, "lookup_encoding", "unknown"},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }, SeverityError, "http_timeout", "> 0"},
		{"hdfs without user", func(c *Config) { c.InputPath = "hdfs://nn:8020/t.parquet" }, SeverityWarning, "hdfs_user", "OS user"},
		{"missing sink", func(c *Config) { c.SinkURL = "" }, SeverityError, "sink_url", "required"},
		{"oracle sink", func(c *Config) { c.SinkURL = "jdbc:oracle:thin:@db:1521:x" }, SeverityError, "sink_url", "unsupported"},
		{"anonymous sink", func(c *Config) { c.SinkUser = ""; c.SinkPassword = "" }, SeverityWarning, "sink_user", "no credentials"},
		{"missing table", func(c *Config) { c.SinkTable = "" }, SeverityError, "sink_table", "required"},
		{"odd table", func(c *Config) { c.SinkTable = "trips; drop" }, SeverityWarning, "sink_table", "whitespace"},
		{"zero workers", func(c *Config) { c.Runtime.TransformWorkers = 0 }, SeverityError, "runtime.transform_workers", ">= 1"},
		{"zero batch", func(c *Config) { c.Runtime.BatchSize = 0 }, SeverityError, "runtime.batch_size", ">= 1"},
		{"huge batch", func(c *Config) { c.Runtime.BatchSize = 500000 }, SeverityWarning, "runtime.batch_size", "unusually large"},
		{"negative buffer", func(c *Config) { c.Runtime.ChannelBuffer = -1 }, SeverityError, "runtime.channel_buffer", ">= 0"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, SeverityError, "log_level", "not a valid"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, SeverityError, "log_format", "text or json"},
		{"pushgateway without url", func(c *Config) { c.MetricsBackend = "pushgateway" }, SeverityError, "pushgateway_url", "required"},
		{"datadog without addr", func(c *Config) { c.MetricsBackend = "datadog" }, SeverityError, "datadog_addr", "required"},
		{"unknown metrics", func(c *Config) { c.MetricsBackend = "graphite" }, SeverityError, "metrics_backend", "unknown"},
		{"notify http url", func(c *Config) { c.NotifyAMQPURL = "http://rabbit"; c.NotifyRoutingKey = "q" }, SeverityError, "notify_amqp_url", "amqp://"},
		{"notify without key", func(c *Config) { c.NotifyAMQPURL = "amqp://rabbit" }, SeverityError, "notify_routing_key", "routing_key"},
		{"notify key without url", func(c *Config) { c.NotifyRoutingKey = "q" }, SeverityWarning, "notify_amqp_url", "no event"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := validConfig()
			tt.mutate(&c)
			issues := ValidateConfig(c)
			if !hasIssue(t, issues, tt.sev, tt.path, tt.msg) {
				t.Fatalf("expected %s at %s containing %q; got %+v", tt.sev, tt.path, tt.msg, issues)
			}
			if got := HasErrors(issues); got != (tt.sev == SeverityError) {
				t.Fatalf("HasErrors = %v for %+v", got, issues)
			}
		})
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "sink_url", Message: "boom"}
	if got := iss.Error(); got != "error at sink_url: boom" {
		t.Fatalf("Error() = %q", got)
	}
}
