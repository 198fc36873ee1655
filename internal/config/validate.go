package config

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/storage"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding.
//
// Path is the config key (e.g. "sink_url", "runtime.batch_size").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var sourceSchemes = map[string]bool{"": true, "file": true, "s3": true, "s3a": true, "http": true, "https": true, "hdfs": true}

// ValidateConfig lints c without mutating it.
func ValidateConfig(c Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.Job) == "" {
		add(SeverityError, "job", "job must not be empty; it labels logs and metrics")
	}

	// Sources.
	for _, src := range []struct{ path, value string }{{"input_path", c.InputPath}, {"lookup_path", c.LookupPath}} {
		if strings.TrimSpace(src.value) == "" {
			add(SeverityError, src.path, "%s is required", src.path)
			continue
		}
		if s := scheme(src.value); !sourceSchemes[s] {
			add(SeverityError, src.path, "unsupported scheme %q (want file, s3, s3a, http, https or hdfs)", s)
		}
	}
	if c.InputPath != "" && !strings.HasSuffix(strings.ToLower(c.InputPath), ".parquet") {
		add(SeverityWarning, "input_path", "input does not end in .parquet; it must still be a Parquet file")
	}
	if n := utf8.RuneCountInString(c.LookupDelimiter); n != 1 {
		add(SeverityError, "lookup_delimiter", "delimiter must be exactly one character, got %q", c.LookupDelimiter)
	} else if r, _ := utf8.DecodeRuneInString(c.LookupDelimiter); r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		add(SeverityError, "lookup_delimiter", "delimiter %q is not allowed", c.LookupDelimiter)
	}
	if enc := strings.ToLower(strings.TrimSpace(c.LookupEncoding)); enc != "" && enc != "utf-8" && enc != "utf8" {
		if _, err := htmlindex.Get(enc); err != nil {
			add(SeverityError, "lookup_encoding", "unknown encoding %q", c.LookupEncoding)
		}
	}
	if c.HTTPTimeout <= 0 {
		add(SeverityError, "http_timeout", "http_timeout must be > 0")
	}
	if strings.HasPrefix(strings.ToLower(c.InputPath), "hdfs://") && c.HDFSUser == "" {
		add(SeverityWarning, "hdfs_user", "hdfs_user is empty; the namenode will see the OS user")
	}

	// Sink.
	if strings.TrimSpace(c.SinkURL) == "" {
		add(SeverityError, "sink_url", "sink_url is required")
	} else if t, err := storage.ParseSinkURL(c.SinkURL, c.SinkUser, c.SinkPassword); err != nil {
		add(SeverityError, "sink_url", "%v", err)
	} else if t.Kind != "sqlite" && c.SinkUser == "" && !strings.Contains(c.SinkURL, "@") && !strings.Contains(strings.ToLower(c.SinkURL), "user=") {
		add(SeverityWarning, "sink_user", "no credentials given for %s sink", t.Kind)
	}
	if strings.TrimSpace(c.SinkTable) == "" {
		add(SeverityError, "sink_table", "sink_table is required")
	} else if strings.ContainsAny(c.SinkTable, " \t;") {
		add(SeverityWarning, "sink_table", "table name %q contains whitespace or ';'", c.SinkTable)
	}

	// Runtime.
	if c.Runtime.TransformWorkers < 1 {
		add(SeverityError, "runtime.transform_workers", "transform_workers must be >= 1")
	}
	if c.Runtime.BatchSize < 1 {
		add(SeverityError, "runtime.batch_size", "batch_size must be >= 1")
	} else if c.Runtime.BatchSize > 100000 {
		add(SeverityWarning, "runtime.batch_size", "batch_size %d is unusually large; sink transactions will be big", c.Runtime.BatchSize)
	}
	if c.Runtime.ChannelBuffer < 0 {
		add(SeverityError, "runtime.channel_buffer", "channel_buffer must be >= 0")
	}

	// Logging.
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		add(SeverityError, "log_level", "%v", err)
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		add(SeverityError, "log_format", "log_format must be text or json, got %q", c.LogFormat)
	}

	// Metrics.
	switch strings.ToLower(c.MetricsBackend) {
	case "", "none":
	case "pushgateway":
		if c.PushgatewayURL == "" {
			add(SeverityError, "pushgateway_url", "pushgateway_url is required when metrics_backend=pushgateway")
		}
	case "datadog":
		if c.DatadogAddr == "" {
			add(SeverityError, "datadog_addr", "datadog_addr is required when metrics_backend=datadog")
		}
	default:
		add(SeverityError, "metrics_backend", "unknown metrics backend %q (want none, pushgateway or datadog)", c.MetricsBackend)
	}

	// Notify.
	if c.NotifyAMQPURL != "" {
		if s := scheme(c.NotifyAMQPURL); s != "amqp" && s != "amqps" {
			add(SeverityError, "notify_amqp_url", "notify_amqp_url must be amqp:// or amqps://")
		}
		if c.NotifyRoutingKey == "" && c.NotifyExchange == "" {
			add(SeverityError, "notify_routing_key", "set notify_routing_key (queue name) or notify_exchange")
		}
	} else if c.NotifyExchange != "" || c.NotifyRoutingKey != "" {
		add(SeverityWarning, "notify_amqp_url", "notify exchange/routing key set without notify_amqp_url; no event will be sent")
	}

	return issues
}

// scheme returns the lower-cased URI scheme, or "" for plain paths.
func scheme(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || len(u.Scheme) < 2 {
		// Single-letter schemes are Windows drive letters.
		return ""
	}
	return strings.ToLower(u.Scheme)
}
