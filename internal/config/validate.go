package config

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"

	"sparkify/internal/storage"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.kind"). Message is
// human-readable.
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

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static checks over cfg. It does not touch the
// filesystem or the network.
func Validate(cfg *Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(cfg.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	if strings.TrimSpace(cfg.SongDataPath) == "" {
		issues = append(issues, Issue{SeverityError, "song_data", "song data path must not be empty"})
	}
	if strings.TrimSpace(cfg.LogDataPath) == "" {
		issues = append(issues, Issue{SeverityError, "log_data", "log data path must not be empty"})
	}
	if !strings.HasPrefix(cfg.FileExt, ".") || len(cfg.FileExt) < 2 {
		issues = append(issues, Issue{SeverityError, "file_ext", fmt.Sprintf("file extension %q must look like \".json\"", cfg.FileExt)})
	}

	issues = append(issues, validateStorage(cfg.Storage)...)
	issues = append(issues, validateMetrics(cfg.Metrics)...)

	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		issues = append(issues, Issue{SeverityError, "log.level", err.Error()})
	}
	return issues
}

var knownKinds = map[string]struct{}{
	"postgres": {},
	"mysql":    {},
	"mssql":    {},
	"sqlite":   {},
}

func validateStorage(s StorageConfig) []Issue {
	var issues []Issue

	if _, ok := knownKinds[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; want postgres, mysql, mssql or sqlite", s.Kind),
		})
		return issues
	}

	policy, err := storage.ParseConflictPolicy(s.OnConflict)
	if err != nil {
		issues = append(issues, Issue{SeverityError, "storage.on_conflict", err.Error()})
	} else if s.Kind == "mssql" && policy != storage.ConflictError {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.on_conflict",
			Message:  fmt.Sprintf("mssql supports only on_conflict=error, got %q", s.OnConflict),
		})
	}

	if strings.TrimSpace(s.DSN) != "" {
		return issues
	}
	if strings.TrimSpace(s.Name) == "" {
		issues = append(issues, Issue{SeverityError, "storage.name", "database name must not be empty"})
	}
	if s.Kind == "sqlite" {
		if s.Name == ":memory:" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "storage.name",
				Message:  "in-memory sqlite database is discarded when the run ends",
			})
		}
		return issues
	}
	if strings.TrimSpace(s.Host) == "" {
		issues = append(issues, Issue{SeverityError, "storage.host", "host must not be empty"})
	}
	if s.Port < 0 || s.Port > 65535 {
		issues = append(issues, Issue{SeverityError, "storage.port", fmt.Sprintf("port %d out of range", s.Port)})
	}
	if s.SSLMode != "" && s.Kind != "postgres" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.ssl_mode",
			Message:  fmt.Sprintf("ssl_mode is only used by postgres; ignored for %s", s.Kind),
		})
	}
	return issues
}

func validateMetrics(m MetricsConfig) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{SeverityError, "metrics.pushgateway_url", "pushgateway backend requires a URL"})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{SeverityError, "metrics.datadog_addr", "datadog backend requires a DogStatsD address"})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; want none, pushgateway or datadog", m.Backend),
		})
	}
	return issues
}
