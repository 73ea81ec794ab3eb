// Package config holds the run configuration of the sparkify ETL job.
//
// Configuration comes from an optional YAML file with environment variable
// overrides. Every field has a default, so the job runs with no file at all;
// the defaults point at data/song_data, data/log_data and a local Postgres
// database "sparkifydb". Database passwords are read from the environment
// only.
//
// Example:
//
//	job: sparkify
//	song_data: data/song_data
//	log_data: data/log_data
//	storage:
//	  kind: sqlite
//	  name: sparkify.db
//	  auto_create_schema: true
//	metrics:
//	  backend: pushgateway
//	  pushgateway_url: http://pushgateway:9091
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the complete configuration of one run.
type Config struct {
	// Job names the run in logs and metrics.
	Job string `yaml:"job" env:"SPARKIFY_JOB" env-default:"sparkify"`

	// SongDataPath and LogDataPath are the roots of the two input trees.
	SongDataPath string `yaml:"song_data" env:"SPARKIFY_SONG_DATA" env-default:"data/song_data"`
	LogDataPath  string `yaml:"log_data" env:"SPARKIFY_LOG_DATA" env-default:"data/log_data"`

	// FileExt selects input files by suffix.
	FileExt string `yaml:"file_ext" env:"SPARKIFY_FILE_EXT" env-default:".json"`

	Storage StorageConfig `yaml:"storage"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects the warehouse backend and how to reach it.
type StorageConfig struct {
	// Kind is one of postgres, mysql, mssql, sqlite.
	Kind string `yaml:"kind" env:"SPARKIFY_DB_KIND" env-default:"postgres"`

	Host string `yaml:"host" env:"SPARKIFY_DB_HOST" env-default:"127.0.0.1"`
	// Port 0 uses the backend's default port.
	Port int `yaml:"port" env:"SPARKIFY_DB_PORT" env-default:"0"`
	// Name is the database name, or the file path for sqlite.
	Name     string `yaml:"name" env:"SPARKIFY_DB_NAME" env-default:"sparkifydb"`
	User     string `yaml:"user" env:"SPARKIFY_DB_USER" env-default:"airflow"`
	Password string `yaml:"-" env:"SPARKIFY_DB_PASSWORD" env-default:"airflow"` // Secret - not in YAML
	// SSLMode is passed to Postgres as sslmode when set.
	SSLMode string `yaml:"ssl_mode" env:"SPARKIFY_DB_SSLMODE" env-default:""`

	// DSN, when set, is used verbatim and the fields above are ignored.
	DSN string `yaml:"-" env:"SPARKIFY_DB_DSN" env-default:""`

	// AutoCreateSchema creates the five tables if they are missing. A false
	// value in YAML is indistinguishable from unset; disable it through the
	// environment.
	AutoCreateSchema bool `yaml:"auto_create_schema" env:"SPARKIFY_DB_AUTO_CREATE_SCHEMA" env-default:"true"`

	// OnConflict is error, ignore or update.
	OnConflict string `yaml:"on_conflict" env:"SPARKIFY_DB_ON_CONFLICT" env-default:"error"`
}

// MetricsConfig selects where run metrics go.
type MetricsConfig struct {
	// Backend is none, pushgateway or datadog.
	Backend        string `yaml:"backend" env:"SPARKIFY_METRICS_BACKEND" env-default:"none"`
	PushgatewayURL string `yaml:"pushgateway_url" env:"SPARKIFY_PUSHGATEWAY_URL" env-default:""`
	DatadogAddr    string `yaml:"datadog_addr" env:"SPARKIFY_DATADOG_ADDR" env-default:"127.0.0.1:8125"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `yaml:"level" env:"SPARKIFY_LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from the YAML file at path with environment
// variable overrides. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("config: read environment: %w", err)
		}
		return cfg, nil
	}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// Default ports per backend.
var defaultPorts = map[string]int{
	"postgres": 5432,
	"mysql":    3306,
	"mssql":    1433,
}

// ConnString renders the driver connection string for Kind. DSN wins when
// set.
func (s StorageConfig) ConnString() (string, error) {
	if strings.TrimSpace(s.DSN) != "" {
		return s.DSN, nil
	}
	port := s.Port
	if port == 0 {
		port = defaultPorts[s.Kind]
	}

	switch s.Kind {
	case "postgres":
		parts := []string{
			"host=" + pgQuote(s.Host),
			"port=" + strconv.Itoa(port),
			"dbname=" + pgQuote(s.Name),
			"user=" + pgQuote(s.User),
			"password=" + pgQuote(s.Password),
		}
		if s.SSLMode != "" {
			parts = append(parts, "sslmode="+pgQuote(s.SSLMode))
		}
		return strings.Join(parts, " "), nil

	case "mysql":
		mc := mysql.NewConfig()
		mc.User = s.User
		mc.Passwd = s.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(s.Host, strconv.Itoa(port))
		mc.DBName = s.Name
		return mc.FormatDSN(), nil

	case "mssql":
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(s.User, s.Password),
			Host:     net.JoinHostPort(s.Host, strconv.Itoa(port)),
			RawQuery: url.Values{"database": {s.Name}}.Encode(),
		}
		return u.String(), nil

	case "sqlite":
		return s.Name, nil

	default:
		return "", fmt.Errorf("config: unknown storage kind %q", s.Kind)
	}
}

// pgQuote quotes a keyword/value connection parameter when needed.
func pgQuote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
