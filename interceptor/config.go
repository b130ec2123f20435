package interceptor

import (
	"fmt"
	"io"
	"os"

	env "github.com/Netflix/go-env"
	"github.com/rs/zerolog"
	"github.com/tarmac-project/httpretty"
)

// Config controls construction of an Interceptor.
type Config struct {
	// SDKConfig provides the namespace host calls are expected on.
	SDKConfig httpretty.RuntimeConfig

	// Logger receives debug traces of registrations, requests, and queries.
	// A nil Logger disables logging.
	Logger *zerolog.Logger
}

// environment lists the variables read by ConfigFromEnv.
type environment struct {
	LogLevel  string `env:"HTTPRETTY_LOG_LEVEL"`
	LogFormat string `env:"HTTPRETTY_LOG_FORMAT"`
	Namespace string `env:"HTTPRETTY_NAMESPACE"`
}

// ConfigFromEnv builds a Config from HTTPRETTY_* environment variables.
// Logging stays disabled unless HTTPRETTY_LOG_LEVEL is set.
// HTTPRETTY_LOG_FORMAT selects "console" (the default) or "json" output on
// stderr.
func ConfigFromEnv() (Config, error) {
	var e environment
	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg := Config{SDKConfig: httpretty.RuntimeConfig{Namespace: e.Namespace}}
	if e.LogLevel == "" {
		return cfg, nil
	}

	log, err := newLogger(os.Stderr, e.LogLevel, e.LogFormat)
	if err != nil {
		return Config{}, err
	}
	cfg.Logger = &log

	return cfg, nil
}

func newLogger(out io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	switch format {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out}
	case "json":
	default:
		return zerolog.Logger{}, fmt.Errorf("invalid log format %q", format)
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Str("component", "httpretty").Logger(), nil
}
