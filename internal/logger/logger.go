package logger

import (
	"time"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sentryClient *sentry.Client

type Config struct {
	// Mode is LOG_ZAP_MODE: "development" builds a development logger, anything else production.
	Mode         string
	SentryDSN    string
	SentryClient *sentry.Client
	Tags         map[string]string
}

// Initialize builds the process logger and installs it as zap's global logger.
// When a Sentry DSN or client is configured, error-level entries are also reported to Sentry.
func Initialize(cfg Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Mode == "development" {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	if cfg.SentryDSN != "" || cfg.SentryClient != nil {
		client := cfg.SentryClient
		if client == nil {
			client, err = sentry.NewClient(sentry.ClientOptions{
				Dsn:   cfg.SentryDSN,
				Debug: cfg.Mode == "development",
			})
			if err != nil {
				return nil, err
			}
		}
		sentryClient = client

		core, err := zapsentry.NewCore(zapsentry.Configuration{
			Level:             zapcore.ErrorLevel,
			EnableBreadcrumbs: true,
			BreadcrumbLevel:   zapcore.InfoLevel,
			Tags:              cfg.Tags,
		}, zapsentry.NewSentryClientFromClient(client))
		if err != nil {
			return nil, err
		}
		logger = zapsentry.AttachCoreToLogger(core, logger)
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}

// Flush waits for buffered Sentry events and syncs the global logger.
func Flush(timeout time.Duration) {
	if sentryClient != nil {
		sentryClient.Flush(timeout)
	}
	_ = zap.L().Sync()
}
