package config

import "go.uber.org/zap/zapcore"

// LogEncoder defines a log encoder kind.
type LogEncoder = string

const (
	defaultLoggingLevel = zapcore.InfoLevel
	// ConsoleLogEncoder represents logging with plain text.
	ConsoleLogEncoder LogEncoder = "console"
	// JSONLogEncoder represents logging with JSON.
	JSONLogEncoder LogEncoder = "json"
)

// LoggerConfig holds the logging level for each component.
type LoggerConfig struct {
	Encoder              LogEncoder `mapstructure:"log-encoder"`
	AppLoggerLevel       string     `mapstructure:"app"`
	PublisherLoggerLevel string     `mapstructure:"publisher"`
	ConsumerLoggerLevel  string     `mapstructure:"consumer"`
	RecoveryLoggerLevel  string     `mapstructure:"recovery"`
	TransportLoggerLevel string     `mapstructure:"transport"`
	MetricsLoggerLevel   string     `mapstructure:"metrics"`
}

// DefaultLoggingConfig logs at info level on the console.
func DefaultLoggingConfig() LoggerConfig {
	return LoggerConfig{
		Encoder:              ConsoleLogEncoder,
		AppLoggerLevel:       defaultLoggingLevel.String(),
		PublisherLoggerLevel: defaultLoggingLevel.String(),
		ConsumerLoggerLevel:  defaultLoggingLevel.String(),
		RecoveryLoggerLevel:  defaultLoggingLevel.String(),
		TransportLoggerLevel: defaultLoggingLevel.String(),
		MetricsLoggerLevel:   zapcore.WarnLevel.String(),
	}
}
