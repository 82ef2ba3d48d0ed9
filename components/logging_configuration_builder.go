package components

import "github.com/flagcore/flagcore-go/flog"

// LoggingConfigurationBuilder configures the SDK's logging behavior.
type LoggingConfigurationBuilder struct {
	loggers *flog.Loggers
}

// Logging returns a configuration builder for the SDK's logging, defaulting
// to flog's standard-error logger at Info level and above.
func Logging() *LoggingConfigurationBuilder {
	return &LoggingConfigurationBuilder{loggers: &flog.Loggers{}}
}

// MinLevel sets the minimum level for log output; messages below it are
// discarded before formatting.
func (b *LoggingConfigurationBuilder) MinLevel(level flog.Level) *LoggingConfigurationBuilder {
	b.loggers.SetMinLevel(level)
	return b
}

// Build is called internally by the client to obtain the configured Loggers.
func (b *LoggingConfigurationBuilder) Build() *flog.Loggers {
	return b.loggers
}

// NoLogging returns a configuration object that discards all SDK log output.
func NoLogging() *LoggingConfigurationBuilder {
	b := Logging()
	b.MinLevel(flog.None)
	return b
}
