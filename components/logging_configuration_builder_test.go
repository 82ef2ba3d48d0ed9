package components

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flagcore/flagcore-go/flog"
)

func TestLoggingConfigurationBuilder(t *testing.T) {
	loggers := Logging().MinLevel(flog.Warn).Build()
	assert.NotNil(t, loggers)
}

func TestNoLoggingDisablesOutput(t *testing.T) {
	loggers := NoLogging().Build()
	assert.False(t, loggers.IsDebugEnabled())
}
