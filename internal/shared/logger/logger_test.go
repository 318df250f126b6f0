package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-ledger/internal/shared/logger"
)

func TestNew_Levels(t *testing.T) {
	l, err := logger.New("ledger-service", "local")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	l, err = logger.New("ledger-service", "prod")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.DebugLevel))

	l, err = logger.New("ledger-service", "local", "warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))

	_, err = logger.New("ledger-service", "local", "loud")
	assert.Error(t, err)
}
