package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gemmoherb/portal/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	out := filepath.Join(t.TempDir(), "portal.log")
	logger, err := New(config.LogConfig{Level: "debug", Encoding: "json", OutputPaths: []string{out}})
	require.NoError(t, err)

	logger.Debug("order created", zap.String("order_number", "CMD-001"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"order_number":"CMD-001"`)
}

func TestNewDefaults(t *testing.T) {
	logger, err := New(config.LogConfig{})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewInvalid(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)

	_, err = New(config.LogConfig{Encoding: "xml"})
	assert.Error(t, err)
}
