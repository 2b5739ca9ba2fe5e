package logger_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/comanda-pos/api/internal/logger"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Level(t *testing.T) {
	log, err := logger.New(logger.Options{Level: "warn"})
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := logger.New(logger.Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")

	log, err := logger.New(logger.Options{Level: "info", File: path})
	require.NoError(t, err)

	logger.Component(log, "statusflow").WithField("order_type", "catering").Info("unknown order type")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "statusflow", entry["component"])
	assert.Equal(t, "catering", entry["order_type"])
	assert.Equal(t, "unknown order type", entry["message"])
	assert.Contains(t, entry, "timestamp")
}
