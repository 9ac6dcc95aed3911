package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestComponentLoggers(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	var buf bytes.Buffer
	InitWithWriter(&buf)

	ForStore().Info().Str("url", "https://www.tokopedia.com/a/b").Msg("saved")
	entry := lastLine(t, &buf)
	assert.Equal(t, "store", entry["component"])
	assert.Equal(t, "saved", entry["message"])
	assert.Equal(t, "https://www.tokopedia.com/a/b", entry["url"])

	ForScraper("product").Warn().Msg("slow")
	entry = lastLine(t, &buf)
	assert.Equal(t, "product", entry["scraper"])
	assert.Equal(t, "warn", entry["level"])
}

func TestLogError(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	var buf bytes.Buffer
	InitWithWriter(&buf)

	LogError("worker", errors.New("boom"), "page %d failed", 3)
	entry := lastLine(t, &buf)
	assert.Equal(t, "worker", entry["component"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "page 3 failed", entry["message"])
}

func TestLogLevelFromEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("TOKO_ENVIRONMENT", "production")
	assert.Equal(t, "info", getLogLevel().String())

	t.Setenv("TOKO_ENVIRONMENT", "development")
	assert.Equal(t, "debug", getLogLevel().String())

	t.Setenv("LOG_LEVEL", "not-a-level")
	assert.Equal(t, "info", getLogLevel().String())
}
