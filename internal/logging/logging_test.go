package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false, true)
	log.Info("published", zap.String("target", "go"))
	log.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "published", rec["msg"])
	assert.Equal(t, "go", rec["target"])
	assert.Contains(t, rec, "ts")
}

func TestNew_ConsoleVerbose(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true, false)
	log.Debug("file written", zap.String("path", "a.go"))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "DEBUG\tfile written"), out)
	assert.Contains(t, out, `"path": "a.go"`)
}
