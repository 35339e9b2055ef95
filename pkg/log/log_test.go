package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithComponentEmitsComponentField(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: DebugLevel, JSONOutput: true, Output: &buf})

	logger := WithComponent("storage")
	logger.Debug().Str("dir", "/tmp/x").Msg("environment opened")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"component":"storage"`)
	assert.Contains(t, out, `"dir":"/tmp/x"`)
	assert.Contains(t, out, "environment opened")
}

func TestInitLevelFiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: WarnLevel, JSONOutput: true, Output: &buf})

	logger := WithComponent("storage")
	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}
