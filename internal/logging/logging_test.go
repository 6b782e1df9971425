package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)

	lvl, err = ParseLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestOpen_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "foilwatch.log")

	logger, closer, err := Open(Options{Path: path, Level: "info"})
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Str("session", "abc").Msg("job-submitted")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.NotContains(t, content, "hidden")
	assert.Contains(t, content, `"message":"job-submitted"`)
	assert.Contains(t, content, `"session":"abc"`)
	assert.Contains(t, content, `"time":`)
}

func TestOpen_TeesToConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foilwatch.log")
	var console bytes.Buffer

	logger, closer, err := Open(Options{Path: path, Level: "debug", Console: &console})
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug().Msg("poll-pending")

	assert.Contains(t, console.String(), "poll-pending")
	assert.False(t, strings.HasPrefix(console.String(), "{"), "console output should not be JSON")
}

func TestOpen_NoOutputsIsNop(t *testing.T) {
	logger, closer, err := Open(Options{})
	require.NoError(t, err)
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
	assert.NoError(t, closer.Close())
}

func TestOpen_BadLevel(t *testing.T) {
	_, _, err := Open(Options{Path: filepath.Join(t.TempDir(), "x.log"), Level: "shout"})
	assert.Error(t, err)
}
