package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, closer, err := New(Options{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)

	log.Info().Msg("ignored")
	log.Warn().Str("book_id", "7").Msg("lock contention")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ignored")
	assert.Contains(t, string(data), `"book_id":"7"`)
	assert.Contains(t, string(data), `"level":"warn"`)
}

func TestNew_Level(t *testing.T) {
	log, _, err := New(Options{Level: "DEBUG", Output: "stderr"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())

	_, _, err = New(Options{Level: "verbose"})
	assert.Error(t, err)
}
