package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileOutputIsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	log, err := New(&Config{LogFile: path, Level: "debug", NoConsole: true, MaxSize: 1})
	require.NoError(t, err)

	mint := solana.NewWallet().PublicKey()
	log.WithMint(mint).Info("Curve launched")
	end := log.TrackPerformance("buy")
	end()
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "INFO", first["level"])
	assert.Equal(t, mint.String(), first["mint"])
	assert.Contains(t, first, "timestamp")

	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &last))
	assert.Equal(t, "buy", last["operation"])
	assert.Contains(t, last, "correlation_id")
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	log, err := New(&Config{LogFile: path, Level: "warn", NoConsole: true})
	require.NoError(t, err)

	log.Info("dropped")
	log.WithComponent("recorder").Warn("kept")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"component":"recorder"`)
}

func TestInvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", NoConsole: true})
	assert.Error(t, err)
}

func TestBufferKeepsNewestEntries(t *testing.T) {
	log, err := New(&Config{Level: "info", NoConsole: true, BufferSize: 3})
	require.NoError(t, err)
	require.NotNil(t, log.Buffer())

	log.Debug("filtered")
	for _, msg := range []string{"a", "b", "c", "d"} {
		log.WithComponent("engine").Info(msg)
	}

	entries := log.Buffer().Entries(0)
	require.Len(t, entries, 3)
	assert.Equal(t, "b", entries[0].Message)
	assert.Equal(t, "d", entries[2].Message)
	assert.Equal(t, "INFO", entries[2].Level)
	assert.Equal(t, "engine", entries[2].Fields["component"])
	assert.Equal(t, uint64(4), log.Buffer().Total())

	last := log.Buffer().Entries(1)
	require.Len(t, last, 1)
	assert.Equal(t, "d", last[0].Message)
}
