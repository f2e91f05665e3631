package helper

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legal-ai/internal/config"
)

func TestPrettyPrint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrettyPrint(&buf, map[string]int{"num_chunks": 3}))
	assert.Equal(t, "{\n  \"num_chunks\": 3\n}\n", buf.String())

	assert.Error(t, PrettyPrint(&buf, make(chan int)))
}

func TestSetupLoggerLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())

	SetupLogger(config.LogConfig{Level: "warn", Format: "json"})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	SetupLogger(config.LogConfig{Level: "nonsense"})
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}
