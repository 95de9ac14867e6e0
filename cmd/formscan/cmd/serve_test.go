package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerConfigFrom_Defaults(t *testing.T) {
	isolate(t)
	cmd := newServeCmd()
	require.NoError(t, cmd.ParseFlags(nil))

	sc := serverConfigFrom(GetConfig(), cmd)
	assert.Equal(t, "localhost", sc.Host)
	assert.Equal(t, 8080, sc.Port)
	assert.Equal(t, int64(50), sc.MaxUploadMB)
	assert.False(t, sc.RateLimit.Enabled)
	assert.True(t, sc.PipelineConfig.EnableVision)
}

func TestServerConfigFrom_FlagsWin(t *testing.T) {
	isolate(t)
	cmd := newServeCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"-H", "0.0.0.0", "-p", "3000", "--max-upload-size", "5",
		"--rate-limit-enabled", "--requests-per-second", "2.5", "--burst", "4",
		"--no-vision", "--threshold", "0.75",
	}))

	sc := serverConfigFrom(GetConfig(), cmd)
	assert.Equal(t, "0.0.0.0", sc.Host)
	assert.Equal(t, 3000, sc.Port)
	assert.Equal(t, int64(5), sc.MaxUploadMB)
	assert.True(t, sc.RateLimit.Enabled)
	assert.InDelta(t, 2.5, sc.RateLimit.RequestsPerSecond, 1e-9)
	assert.Equal(t, 4, sc.RateLimit.Burst)
	assert.False(t, sc.PipelineConfig.EnableVision)
	assert.InDelta(t, 0.75, sc.PipelineConfig.Threshold, 1e-9)
}

func TestServeCommand_InvalidPort(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "serve", "--port", "70000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port number")
}
