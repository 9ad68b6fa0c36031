package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mauzenfan/safety-backend-go/internal/config"
)

func TestServe_StartupFailureReturnsExitCode(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "missing", "dir", "safety.db"))
	t.Setenv("LOG_LEVEL", "error")

	assert.Equal(t, 1, serve())
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "safety.db"))
	t.Setenv("PORT", "127.0.0.1:0")
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, run(ctx, cfg, zap.NewNop()))
}
