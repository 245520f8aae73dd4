package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNew_MemoryProviders(t *testing.T) {
	path := writeConfig(t, `
domains:
  primary: shop.example.com
  app: ai.example.com
storage:
  provider: memory
alerts:
  provider: memory
`)

	a, err := New(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NotNil(t, a.Store)
	require.NotNil(t, a.Alerts)
	require.NotNil(t, a.Pipeline)
	require.NotNil(t, a.Merchant)
	require.NotNil(t, a.Server())
}

func TestNew_LocalStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	path := writeConfig(t, `
domains:
  primary: shop.example.com
storage:
  provider: local
  local_directory: `+dir+`
alerts:
  provider: noop
`)

	a, err := New(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestNew_InvalidConfigRejected(t *testing.T) {
	path := writeConfig(t, `
domains: {}
`)
	_, err := New(context.Background(), path)
	require.Error(t, err)
}
