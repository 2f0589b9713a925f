package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hdcnetworks/leadscan/internal/config"
)

func TestBuildStoreMemoryBackend(t *testing.T) {
	cfg := config.Config{}
	cfg.Store.Backend = "memory"

	store, err := buildStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, store)
	store.Close()
}

func TestBuildStoreRejectsUnknownBackend(t *testing.T) {
	cfg := config.Config{}
	cfg.Store.Backend = "cassandra"

	_, err := buildStore(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cassandra")
}

func TestBuildArchiveBackends(t *testing.T) {
	cfg := config.Config{}
	cfg.Archive.Backend = "none"

	archive, cleanup, err := buildArchive(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, archive)
	cleanup()

	cfg.Archive.Backend = "local"
	cfg.Archive.BaseDir = t.TempDir()
	archive, cleanup, err = buildArchive(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, archive)
	cleanup()

	cfg.Archive.Backend = "tape"
	_, _, err = buildArchive(context.Background(), cfg)
	require.Error(t, err)
}

func TestReadQueriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	content := "# weekly sweep\n" +
		"low voltage cabling RFP New York\n" +
		"\n" +
		"  security camera bid Westchester  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	queries, err := readQueriesFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"low voltage cabling RFP New York",
		"security camera bid Westchester",
	}, queries)
}

func TestReadQueriesFileRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	require.NoError(t, os.WriteFile(path, []byte("# only comments\n\n"), 0o600))

	_, err := readQueriesFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no queries")

	_, err = readQueriesFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestScanCommandRegistersFlags(t *testing.T) {
	cmd := newScanCmd()
	for _, name := range []string{"dry-run", "queries-file"} {
		require.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestBuildNotifierDisabledWithoutConfig(t *testing.T) {
	notifier, err := buildNotifier(config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, notifier)
}
