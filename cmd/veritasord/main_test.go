package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/config"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/crypto"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/storage"
)

func TestOpenStorageBackends(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{config.BackendMemory, config.BackendLevelDB, config.BackendBolt} {
		cfg := config.Default()
		cfg.DataDir = filepath.Join(dir, backend)
		cfg.StorageBackend = backend
		db, err := openStorage(cfg)
		require.NoError(t, err, backend)
		require.NoError(t, db.Put([]byte("k"), []byte("v")))
		db.Close()
	}
	cfg := config.Default()
	cfg.StorageBackend = config.BackendMemory
	db, err := openStorage(cfg)
	require.NoError(t, err)
	require.IsType(t, &storage.MemDB{}, db)
}

func TestLoadGenesisSources(t *testing.T) {
	cfg := config.Default()
	spec, err := loadGenesis(cfg)
	require.NoError(t, err)
	require.Nil(t, spec)

	admin := crypto.FromRaw([20]byte{0xAD}).String()
	cfg.AdminAddress = admin
	spec, err = loadGenesis(cfg)
	require.NoError(t, err)
	require.Equal(t, [20]byte{0xAD}, spec.Admin)

	path := filepath.Join(t.TempDir(), "schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte("admin: "+admin+"\n"), 0o600))
	cfg.AdminAddress = ""
	cfg.SchedulePath = path
	spec, err = loadGenesis(cfg)
	require.NoError(t, err)
	require.Equal(t, [20]byte{0xAD}, spec.Admin)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("debug"))
	require.Equal(t, slog.LevelWarn, parseLevel(" WARN "))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
	require.Equal(t, slog.LevelInfo, parseLevel("loud"))
}
