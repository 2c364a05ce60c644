package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManagerSeedsConfigFile(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir), WithInitialConfig(DefaultConfigWithRoot(dir)))
	require.NoError(t, err)

	require.FileExists(t, filepath.Join(dir, "config.json"))
	require.Equal(t, dir, mgr.Get().ProjectDir)
	require.InDelta(t, 0.3, mgr.Get().Strategy.BuyThreshold, 1e-9)
}

func TestManagerLoadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfigWithRoot(dir)
	cfg.Strategy.BuyThreshold = 0.45

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	mgr, err := NewManager(WithConfigPath(path))
	require.NoError(t, err)
	require.InDelta(t, 0.45, mgr.Get().Strategy.BuyThreshold, 1e-9)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	var cfg Config
	err := loadConfigFromFile(path, &cfg)
	require.ErrorIs(t, err, os.ErrNotExist)

	want := DefaultConfigWithRoot(dir)
	data, err := json.Marshal(want)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	require.NoError(t, loadConfigFromFile(path, &cfg))
	require.Equal(t, want.DBPath, cfg.DBPath)
	require.InDelta(t, want.Strategy.SentimentWeight, cfg.Strategy.SentimentWeight, 1e-9)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	require.Error(t, loadConfigFromFile(path, &cfg))
}

func TestManagerUpdatePersistsAndNotifies(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir), WithInitialConfig(DefaultConfigWithRoot(dir)))
	require.NoError(t, err)

	var notified []Config
	mgr.OnChange(func(cfg Config) { notified = append(notified, cfg) })

	next := mgr.Get()
	next.Strategy.BuyThreshold = 0.5
	require.NoError(t, mgr.Update(next))

	require.InDelta(t, 0.5, mgr.Get().Strategy.BuyThreshold, 1e-9)
	require.Len(t, notified, 1)

	var onDisk Config
	require.NoError(t, loadConfigFromFile(mgr.Path(), &onDisk))
	require.InDelta(t, 0.5, onDisk.Strategy.BuyThreshold, 1e-9)

	// Unchanged update is a no-op.
	require.NoError(t, mgr.Update(next))
	require.Len(t, notified, 1)
}

func TestManagerUpdateRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir), WithInitialConfig(DefaultConfigWithRoot(dir)))
	require.NoError(t, err)

	bad := mgr.Get()
	bad.Strategy.SentimentWeight = 0.9 // weights no longer sum to 1
	require.Error(t, mgr.Update(bad))
	require.InDelta(t, 0.6, mgr.Get().Strategy.SentimentWeight, 1e-9)
}

func TestManagerWatchReloadsExternalEdit(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(
		WithConfigDir(dir),
		WithInitialConfig(DefaultConfigWithRoot(dir)),
		WithDebounce(20*time.Millisecond),
	)
	require.NoError(t, err)

	changed := make(chan Config, 1)
	mgr.OnChange(func(cfg Config) {
		select {
		case changed <- cfg:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, mgr.Watch(ctx))

	// An invalid edit must be skipped and keep the last good config.
	require.NoError(t, os.WriteFile(mgr.Path(), []byte("{broken"), 0o644))
	select {
	case <-changed:
		t.Fatal("invalid config must not be applied")
	case <-time.After(300 * time.Millisecond):
	}
	require.InDelta(t, 0.3, mgr.Get().Strategy.BuyThreshold, 1e-9)

	next := mgr.Get()
	next.Strategy.BuyThreshold = 0.42
	data, err := json.Marshal(next)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(mgr.Path(), data, 0o644))

	select {
	case cfg := <-changed:
		require.InDelta(t, 0.42, cfg.Strategy.BuyThreshold, 1e-9)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not pick up the external edit")
	}
	require.InDelta(t, 0.42, mgr.Get().Strategy.BuyThreshold, 1e-9)
}
