package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivelab-data/soma.report/internal/config"
	"github.com/hivelab-data/soma.report/internal/monitoring"
	"github.com/hivelab-data/soma.report/internal/sheet"
	"github.com/hivelab-data/soma.report/internal/snapshot"
)

func TestLoadTableOffline(t *testing.T) {
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(prev) })

	cfg := &config.Config{
		SheetName:    "Neuron Reconstructions",
		SnapshotPath: filepath.Join(t.TempDir(), "snapshots.db"),
	}

	// Offline with no cached snapshot is an error.
	_, err := loadTable(cfg, true)
	assert.ErrorIs(t, err, snapshot.ErrNoSnapshot)

	// Seed a snapshot, then the offline path serves it.
	store, err := snapshot.Open(cfg.SnapshotPath)
	require.NoError(t, err)
	tbl := sheet.NewTable([]string{"ID", "Status 1"})
	tbl.Append(sheet.Row{"ID": sheet.String("N030-1"), "Status 1": sheet.String("Completed")})
	require.NoError(t, store.Save(context.Background(), cfg.SheetName, tbl))
	require.NoError(t, store.Close())

	got, err := loadTable(cfg, true)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
	assert.Equal(t, "N030-1", got.Rows[0].Get("ID").Text())
}

func TestLoadTableRequiresToken(t *testing.T) {
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(prev) })

	cfg := &config.Config{
		SheetName:    "Neuron Reconstructions",
		SnapshotPath: filepath.Join(t.TempDir(), "snapshots.db"),
	}
	_, err := loadTable(cfg, false)
	assert.Error(t, err)
}
