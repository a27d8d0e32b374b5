package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fieldops-logistics/pkg/config"
	"github.com/angelmondragon/fieldops-logistics/pkg/logger"
)

func TestRunCreateThenValidate(t *testing.T) {
	ctx := context.Background()
	logg := logger.New(logger.Options{Output: io.Discard})
	dir := t.TempDir()
	cfg := &config.Config{}

	require.NoError(t, run(ctx, cfg, logg, options{cmd: "create", dir: dir, name: "add van capacity"}))
	require.NoError(t, run(ctx, cfg, logg, options{cmd: "validate", dir: dir}))

	require.ErrorContains(t, run(ctx, cfg, logg, options{cmd: "create", dir: dir}), "missing -name")
	require.ErrorContains(t, run(ctx, cfg, logg, options{cmd: "version", dir: dir}), "missing -version")
	require.ErrorContains(t, run(ctx, cfg, logg, options{cmd: "redo", dir: dir}), "unknown -cmd")
}

func TestRunUpRefusesNonPortableMigrations(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\nCREATE TABLE vans (id SERIAL PRIMARY KEY);\n-- +goose Down\nDROP TABLE vans;\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260302093000_vans.sql"), []byte(body), 0o644))

	logg := logger.New(logger.Options{Output: io.Discard})
	err := run(context.Background(), &config.Config{}, logg, options{cmd: "up", dir: dir})
	require.ErrorContains(t, err, "serial")
}
