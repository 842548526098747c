package app

import (
	"crafthost/internal/config"
	"crafthost/internal/domain"
	"crafthost/internal/jvm"
	"crafthost/internal/logger"
	"crafthost/internal/runner"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newContainer(t *testing.T) *Container {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		ServerDir:    filepath.Join(dir, "server"),
		DatabasePath: filepath.Join(dir, "crafthost.db"),
		Port:         25570,
		Catalog:      config.CatalogConfig{BaseURL: "http://127.0.0.1:0", Project: "paper"},
		Runtime:      config.RuntimeConfig{APIURL: "http://127.0.0.1:0", OS: "linux", Arch: "x64"},
		Memory:       config.MemoryConfig{MinMB: 1024, MaxMB: 4096},
		Log:          logger.Config{Level: "error", Format: "json"},
	}

	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewContainerPreparesLayout(t *testing.T) {
	c := newContainer(t)

	fi, err := os.Stat(c.Layout.BackupsPath())
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	assert.Equal(t, "paper", c.Catalog.ProjectName())

	inst, err := c.Provisioner.Installation()
	require.NoError(t, err)
	assert.Nil(t, inst)
}

func TestLaunchOptions(t *testing.T) {
	c := newContainer(t)

	t.Run("falls back to config without a record", func(t *testing.T) {
		opts := c.LaunchOptions(nil)
		assert.Equal(t, 1024, opts.MinHeapMB)
		assert.Equal(t, 4096, opts.MaxHeapMB)
		assert.Empty(t, opts.JavaPath)
	})

	t.Run("uses the stored heap and an existing runtime", func(t *testing.T) {
		java := filepath.Join(t.TempDir(), "java")
		require.NoError(t, os.WriteFile(java, []byte("#!/bin/sh\n"), 0755))

		opts := c.LaunchOptions(&domain.Installation{MinHeapMB: 2048, MaxHeapMB: 8192, JavaPath: java})
		assert.Equal(t, 2048, opts.MinHeapMB)
		assert.Equal(t, 8192, opts.MaxHeapMB)
		assert.Equal(t, java, opts.JavaPath)
	})

	t.Run("ignores inverted heap bounds", func(t *testing.T) {
		opts := c.LaunchOptions(&domain.Installation{MinHeapMB: 8192, MaxHeapMB: 1024})
		assert.Equal(t, 1024, opts.MinHeapMB)
		assert.Equal(t, 4096, opts.MaxHeapMB)
	})

	t.Run("relocates a moved runtime by major", func(t *testing.T) {
		bin := filepath.Join(c.Layout.RuntimePath(17), "jdk-17.0.9+9", "bin")
		require.NoError(t, os.MkdirAll(bin, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(bin, jvm.BinaryName()), []byte("#!/bin/sh\n"), 0755))

		opts := c.LaunchOptions(&domain.Installation{JavaMajor: 17, JavaPath: "/gone/bin/java"})
		assert.Equal(t, filepath.Join(bin, jvm.BinaryName()), opts.JavaPath)
	})

	t.Run("uses PATH when nothing is found", func(t *testing.T) {
		opts := c.LaunchOptions(&domain.Installation{JavaMajor: 8, JavaPath: "/gone/bin/java"})
		assert.Empty(t, opts.JavaPath)
	})
}

func TestInitialPort(t *testing.T) {
	c := newContainer(t)
	assert.Equal(t, 25570, c.InitialPort())

	require.NoError(t, c.Layout.SetPort(25580))
	assert.Equal(t, 0, c.InitialPort())
}

func TestStartServerWithoutArtifact(t *testing.T) {
	c := newContainer(t)
	require.NoError(t, c.Store.SaveInstallation(&domain.Installation{
		Root:          c.Layout.Root,
		Project:       "paper",
		Version:       "1.20.4",
		Build:         499,
		MinHeapMB:     1024,
		MaxHeapMB:     2048,
		ProvisionedAt: time.Now(),
	}))

	_, err := c.StartServer(nil)
	assert.ErrorIs(t, err, runner.ErrArtifactMissing)
}

func TestServerStartedElsewhere(t *testing.T) {
	c := newContainer(t)

	_, running := c.ServerRunning()
	assert.False(t, running)

	require.NoError(t, os.WriteFile(c.Layout.PIDPath(), []byte(strconv.Itoa(os.Getpid())), 0644))

	pid, running := c.ServerRunning()
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)

	_, err := c.StartServer(nil)
	assert.ErrorIs(t, err, runner.ErrAlreadyRunning)
}
