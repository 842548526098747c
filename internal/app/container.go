package app

import (
	"crafthost/internal/backup"
	"crafthost/internal/catalog"
	"crafthost/internal/config"
	"crafthost/internal/installation"
	"crafthost/internal/jvm"
	"crafthost/internal/runner"
	"crafthost/internal/storage"
	"fmt"

	"go.uber.org/zap"
)

type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	Layout        installation.Layout
	Store         *storage.GormStore
	Catalog       *catalog.Client
	JvmManager    *jvm.Manager
	Supervisor    *runner.Supervisor
	BackupManager *backup.Manager
	Provisioner   *Provisioner
}

// NewContainer wires every component against the configured installation.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	layout, err := installation.New(cfg.ServerDir)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewGormStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	platform, err := runtimePlatform(cfg.Runtime)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	catalogClient := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Project, logger.Named("catalog"))
	jvmMgr := jvm.NewManager(cfg.Runtime.APIURL, platform, logger.Named("jvm"))

	backupManager, err := backup.NewManager(layout, logger.Named("backup"))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Container{
		Config:        cfg,
		Logger:        logger,
		Layout:        layout,
		Store:         store,
		Catalog:       catalogClient,
		JvmManager:    jvmMgr,
		Supervisor:    runner.NewSupervisor(logger.Named("runner")),
		BackupManager: backupManager,
		Provisioner:   NewProvisioner(layout, catalogClient, jvmMgr, store, logger.Named("provision")),
	}, nil
}

// Close stops a tracked server and closes the database.
func (c *Container) Close() error {
	if err := c.Supervisor.Stop(); err == nil {
		c.Logger.Info("stopped server on shutdown")
	}
	return c.Store.Close()
}

func runtimePlatform(rc config.RuntimeConfig) (jvm.Platform, error) {
	platform, err := jvm.HostPlatform()
	if rc.OS != "" {
		platform.OS = rc.OS
	}
	if rc.Arch != "" {
		platform.Architecture = rc.Arch
	}
	if err != nil && (rc.OS == "" || rc.Arch == "") {
		return platform, err
	}
	if rc.ImageType != "" {
		platform.ImageType = rc.ImageType
	}
	if rc.Vendor != "" {
		platform.Vendor = rc.Vendor
	}
	return platform, nil
}
