package app

import (
	"crafthost/internal/domain"
	"crafthost/internal/installation"
	"crafthost/internal/jvm"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type ReleaseCatalog interface {
	ProjectName() string
	ResolveLatestBuild(version string) (int, error)
	DownloadBuild(targetDir string, version string, build int, progressChan chan<- domain.ProgressEvent) (string, error)
}

type RuntimeProvisioner interface {
	Ensure(major int, targetDir string) (string, error)
}

type InstallationStore interface {
	SaveInstallation(inst *domain.Installation) error
	GetInstallation(root string) (*domain.Installation, error)
}

type ProvisionRequest struct {
	Version string
	// InstallJava fetches a runtime into the installation. Without it the
	// server is launched with "java" from PATH.
	InstallJava bool
	AcceptEULA  bool
	Port        int
	MinHeapMB   int
	MaxHeapMB   int
}

// Provisioner sequences the catalog, runtime and installation steps of a
// first-time setup or a version change.
type Provisioner struct {
	Layout  installation.Layout
	Catalog ReleaseCatalog
	Runtime RuntimeProvisioner
	Store   InstallationStore
	Logger  *zap.Logger
}

func NewProvisioner(layout installation.Layout, c ReleaseCatalog, r RuntimeProvisioner, s InstallationStore, logger *zap.Logger) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provisioner{Layout: layout, Catalog: c, Runtime: r, Store: s, Logger: logger}
}

func (p *Provisioner) Provision(req ProvisionRequest, progressChan chan<- domain.ProgressEvent) (*domain.Installation, error) {
	if req.Version == "" {
		return nil, errors.New("a version is required")
	}
	if req.MinHeapMB <= 0 || req.MaxHeapMB < req.MinHeapMB {
		return nil, fmt.Errorf("invalid memory bounds: %d-%d", req.MinHeapMB, req.MaxHeapMB)
	}

	domain.Send(progressChan, domain.ProgressEvent{Message: "Preparing installation..."})
	if err := p.Layout.Ensure(); err != nil {
		return nil, err
	}

	build, err := p.Catalog.ResolveLatestBuild(req.Version)
	if err != nil {
		return nil, err
	}

	inst := &domain.Installation{
		Root:      p.Layout.Root,
		Project:   p.Catalog.ProjectName(),
		Version:   req.Version,
		Build:     build,
		JavaMajor: jvm.RequiredMajor(req.Version),
		MinHeapMB: req.MinHeapMB,
		MaxHeapMB: req.MaxHeapMB,
		Port:      p.Layout.Port(),
	}

	if req.InstallJava {
		domain.Send(progressChan, domain.ProgressEvent{Message: fmt.Sprintf("Preparing Java %d...", inst.JavaMajor)})
		javaPath, err := p.Runtime.Ensure(inst.JavaMajor, p.Layout.Root)
		if err != nil {
			return nil, fmt.Errorf("error preparing Java: %w", err)
		}
		inst.JavaPath = javaPath
	}

	if _, err := p.Catalog.DownloadBuild(p.Layout.Root, req.Version, build, progressChan); err != nil {
		return nil, err
	}

	if req.AcceptEULA {
		if err := p.Layout.AcceptEULA(); err != nil {
			return nil, err
		}
	}
	inst.EULAAccepted = p.Layout.EULAAccepted()

	if req.Port > 0 {
		domain.Send(progressChan, domain.ProgressEvent{Message: "Configuring server..."})
		if !installation.PortAvailable(req.Port) {
			p.Logger.Warn("port is currently in use", zap.Int("port", req.Port))
		}
		if err := p.Layout.SetPort(req.Port); err != nil {
			return nil, err
		}
		inst.Port = req.Port
	}

	inst.ProvisionedAt = time.Now()
	if err := p.Store.SaveInstallation(inst); err != nil {
		return nil, fmt.Errorf("DB error: %w", err)
	}

	p.Logger.Info("installation provisioned",
		zap.String("root", inst.Root),
		zap.String("version", inst.Version),
		zap.Int("build", inst.Build),
		zap.Int("java", inst.JavaMajor),
		zap.String("java_path", inst.JavaPath))
	domain.Send(progressChan, domain.ProgressEvent{Message: "Installation ready.", Progress: 100})

	return inst, nil
}

// Installation returns the stored record, or nil when nothing was provisioned.
func (p *Provisioner) Installation() (*domain.Installation, error) {
	return p.Store.GetInstallation(p.Layout.Root)
}
