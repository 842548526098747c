package installation

import (
	"crafthost/internal/domain"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	ArtifactFile   = "server.jar"
	EULAFile       = "eula.txt"
	WorldDir       = "world"
	BackupsDir     = "backups"
	PropertiesFile = "server.properties"
	PIDFile        = "crafthost.pid"
	DefaultPort    = 25565
)

// Layout is a server installation identified by its root directory. Every
// other path is derived from Root.
type Layout struct {
	Root string
}

func New(root string) (Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("error resolving installation root: %w", err)
	}
	return Layout{Root: abs}, nil
}

func (l Layout) ArtifactPath() string   { return filepath.Join(l.Root, ArtifactFile) }
func (l Layout) EULAPath() string       { return filepath.Join(l.Root, EULAFile) }
func (l Layout) WorldPath() string      { return filepath.Join(l.Root, WorldDir) }
func (l Layout) BackupsPath() string    { return filepath.Join(l.Root, BackupsDir) }
func (l Layout) PropertiesPath() string { return filepath.Join(l.Root, PropertiesFile) }
func (l Layout) PIDPath() string        { return filepath.Join(l.Root, PIDFile) }

// RuntimePath is the extraction directory for a runtime major.
func (l Layout) RuntimePath(major int) string {
	return filepath.Join(l.Root, "java"+strconv.Itoa(major))
}

// Ensure creates the root and the backups directory.
func (l Layout) Ensure() error {
	if err := os.MkdirAll(l.BackupsPath(), 0755); err != nil {
		return domain.IOError("create installation directories", err)
	}
	return nil
}

func (l Layout) HasArtifact() bool {
	fi, err := os.Stat(l.ArtifactPath())
	return err == nil && fi.Mode().IsRegular()
}

func (l Layout) HasWorld() bool {
	fi, err := os.Stat(l.WorldPath())
	return err == nil && fi.IsDir()
}

func (l Layout) EULAAccepted() bool {
	props, err := readProperties(l.EULAPath())
	if err != nil {
		return false
	}
	return props.get("eula") == "true"
}

// AcceptEULA writes the license acceptance marker, replacing any previous one.
func (l Layout) AcceptEULA() error {
	if err := os.MkdirAll(l.Root, 0755); err != nil {
		return domain.IOError("create installation root", err)
	}
	if err := os.WriteFile(l.EULAPath(), []byte("eula=true\n"), 0644); err != nil {
		return domain.IOError("write eula marker", err)
	}
	return nil
}
