package backup

import (
	"crafthost/internal/domain"
	"crafthost/internal/installation"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	NamePrefix      = "world_backup_"
	timestampLayout = "20060102_150405"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

type Snapshot struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
	Size      int64     `json:"size"`
}

// Manager snapshots the world directory of one installation into its
// backups directory. It never checks whether the server is running.
type Manager struct {
	Layout installation.Layout
	Logger *zap.Logger

	now func() time.Time
}

// NewManager creates the backups directory if it is missing.
func NewManager(layout installation.Layout, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := layout.Ensure(); err != nil {
		return nil, err
	}
	return &Manager{Layout: layout, Logger: logger, now: time.Now}, nil
}

// SnapshotName is the backup directory name for a creation time.
func SnapshotName(t time.Time) string {
	return NamePrefix + t.Format(timestampLayout)
}

// CreateBackup copies world/ into backups/world_backup_<ts>. It returns
// (nil, nil) when the server has not generated a world yet. A failed copy
// leaves whatever was written in place.
func (m *Manager) CreateBackup() (*Snapshot, error) {
	if !m.Layout.HasWorld() {
		m.Logger.Info("no world to back up", zap.String("world", m.Layout.WorldPath()))
		return nil, nil
	}

	createdAt := m.now()
	name := SnapshotName(createdAt)
	dest := filepath.Join(m.Layout.BackupsPath(), name)

	if err := copyTree(m.Layout.WorldPath(), dest); err != nil {
		return nil, domain.IOError(fmt.Sprintf("create snapshot %s", name), err)
	}

	size, _ := dirSize(dest)
	m.Logger.Info("snapshot created", zap.String("name", name), zap.Int64("bytes", size))

	return &Snapshot{
		Name:      name,
		Path:      dest,
		CreatedAt: createdAt,
		Size:      size,
	}, nil
}

// ListBackups returns the immediate subdirectories of backups/ in the order
// the filesystem reports them.
func (m *Manager) ListBackups() ([]string, error) {
	entries, err := os.ReadDir(m.Layout.BackupsPath())
	if err != nil {
		return nil, domain.IOError("read backups directory", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// RestoreBackup replaces world/ with a copy of the named snapshot. The
// current world is deleted first and is not saved anywhere; a failure half
// way leaves world/ missing or partially copied.
func (m *Manager) RestoreBackup(name string) error {
	if err := m.exists(name); err != nil {
		return err
	}

	src := filepath.Join(m.Layout.BackupsPath(), name)
	world := m.Layout.WorldPath()

	m.Logger.Warn("restoring snapshot over current world", zap.String("name", name), zap.String("world", world))

	if err := os.RemoveAll(world); err != nil {
		return domain.IOError("delete current world", err)
	}
	if err := copyTree(src, world); err != nil {
		return domain.IOError(fmt.Sprintf("restore snapshot %s", name), err)
	}
	return nil
}

// Info describes one snapshot. CreatedAt comes from the name when it carries
// a timestamp and from the directory's mtime otherwise.
func (m *Manager) Info(name string) (*Snapshot, error) {
	if err := m.exists(name); err != nil {
		return nil, err
	}

	path := filepath.Join(m.Layout.BackupsPath(), name)
	fi, err := os.Stat(path)
	if err != nil {
		return nil, domain.IOError("stat snapshot", err)
	}

	size, err := dirSize(path)
	if err != nil {
		return nil, domain.IOError("measure snapshot", err)
	}

	createdAt := fi.ModTime()
	if ts, ok := strings.CutPrefix(name, NamePrefix); ok {
		if parsed, err := time.ParseInLocation(timestampLayout, ts, time.Local); err == nil {
			createdAt = parsed
		}
	}

	return &Snapshot{Name: name, Path: path, CreatedAt: createdAt, Size: size}, nil
}

func (m *Manager) exists(name string) error {
	names, err := m.ListBackups()
	if err != nil {
		return err
	}
	if !slices.Contains(names, name) {
		return fmt.Errorf("%w: %q", ErrSnapshotNotFound, name)
	}
	return nil
}

// SortNewestFirst orders snapshot names for display. Names embed a sortable
// timestamp, so reverse lexical order is newest first.
func SortNewestFirst(names []string) []string {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	slices.Reverse(sorted)
	return sorted
}
