package backup

import (
	"archive/zip"
	"context"
	"crafthost/internal/domain"
	"crafthost/internal/installation"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(installation.Layout{Root: filepath.Join(t.TempDir(), "server")}, nil)
	require.NoError(t, err)
	return m
}

func writeWorld(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
}

// readTree maps every regular file under root to its contents.
func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

var sampleWorld = map[string]string{
	"level.dat":                   "\x0a\x00\x00level",
	"region/r.0.0.mca":            "region-data",
	"region/r.-1.0.mca":           "more-region-data",
	"playerdata/uuid.dat":         "player",
	"DIM-1/region/r.0.0.mca":      "nether",
	"datapacks/empty/pack.mcmeta": "{}",
}

func TestNewManagerCreatesBackupsDir(t *testing.T) {
	m := newManager(t)
	assert.DirExists(t, m.Layout.BackupsPath())

	names, err := m.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCreateBackupWithoutWorld(t *testing.T) {
	m := newManager(t)

	snap, err := m.CreateBackup()
	assert.NoError(t, err)
	assert.Nil(t, snap)

	names, err := m.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCreateBackupCopiesWorld(t *testing.T) {
	m := newManager(t)
	m.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local) }
	writeWorld(t, m.Layout.WorldPath(), sampleWorld)

	snap, err := m.CreateBackup()
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "world_backup_20240309_140507", snap.Name)
	assert.Equal(t, sampleWorld, readTree(t, snap.Path))
	assert.Positive(t, snap.Size)

	names, err := m.ListBackups()
	require.NoError(t, err)
	assert.Equal(t, []string{snap.Name}, names)
}

func TestCreateBackupSameSecondFails(t *testing.T) {
	m := newManager(t)
	fixed := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	m.now = func() time.Time { return fixed }
	writeWorld(t, m.Layout.WorldPath(), sampleWorld)

	_, err := m.CreateBackup()
	require.NoError(t, err)

	_, err = m.CreateBackup()
	assert.True(t, errors.Is(err, domain.ErrIO))
}

func TestCreateThenRestoreRoundTrip(t *testing.T) {
	m := newManager(t)
	writeWorld(t, m.Layout.WorldPath(), sampleWorld)
	before := readTree(t, m.Layout.WorldPath())

	snap, err := m.CreateBackup()
	require.NoError(t, err)

	require.NoError(t, m.RestoreBackup(snap.Name))
	assert.Equal(t, before, readTree(t, m.Layout.WorldPath()))
}

func TestCreateBackupFollowsSymlinkedWorld(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated rights on windows")
	}
	m := newManager(t)
	target := filepath.Join(t.TempDir(), "worlds", "survival")
	writeWorld(t, target, sampleWorld)
	require.NoError(t, os.Symlink(target, m.Layout.WorldPath()))

	snap, err := m.CreateBackup()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, sampleWorld, readTree(t, snap.Path))
	assert.Positive(t, snap.Size)

	fi, err := os.Lstat(snap.Path)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	require.NoError(t, m.RestoreBackup(snap.Name))
	assert.Equal(t, sampleWorld, readTree(t, m.Layout.WorldPath()))
	assert.Equal(t, sampleWorld, readTree(t, target))
}

func TestCreateBackupKeepsInnerSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated rights on windows")
	}
	m := newManager(t)
	writeWorld(t, m.Layout.WorldPath(), sampleWorld)
	require.NoError(t, os.Symlink("level.dat", filepath.Join(m.Layout.WorldPath(), "level.link")))

	snap, err := m.CreateBackup()
	require.NoError(t, err)

	link, err := os.Readlink(filepath.Join(snap.Path, "level.link"))
	require.NoError(t, err)
	assert.Equal(t, "level.dat", link)
}

func TestRestoreReplacesModifiedWorld(t *testing.T) {
	m := newManager(t)
	writeWorld(t, m.Layout.WorldPath(), sampleWorld)

	snap, err := m.CreateBackup()
	require.NoError(t, err)

	writeWorld(t, m.Layout.WorldPath(), map[string]string{
		"level.dat":        "changed",
		"region/r.5.5.mca": "new chunk",
	})

	require.NoError(t, m.RestoreBackup(snap.Name))
	assert.Equal(t, sampleWorld, readTree(t, m.Layout.WorldPath()))
}

func TestRestoreWithoutCurrentWorld(t *testing.T) {
	m := newManager(t)
	writeWorld(t, m.Layout.WorldPath(), sampleWorld)
	snap, err := m.CreateBackup()
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(m.Layout.WorldPath()))
	require.NoError(t, m.RestoreBackup(snap.Name))
	assert.Equal(t, sampleWorld, readTree(t, m.Layout.WorldPath()))
}

func TestRestoreUnknownNameLeavesWorld(t *testing.T) {
	m := newManager(t)
	writeWorld(t, m.Layout.WorldPath(), sampleWorld)

	for _, name := range []string{"world_backup_19990101_000000", "../world", "", "."} {
		err := m.RestoreBackup(name)
		assert.ErrorIs(t, err, ErrSnapshotNotFound, name)
	}
	assert.Equal(t, sampleWorld, readTree(t, m.Layout.WorldPath()))
}

func TestInfo(t *testing.T) {
	m := newManager(t)
	created := time.Date(2023, 12, 31, 23, 59, 58, 0, time.Local)
	m.now = func() time.Time { return created }
	writeWorld(t, m.Layout.WorldPath(), map[string]string{"level.dat": "12345"})

	snap, err := m.CreateBackup()
	require.NoError(t, err)

	info, err := m.Info(snap.Name)
	require.NoError(t, err)
	assert.True(t, created.Equal(info.CreatedAt))
	assert.Equal(t, int64(5), info.Size)

	_, err = m.Info("missing")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestListIgnoresFiles(t *testing.T) {
	m := newManager(t)
	require.NoError(t, os.WriteFile(filepath.Join(m.Layout.BackupsPath(), "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(m.Layout.BackupsPath(), "manual"), 0755))

	names, err := m.ListBackups()
	require.NoError(t, err)
	assert.Equal(t, []string{"manual"}, names)
}

func TestExportBackup(t *testing.T) {
	m := newManager(t)
	writeWorld(t, m.Layout.WorldPath(), sampleWorld)
	snap, err := m.CreateBackup()
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "exports", snap.Name+".zip")
	progress := make(chan domain.ProgressEvent, 200)
	require.NoError(t, m.ExportBackup(context.Background(), snap.Name, dest, progress))
	close(progress)

	assert.NoFileExists(t, dest+".temp")

	r, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer r.Close()

	var files []string
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			files = append(files, f.Name)
		}
	}
	assert.Contains(t, files, snap.Name+"/level.dat")
	assert.Contains(t, files, snap.Name+"/DIM-1/region/r.0.0.mca")
	assert.Len(t, files, len(sampleWorld))

	var last domain.ProgressEvent
	for ev := range progress {
		last = ev
	}
	assert.InDelta(t, 100, last.Progress, 0.001)
}

func TestExportBackupCancelled(t *testing.T) {
	m := newManager(t)
	writeWorld(t, m.Layout.WorldPath(), sampleWorld)
	snap, err := m.CreateBackup()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dest := filepath.Join(t.TempDir(), "out.zip")
	err = m.ExportBackup(ctx, snap.Name, dest, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, dest)
	assert.NoFileExists(t, dest+".temp")
}

func TestSortNewestFirst(t *testing.T) {
	names := []string{"world_backup_20240101_000000", "world_backup_20240301_120000", "world_backup_20231231_235959"}
	assert.Equal(t, []string{
		"world_backup_20240301_120000",
		"world_backup_20240101_000000",
		"world_backup_20231231_235959",
	}, SortNewestFirst(names))
	assert.Equal(t, "world_backup_20240101_000000", names[0])
}
