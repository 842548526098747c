package backup

import (
	"archive/zip"
	"context"
	"crafthost/internal/domain"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// ExportBackup writes the named snapshot as a zip archive at destZip. The
// archive is assembled under a .temp name and renamed when complete.
func (m *Manager) ExportBackup(ctx context.Context, name, destZip string, progressChan chan<- domain.ProgressEvent) error {
	if err := m.exists(name); err != nil {
		return err
	}

	src := filepath.Join(m.Layout.BackupsPath(), name)
	totalSize, _ := dirSize(src)

	if err := os.MkdirAll(filepath.Dir(destZip), 0755); err != nil {
		return domain.IOError("create export directory", err)
	}

	tempPath := destZip + ".temp"
	zipFile, err := os.Create(tempPath)
	if err != nil {
		return domain.IOError("create export archive", err)
	}

	zipWriter := zip.NewWriter(zipFile)

	var processedSize int64
	var lastProgress int

	err = filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if relPath == "." || !(info.IsDir() || info.Mode().IsRegular()) {
			return nil
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(filepath.Join(name, relPath))

		if info.IsDir() {
			header.Name += "/"
		} else {
			header.Method = zip.Deflate
		}

		writer, err := zipWriter.CreateHeader(header)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		if err := copyInto(writer, path); err != nil {
			return err
		}

		processedSize += info.Size()
		if totalSize > 0 {
			percentage := float64(processedSize) / float64(totalSize) * 100
			if int(percentage) > lastProgress {
				lastProgress = int(percentage)
				domain.Send(progressChan, domain.ProgressEvent{
					Message:      fmt.Sprintf("Exporting... %d%%", lastProgress),
					Progress:     percentage,
					CurrentBytes: processedSize,
					TotalBytes:   totalSize,
				})
			}
		}
		return nil
	})

	zipErr := zipWriter.Close()
	fileErr := zipFile.Close()

	if err != nil || zipErr != nil || fileErr != nil {
		_ = os.Remove(tempPath)
		if err != nil {
			return domain.IOError(fmt.Sprintf("export snapshot %s", name), err)
		}
		return domain.IOError("close export archive", errors.Join(zipErr, fileErr))
	}

	if err := os.Rename(tempPath, destZip); err != nil {
		return domain.IOError("finalize export archive", err)
	}

	m.Logger.Info("snapshot exported", zap.String("name", name), zap.String("archive", destZip))
	return nil
}

func copyInto(w io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(w, file)
	return err
}
