package jvm

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// safeJoin joins name onto dest and rejects entries that would land outside it.
func safeJoin(dest, name string) (string, error) {
	fpath := filepath.Join(dest, name)
	cleanDest := filepath.Clean(dest)
	if fpath != cleanDest && !strings.HasPrefix(fpath, cleanDest+string(os.PathSeparator)) {
		return "", fmt.Errorf("%s: illegal file path", name)
	}
	return fpath, nil
}

func Unzip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		fpath, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return err
		}

		if err := writeZipEntry(f, fpath); err != nil {
			return err
		}
	}
	return nil
}

func writeZipEntry(f *zip.File, fpath string) error {
	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}

	outFile, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer outFile.Close()

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if _, err := io.Copy(outFile, rc); err != nil {
		return err
	}
	return outFile.Close()
}

func Untar(src, dest string) error {
	file, err := os.Open(src)
	if err != nil {
		return err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		fpath, err := safeJoin(dest, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(fpath, 0755); err != nil {
				return err
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
				return err
			}
			if err := writeTarEntry(tr, fpath, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}

		case tar.TypeSymlink:
			target := header.Linkname
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(fpath), target)
			}
			if _, err := safeJoin(dest, mustRel(dest, target)); err != nil {
				return fmt.Errorf("%s: symlink escapes destination", header.Name)
			}
			if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
				return err
			}
			_ = os.Remove(fpath)
			if err := os.Symlink(header.Linkname, fpath); err != nil {
				return err
			}

		case tar.TypeLink:
			// Hard link names are relative to the archive root.
			target, err := safeJoin(dest, header.Linkname)
			if err != nil {
				return fmt.Errorf("%s: hard link escapes destination", header.Name)
			}
			if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
				return err
			}
			_ = os.Remove(fpath)
			if err := linkOrCopy(target, fpath); err != nil {
				return err
			}
		}
	}
}

func writeTarEntry(r io.Reader, fpath string, mode os.FileMode) error {
	if mode == 0 {
		mode = 0644
	}
	outFile, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, r); err != nil {
		return err
	}
	return outFile.Close()
}

// linkOrCopy hard-links target to fpath, copying the file where the
// filesystem does not support links.
func linkOrCopy(target, fpath string) error {
	if err := os.Link(target, fpath); err == nil {
		return nil
	}
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	in, err := os.Open(target)
	if err != nil {
		return err
	}
	defer in.Close()
	return writeTarEntry(in, fpath, info.Mode().Perm())
}

func mustRel(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return ".."
	}
	return rel
}
