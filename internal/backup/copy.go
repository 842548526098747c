package backup

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	cp "github.com/otiai10/copy"
)

// copyTree recreates src at dst. dst must not exist yet. A symlinked src is
// resolved and its target copied; links inside the tree are copied as links.
// Modes and mtimes are kept.
func copyTree(src, dst string) error {
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return err
	}
	rootInfo, err := os.Stat(resolved)
	if err != nil {
		return err
	}
	if !rootInfo.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%s: %w", dst, fs.ErrExist)
	}

	return cp.Copy(resolved, dst, cp.Options{
		OnSymlink: func(string) cp.SymlinkAction {
			return cp.Shallow
		},
		PreserveTimes: true,
	})
}

func dirSize(root string) (int64, error) {
	var size int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	return size, err
}
