package builder

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/artpar/shipper/internal/core/render"
)

// renderTree mirrors the template tree into destDir, substituting ${VAR}
// placeholders in every file. Re-rendering into an existing destination
// overwrites files in place; stale destination files not present in the
// template set are left alone.
func renderTree(templates fs.FS, destDir string, env map[string]string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	return fs.WalkDir(templates, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		dest := filepath.Join(destDir, filepath.FromSlash(p))
		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}

		raw, err := fs.ReadFile(templates, p)
		if err != nil {
			return err
		}
		out, err := render.Substitute(string(raw), env)
		if err != nil {
			var missing *render.MissingVariableError
			if errors.As(err, &missing) {
				missing.File = p
			}
			return err
		}
		return os.WriteFile(dest, []byte(out), 0o644)
	})
}

// copyTree copies the directory tree at src into dest, preserving file modes.
func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return copyFileMode(p, target, info.Mode())
	})
}

func copyFile(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return copyFileMode(src, dest, info.Mode())
}

func copyFileMode(src, dest string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
