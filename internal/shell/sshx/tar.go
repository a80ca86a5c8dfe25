package sshx

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// tarResult carries the archiving error out of the writer goroutine.
type tarResult struct {
	mu  sync.Mutex
	err error
}

func (r *tarResult) set(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Err returns the archiving error, if any. Valid once the reader has been
// drained or closed.
func (r *tarResult) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// newTarPipe streams dir as a tar archive through an in-memory pipe.
func newTarPipe(dir string) (*io.PipeReader, *tarResult) {
	pr, pw := io.Pipe()
	res := &tarResult{}
	go func() {
		err := writeTar(pw, dir)
		res.set(err)
		pw.CloseWithError(err)
	}()
	return pr, res
}

// writeTar archives the contents of dir with paths relative to dir.
// Only directories and regular files are included; file modes are kept.
func writeTar(w io.Writer, dir string) error {
	tw := tar.NewWriter(w)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("tar header for %s: %w", rel, err)
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("archive %s: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return tw.Close()
}
