package sshx

import (
	"archive/tar"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTar_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nginx_config", "sites-enabled"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yaml"), []byte("services: {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nginx_config", "sites-enabled", "webapp"), []byte("server {}\n"), 0o600))

	pr, res := newTarPipe(dir)
	defer pr.Close()

	entries := map[string]string{}
	tr := tar.NewReader(pr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		if hdr.Typeflag == tar.TypeDir {
			entries[hdr.Name] = ""
			continue
		}
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = string(data)
	}

	require.NoError(t, res.Err())
	assert.Equal(t, "services: {}\n", entries["docker-compose.yaml"])
	assert.Equal(t, "server {}\n", entries["nginx_config/sites-enabled/webapp"])
	assert.Contains(t, entries, "nginx_config/")
	assert.Contains(t, entries, "nginx_config/sites-enabled/")
}

func TestWriteTar_MissingDir(t *testing.T) {
	pr, res := newTarPipe(filepath.Join(t.TempDir(), "nope"))
	defer pr.Close()

	_, err := io.ReadAll(pr)
	require.Error(t, err)
	assert.Error(t, res.Err())
}

func TestCommandError(t *testing.T) {
	err := &CommandError{Cmd: "service nginx reload", ExitStatus: 1}
	assert.Contains(t, err.Error(), "service nginx reload")
	assert.True(t, IsExitFailure(err))
	assert.False(t, IsExitFailure(errors.New("dial tcp: timeout")))
}
