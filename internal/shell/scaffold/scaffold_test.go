package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/shipper/internal/core/composefile"
)

func TestCreate_Layout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "webhook-bot")
	require.NoError(t, Create(dir, "webhook-bot", nil))

	for _, p := range []string{
		"requirements.txt",
		"Dockerfile",
		"docker-compose.yaml",
		"src/pyproject.toml",
		"src/webhook-bot/main.py",
		"src/webhook-bot/__init__.py",
	} {
		_, err := os.Stat(filepath.Join(dir, p))
		assert.NoError(t, err, p)
	}

	info, err := os.Stat(filepath.Join(dir, "tests"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreate_ComposeDeclaresService(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "webhook-bot")
	require.NoError(t, Create(dir, "webhook-bot", nil))

	raw, err := os.ReadFile(filepath.Join(dir, "docker-compose.yaml"))
	require.NoError(t, err)

	doc, err := composefile.Parse(raw)
	require.NoError(t, err)
	assert.True(t, doc.HasService("webhook-bot"))
}

func TestCreate_ExistingDir(t *testing.T) {
	dir := t.TempDir()
	err := Create(dir, "webhook-bot", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}
