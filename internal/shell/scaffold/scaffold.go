// Package scaffold creates the initial filesystem layout for a new target.
// This is the only place the compose service entry is created; the build
// stage mutates it but never creates it.
package scaffold

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Create lays out a new target root at dir: requirements, Dockerfile, an
// example application under src/<name>/, a tests directory, and the compose
// document declaring services.<name>. Fails if dir already exists.
func Create(dir, name string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("target directory %s already exists", dir)
	}

	srcDir := filepath.Join(dir, "src", name)
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return fmt.Errorf("create source dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "tests"), 0o755); err != nil {
		return fmt.Errorf("create tests dir: %w", err)
	}

	files := map[string]string{
		filepath.Join(dir, "requirements.txt"):       requirementsTxt,
		filepath.Join(dir, "Dockerfile"):             dockerfile(name),
		filepath.Join(dir, "docker-compose.yaml"):    composeYAML(name),
		filepath.Join(dir, "src", "pyproject.toml"):  pyprojectToml(name),
		filepath.Join(srcDir, "__init__.py"):         "",
		filepath.Join(srcDir, "main.py"):             exampleMainPy,
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	logger.Info("target scaffolded, register it in the shipper config",
		"target", name,
		"dir", dir,
	)
	return nil
}

const requirementsTxt = `fastapi
uvicorn
`

func dockerfile(name string) string {
	return fmt.Sprintf(`FROM python:3.12-slim

WORKDIR /opt/%[1]s

COPY requirements.txt .
RUN pip install --no-cache-dir -r requirements.txt

COPY app/ .

CMD ["python", "-m", "uvicorn", "%[1]s.main:app", "--host", "0.0.0.0", "--port", "8000"]
`, name)
}

func composeYAML(name string) string {
	return fmt.Sprintf(`# Created by shipper init. The ports list is managed by the build stage.
services:
  %s:
    build:
      context: .
      network: host
    ports: []
    network_mode: host # TODO: Apply proper networking
`, name)
}

func pyprojectToml(name string) string {
	return fmt.Sprintf(`[project]
name = "%s"
version = "0.1.0"
requires-python = ">=3.12"
`, name)
}

const exampleMainPy = `from fastapi import FastAPI

app = FastAPI()


@app.get("/")
async def alive():
    return "ok"
`
