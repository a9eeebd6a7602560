package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylist/internal/config"
	"stylist/internal/testsupport"
)

type cliTestEnv struct {
	backend    *testsupport.Backend
	configPath string
	dir        string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv("HOME", t.TempDir())

	backend := testsupport.NewBackend(t)
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Service.BaseURL = backend.URL()
	cfg.Log.Level = "error"
	cfgPath := filepath.Join(dir, "stylist.yaml")
	require.NoError(t, config.Save(cfgPath, cfg))
	return &cliTestEnv{backend: backend, configPath: cfgPath, dir: dir}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (e *cliTestEnv) image(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte("bytes-of-"+name), 0o644))
	return path
}

func TestUploadThenListWardrobe(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.SetAttributes("jeans.png", map[string]any{
		"category": "pant", "color": "indigo", "style": "casual", "body_part": "lower",
	})
	env.image(t, "shirt.jpg")
	env.image(t, "jeans.png")
	env.image(t, "notes.txt")

	out, errOut, err := env.run(t, "upload", "-q", filepath.Join(env.dir, "*"))
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully added 2 items to your wardrobe!")
	assert.Contains(t, out, "item-1")
	assert.Contains(t, errOut, "notes.txt")

	out, _, err = env.run(t, "wardrobe")
	require.NoError(t, err)
	assert.Contains(t, out, "upper")
	assert.Contains(t, out, "lower")
	assert.Contains(t, out, "indigo")
	assert.Contains(t, out, "2 items")

	out, _, err = env.run(t, "wardrobe", "item", "item-1")
	require.NoError(t, err)
	assert.Contains(t, out, "body_part")
}

func TestUploadAllFailedReturnsError(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.Fail(testsupport.RouteUpload, "", 500, "Disk full")
	env.image(t, "a.jpg")

	out, _, err := env.run(t, "upload", filepath.Join(env.dir, "a.jpg"))
	require.Error(t, err)
	assert.Contains(t, out, "Disk full")
	assert.Contains(t, out, "Failed to add items to your wardrobe.")
}

func TestOutfitCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.SetAttributes("chinos.jpg", map[string]any{
		"category": "pant", "color": "beige", "style": "casual", "body_part": "lower",
	})
	env.backend.SetPreferences(map[string]any{"occasion": "brunch"})
	env.image(t, "tee.jpg")
	env.image(t, "chinos.jpg")
	_, _, err := env.run(t, "upload", "-q", filepath.Join(env.dir, "*.jpg"))
	require.NoError(t, err)

	out, errOut, err := env.run(t, "outfit", "casual", "brunch")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Searching your wardrobe...")
	assert.Contains(t, out, "tee.jpg")
	assert.Contains(t, out, "chinos.jpg")
	assert.Contains(t, out, "Score: 8.5")
	assert.Contains(t, out, "Fits brunch")
}

func TestOutfitCommandEmptyWardrobe(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := env.run(t, "outfit", "gala")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no matching items found")
	assert.Zero(t, env.backend.Hits(testsupport.RouteScore))
}

func TestImageCommandWritesFile(t *testing.T) {
	env := setupCLITestEnv(t)
	env.image(t, "scarf.png")
	_, _, err := env.run(t, "upload", "-q", filepath.Join(env.dir, "scarf.png"))
	require.NoError(t, err)

	target := filepath.Join(env.dir, "out", "scarf.png")
	out, _, err := env.run(t, "image", "uploads/scarf.png", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved")
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "bytes-of-scarf.png", string(data))

	out, _, err = env.run(t, "image", "scarf.png", "--url")
	require.NoError(t, err)
	assert.Contains(t, out, env.backend.URL()+"/api/images/scarf.png")
}

func TestConfigInit(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "conf", "stylist.yaml")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), target)

	cfg, err := config.Load(target)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Service.BaseURL)

	cmd = newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "already exists")
}

func TestInvalidConfigRejected(t *testing.T) {
	env := setupCLITestEnv(t)
	cfg := config.Default()
	cfg.Service.BaseURL = "ftp://wardrobe"
	require.NoError(t, config.Save(env.configPath, cfg))

	_, _, err := env.run(t, "wardrobe")
	assert.ErrorContains(t, err, "unsupported scheme")
}
