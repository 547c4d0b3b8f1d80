package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cpi.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Listen)
	assert.Equal(t, "detee-cli", cfg.Container.Name)
	assert.Equal(t, "detee/detee-cli:latest", cfg.Container.Image)
	assert.Equal(t, 120*time.Second, cfg.Container.ExecTimeout())
	assert.Equal(t, "http://164.92.249.180:31337", cfg.Account.BrainURL)
	assert.Equal(t, "/root/.ssh/id_ed25519.pub", cfg.Account.SSHPubkeyPath)
}

func TestLoadFillsUnsetFields(t *testing.T) {
	path := writeConfig(t, `
listen = ":8080"

[container]
name = "detee-test"
exec_timeout_secs = 30
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "detee-test", cfg.Container.Name)
	assert.Equal(t, 30*time.Second, cfg.Container.ExecTimeout())
	// Unset fields fall back to defaults.
	assert.Equal(t, "detee/detee-cli:latest", cfg.Container.Image)
	assert.Equal(t, "http://164.92.249.180:31337", cfg.Account.BrainURL)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadMalformedTOMLFails(t *testing.T) {
	path := writeConfig(t, `listen = [broken`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadPlatform(t *testing.T) {
	path := writeConfig(t, `platform = "plan9"`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "platform")
}

func TestValidateRejectsNegativeTimeout(t *testing.T) {
	path := writeConfig(t, `
[container]
exec_timeout_secs = -5
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "exec_timeout_secs")
}

func TestEffectivePlatformOverride(t *testing.T) {
	cfg := Default()
	cfg.Platform = "windows"
	assert.Equal(t, "windows", cfg.EffectivePlatform())

	cfg.Platform = ""
	got := cfg.EffectivePlatform()
	assert.Contains(t, []string{"unix", "windows"}, got)
}
