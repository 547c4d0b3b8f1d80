package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the bridge's TOML configuration. Every field has a default, so a
// missing file or empty section still yields a working setup.
type Config struct {
	Listen    string          `toml:"listen"`
	Platform  string          `toml:"platform"` // "unix", "windows", or "" for auto
	Container ContainerConfig `toml:"container"`
	Account   AccountConfig   `toml:"account"`
}

type ContainerConfig struct {
	Name            string `toml:"name"`
	Image           string `toml:"image"`
	VolumeRoot      string `toml:"volume_root"`
	ExecTimeoutSecs int    `toml:"exec_timeout_secs"`
}

type AccountConfig struct {
	BrainURL      string `toml:"brain_url"`
	SSHPubkeyPath string `toml:"ssh_pubkey_path"`
}

// Default returns the configuration matching the stock detee-cli setup.
func Default() Config {
	return Config{
		Listen: ":3000",
		Container: ContainerConfig{
			Name:            "detee-cli",
			Image:           "detee/detee-cli:latest",
			ExecTimeoutSecs: 120,
		},
		Account: AccountConfig{
			BrainURL:      "http://164.92.249.180:31337",
			SSHPubkeyPath: "/root/.ssh/id_ed25519.pub",
		},
	}
}

// Load reads a TOML config file and fills unset fields with defaults. An
// empty path returns the defaults outright.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Listen == "" {
		cfg.Listen = def.Listen
	}
	if cfg.Container.Name == "" {
		cfg.Container.Name = def.Container.Name
	}
	if cfg.Container.Image == "" {
		cfg.Container.Image = def.Container.Image
	}
	if cfg.Container.ExecTimeoutSecs == 0 {
		cfg.Container.ExecTimeoutSecs = def.Container.ExecTimeoutSecs
	}
	if cfg.Account.BrainURL == "" {
		cfg.Account.BrainURL = def.Account.BrainURL
	}
	if cfg.Account.SSHPubkeyPath == "" {
		cfg.Account.SSHPubkeyPath = def.Account.SSHPubkeyPath
	}
}

// Validate rejects values the bridge cannot work with.
func (c Config) Validate() error {
	switch c.Platform {
	case "", "unix", "windows":
	default:
		return fmt.Errorf("platform must be \"unix\", \"windows\" or empty, got %q", c.Platform)
	}
	if c.Container.ExecTimeoutSecs < 0 {
		return fmt.Errorf("exec_timeout_secs must not be negative, got %d", c.Container.ExecTimeoutSecs)
	}
	return nil
}

// EffectivePlatform resolves the platform tag, falling back to the build
// platform when unset.
func (c Config) EffectivePlatform() string {
	if c.Platform != "" {
		return c.Platform
	}
	if runtime.GOOS == "windows" {
		return "windows"
	}
	return "unix"
}

// ExecTimeout returns the exec timeout as a duration.
func (c ContainerConfig) ExecTimeout() time.Duration {
	return time.Duration(c.ExecTimeoutSecs) * time.Second
}
