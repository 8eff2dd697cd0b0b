package clientcli

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is used when no profile, variable or flag names a server.
const DefaultEndpoint = "http://localhost:8080"

// Environment variables read by ConfigFromEnv, ProfileFromEnv and
// ConfigPathFromEnv.
const (
	EnvEndpoint   = "FRAGMENTS_ENDPOINT"
	EnvUsername   = "FRAGMENTS_USERNAME"
	EnvPassword   = "FRAGMENTS_PASSWORD"
	EnvProfile    = "FRAGMENTS_PROFILE"
	EnvConfigPath = "FRAGMENTS_CLI_CONFIG"
)

// Profile is one named server with the credentials used against it.
type Profile struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Default  bool   `yaml:"default,omitempty"`
}

// ConfigFile is the on-disk list of profiles.
type ConfigFile struct {
	Profiles []Profile `yaml:"profiles"`
}

func (c *ConfigFile) indexOf(name string) int {
	return slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Name == name })
}

// GetProfile returns the named profile, or the default one when name is empty.
func (c *ConfigFile) GetProfile(name string) (*Profile, error) {
	if name == "" {
		return c.GetDefaultProfile()
	}
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}

	i := c.indexOf(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return &c.Profiles[i], nil
}

// GetDefaultProfile returns the profile marked default, falling back to the
// first one.
func (c *ConfigFile) GetDefaultProfile() (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}

	if i := slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Default }); i >= 0 {
		return &c.Profiles[i], nil
	}
	return &c.Profiles[0], nil
}

// AddProfile appends p. Names are unique; use UpdateProfile to change an
// existing one.
func (c *ConfigFile) AddProfile(p Profile) error {
	if c.indexOf(p.Name) >= 0 {
		return fmt.Errorf("%w: %s", ErrProfileExists, p.Name)
	}
	if p.Name == "" {
		return ErrProfileName
	}

	c.Profiles = append(c.Profiles, p)
	if p.Default {
		return c.SetDefault(p.Name)
	}
	return nil
}

// UpdateProfile replaces the profile with the same name.
func (c *ConfigFile) UpdateProfile(p Profile) error {
	i := c.indexOf(p.Name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, p.Name)
	}

	c.Profiles[i] = p
	if p.Default {
		return c.SetDefault(p.Name)
	}
	return nil
}

// RemoveProfile deletes a profile by name. Removing the default profile
// leaves the first remaining one as the implicit default.
func (c *ConfigFile) RemoveProfile(name string) error {
	i := c.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}

	c.Profiles = slices.Delete(c.Profiles, i, i+1)
	return nil
}

// SetDefault marks name as the only default profile.
func (c *ConfigFile) SetDefault(name string) error {
	if c.indexOf(name) < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}

	for i := range c.Profiles {
		c.Profiles[i].Default = c.Profiles[i].Name == name
	}
	return nil
}

// ProfileNames lists profile names in file order.
func (c *ConfigFile) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// Save writes the profiles to path with owner-only permissions, creating the
// parent directory. The file is replaced atomically.
func (c *ConfigFile) Save(path string) error {
	cleanPath := filepath.Clean(path)
	dir := filepath.Dir(cleanPath)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	if err := os.Rename(tmp.Name(), cleanPath); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadConfigFile reads profiles from path.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// DefaultConfigPath returns ~/.fragments/config.yaml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fragments", "config.yaml")
}

// Config is the resolved connection a Client uses.
type Config struct {
	Endpoint string
	Username string
	Password string
}

// WithDefaults returns a copy with DefaultEndpoint filled in and any
// trailing slash removed from the endpoint.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")
	return &cfg
}

// ValidateWithAuth requires both Basic credentials.
func (c *Config) ValidateWithAuth() error {
	switch {
	case c.Username == "":
		return ErrUsernameRequired
	case c.Password == "":
		return ErrPasswordRequired
	}
	return nil
}

func ConfigFromProfile(p *Profile) *Config {
	if p == nil {
		return &Config{}
	}
	return &Config{Endpoint: p.Endpoint, Username: p.Username, Password: p.Password}
}

func ConfigFromEnv() *Config {
	return &Config{
		Endpoint: os.Getenv(EnvEndpoint),
		Username: os.Getenv(EnvUsername),
		Password: os.Getenv(EnvPassword),
	}
}

func ProfileFromEnv() string {
	return os.Getenv(EnvProfile)
}

func ConfigPathFromEnv() string {
	return os.Getenv(EnvConfigPath)
}

// MergeConfig layers configs left to right. A field set in a later config
// wins; empty fields never clear earlier values.
func MergeConfig(configs ...*Config) *Config {
	result := &Config{}
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		result.Endpoint = cmp.Or(cfg.Endpoint, result.Endpoint)
		result.Username = cmp.Or(cfg.Username, result.Username)
		result.Password = cmp.Or(cfg.Password, result.Password)
	}
	return result
}

