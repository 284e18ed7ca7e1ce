package cli

import (
	"os"
	"path/filepath"
)

const (
	// DefaultBaseDir is the base directory name in the user's home.
	DefaultBaseDir = ".giztoy"
	// DefaultConfigFile is the default configuration filename.
	DefaultConfigFile = "config.yaml"
)

// Paths provides access to the giztoy directory structure.
type Paths struct {
	// AppName is the application name
	AppName string

	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a new Paths instance for the given app.
func NewPaths(appName string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{
		AppName: appName,
		HomeDir: home,
	}, nil
}

// BaseDir returns the base giztoy directory (~/.giztoy).
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// AppDir returns the app-specific directory (~/.giztoy/<app>).
func (p *Paths) AppDir() string {
	return filepath.Join(p.BaseDir(), p.AppName)
}

// ConfigFile returns the config file path (~/.giztoy/<app>/config.yaml).
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.AppDir(), DefaultConfigFile)
}

// LogDir returns the log directory (~/.giztoy/<app>/logs).
func (p *Paths) LogDir() string {
	return filepath.Join(p.AppDir(), "logs")
}

// DataDir returns the data directory (~/.giztoy/<app>/data).
func (p *Paths) DataDir() string {
	return filepath.Join(p.AppDir(), "data")
}

// LogPath resolves a log file name. Absolute paths are returned unchanged.
func (p *Paths) LogPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.LogDir(), name)
}

// EnsureDirs creates the app, data and log directories.
func (p *Paths) EnsureDirs() error {
	for _, dir := range []string{p.AppDir(), p.DataDir(), p.LogDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
