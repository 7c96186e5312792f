// Package settings persists the rater's preferences across sessions.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config file keys. The same names work as AUDIOTAG_* environment
// variables through viper's AutomaticEnv.
const (
	KeyRater          = "rater"
	KeyDataDir        = "data_dir"
	KeyOutputDir      = "output_dir"
	KeyPaddingSeconds = "padding_seconds"
)

// DefaultPaddingSeconds is the context window added around a word segment.
const DefaultPaddingSeconds = 2.0

// Settings holds the values the UI can change and write back.
type Settings struct {
	// Rater is the identity stamped onto edited records.
	Rater string `yaml:"rater"`
	// DataDir is the root containing audio/ and pre_annotated/.
	DataDir string `yaml:"data_dir"`
	// OutputDir overrides the default DataDir/outputs location when set.
	OutputDir string `yaml:"output_dir,omitempty"`
	// PaddingSeconds widens the displayed and played context window.
	PaddingSeconds float64 `yaml:"padding_seconds"`
}

// Default returns the settings used before any file or flag is read.
func Default() Settings {
	return Settings{
		DataDir:        "data",
		PaddingSeconds: DefaultPaddingSeconds,
	}
}

// RegisterDefaults installs the package defaults into viper so a partial
// config file inherits the rest.
func RegisterDefaults() {
	def := Default()
	viper.SetDefault(KeyRater, def.Rater)
	viper.SetDefault(KeyDataDir, def.DataDir)
	viper.SetDefault(KeyOutputDir, def.OutputDir)
	viper.SetDefault(KeyPaddingSeconds, def.PaddingSeconds)
}

// FromViper reads the effective settings after config, environment and
// flags have been merged.
func FromViper() Settings {
	return Settings{
		Rater:          viper.GetString(KeyRater),
		DataDir:        viper.GetString(KeyDataDir),
		OutputDir:      viper.GetString(KeyOutputDir),
		PaddingSeconds: viper.GetFloat64(KeyPaddingSeconds),
	}
}

// DefaultPath returns the per-user settings file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".audiotag.yaml"), nil
}

// PathInUse returns the file viper loaded this session's settings from,
// falling back to the default path when no config file was found.
func PathInUse() (string, error) {
	if p := viper.ConfigFileUsed(); p != "" {
		return p, nil
	}
	return DefaultPath()
}

// Save merges s into the settings file at path, creating it when absent.
// Keys the application does not know about are preserved. The write is
// guarded by a lock file so two instances cannot interleave updates.
func (s Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire settings lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("settings file %s is locked by another instance", path)
	}
	defer lock.Unlock()

	merged := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &merged); err != nil {
			return fmt.Errorf("parse existing settings: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read existing settings: %w", err)
	}

	merged[KeyRater] = s.Rater
	merged[KeyDataDir] = s.DataDir
	if s.OutputDir != "" {
		merged[KeyOutputDir] = s.OutputDir
	} else {
		delete(merged, KeyOutputDir)
	}
	merged[KeyPaddingSeconds] = s.PaddingSeconds

	data, err := yaml.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
