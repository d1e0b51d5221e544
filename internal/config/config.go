// Package config exposes typed getters over the viper settings
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Keys and their defaults
const (
	KeySessionDir    = "session.dir"
	KeyAPIURL        = "api.url"
	KeyAPIToken      = "api.token"
	KeyLogLevel      = "log.level"
	KeyDefaultBranch = "export.default_branch"
	KeyCommitMessage = "export.commit_message"

	DefaultLogLevel      = "warn"
	DefaultBranch        = "main"
	DefaultCommitMessage = "Update datapack from Voxel Studio"
)

// Settings is the on-disk config layout written by `voxel init`
type Settings struct {
	Session SessionSettings `toml:"session"`
	API     APISettings     `toml:"api"`
	Log     LogSettings     `toml:"log"`
	Export  ExportSettings  `toml:"export"`
}

type SessionSettings struct {
	Dir string `toml:"dir"`
}

type APISettings struct {
	URL   string `toml:"url"`
	Token string `toml:"token,omitempty"`
}

type LogSettings struct {
	Level string `toml:"level"`
}

type ExportSettings struct {
	DefaultBranch string `toml:"default_branch"`
	CommitMessage string `toml:"commit_message"`
}

// Dir returns the config directory, ~/.config/voxel
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".voxel"
	}
	return filepath.Join(home, ".config", "voxel")
}

// SetDefaults registers defaults on v
func SetDefaults(v *viper.Viper, apiURL string) {
	v.SetDefault(KeySessionDir, filepath.Join(Dir(), "session"))
	v.SetDefault(KeyAPIURL, apiURL)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyDefaultBranch, DefaultBranch)
	v.SetDefault(KeyCommitMessage, DefaultCommitMessage)
}

// Current returns the effective settings
func Current() Settings {
	return Settings{
		Session: SessionSettings{Dir: GetSessionDir()},
		API:     APISettings{URL: GetAPIURL(), Token: GetAPIToken()},
		Log:     LogSettings{Level: GetLogLevel()},
		Export:  ExportSettings{DefaultBranch: GetDefaultBranch(), CommitMessage: GetCommitMessage()},
	}
}

// GetSessionDir returns the directory holding the persisted session
func GetSessionDir() string {
	return viper.GetString(KeySessionDir)
}

// GetAPIURL returns the backend endpoint
func GetAPIURL() string {
	return viper.GetString(KeyAPIURL)
}

// GetAPIToken returns the GitHub token relayed to the backend
func GetAPIToken() string {
	return viper.GetString(KeyAPIToken)
}

// GetLogLevel returns the zerolog level name
func GetLogLevel() string {
	return viper.GetString(KeyLogLevel)
}

// GetDefaultBranch returns the branch used when linking without one
func GetDefaultBranch() string {
	return viper.GetString(KeyDefaultBranch)
}

// GetCommitMessage returns the default commit message for pushes
func GetCommitMessage() string {
	return viper.GetString(KeyCommitMessage)
}
