package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/librarian/internal/listsync"
)

// Config holds the settings librarian reads at startup.
type Config struct {
	APIBase            string
	PageSize           int
	SearchDebounce     time.Duration
	RequestTimeout     time.Duration
	LogFile            string
	SessionFile        string
	DeletePolicy       listsync.DeletePolicy
	RefetchAfterCommit bool
}

const (
	defaultConfigPath     = "~/.config/librarian/config.toml"
	defaultAPIBase        = "http://127.0.0.1:3000"
	defaultPageSize       = 10
	maxPageSize           = 100
	defaultDebounceMS     = 300
	defaultTimeoutSeconds = 30
	defaultLogFile        = "~/.local/state/librarian/librarian.log"
	defaultSessionFile    = "~/.config/librarian/session.toml"
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBase:            defaultAPIBase,
		PageSize:           defaultPageSize,
		SearchDebounce:     defaultDebounceMS * time.Millisecond,
		RequestTimeout:     defaultTimeoutSeconds * time.Second,
		LogFile:            mustExpand(defaultLogFile),
		SessionFile:        mustExpand(defaultSessionFile),
		DeletePolicy:       listsync.StepBack,
		RefetchAfterCommit: true,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBase            string `toml:"api_base"`
		PageSize           int    `toml:"page_size"`
		SearchDebounceMS   *int   `toml:"search_debounce_ms"`
		RequestTimeoutSecs int    `toml:"request_timeout_seconds"`
		LogFile            string `toml:"log_file"`
		SessionFile        string `toml:"session_file"`
		DeletePolicy       string `toml:"delete_policy"`
		RefetchAfterCommit *bool  `toml:"refetch_after_commit"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBase); v != "" {
		cfg.APIBase = v
	}
	if raw.PageSize > 0 {
		cfg.PageSize = min(raw.PageSize, maxPageSize)
	}
	if raw.SearchDebounceMS != nil && *raw.SearchDebounceMS >= 0 {
		cfg.SearchDebounce = time.Duration(*raw.SearchDebounceMS) * time.Millisecond
	}
	if raw.RequestTimeoutSecs > 0 {
		cfg.RequestTimeout = time.Duration(raw.RequestTimeoutSecs) * time.Second
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.SessionFile); v != "" {
		cfg.SessionFile = mustExpand(v)
	}
	policy, err := listsync.ParseDeletePolicy(raw.DeletePolicy)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.DeletePolicy = policy
	if raw.RefetchAfterCommit != nil {
		cfg.RefetchAfterCommit = *raw.RefetchAfterCommit
	}

	return cfg, nil
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
