// Package config loads and persists the overlay's settings file.
//
// Parse and validation problems are non-fatal wherever possible: a damaged
// config file falls back to defaults with a warning instead of preventing
// startup, and out-of-range values are clamped rather than rejected.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"ghostnote/internal/hotkeys"
	"ghostnote/internal/overlay"
)

const (
	maxConfigFileBytes int64 = 1 << 20 // 1MB
	maxRenameRetry           = 10
	// Windows file lock releases (antivirus/indexing) typically settle quickly.
	// Use a short linear backoff: baseDelay * (1..maxRenameRetry).
	renameRetryBaseDelay = 10 * time.Millisecond

	minFontSize = 8
	maxFontSize = 48

	// maxTextBytes bounds the persisted note text; the limit exists so a
	// runaway frontend cannot bloat the config file past the read limit.
	maxTextBytes = 256 << 10
)

// defaultConfigDirFn is a test seam; tests override it to simulate
// directory-resolution failures in validateConfigPath.
var defaultConfigDirFn = defaultConfigDir
var userHomeDirFn = os.UserHomeDir

// colorPattern accepts #RGB, #RRGGBB and #AARRGGBB.
var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Config is the persisted overlay state: geometry, appearance, note text and
// the logical locked flag.
type Config struct {
	X      int `yaml:"x" json:"x"`
	Y      int `yaml:"y" json:"y"`
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`

	Opacity    float64 `yaml:"opacity" json:"opacity"`
	FontFamily string  `yaml:"font_family" json:"font_family"`
	FontSize   int     `yaml:"font_size" json:"font_size"`
	FontColor  string  `yaml:"font_color" json:"font_color"`
	BgColor    string  `yaml:"bg_color" json:"bg_color"`

	Text string `yaml:"text" json:"text"`

	// Locked restores the lock state across restarts; FirstRunShown gates
	// the one-time usage notice.
	Locked        bool `yaml:"locked" json:"locked"`
	FirstRunShown bool `yaml:"first_run_shown" json:"first_run_shown"`

	// KeyboardLayout selects the hotkey table: auto, en or hu.
	KeyboardLayout string `yaml:"keyboard_layout" json:"keyboard_layout"`

	// CheckUpdates enables the background release check on startup.
	CheckUpdates bool `yaml:"check_updates" json:"check_updates"`
}

// DefaultConfig returns the out-of-the-box settings.
func DefaultConfig() Config {
	return Config{
		X:              100,
		Y:              100,
		Width:          400,
		Height:         300,
		Opacity:        0.85,
		FontFamily:     "Consolas",
		FontSize:       11,
		FontColor:      "#FFFFFF",
		BgColor:        "#000000",
		Text:           "",
		Locked:         false,
		FirstRunShown:  false,
		KeyboardLayout: string(hotkeys.LayoutAuto),
		CheckUpdates:   true,
	}
}

// DefaultPath resolves the config file path, preferring LOCALAPPDATA over
// APPDATA, falling back to ~/.config when both are unset, and then to
// os.TempDir() if the home directory cannot be resolved.
// The temp-dir fallback is not a stable persistence location and may vary
// between sessions depending on environment configuration.
func DefaultPath() string {
	base := strings.TrimSpace(os.Getenv("LOCALAPPDATA"))
	if base == "" {
		base = strings.TrimSpace(os.Getenv("APPDATA"))
	}
	if base == "" {
		home, err := userHomeDirFn()
		if err != nil {
			// Keep config path resolvable even in restricted environments.
			slog.Warn("[config] using temp dir as config path fallback", "error", err)
			base = os.TempDir()
		} else {
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, "GhostNote", "config.yaml")
}

// Load reads the config file. A missing file returns defaults; a file that
// fails to parse returns defaults together with the parse error so the caller
// can surface it without aborting startup.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, errors.New("config path required")
	}

	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		slog.Warn("[config] failed to parse config, using defaults", "path", path, "error", err)
		return DefaultConfig(), err
	}

	applyDefaultsAndValidate(&cfg)
	return cfg, nil
}

// EnsureFile writes the default config if missing and returns the loaded
// config.
func EnsureFile(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if _, err := Save(path, cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Clone returns a copy of cfg. The struct currently has no reference fields,
// but callers share snapshots across goroutines and the copy point keeps that
// safe if one is ever added.
func Clone(src Config) Config {
	return src
}

// Geometry returns the window geometry portion of the config.
func (c Config) Geometry() overlay.Geometry {
	return overlay.Geometry{X: c.X, Y: c.Y, Width: c.Width, Height: c.Height}
}

// SetGeometry stores a window geometry back into the config.
func (c *Config) SetGeometry(g overlay.Geometry) {
	c.X, c.Y, c.Width, c.Height = g.X, g.Y, g.Width, g.Height
}

// Save validates cfg, clamps out-of-range values, and atomically writes to
// path. Returns the normalized config that was actually written to disk.
func Save(path string, cfg Config) (Config, error) {
	normalizedPath, err := validateConfigPath(path)
	if err != nil {
		return cfg, err
	}
	applyDefaultsAndValidate(&cfg)

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return cfg, fmt.Errorf("save config: marshal: %w", err)
	}
	if err := atomicWrite(normalizedPath, raw); err != nil {
		return cfg, err
	}
	slog.Debug("[config] saved", "path", path)
	return cfg, nil
}

// atomicWrite writes config data using temp-file + rename to avoid partial
// writes and retries rename on Windows to tolerate transient file locks.
func atomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save config: mkdir: %w", err)
	}

	// Atomic write: temp file + rename in same directory ensures
	// same-filesystem rename and prevents partial writes on crash.
	tmpFile, err := os.CreateTemp(dir, ".config.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("save config: create temp: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			if closeErr := tmpFile.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
				slog.Warn("[config] failed to close temp file", "path", tmpPath, "error", closeErr)
			}
		}
		if err != nil {
			if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				slog.Warn("[config] failed to remove temp file", "path", tmpPath, "error", removeErr)
			}
		}
	}()

	if err = tmpFile.Chmod(0o600); err != nil {
		return fmt.Errorf("save config: chmod temp: %w", err)
	}
	if _, err = tmpFile.Write(data); err != nil {
		return fmt.Errorf("save config: write: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		return fmt.Errorf("save config: sync: %w", err)
	}
	err = tmpFile.Close()
	tmpFile = nil
	if err != nil {
		return fmt.Errorf("save config: close: %w", err)
	}

	if err = renameFileWithRetry(tmpPath, path); err != nil {
		return fmt.Errorf("save config: rename: %w", err)
	}
	return nil
}

// validateConfigPath normalizes path and enforces that config writes stay
// inside the default config directory when that directory is resolvable.
func validateConfigPath(path string) (string, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return "", errors.New("config path required")
	}
	absolutePath, err := filepath.Abs(trimmedPath)
	if err != nil {
		return "", fmt.Errorf("save config: resolve path: %w", err)
	}

	expectedDir, err := defaultConfigDirFn()
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	absoluteExpectedDir, err := filepath.Abs(expectedDir)
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	if !pathWithinDir(absolutePath, absoluteExpectedDir) {
		return "", fmt.Errorf("save config: path outside config directory: %q", absolutePath)
	}

	return absolutePath, nil
}

func defaultConfigDir() (string, error) {
	return filepath.Dir(DefaultPath()), nil
}

// pathWithinDir blocks directory traversal by ensuring path is under dir.
// It also rejects Windows cross-drive escapes because filepath.Rel returns
// an absolute path when roots differ.
func pathWithinDir(path string, dir string) bool {
	relativePath, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	if relativePath == "." {
		return true
	}
	if relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(os.PathSeparator)) {
		return false
	}
	return !filepath.IsAbs(relativePath)
}

// applyDefaultsAndValidate fills missing defaults and clamps out-of-range
// values in place. Used by both Load and Save so the file on disk and the
// runtime config always agree.
func applyDefaultsAndValidate(cfg *Config) {
	defaults := DefaultConfig()
	if isZeroConfig(*cfg) {
		*cfg = defaults
		return
	}

	g := cfg.Geometry().ClampSize()
	cfg.SetGeometry(g)

	if cfg.Opacity == 0 {
		cfg.Opacity = defaults.Opacity
	}
	cfg.Opacity = overlay.ClampOpacity(cfg.Opacity)

	if strings.TrimSpace(cfg.FontFamily) == "" {
		cfg.FontFamily = defaults.FontFamily
	}
	if cfg.FontSize == 0 {
		cfg.FontSize = defaults.FontSize
	}
	if cfg.FontSize < minFontSize {
		slog.Warn("[config] font_size below minimum, clamping", "configured", cfg.FontSize, "min", minFontSize)
		cfg.FontSize = minFontSize
	}
	if cfg.FontSize > maxFontSize {
		slog.Warn("[config] font_size above maximum, clamping", "configured", cfg.FontSize, "max", maxFontSize)
		cfg.FontSize = maxFontSize
	}

	cfg.FontColor = validateColor(cfg.FontColor, defaults.FontColor, "font_color")
	cfg.BgColor = validateColor(cfg.BgColor, defaults.BgColor, "bg_color")

	if len(cfg.Text) > maxTextBytes {
		slog.Warn("[config] text exceeds size limit, truncating", "bytes", len(cfg.Text), "limit", maxTextBytes)
		cfg.Text = truncateUTF8(cfg.Text, maxTextBytes)
	}

	layout, err := hotkeys.ParseLayout(cfg.KeyboardLayout)
	if err != nil {
		slog.Warn("[config] invalid keyboard_layout, falling back to auto", "configured", cfg.KeyboardLayout)
		layout = hotkeys.LayoutAuto
	}
	cfg.KeyboardLayout = string(layout)
}

// validateColor returns value when it is a valid #RGB/#RRGGBB/#AARRGGBB
// color, otherwise the fallback.
func validateColor(value, fallback, field string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return fallback
	}
	if !colorPattern.MatchString(v) {
		slog.Warn("[config] invalid color, using default", "field", field, "configured", value)
		return fallback
	}
	return v
}

// truncateUTF8 cuts s to at most limit bytes without splitting a rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}

func readLimitedFile(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	limited := io.LimitReader(file, maxBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxBytes)
	}
	return raw, nil
}

func isZeroConfig(cfg Config) bool {
	// reflect.DeepEqual guards against field-addition drift that manual checks miss.
	return reflect.DeepEqual(cfg, Config{})
}

func renameFileWithRetry(sourcePath string, targetPath string) error {
	var lastErr error
	for attempt := 0; attempt < maxRenameRetry; attempt++ {
		err := os.Rename(sourcePath, targetPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if runtime.GOOS != "windows" {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * renameRetryBaseDelay)
	}
	return lastErr
}
