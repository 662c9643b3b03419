package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds all configurable wakeblame settings. Numeric fields are
// pointers so a config file can distinguish "unset" from an explicit zero.
type Config struct {
	BlameCategory    string `json:"blame_category"`     // category billed for power
	GraceSecs        *int   `json:"grace_secs"`         // bill this many seconds past each event
	PowerQuanta      *int   `json:"power_quanta"`       // power chart window seconds
	PowerOffset      *int   `json:"power_offset"`       // sample clock skew, seconds
	SummarizePct     *int   `json:"summarize_pct"`      // summary row floor, negative disables
	SearchProc       string `json:"search_proc"`        // highlight this process by default
	ShowAllWakelocks bool   `json:"show_all_wakelocks"` // keep full wakelock names
	SortByDuration   bool   `json:"sort_by_duration"`   // synopsis sort order
	DefaultFormat    string `json:"default_format"`     // "html" | "text" | "json"
	OutputDir        string `json:"output_dir"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	grace := 0
	quanta := 15
	offset := 0
	summarize := -1
	return Config{
		BlameCategory: "wake_lock_in",
		GraceSecs:     &grace,
		PowerQuanta:   &quanta,
		PowerOffset:   &offset,
		SummarizePct:  &summarize,
		DefaultFormat: "html",
		OutputDir:     ".",
	}
}

// GlobalPath is where LoadGlobal reads from and Save writes to.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "wakeblame", "config.json"), nil
}

// LoadGlobal reads ~/.config/wakeblame/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .wakeblamerc in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".wakeblamerc", false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Save writes cfg to the global config path, creating the directory first.
func Save(cfg Config) (string, error) {
	path, err := GlobalPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, data, 0o644)
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	apply(&result, global)
	apply(&result, project)
	return result
}

func apply(dst *Config, src *Config) {
	if src == nil {
		return
	}
	if src.BlameCategory != "" {
		dst.BlameCategory = src.BlameCategory
	}
	if src.GraceSecs != nil {
		dst.GraceSecs = src.GraceSecs
	}
	if src.PowerQuanta != nil {
		dst.PowerQuanta = src.PowerQuanta
	}
	if src.PowerOffset != nil {
		dst.PowerOffset = src.PowerOffset
	}
	if src.SummarizePct != nil {
		dst.SummarizePct = src.SummarizePct
	}
	if src.SearchProc != "" {
		dst.SearchProc = src.SearchProc
	}
	if src.ShowAllWakelocks {
		dst.ShowAllWakelocks = true
	}
	if src.SortByDuration {
		dst.SortByDuration = true
	}
	if src.DefaultFormat != "" {
		dst.DefaultFormat = src.DefaultFormat
	}
	if src.OutputDir != "" {
		dst.OutputDir = src.OutputDir
	}
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
