package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/wandb/threadline/internal/observability"
)

const (
	EnvConfigDir = "THREADLINE_CONFIG_DIR"
	ConfigName   = "threadline.json"

	DefaultAutoFitSeconds   = 180
	DefaultInitialZoom      = 0.03
	MaxInitialZoom          = 5.0
	DefaultTickSpacing      = 16
	DefaultCounterRowHeight = 3
	DefaultNameWidth        = 18
	DefaultPanStepPercent   = 25

	MinTickSpacing, MaxTickSpacing           = 4, 120
	MinCounterRowHeight, MaxCounterRowHeight = 1, 8
	MinNameWidth, MaxNameWidth               = 8, 48
	MinPanStepPercent, MaxPanStepPercent     = 1, 100
)

// Config stores the application configuration.
type Config struct {
	// FitOnStart starts a session with the whole data range in view.
	FitOnStart bool `json:"fit_on_start" yaml:"fit_on_start"`

	// AutoFitSeconds is the data span after which a session that started in
	// fit mode switches to a fixed zoom at the live edge. Zero disables it.
	AutoFitSeconds int `json:"auto_fit_seconds" yaml:"auto_fit_seconds"`

	// InitialZoom is the starting zoom in columns per millisecond.
	InitialZoom float64 `json:"initial_zoom" yaml:"initial_zoom"`

	// TickSpacing is the minimum distance between time axis ticks, in columns.
	TickSpacing int `json:"tick_spacing" yaml:"tick_spacing"`

	// CounterRowHeight is the height of each counter row, in lines.
	CounterRowHeight int `json:"counter_row_height" yaml:"counter_row_height"`

	// NameWidth is the width of the row name column.
	NameWidth int `json:"name_width" yaml:"name_width"`

	// PanStepPercent is how far left/right pans, as a percentage of the view.
	PanStepPercent int `json:"pan_step_percent" yaml:"pan_step_percent"`

	// RelativeTime labels the time axis with the elapsed session time
	// instead of wall-clock time.
	RelativeTime bool `json:"relative_time" yaml:"relative_time"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		FitOnStart:       true,
		AutoFitSeconds:   DefaultAutoFitSeconds,
		InitialZoom:      DefaultInitialZoom,
		TickSpacing:      DefaultTickSpacing,
		CounterRowHeight: DefaultCounterRowHeight,
		NameWidth:        DefaultNameWidth,
		PanStepPercent:   DefaultPanStepPercent,
	}
}

// ConfigPath returns the config file location: dir if set, otherwise
// $THREADLINE_CONFIG_DIR, otherwise the user config directory.
func ConfigPath(dir string) string {
	if dir == "" {
		dir = os.Getenv(EnvConfigDir)
	}
	if dir == "" {
		if userDir, err := os.UserConfigDir(); err == nil {
			dir = filepath.Join(userDir, "threadline")
		}
	}
	return filepath.Join(dir, ConfigName)
}

// ConfigManager manages application configuration with thread-safe access
// and automatic persistence.
//
// All setter methods save changes immediately.
// Getters use read locks for concurrent access.
type ConfigManager struct {
	mu     sync.RWMutex
	fs     afero.Fs
	path   string
	config Config
	logger *observability.CoreLogger
}

// NewConfigManager loads the configuration at path from fs, creating the
// file with defaults if it does not exist.
//
// Files ending in .yaml or .yml are YAML, anything else is JSON.
func NewConfigManager(
	fs afero.Fs,
	path string,
	logger *observability.CoreLogger,
) *ConfigManager {
	cm := &ConfigManager{
		fs:     fs,
		path:   path,
		config: DefaultConfig(),
		logger: observability.OrNoOp(logger),
	}
	if err := cm.loadOrCreateConfig(); err != nil {
		cm.logger.Error(fmt.Sprintf("config: error loading or creating: %v", err))
	}

	return cm
}

func (cm *ConfigManager) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(cm.path))
	return ext == ".yaml" || ext == ".yml"
}

// loadOrCreateConfig loads the configuration or stores and uses defaults.
func (cm *ConfigManager) loadOrCreateConfig() error {
	data, err := afero.ReadFile(cm.fs, cm.path)

	// No config file yet, create and save it.
	if os.IsNotExist(err) {
		if dir := filepath.Dir(cm.path); dir != "" {
			_ = cm.fs.MkdirAll(dir, 0o755)
		}
		return cm.save()
	}
	if err != nil {
		return err
	}

	if cm.isYAML() {
		err = yaml.Unmarshal(data, &cm.config)
	} else {
		err = json.Unmarshal(data, &cm.config)
	}
	if err != nil {
		return err
	}

	cm.normalizeConfig()

	return nil
}

// normalizeConfig ensures all config values are within valid ranges.
func (cm *ConfigManager) normalizeConfig() {
	c := &cm.config

	if c.AutoFitSeconds < 0 {
		c.AutoFitSeconds = DefaultAutoFitSeconds
	}
	if c.InitialZoom <= 0 {
		c.InitialZoom = DefaultInitialZoom
	}
	c.InitialZoom = min(c.InitialZoom, MaxInitialZoom)

	c.TickSpacing = clamp(c.TickSpacing, MinTickSpacing, MaxTickSpacing)
	c.CounterRowHeight = clamp(c.CounterRowHeight, MinCounterRowHeight, MaxCounterRowHeight)
	c.NameWidth = clamp(c.NameWidth, MinNameWidth, MaxNameWidth)
	c.PanStepPercent = clamp(c.PanStepPercent, MinPanStepPercent, MaxPanStepPercent)
}

func clamp(val, minimum, maximum int) int {
	if val < minimum {
		return minimum
	}
	if val > maximum {
		return maximum
	}
	return val
}

// save writes the current configuration.
//
// Must be called while holding the lock.
func (cm *ConfigManager) save() error {
	var data []byte
	var err error
	if cm.isYAML() {
		data, err = yaml.Marshal(cm.config)
	} else {
		data, err = json.MarshalIndent(cm.config, "", "  ")
	}
	if err != nil {
		return err
	}

	targetPath := cm.path
	tempPath := targetPath + ".tmp"

	// Write atomically via temp file + rename.
	if err := afero.WriteFile(cm.fs, tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := cm.fs.Rename(tempPath, targetPath); err != nil {
		return fmt.Errorf("failed to rename tmp config file: %w", err)
	}

	return nil
}

// Path returns the config path.
func (cm *ConfigManager) Path() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.path
}

// Snapshot returns a copy of the current config.
func (cm *ConfigManager) Snapshot() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

func (cm *ConfigManager) FitOnStart() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.FitOnStart
}

// AutoFitPeriod returns the auto-fit period, or a negative duration if
// auto-fit is disabled.
func (cm *ConfigManager) AutoFitPeriod() time.Duration {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.config.AutoFitSeconds == 0 {
		return -1
	}
	return time.Duration(cm.config.AutoFitSeconds) * time.Second
}

func (cm *ConfigManager) InitialZoom() float64 {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.InitialZoom
}

func (cm *ConfigManager) TickSpacing() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.TickSpacing
}

func (cm *ConfigManager) CounterRowHeight() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.CounterRowHeight
}

// SetCounterRowHeight sets the counter row height.
func (cm *ConfigManager) SetCounterRowHeight(lines int) error {
	if lines < MinCounterRowHeight || lines > MaxCounterRowHeight {
		return fmt.Errorf(
			"counter row height must be between %d and %d, got %d",
			MinCounterRowHeight, MaxCounterRowHeight, lines)
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.config.CounterRowHeight = lines
	return cm.save()
}

func (cm *ConfigManager) NameWidth() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.NameWidth
}

// SetNameWidth sets the width of the row name column.
func (cm *ConfigManager) SetNameWidth(width int) error {
	if width < MinNameWidth || width > MaxNameWidth {
		return fmt.Errorf(
			"name width must be between %d and %d, got %d",
			MinNameWidth, MaxNameWidth, width)
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.config.NameWidth = width
	return cm.save()
}

func (cm *ConfigManager) PanStepPercent() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.PanStepPercent
}

// RelativeTime returns whether the time axis shows elapsed time.
func (cm *ConfigManager) RelativeTime() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.RelativeTime
}

// SetRelativeTime sets whether the time axis shows elapsed time.
func (cm *ConfigManager) SetRelativeTime(relative bool) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.config.RelativeTime = relative
	return cm.save()
}
