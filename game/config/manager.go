package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
	"github.com/wricardo/mcp-training/mergegame/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// PreferredDefault is the preset used as default when the directory has it
const PreferredDefault = "classic"

const presetExt = ".json"

// Manager serves the board presets stored as <id>.json files in one
// directory. Presets are validated when first read and cached by id.
type Manager struct {
	configDir string

	mu            sync.RWMutex
	configs       map[string]*engine.GameConfig
	defaultID     string // empty when the built-in board is the default
	defaultConfig *engine.GameConfig
}

// NewManager opens the preset directory and picks the default preset.
// The directory must exist; it may be empty.
func NewManager(configDir string) (*Manager, error) {
	info, err := os.Stat(configDir)
	if err != nil {
		return nil, fmt.Errorf("config directory %s: %w", configDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config directory %s is not a directory", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.GameConfig),
	}
	m.selectDefault()
	return m, nil
}

// presetID turns a user supplied name ("quick" or "quick.json") into a
// preset id. Names that could leave the directory are rejected.
func presetID(name string) (string, bool) {
	id := strings.TrimSuffix(name, presetExt)
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", false
	}
	return id, true
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.configDir, id+presetExt)
}

// LoadConfig returns the preset with the given id
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	id, ok := presetID(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, name)
	}

	m.mu.RLock()
	config, cached := m.configs[id]
	m.mu.RUnlock()
	if cached {
		return config, nil
	}

	config, err := engine.LoadGameConfig(m.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, id)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.configs[id]; ok {
		return existing, nil
	}
	m.configs[id] = config
	return config, nil
}

// presetIDs returns the ids of all *.json files in the directory, sorted
func (m *Manager) presetIDs() ([]string, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != presetExt {
			continue
		}
		if id, ok := presetID(entry.Name()); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ListConfigs describes every valid preset, sorted by id. Invalid files are
// skipped.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	ids, err := m.presetIDs()
	if err != nil {
		return nil, err
	}

	configs := make([]*service.ConfigInfo, 0, len(ids))
	for _, id := range ids {
		config, err := m.LoadConfig(id)
		if err != nil {
			log.Debug("skipping preset", "config", id, "err", err)
			continue
		}
		configs = append(configs, describe(id, config))
	}
	return configs, nil
}

// describe summarises a preset. A fixed layout reports its own shape and
// the tiles it starts with.
func describe(id string, config *engine.GameConfig) *service.ConfigInfo {
	info := &service.ConfigInfo{
		Filename:    id + presetExt,
		ConfigID:    id,
		Name:        config.Name,
		Description: config.Description,
		Rows:        config.Rows,
		Cols:        config.Cols,
		WinningTile: config.Target(),
		StartTiles:  config.InitialTiles(),
		FourChance:  config.FourChance(),
	}
	if len(config.Layout) > 0 {
		info.HasLayout = true
		info.Rows, info.Cols = len(config.Layout), len(config.Layout[0])
		info.StartTiles = info.Rows*info.Cols - engine.CountEmpty(config.Layout)
	}
	return info
}

// GetDefault returns the default preset
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault makes the named preset the default
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	id, _ := presetID(name)
	m.mu.Lock()
	m.defaultID, m.defaultConfig = id, config
	m.mu.Unlock()
	return nil
}

// RefreshCache drops every cached preset and re-reads the default. A default
// chosen with SetDefault is kept while its file stays valid.
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.GameConfig)
	chosen := m.defaultID
	m.mu.Unlock()

	if chosen != "" {
		if err := m.SetDefault(chosen); err == nil {
			return nil
		}
		log.Warn("default preset no longer loads", "config", chosen)
	}
	m.selectDefault()
	return nil
}

// selectDefault picks the default preset: PreferredDefault when present,
// then the first preset with a random start, then the first fixed layout,
// then the built-in board.
func (m *Manager) selectDefault() {
	if m.SetDefault(PreferredDefault) == nil {
		return
	}

	configs, err := m.ListConfigs()
	if err != nil {
		log.Warn("listing presets", "dir", m.configDir, "err", err)
	}

	var layoutID string
	for _, info := range configs {
		if !info.HasLayout {
			if m.SetDefault(info.ConfigID) == nil {
				return
			}
		} else if layoutID == "" {
			layoutID = info.ConfigID
		}
	}
	if layoutID != "" && m.SetDefault(layoutID) == nil {
		return
	}

	m.mu.Lock()
	m.defaultID, m.defaultConfig = "", builtinConfig()
	m.mu.Unlock()
}

// SaveConfig validates config and writes it as <name>.json. The file is
// replaced atomically so readers never see a partial preset.
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	id, ok := presetID(name)
	if !ok {
		return fmt.Errorf("%w: invalid config name %q", ErrInvalidConfig, name)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(m.configDir, "."+id+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path(id)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[id] = config
	if m.defaultID == id {
		m.defaultConfig = config
	}
	m.mu.Unlock()

	log.Debug("saved preset", "config", id, "rows", config.Rows, "cols", config.Cols)
	return nil
}

// builtinConfig is the default when the directory holds no valid preset
func builtinConfig() *engine.GameConfig {
	config := engine.DefaultConfig()
	config.Description = "Built-in 4x4 board"
	return config
}
