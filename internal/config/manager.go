package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/TanZiPeng/mcserver/pkg/models"
)

// DefaultPath is where the config file is looked up when no --config flag
// or MCSERVER_CONFIG variable is given.
const DefaultPath = "mcserver.toml"

// Manager owns the on-disk configuration. The dashboard mutates config at
// runtime, so all access goes through the mutex.
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *models.Config
}

// ResolvePath picks the config file location: explicit flag value, then the
// MCSERVER_CONFIG environment variable, then DefaultPath.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("MCSERVER_CONFIG"); env != "" {
		return env
	}
	return DefaultPath
}

// NewManager loads the config file at path, creating it with defaults when
// it does not exist yet.
func NewManager(path string) (*Manager, error) {
	m := &Manager{configPath: path}

	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			m.config = models.DefaultConfig()
			if err := m.saveLocked(); err != nil {
				return nil, err
			}
			return m, nil
		}
		return nil, err
	}

	return m, nil
}

func (m *Manager) load() error {
	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		return err
	}

	var config models.Config
	if _, err := toml.DecodeFile(m.configPath, &config); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	m.config = &config
	return nil
}

func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(m.config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() models.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.config
}

// Set replaces the configuration and persists it.
func (m *Manager) Set(cfg models.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = &cfg
	return m.saveLocked()
}

// MergeJSON applies a partial JSON document over the current configuration
// and persists the result. Keys absent from the document keep their values.
func (m *Manager) MergeJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	updated := *m.config
	if err := json.Unmarshal(data, &updated); err != nil {
		return fmt.Errorf("failed to parse config update: %w", err)
	}

	m.config = &updated
	return m.saveLocked()
}

func (m *Manager) Path() string {
	return m.configPath
}
