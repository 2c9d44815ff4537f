package level

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/snake-game/game/engine"
	"github.com/wricardo/snake-game/game/service"
)

var (
	ErrLevelNotFound    = errors.New("level not found")
	ErrInvalidLevel     = errors.New("invalid level")
	ErrInvalidLevelName = errors.New("invalid level name")
	ErrReadOnly         = errors.New("no level directory configured")
)

const (
	// Extension is the file suffix of level files
	Extension = ".level"

	// DefaultName is the level used when a session does not name one
	DefaultName = "classic"
)

// Classic is the built-in level: a 9x8 walled room with a two-cell snake
const Classic = `9,8
wwwwwwwww
w       w
w       w
w       w
w       w
w       w
w       w
wwwwwwwww
4,4
2,2;2,1
`

var validName = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Manager handles level loading and caching
type Manager struct {
	levelDir     string
	defaultName  string
	defaultLevel *engine.Level
	levels       map[string]*engine.Level
	mu           sync.RWMutex
}

// NewManager creates a level manager over levelDir. An empty levelDir serves
// the built-in level only.
func NewManager(levelDir string) (*Manager, error) {
	if levelDir != "" {
		if _, err := os.Stat(levelDir); os.IsNotExist(err) {
			return nil, fmt.Errorf("level directory does not exist: %s", levelDir)
		}
	}

	m := &Manager{
		levelDir: levelDir,
		levels:   make(map[string]*engine.Level),
	}

	if err := m.loadDefaultLevel(); err != nil {
		return nil, fmt.Errorf("failed to load default level: %w", err)
	}

	return m, nil
}

// ValidateName checks that name can be used as a level file name
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q (use lowercase letters, digits, '_' and '-')", ErrInvalidLevelName, name)
	}
	return nil
}

// LoadLevel loads a level by name
func (m *Manager) LoadLevel(name string) (*engine.Level, error) {
	name = strings.TrimSuffix(name, Extension)
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	m.mu.RLock()
	// Check cache first
	if level, exists := m.levels[name]; exists {
		m.mu.RUnlock()
		return level, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if level, exists := m.levels[name]; exists {
		return level, nil
	}

	level, err := m.readLevel(name)
	if err != nil {
		return nil, err
	}

	m.levels[name] = level
	return level, nil
}

func (m *Manager) readLevel(name string) (*engine.Level, error) {
	text, found := "", false
	if m.levelDir != "" {
		data, err := os.ReadFile(m.path(name))
		switch {
		case err == nil:
			text, found = string(data), true
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read level file: %w", err)
		}
	}

	if !found {
		if name != DefaultName {
			return nil, ErrLevelNotFound
		}
		text = Classic
	}

	level, err := engine.ParseLevel(text)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidLevel, name, err)
	}
	return level, nil
}

// ListLevels returns information about all available levels, sorted by name.
// Files that fail to parse are skipped.
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	var names []string
	if m.levelDir != "" {
		entries, err := os.ReadDir(m.levelDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read level directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
				continue
			}
			names = append(names, strings.TrimSuffix(entry.Name(), Extension))
		}
	}

	levels := make([]*service.LevelInfo, 0, len(names)+1)
	hasClassic := false

	for _, name := range names {
		level, err := m.LoadLevel(name)
		if err != nil {
			// Skip invalid levels
			continue
		}
		info := service.NewLevelInfo(name, level)
		info.Filename = name + Extension
		levels = append(levels, info)
		if name == DefaultName {
			hasClassic = true
		}
	}

	if !hasClassic {
		level, err := m.LoadLevel(DefaultName)
		if err == nil {
			info := service.NewLevelInfo(DefaultName, level)
			info.Builtin = true
			levels = append(levels, info)
		}
	}

	sort.Slice(levels, func(i, j int) bool {
		return levels[i].LevelID < levels[j].LevelID
	})
	return levels, nil
}

// GetDefault returns the default level and its name
func (m *Manager) GetDefault() (string, *engine.Level) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultName, m.defaultLevel
}

// SetDefault sets the default level by name
func (m *Manager) SetDefault(name string) error {
	level, err := m.LoadLevel(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = strings.TrimSuffix(name, Extension)
	m.defaultLevel = level
	return nil
}

// RefreshCache drops cached levels so the next load reads from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.levels = make(map[string]*engine.Level)
	m.mu.Unlock()

	return m.loadDefaultLevel()
}

// SaveLevel parses text and writes it under name. The stored file is the
// normalized encoding of the parsed level.
func (m *Manager) SaveLevel(name, text string) (*engine.Level, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if m.levelDir == "" {
		return nil, ErrReadOnly
	}

	level, err := engine.ParseLevel(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLevel, err)
	}

	if err := os.WriteFile(m.path(name), []byte(level.String()), 0644); err != nil {
		return nil, fmt.Errorf("failed to write level file: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.levels[name] = level
	m.mu.Unlock()

	return level, nil
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.levelDir, name+Extension)
}

// loadDefaultLevel prefers classic, then the first level on disk
func (m *Manager) loadDefaultLevel() error {
	level, err := m.LoadLevel(DefaultName)
	if err == nil {
		m.setDefault(DefaultName, level)
		return nil
	}

	// A broken classic file falls back to the first valid level
	levels, listErr := m.ListLevels()
	if listErr != nil {
		return listErr
	}
	for _, info := range levels {
		if info.Builtin {
			continue
		}
		if level, err := m.LoadLevel(info.LevelID); err == nil {
			m.setDefault(info.LevelID, level)
			return nil
		}
	}

	builtin, parseErr := engine.ParseLevel(Classic)
	if parseErr != nil {
		return errors.Join(err, parseErr)
	}
	m.setDefault(DefaultName, builtin)
	return nil
}

func (m *Manager) setDefault(name string, level *engine.Level) {
	m.mu.Lock()
	m.defaultName = name
	m.defaultLevel = level
	m.mu.Unlock()
}
