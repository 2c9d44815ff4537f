package level

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/snake-game/game/engine"
)

const smallLevel = `5,4
wwwww
w   w
w   w
wwwww
3,2
1,1
`

func createTestLevelDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

func writeLevelFile(t *testing.T, dir, name, text string) {
	t.Helper()
	path := filepath.Join(dir, name+Extension)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatalf("Failed to write level file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := NewManager(filepath.Join(t.TempDir(), "nope"))
		if err == nil {
			t.Error("Expected error for missing directory")
		}
	})

	t.Run("empty directory uses built-in classic", func(t *testing.T) {
		m, err := NewManager(createTestLevelDir(t))
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		name, lvl := m.GetDefault()
		if name != DefaultName {
			t.Errorf("Expected default %q, got %q", DefaultName, name)
		}
		if w, h := lvl.Grid.Dimension(); w != 9 || h != 8 {
			t.Errorf("Expected 9x8 classic, got %dx%d", w, h)
		}
	})

	t.Run("no directory", func(t *testing.T) {
		m, err := NewManager("")
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if _, err := m.LoadLevel("small"); !errors.Is(err, ErrLevelNotFound) {
			t.Errorf("Expected ErrLevelNotFound, got %v", err)
		}
		if _, err := m.SaveLevel("small", smallLevel); err == nil {
			t.Error("Expected save to fail without a directory")
		}
	})

	t.Run("classic file overrides built-in", func(t *testing.T) {
		dir := createTestLevelDir(t)
		writeLevelFile(t, dir, "classic", smallLevel)

		m, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		_, lvl := m.GetDefault()
		if w, h := lvl.Grid.Dimension(); w != 5 || h != 4 {
			t.Errorf("Expected 5x4 level from disk, got %dx%d", w, h)
		}
	})

	t.Run("broken classic falls back to first valid level", func(t *testing.T) {
		dir := createTestLevelDir(t)
		writeLevelFile(t, dir, "classic", "not a level")
		writeLevelFile(t, dir, "small", smallLevel)

		m, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if name, _ := m.GetDefault(); name != "small" {
			t.Errorf("Expected default small, got %q", name)
		}
	})
}

func TestManager_LoadLevel(t *testing.T) {
	dir := createTestLevelDir(t)
	writeLevelFile(t, dir, "small", smallLevel)
	writeLevelFile(t, dir, "broken", "3,3\nwww\n")

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	lvl, err := m.LoadLevel("small")
	if err != nil {
		t.Fatalf("Failed to load level: %v", err)
	}
	if lvl.Head() != (engine.Position{X: 1, Y: 1}) {
		t.Errorf("Unexpected head %v", lvl.Head())
	}

	again, err := m.LoadLevel("small.level")
	if err != nil {
		t.Fatalf("Failed to load level with extension: %v", err)
	}
	if again != lvl {
		t.Error("Expected cached level to be returned")
	}

	tests := []struct {
		name     string
		expected error
	}{
		{"missing", ErrLevelNotFound},
		{"broken", ErrInvalidLevel},
		{"../etc/passwd", ErrInvalidLevelName},
		{"Upper", ErrInvalidLevelName},
		{"", ErrInvalidLevelName},
	}
	for _, test := range tests {
		if _, err := m.LoadLevel(test.name); !errors.Is(err, test.expected) {
			t.Errorf("LoadLevel(%q): expected %v, got %v", test.name, test.expected, err)
		}
	}

	_, err = m.LoadLevel("broken")
	var parseErr *engine.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Expected the parse error to be wrapped, got %v", err)
	}
}

func TestManager_ListLevels(t *testing.T) {
	dir := createTestLevelDir(t)
	writeLevelFile(t, dir, "small", smallLevel)
	writeLevelFile(t, dir, "broken", "oops")
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	levels, err := m.ListLevels()
	if err != nil {
		t.Fatalf("Failed to list levels: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("Expected classic and small, got %d levels", len(levels))
	}

	classic, small := levels[0], levels[1]
	if classic.LevelID != "classic" || !classic.Builtin || classic.Filename != "" {
		t.Errorf("Unexpected classic entry: %+v", classic)
	}
	if classic.Walls != 30 || classic.Length != 2 {
		t.Errorf("Unexpected classic summary: %+v", classic)
	}
	if small.LevelID != "small" || small.Filename != "small.level" || small.Builtin {
		t.Errorf("Unexpected small entry: %+v", small)
	}
	if small.Width != 5 || small.Height != 4 || small.Food != (engine.Position{X: 3, Y: 2}) {
		t.Errorf("Unexpected small summary: %+v", small)
	}
}

func TestManager_SaveLevel(t *testing.T) {
	dir := createTestLevelDir(t)
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	// Blank lines and CRLF are normalized away
	text := "\r\n5,4\r\nwwwww\r\nw   w\r\n\r\nw   w\r\nwwwww\r\n3,2\r\n1,1;"
	lvl, err := m.SaveLevel("saved", text)
	if err != nil {
		t.Fatalf("Failed to save level: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "saved.level"))
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if string(data) != smallLevel {
		t.Errorf("Expected normalized file:\n%s\ngot:\n%s", smallLevel, data)
	}

	loaded, err := m.LoadLevel("saved")
	if err != nil {
		t.Fatalf("Failed to load saved level: %v", err)
	}
	if loaded != lvl {
		t.Error("Expected saved level to be cached")
	}

	if _, err := m.SaveLevel("bad name", smallLevel); !errors.Is(err, ErrInvalidLevelName) {
		t.Errorf("Expected ErrInvalidLevelName, got %v", err)
	}
	if _, err := m.SaveLevel("bad", "1,1\nx\n0,0\n0,0"); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("Expected ErrInvalidLevel, got %v", err)
	}
	if _, err := m.SaveLevel("tall", "1,1099511627776\nw\n"); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("Expected ErrInvalidLevel for a height the text does not have, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.level")); !os.IsNotExist(err) {
		t.Error("Invalid level must not be written")
	}
}

func TestManager_SaveLevelWithoutDirectory(t *testing.T) {
	m, err := NewManager("")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if _, err := m.SaveLevel("saved", smallLevel); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Expected ErrReadOnly, got %v", err)
	}
}

func TestManager_SetDefaultAndRefresh(t *testing.T) {
	dir := createTestLevelDir(t)
	writeLevelFile(t, dir, "small", smallLevel)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := m.SetDefault("small"); err != nil {
		t.Fatalf("Failed to set default: %v", err)
	}
	if name, _ := m.GetDefault(); name != "small" {
		t.Errorf("Expected default small, got %q", name)
	}
	if err := m.SetDefault("missing"); !errors.Is(err, ErrLevelNotFound) {
		t.Errorf("Expected ErrLevelNotFound, got %v", err)
	}

	first, _ := m.LoadLevel("small")
	writeLevelFile(t, dir, "small", "6,1\n      \n5,0\n0,0\n")
	if cached, _ := m.LoadLevel("small"); cached != first {
		t.Error("Expected cached level before refresh")
	}

	if err := m.RefreshCache(); err != nil {
		t.Fatalf("Failed to refresh: %v", err)
	}
	refreshed, err := m.LoadLevel("small")
	if err != nil {
		t.Fatalf("Failed to reload: %v", err)
	}
	if w, _ := refreshed.Grid.Dimension(); w != 6 {
		t.Errorf("Expected reloaded width 6, got %d", w)
	}
}

func TestManager_ConcurrentLoad(t *testing.T) {
	dir := createTestLevelDir(t)
	writeLevelFile(t, dir, "small", smallLevel)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]*engine.Level, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = m.LoadLevel("small")
		}(i)
	}
	wg.Wait()

	for i, lvl := range results {
		if lvl == nil || lvl != results[0] {
			t.Errorf("Load %d returned a different level", i)
		}
	}
}
