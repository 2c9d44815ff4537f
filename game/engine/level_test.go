package engine

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// walledLevel is a 9x8 grid with a wall ring, head at (2,2), neck at (2,1)
// and food at (4,4)
const walledLevel = `
9,8
wwwwwwwww
w       w
w       w
w       w
w       w
w       w
w       w
wwwwwwwww
4,4
2,2;2,1`

func TestParseLevel_Walled(t *testing.T) {
	level, err := ParseLevel(walledLevel)
	if err != nil {
		t.Fatalf("Failed to parse level: %v", err)
	}

	w, h := level.Grid.Dimension()
	if w != 9 || h != 8 {
		t.Errorf("Expected dimension 9x8, got %dx%d", w, h)
	}
	if level.Food != (Position{X: 4, Y: 4}) {
		t.Errorf("Expected food (4,4), got %v", level.Food)
	}
	expected := []Position{{2, 2}, {2, 1}}
	if !reflect.DeepEqual(level.Snake, expected) {
		t.Errorf("Expected snake %v, got %v", expected, level.Snake)
	}
	if level.Head() != (Position{X: 2, Y: 2}) {
		t.Errorf("Unexpected head %v", level.Head())
	}
	if len(level.Body()) != 1 {
		t.Errorf("Expected body length 1, got %d", len(level.Body()))
	}

	// 9+9 border rows plus 2 side walls on each of 6 interior rows
	if walls := level.Grid.Walls(); walls != 30 {
		t.Errorf("Expected 30 walls, got %d", walls)
	}
}

func TestParseLevel_Lenient(t *testing.T) {
	text := strings.Join([]string{
		"",
		"4, 3",
		"",
		"wwwwEXTRA",
		"w  w",
		"\r",
		"wwww\r",
		"1,1\r",
		"2,1;",
		"",
	}, "\n")

	level, err := ParseLevel(text)
	if err != nil {
		t.Fatalf("Failed to parse level: %v", err)
	}
	w, h := level.Grid.Dimension()
	if w != 4 || h != 3 {
		t.Errorf("Expected dimension 4x3, got %dx%d", w, h)
	}
	if level.Grid.Row(0) != "wwww" {
		t.Errorf("Expected extra characters to be ignored, got row %q", level.Grid.Row(0))
	}
	if len(level.Snake) != 1 || level.Snake[0] != (Position{X: 2, Y: 1}) {
		t.Errorf("Unexpected snake %v", level.Snake)
	}
}

func TestParseLevel_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		line int
	}{
		{"empty", "", 0},
		{"dimension without comma", "9", 1},
		{"dimension not numeric", "a,b", 1},
		{"zero width", "0,3", 1},
		{"negative height", "3,-1", 1},
		{"missing rows", "3,3\nwww\nw w", 0},
		{"huge height with one row", "1,1099511627776\nw\n", 0},
		{"huge width with short row", "1099511627776,1\nw\n0,0\n0,0", 2},
		{"short row", "3,2\nwww\nw\n1,1\n1,0", 3},
		{"invalid character", "3,3\nwww\nwxw\nwww\n1,1\n1,1", 3},
		{"tab is invalid", "3,1\n \t \n0,0\n2,0", 2},
		{"missing food", "3,1\n   ", 0},
		{"invalid food", "3,1\n   \nfood\n0,0", 3},
		{"missing snake", "3,1\n   \n0,0", 0},
		{"invalid snake segment", "3,1\n   \n0,0\n1,0;x", 4},
		{"empty snake", "3,1\n   \n0,0\n;", 4},
		{"food on wall", "3,1\nw  \n0,0\n2,0", 0},
		{"food outside grid", "3,1\n   \n5,0\n2,0", 0},
		{"snake on wall", "3,1\n  w\n0,0\n2,0", 0},
		{"snake outside grid", "3,1\n   \n0,0\n1,4", 0},
		{"snake not contiguous", "4,1\n    \n0,0\n3,0;1,0", 0},
		{"snake overlapping", "3,1\n   \n0,0\n1,0;2,0;1,0", 0},
		{"food on snake", "3,1\n   \n1,0\n1,0;2,0", 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			level, err := ParseLevel(test.text)
			if err == nil {
				t.Fatalf("Expected parse error, got level %v", level)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Expected *ParseError, got %T: %v", err, err)
			}
			if parseErr.Line != test.line {
				t.Errorf("Expected error on line %d, got %d (%v)", test.line, parseErr.Line, err)
			}

			if eng, err := Parse(test.text); err == nil || eng != nil {
				t.Errorf("Expected Parse to fail without an engine, got %v, %v", eng, err)
			}
		})
	}
}

func TestParseError_Message(t *testing.T) {
	_, err := ParseLevel("3,3\nwww\nwxw\nwww\n1,1\n1,1")
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "level line 3") || !strings.Contains(err.Error(), "'x'") {
		t.Errorf("Unexpected message: %v", err)
	}
}

func TestLevel_StringRoundTrip(t *testing.T) {
	level, err := ParseLevel(walledLevel)
	if err != nil {
		t.Fatalf("Failed to parse level: %v", err)
	}

	encoded := level.String()
	if !strings.HasPrefix(encoded, "9,8\nwwwwwwwww\nw       w\n") {
		t.Errorf("Unexpected encoding:\n%s", encoded)
	}
	if !strings.HasSuffix(encoded, "4,4\n2,2;2,1\n") {
		t.Errorf("Unexpected encoding tail:\n%s", encoded)
	}

	again, err := ParseLevel(encoded)
	if err != nil {
		t.Fatalf("Failed to parse encoded level: %v", err)
	}
	if again.String() != encoded {
		t.Errorf("Encoding is not stable:\n%s\nvs\n%s", encoded, again.String())
	}
}

func TestGrid_OnWalls(t *testing.T) {
	level, err := ParseLevel(walledLevel)
	if err != nil {
		t.Fatalf("Failed to parse level: %v", err)
	}
	grid := level.Grid

	tests := []struct {
		pos      Position
		expected bool
	}{
		{Position{0, 0}, true},
		{Position{8, 7}, true},
		{Position{2, 7}, true},
		{Position{1, 1}, false},
		{Position{7, 6}, false},
		{Position{9, 3}, true},
		{Position{3, 8}, true},
		{Position{-1, 3}, true},
		{Position{3, -1}, true},
	}

	for _, test := range tests {
		if got := grid.OnWalls(test.pos); got != test.expected {
			t.Errorf("OnWalls(%v): expected %v, got %v", test.pos, test.expected, got)
		}
	}

	if cell, ok := grid.Cell(Position{X: 1, Y: 1}); !ok || cell != Empty {
		t.Errorf("Expected empty in-bounds cell, got %v %v", cell, ok)
	}
	if _, ok := grid.Cell(Position{X: 10, Y: 1}); ok {
		t.Error("Expected out-of-bounds cell lookup to fail")
	}
	if grid.Row(-1) != "" || grid.Row(8) != "" {
		t.Error("Expected empty string for out-of-range rows")
	}
}
