package dungeon

import (
	"encoding/json"
	"testing"
)

func TestParseCoord(t *testing.T) {
	tests := []struct {
		input   string
		want    Coord
		wantErr bool
	}{
		{"0,0", Coord{0, 0}, false},
		{"3,5", Coord{3, 5}, false},
		{" 2 , 4 ", Coord{2, 4}, false},
		{"-1,2", Coord{-1, 2}, false},
		{"", Coord{}, true},
		{"3", Coord{}, true},
		{"a,b", Coord{}, true},
		{"3,", Coord{}, true},
	}

	for _, tt := range tests {
		got, err := ParseCoord(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCoord(%q) expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCoord(%q) failed: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCoord(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCoord_JSONMapKey(t *testing.T) {
	in := map[Coord]string{
		{X: 1, Y: 2}: "a",
		{X: 0, Y: 0}: "b",
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out map[Coord]string
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out[Coord{X: 1, Y: 2}] != "a" || out[Coord{X: 0, Y: 0}] != "b" {
		t.Errorf("round trip lost entries: %v", out)
	}
}

func TestDirectionBetween(t *testing.T) {
	tests := []struct {
		from, to Coord
		want     string
	}{
		{Coord{2, 2}, Coord{2, 1}, "north"},
		{Coord{2, 2}, Coord{2, 3}, "south"},
		{Coord{2, 2}, Coord{3, 2}, "east"},
		{Coord{2, 2}, Coord{1, 2}, "west"},
		{Coord{2, 2}, Coord{4, 2}, ""},
		{Coord{2, 2}, Coord{2, 2}, ""},
		{Coord{2, 2}, Coord{3, 3}, ""},
	}
	for _, tt := range tests {
		if got := DirectionBetween(tt.from, tt.to); got != tt.want {
			t.Errorf("DirectionBetween(%v, %v) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}

// lineGrid builds a 1-wide corridor of n rooms for path tests.
func lineGrid(t *testing.T, n int) *Grid {
	t.Helper()
	g := &Grid{Width: n, Height: 2, Rooms: make(map[Coord]*Room)}
	for _, c := range g.Coords() {
		g.Rooms[c] = &Room{Coord: c, Connections: make([]Coord, 0, 4)}
	}
	for x := 0; x < n-1; x++ {
		g.connect(Coord{X: x, Y: 0}, Coord{X: x + 1, Y: 0})
	}
	return g
}

func TestShortestPath(t *testing.T) {
	g := lineGrid(t, 4)

	path := g.ShortestPath(Coord{0, 0}, Coord{3, 0}, nil)
	if len(path) != 3 {
		t.Fatalf("expected path length 3, got %d", len(path))
	}
	want := []Coord{{1, 0}, {2, 0}, {3, 0}}
	for i, c := range want {
		if path[i] != c {
			t.Errorf("path[%d] = %v, want %v", i, path[i], c)
		}
	}

	// Same start and goal.
	if path := g.ShortestPath(Coord{1, 0}, Coord{1, 0}, nil); len(path) != 0 {
		t.Errorf("expected empty path to self, got %v", path)
	}

	// Blocked corridor: the only route runs through (2,0).
	blocked := map[Coord]bool{{X: 2, Y: 0}: true}
	if path := g.ShortestPath(Coord{0, 0}, Coord{3, 0}, blocked); path != nil {
		t.Errorf("expected nil path through blocked corridor, got %v", path)
	}

	// A blocked goal is still enterable.
	blockedGoal := map[Coord]bool{{X: 3, Y: 0}: true}
	if path := g.ShortestPath(Coord{0, 0}, Coord{3, 0}, blockedGoal); len(path) != 3 {
		t.Errorf("expected path to blocked goal, got %v", path)
	}
}

func TestGrid_Validate(t *testing.T) {
	mk := func() *Grid {
		g := &Grid{Width: 2, Height: 2, Rooms: make(map[Coord]*Room)}
		for _, c := range g.Coords() {
			g.Rooms[c] = &Room{Coord: c, Type: RoomEmpty, Connections: make([]Coord, 0, 4)}
		}
		g.connect(Coord{0, 0}, Coord{1, 0})
		g.connect(Coord{0, 0}, Coord{0, 1})
		g.connect(Coord{1, 0}, Coord{1, 1})
		g.Rooms[Coord{0, 0}].Type = RoomEntrance
		g.Rooms[Coord{1, 1}].Type = RoomBoss
		return g
	}

	if err := mk().Validate(); err != nil {
		t.Fatalf("valid grid failed validation: %v", err)
	}

	tests := []struct {
		name    string
		corrupt func(*Grid)
	}{
		{"missing room", func(g *Grid) { delete(g.Rooms, Coord{0, 1}) }},
		{"no entrance", func(g *Grid) { g.Rooms[Coord{0, 0}].Type = RoomEmpty }},
		{"two bosses", func(g *Grid) { g.Rooms[Coord{1, 0}].Type = RoomBoss }},
		{"non-reciprocal connection", func(g *Grid) {
			r := g.Rooms[Coord{0, 1}]
			r.Connections = append(r.Connections, Coord{1, 1})
		}},
		{"disconnected room", func(g *Grid) {
			g.Rooms[Coord{0, 1}].Connections = nil
			r := g.Rooms[Coord{0, 0}]
			r.Connections = []Coord{{1, 0}}
		}},
		{"non-adjacent connection", func(g *Grid) {
			a, b := g.Rooms[Coord{0, 1}], g.Rooms[Coord{1, 0}]
			a.Connections = append(a.Connections, b.Coord)
			b.Connections = append(b.Connections, a.Coord)
		}},
	}
	for _, tt := range tests {
		g := mk()
		tt.corrupt(g)
		if err := g.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}
