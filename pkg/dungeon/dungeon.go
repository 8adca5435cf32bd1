package dungeon

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/torchlit/dungeongpt/pkg/actor"
)

// Coord is a room position on the dungeon grid.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) String() string {
	return fmt.Sprintf("%d,%d", c.X, c.Y)
}

// MarshalText lets Coord serve as a JSON map key ("x,y").
func (c Coord) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses the "x,y" key form.
func (c *Coord) UnmarshalText(b []byte) error {
	parsed, err := ParseCoord(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCoord parses a coordinate in "x,y" form.
func ParseCoord(s string) (Coord, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ",", 2)
	if len(parts) != 2 {
		return Coord{}, fmt.Errorf("invalid coordinate: %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Coord{}, fmt.Errorf("invalid coordinate: %q", s)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Coord{}, fmt.Errorf("invalid coordinate: %q", s)
	}
	return Coord{X: x, Y: y}, nil
}

// Manhattan returns the Manhattan distance to another coordinate.
func (c Coord) Manhattan(o Coord) int {
	dx := c.X - o.X
	if dx < 0 {
		dx = -dx
	}
	dy := c.Y - o.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// RoomType enumerates what a room is.
type RoomType string

const (
	RoomEntrance RoomType = "entrance"
	RoomEmpty    RoomType = "empty"
	RoomTreasure RoomType = "treasure"
	RoomShrine   RoomType = "shrine"
	RoomBoss     RoomType = "boss"
	RoomTrap     RoomType = "trap"
	RoomLair     RoomType = "lair"
)

// Directions maps direction names to grid offsets. North is -Y.
var Directions = map[string]Coord{
	"north": {X: 0, Y: -1},
	"south": {X: 0, Y: 1},
	"east":  {X: 1, Y: 0},
	"west":  {X: -1, Y: 0},
}

// DirectionNames is the fixed presentation order for exits.
var DirectionNames = []string{"north", "south", "east", "west"}

// DirectionBetween names the step from one coordinate to an adjacent
// one, or "" if they are not adjacent.
func DirectionBetween(from, to Coord) string {
	for _, name := range DirectionNames {
		d := Directions[name]
		if from.X+d.X == to.X && from.Y+d.Y == to.Y {
			return name
		}
	}
	return ""
}

// Room is one cell of the dungeon. Connections reference neighbor
// coordinates rather than rooms directly, so the cyclic room graph is
// an adjacency structure keyed by coordinate.
type Room struct {
	Coord       Coord          `json:"coord"`
	Type        RoomType       `json:"type"`
	Connections []Coord        `json:"connections"`
	Items       []string       `json:"items,omitempty"`
	Enemies     []*actor.Enemy `json:"enemies,omitempty"`
	Visited     bool           `json:"visited,omitempty"`
}

// ConnectsTo reports whether this room has a connection to c.
func (r *Room) ConnectsTo(c Coord) bool {
	for _, conn := range r.Connections {
		if conn == c {
			return true
		}
	}
	return false
}

// LivingEnemies returns the enemies in the room that are still alive.
func (r *Room) LivingEnemies() []*actor.Enemy {
	var out []*actor.Enemy
	for _, e := range r.Enemies {
		if !e.IsDefeated() {
			out = append(out, e)
		}
	}
	return out
}

// RemoveEnemy deletes the enemy from the room's enemy list.
func (r *Room) RemoveEnemy(target *actor.Enemy) bool {
	for i, e := range r.Enemies {
		if e == target {
			r.Enemies = append(r.Enemies[:i], r.Enemies[i+1:]...)
			return true
		}
	}
	return false
}

// FindEnemy returns the first living enemy with the given name.
func (r *Room) FindEnemy(name string) (*actor.Enemy, bool) {
	for _, e := range r.Enemies {
		if e.Name == name && !e.IsDefeated() {
			return e, true
		}
	}
	return nil, false
}

// Grid is the dungeon: a fixed-size lattice of rooms keyed by
// coordinate.
type Grid struct {
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Rooms  map[Coord]*Room `json:"rooms"`
}

// Entrance is the player start position. Generation fixes it at (0,0).
func (g *Grid) Entrance() Coord {
	return Coord{X: 0, Y: 0}
}

// Room looks up a room by coordinate.
func (g *Grid) Room(c Coord) (*Room, bool) {
	r, ok := g.Rooms[c]
	return r, ok
}

// InBounds reports whether the coordinate lies on the grid.
func (g *Grid) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// Coords returns all grid coordinates in row-major order. Use this for
// any iteration that must be deterministic.
func (g *Grid) Coords() []Coord {
	out := make([]Coord, 0, g.Width*g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			out = append(out, Coord{X: x, Y: y})
		}
	}
	return out
}

// connect adds a reciprocal connection between two rooms.
func (g *Grid) connect(a, b Coord) {
	ra, ok := g.Rooms[a]
	if !ok {
		return
	}
	rb, ok := g.Rooms[b]
	if !ok {
		return
	}
	if !ra.ConnectsTo(b) {
		ra.Connections = append(ra.Connections, b)
	}
	if !rb.ConnectsTo(a) {
		rb.Connections = append(rb.Connections, a)
	}
}

// Reachable returns the set of coordinates reachable from the entrance
// by following connections.
func (g *Grid) Reachable() map[Coord]bool {
	seen := map[Coord]bool{g.Entrance(): true}
	queue := []Coord{g.Entrance()}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		room, ok := g.Rooms[cur]
		if !ok {
			continue
		}
		for _, next := range room.Connections {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

// ShortestPath returns the connection-following path from start to
// goal, excluding start, or nil if the goal is unreachable. Rooms in
// blocked are not entered.
func (g *Grid) ShortestPath(start, goal Coord, blocked map[Coord]bool) []Coord {
	if start == goal {
		return []Coord{}
	}
	cameFrom := map[Coord]Coord{}
	seen := map[Coord]bool{start: true}
	queue := []Coord{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == goal {
			break
		}
		room, ok := g.Rooms[cur]
		if !ok {
			continue
		}
		// Deterministic neighbor order.
		neighbors := append([]Coord(nil), room.Connections...)
		sort.Slice(neighbors, func(i, j int) bool {
			if neighbors[i].Y != neighbors[j].Y {
				return neighbors[i].Y < neighbors[j].Y
			}
			return neighbors[i].X < neighbors[j].X
		})
		for _, next := range neighbors {
			if seen[next] || (blocked[next] && next != goal) {
				continue
			}
			seen[next] = true
			cameFrom[next] = cur
			queue = append(queue, next)
		}
	}
	if !seen[goal] {
		return nil
	}
	var path []Coord
	for cur := goal; cur != start; cur = cameFrom[cur] {
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Validate checks the structural invariants of a grid: unique in-bounds
// coordinates, reciprocal connections, exactly one entrance and one
// boss room, and full connectivity from the entrance.
func (g *Grid) Validate() error {
	if g.Width < 2 || g.Height < 2 {
		return fmt.Errorf("grid dimensions too small: %dx%d", g.Width, g.Height)
	}
	if len(g.Rooms) != g.Width*g.Height {
		return fmt.Errorf("expected %d rooms, found %d", g.Width*g.Height, len(g.Rooms))
	}
	entrances, bosses := 0, 0
	for key, room := range g.Rooms {
		if key != room.Coord {
			return fmt.Errorf("room %s keyed under %s", room.Coord, key)
		}
		if !g.InBounds(key) {
			return fmt.Errorf("room %s out of bounds", key)
		}
		switch room.Type {
		case RoomEntrance:
			entrances++
		case RoomBoss:
			bosses++
		}
		for _, conn := range room.Connections {
			other, ok := g.Rooms[conn]
			if !ok {
				return fmt.Errorf("room %s connects to missing room %s", key, conn)
			}
			if !other.ConnectsTo(key) {
				return fmt.Errorf("connection %s -> %s is not reciprocal", key, conn)
			}
			if key.Manhattan(conn) != 1 {
				return fmt.Errorf("connection %s -> %s is not adjacent", key, conn)
			}
		}
	}
	if entrances != 1 {
		return fmt.Errorf("expected exactly one entrance, found %d", entrances)
	}
	if bosses != 1 {
		return fmt.Errorf("expected exactly one boss room, found %d", bosses)
	}
	if reachable := g.Reachable(); len(reachable) != len(g.Rooms) {
		return fmt.Errorf("grid is not fully connected: %d of %d rooms reachable",
			len(reachable), len(g.Rooms))
	}
	return nil
}
