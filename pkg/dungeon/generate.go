package dungeon

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/torchlit/dungeongpt/pkg/actor"
)

// ErrGeneration is returned when a dungeon cannot satisfy its
// structural invariants. Fatal to session start.
var ErrGeneration = errors.New("dungeon generation failed")

const (
	// Probability that a candidate lattice edge is kept.
	edgeProbability = 0.55

	// Special room type weights, applied in order to a single draw.
	lairWeight     = 0.15
	treasureWeight = 0.12
	trapWeight     = 0.10
	shrineWeight   = 0.08

	enemyChance = 0.6
	lootChance  = 0.5
)

// LootTable is the fixed list of items that may be placed in rooms.
var LootTable = []string{
	"health potion",
	"silver key",
	"torch",
	"old map piece",
	"leather boots",
}

// Generate builds a dungeon grid from a seed. Identical seeds always
// yield identical grids: one seeded source drives every draw, and all
// iteration is in row-major coordinate order.
//
// The entrance is fixed at (0,0) and the boss room at the far corner.
// Candidate connections keep each lattice edge with a fixed
// probability; if the result is disconnected it is repaired
// deterministically, so the connectivity invariant always holds.
func Generate(seed int64, width, height int) (*Grid, error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("%w: dimensions %dx%d too small", ErrGeneration, width, height)
	}

	rng := rand.New(rand.NewSource(seed))
	g := &Grid{
		Width:  width,
		Height: height,
		Rooms:  make(map[Coord]*Room, width*height),
	}
	for _, c := range g.Coords() {
		g.Rooms[c] = &Room{Coord: c, Connections: make([]Coord, 0, 4)}
	}

	// Candidate connectivity: keep each east/south lattice edge with
	// fixed probability. Row-major order keeps the draws reproducible.
	for _, c := range g.Coords() {
		east := Coord{X: c.X + 1, Y: c.Y}
		if g.InBounds(east) && rng.Float64() < edgeProbability {
			g.connect(c, east)
		}
		south := Coord{X: c.X, Y: c.Y + 1}
		if g.InBounds(south) && rng.Float64() < edgeProbability {
			g.connect(c, south)
		}
	}
	repairConnectivity(g)

	// Room types. Entrance and boss are fixed; the rest draw from the
	// weighted table.
	entrance := g.Entrance()
	bossCoord := Coord{X: width - 1, Y: height - 1}
	for _, c := range g.Coords() {
		room := g.Rooms[c]
		switch c {
		case entrance:
			room.Type = RoomEntrance
			room.Visited = true
			continue
		case bossCoord:
			room.Type = RoomBoss
			continue
		}
		room.Type = drawRoomType(rng)
	}

	// Contents. Boss room gets the boss; lairs usually get an enemy;
	// treasure and shrine rooms get loot.
	for _, c := range g.Coords() {
		room := g.Rooms[c]
		switch room.Type {
		case RoomBoss:
			boss, _ := actor.NewEnemy(actor.BossName)
			room.Enemies = []*actor.Enemy{boss}
			if rng.Float64() < lootChance {
				room.Items = append(room.Items, drawLoot(rng))
			}
		case RoomLair:
			if rng.Float64() < enemyChance {
				room.Enemies = append(room.Enemies, drawEnemy(rng))
			}
			if rng.Float64() < lootChance {
				room.Items = append(room.Items, drawLoot(rng))
			}
		case RoomTreasure:
			room.Items = append(room.Items, drawLoot(rng))
			if rng.Float64() < lootChance {
				room.Items = append(room.Items, drawLoot(rng))
			}
		case RoomShrine:
			room.Items = append(room.Items, "health potion")
		case RoomEmpty, RoomTrap, RoomEntrance:
			if c != entrance && rng.Float64() < lootChance/2 {
				room.Items = append(room.Items, drawLoot(rng))
			}
		}
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return g, nil
}

func drawRoomType(rng *rand.Rand) RoomType {
	roll := rng.Float64()
	switch {
	case roll < lairWeight:
		return RoomLair
	case roll < lairWeight+treasureWeight:
		return RoomTreasure
	case roll < lairWeight+treasureWeight+trapWeight:
		return RoomTrap
	case roll < lairWeight+treasureWeight+trapWeight+shrineWeight:
		return RoomShrine
	default:
		return RoomEmpty
	}
}

func drawEnemy(rng *rand.Rand) *actor.Enemy {
	names := actor.CommonEnemyNames()
	e, _ := actor.NewEnemy(names[rng.Intn(len(names))])
	return e
}

func drawLoot(rng *rand.Rand) string {
	return LootTable[rng.Intn(len(LootTable))]
}

// repairConnectivity joins every component not reachable from the
// entrance to the reachable set via the nearest coordinate pair
// (Manhattan distance, ties broken in row-major order). The repair is
// purely a function of the candidate graph, so generation stays
// deterministic per seed. Returns the number of connections added.
func repairConnectivity(g *Grid) int {
	added := 0
	for {
		reachable := g.Reachable()
		if len(reachable) == len(g.Rooms) {
			return added
		}
		var bestFrom, bestTo Coord
		bestDist := -1
		for _, from := range g.Coords() {
			if !reachable[from] {
				continue
			}
			for _, to := range g.Coords() {
				if reachable[to] {
					continue
				}
				d := from.Manhattan(to)
				if bestDist == -1 || d < bestDist {
					bestDist = d
					bestFrom, bestTo = from, to
				}
			}
		}
		// Walk a straight lattice path between the pair, connecting
		// each step. X first, then Y, keeps the path deterministic.
		cur := bestFrom
		for cur.X != bestTo.X {
			step := cur
			if bestTo.X > cur.X {
				step.X++
			} else {
				step.X--
			}
			g.connect(cur, step)
			added++
			cur = step
		}
		for cur.Y != bestTo.Y {
			step := cur
			if bestTo.Y > cur.Y {
				step.Y++
			} else {
				step.Y--
			}
			g.connect(cur, step)
			added++
			cur = step
		}
	}
}
