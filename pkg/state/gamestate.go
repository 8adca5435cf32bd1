package state

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/torchlit/dungeongpt/pkg/actor"
	"github.com/torchlit/dungeongpt/pkg/dungeon"
	"github.com/torchlit/dungeongpt/pkg/item"
)

// GameState is the canonical state of a dungeon session. It is the
// single owned aggregate: every other entity is reachable only through
// it, and it changes only through the mutation operations in this
// package or the merge engine.
type GameState struct {
	ID        uuid.UUID     `json:"id"`
	Seed      int64         `json:"seed"`
	Grid      *dungeon.Grid `json:"grid"`
	Hero      *actor.Hero   `json:"hero"`
	Position  dungeon.Coord `json:"position"`
	Turn      int           `json:"turn"`
	GameOver  bool          `json:"game_over,omitempty"`
	History   *TurnHistory  `json:"history,omitempty"`
	CreatedAt time.Time     `json:"created_at,omitempty"`
	UpdatedAt time.Time     `json:"updated_at,omitempty"`
}

// NewGameState generates a fresh session from a seed. Identical seeds
// produce identical dungeons.
func NewGameState(seed int64, width, height int, heroClass string) (*GameState, error) {
	grid, err := dungeon.Generate(seed, width, height)
	if err != nil {
		return nil, err
	}
	hero, err := actor.NewHero(heroClass)
	if err != nil {
		return nil, err
	}
	return &GameState{
		ID:        uuid.New(),
		Seed:      seed,
		Grid:      grid,
		Hero:      hero,
		Position:  grid.Entrance(),
		History:   NewTurnHistory(),
		CreatedAt: time.Now(),
	}, nil
}

// CurrentRoom returns the room at the player's position.
func (gs *GameState) CurrentRoom() *dungeon.Room {
	room, _ := gs.Grid.Room(gs.Position)
	return room
}

// AdvanceTurn increments the monotonic turn counter.
func (gs *GameState) AdvanceTurn() {
	gs.Turn++
}

// RecordTurn appends a turn to the rolling history.
func (gs *GameState) RecordTurn(command, narrative string) {
	if gs.History == nil {
		gs.History = NewTurnHistory()
	}
	gs.History.Push(TurnRecord{Turn: gs.Turn, Command: command, Narrative: narrative})
}

// Validate checks every invariant of the aggregate. Used when loading
// a snapshot: a state that fails validation must never replace the
// canonical state.
func (gs *GameState) Validate() error {
	if gs.Grid == nil || gs.Hero == nil {
		return fmt.Errorf("%w: missing grid or hero", ErrCorruptSave)
	}
	if err := gs.Grid.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	if _, ok := gs.Grid.Room(gs.Position); !ok {
		return fmt.Errorf("%w: player position %s is not a room", ErrCorruptSave, gs.Position)
	}
	if gs.Turn < 0 {
		return fmt.Errorf("%w: negative turn counter", ErrCorruptSave)
	}
	h := gs.Hero
	if h.Health < 0 || h.Health > h.MaxHealth {
		return fmt.Errorf("%w: hero health %d outside [0,%d]", ErrCorruptSave, h.Health, h.MaxHealth)
	}
	if _, ok := actor.HeroClasses[h.Class]; !ok {
		return fmt.Errorf("%w: unknown hero class %q", ErrCorruptSave, h.Class)
	}
	for slot, name := range h.Equipped {
		if h.HasItem(name) {
			return fmt.Errorf("%w: item %q both equipped and in inventory", ErrCorruptSave, name)
		}
		if detected, ok := item.DetectSlot(name); ok && detected != slot {
			return fmt.Errorf("%w: item %q equipped in wrong slot %s", ErrCorruptSave, name, slot)
		}
	}
	return nil
}

// BossDefeated reports whether no living boss remains on the grid.
func (gs *GameState) BossDefeated() bool {
	for _, c := range gs.Grid.Coords() {
		for _, e := range gs.Grid.Rooms[c].LivingEnemies() {
			if e.IsBoss() {
				return false
			}
		}
	}
	return true
}

// DescribeRoom renders the current room for the /look command.
func (gs *GameState) DescribeRoom() string {
	room := gs.CurrentRoom()
	if room == nil {
		return "You are nowhere. That should not happen."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are in a %s room.", room.Type))
	if living := room.LivingEnemies(); len(living) > 0 {
		names := make([]string, 0, len(living))
		for _, e := range living {
			names = append(names, e.Name)
		}
		sb.WriteString(" Enemies: " + strings.Join(names, ", ") + ".")
	}
	if len(room.Items) > 0 {
		names := make([]string, 0, len(room.Items))
		for _, it := range room.Items {
			names = append(names, item.DisplayName(it))
		}
		sb.WriteString(" Items: " + strings.Join(names, ", ") + ".")
	}
	if room.Type == dungeon.RoomTrap {
		sb.WriteString(" Something feels dangerous here.")
	}
	if exits := gs.Exits(); len(exits) > 0 {
		sb.WriteString(" Exits: " + strings.Join(exits, ", ") + ".")
	}
	return sb.String()
}

// Exits names the directions with connections from the current room,
// in fixed presentation order.
func (gs *GameState) Exits() []string {
	room := gs.CurrentRoom()
	if room == nil {
		return nil
	}
	var out []string
	for _, name := range dungeon.DirectionNames {
		d := dungeon.Directions[name]
		next := dungeon.Coord{X: gs.Position.X + d.X, Y: gs.Position.Y + d.Y}
		if room.ConnectsTo(next) {
			out = append(out, name)
		}
	}
	return out
}

// DescribeInventory renders the inventory and equipment for the
// /inventory command.
func (gs *GameState) DescribeInventory() string {
	h := gs.Hero
	if len(h.Inventory) == 0 && len(h.Equipped) == 0 {
		return "Your inventory is empty."
	}
	var sb strings.Builder
	if len(h.Inventory) > 0 {
		names := make([]string, 0, len(h.Inventory))
		for _, it := range h.Inventory {
			names = append(names, item.DisplayName(it))
		}
		sb.WriteString("Carrying: " + strings.Join(names, ", ") + ".")
	}
	if len(h.Equipped) > 0 {
		slots := make([]string, 0, len(h.Equipped))
		for s := range h.Equipped {
			slots = append(slots, string(s))
		}
		sort.Strings(slots)
		parts := make([]string, 0, len(slots))
		for _, s := range slots {
			parts = append(parts, fmt.Sprintf("%s: %s", s, item.DisplayName(h.Equipped[item.Slot(s)])))
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("Equipped: " + strings.Join(parts, ", ") + ".")
	}
	return sb.String()
}

// DescribeStats renders hero stats for the /stats command.
func (gs *GameState) DescribeStats() string {
	h := gs.Hero
	s := fmt.Sprintf("%s: HP %d/%d STR %d DEX %d LVL %d XP %d/%d",
		item.DisplayName(h.Class), h.Health, h.MaxHealth,
		h.EffectiveStrength(), h.EffectiveDexterity(),
		h.Level, h.XP, h.Level*100)
	if h.Ability != "" {
		s += " Ability: " + h.Ability
	}
	return s
}

// MapString renders an ASCII map: @ is the player, . a visited room,
// # unexplored.
func (gs *GameState) MapString() string {
	var sb strings.Builder
	for y := 0; y < gs.Grid.Height; y++ {
		for x := 0; x < gs.Grid.Width; x++ {
			c := dungeon.Coord{X: x, Y: y}
			cell := "#"
			if room, ok := gs.Grid.Room(c); ok && room.Visited {
				cell = "."
			}
			if c == gs.Position {
				cell = "@"
			}
			if x > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(cell)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("@ = you, . = visited, # = unexplored")
	return sb.String()
}
