package state

import (
	"github.com/torchlit/dungeongpt/pkg/dungeon"
)

// EnemySummary is a compact enemy view for prompts.
type EnemySummary struct {
	Name   string `json:"name"`
	Health int    `json:"health"`
	Attack int    `json:"attack"`
}

// RoomSummary is a compact room view for prompts.
type RoomSummary struct {
	Type    string         `json:"type"`
	Exits   []string       `json:"exits,omitempty"`
	Items   []string       `json:"items,omitempty"`
	Enemies []EnemySummary `json:"enemies,omitempty"`
	Visited bool           `json:"visited,omitempty"`
}

// HeroSummary is a compact hero view for prompts.
type HeroSummary struct {
	Class     string   `json:"class"`
	Health    int      `json:"health"`
	MaxHealth int      `json:"max_health"`
	Strength  int      `json:"strength"`
	Dexterity int      `json:"dexterity"`
	Level     int      `json:"level"`
	XP        int      `json:"xp"`
	Ability   string   `json:"ability,omitempty"`
	Inventory []string `json:"inventory,omitempty"`
	Equipped  []string `json:"equipped,omitempty"`
	TorchLit  bool     `json:"torch_lit,omitempty"`
}

// PromptState is a reduced game state for narrator prompts: the grid
// summarized room by room, the hero, and the player position. It never
// carries engine internals the narrator has no business seeing.
type PromptState struct {
	Position string                 `json:"player_position"`
	Hero     HeroSummary            `json:"hero"`
	Rooms    map[string]RoomSummary `json:"rooms"`
}

// ToPromptState builds the narrator-facing snapshot of a game state.
func ToPromptState(gs *GameState) *PromptState {
	ps := &PromptState{
		Position: gs.Position.String(),
		Rooms:    make(map[string]RoomSummary, len(gs.Grid.Rooms)),
	}

	h := gs.Hero
	equipped := h.EquippedNames()
	ps.Hero = HeroSummary{
		Class:     h.Class,
		Health:    h.Health,
		MaxHealth: h.MaxHealth,
		Strength:  h.EffectiveStrength(),
		Dexterity: h.EffectiveDexterity(),
		Level:     h.Level,
		XP:        h.XP,
		Ability:   h.Ability,
		Inventory: h.Inventory,
		Equipped:  equipped,
		TorchLit:  h.TorchLit,
	}

	for _, c := range gs.Grid.Coords() {
		room := gs.Grid.Rooms[c]
		summary := RoomSummary{
			Type:    string(room.Type),
			Items:   room.Items,
			Visited: room.Visited,
		}
		for _, name := range dungeon.DirectionNames {
			d := dungeon.Directions[name]
			next := dungeon.Coord{X: c.X + d.X, Y: c.Y + d.Y}
			if room.ConnectsTo(next) {
				summary.Exits = append(summary.Exits, name)
			}
		}
		for _, e := range room.LivingEnemies() {
			summary.Enemies = append(summary.Enemies, EnemySummary{
				Name:   e.Name,
				Health: e.Health,
				Attack: e.Attack,
			})
		}
		ps.Rooms[c.String()] = summary
	}
	return ps
}
