package state

// Delta is a partial, untrusted description of intended state changes
// proposed by the narrator. It is much faster for the LLM to generate
// than a full game state, and it is advisory: every fragment passes a
// sanity predicate before it touches the canonical state.
//
// Decoding into this whitelist struct discards unknown keys by
// construction, so an external source can never inject new structure.
type Delta struct {
	Player    *PlayerDelta         `json:"player,omitempty"`
	Rooms     map[string]RoomDelta `json:"rooms,omitempty"`
	Options   []string             `json:"options,omitempty"`
	GameEnded *bool                `json:"game_ended,omitempty"`
}

// PlayerDelta proposes changes to the hero.
type PlayerDelta struct {
	Health              *int     `json:"health,omitempty"` // absolute, clamped to [0, max]
	XPGained            *int     `json:"xp_gained,omitempty"`
	Location            string   `json:"location,omitempty"` // "x,y", must be a connected room
	AddToInventory      []string `json:"add_to_inventory,omitempty"`
	RemoveFromInventory []string `json:"remove_from_inventory,omitempty"`
	TorchLit            *bool    `json:"torch_lit,omitempty"`
}

// RoomDelta proposes changes to one room, keyed by "x,y" coordinate.
// Container changes are additions and removals by name, never
// wholesale replacement.
type RoomDelta struct {
	AddItems    []string       `json:"add_items,omitempty"`
	RemoveItems []string       `json:"remove_items,omitempty"`
	EnemyDamage map[string]int `json:"enemy_damage,omitempty"`
	Visited     *bool          `json:"visited,omitempty"`
}

// IsEmpty checks whether the delta proposes any state change.
// Options are not a state change.
func (d *Delta) IsEmpty() bool {
	if d == nil {
		return true
	}
	if d.Player != nil {
		p := d.Player
		if p.Health != nil || p.XPGained != nil || p.Location != "" ||
			len(p.AddToInventory) > 0 || len(p.RemoveFromInventory) > 0 || p.TorchLit != nil {
			return false
		}
	}
	return len(d.Rooms) == 0 && d.GameEnded == nil
}
