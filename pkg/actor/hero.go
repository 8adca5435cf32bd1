package actor

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jwebster45206/d20"
	"github.com/torchlit/dungeongpt/pkg/item"
)

// HeroClass is a playable class with base stats and a signature
// ability. The class is fixed at creation.
type HeroClass struct {
	Name      string `json:"name"`
	MaxHealth int    `json:"max_health"`
	Strength  int    `json:"strength"`
	Dexterity int    `json:"dexterity"`
	Ability   string `json:"ability"`
}

// HeroClasses is the fixed class table.
var HeroClasses = map[string]HeroClass{
	"cleric":  {Name: "cleric", MaxHealth: 25, Strength: 4, Dexterity: 3, Ability: "heal"},
	"dragon":  {Name: "dragon", MaxHealth: 35, Strength: 8, Dexterity: 2, Ability: "fire_breath"},
	"fighter": {Name: "fighter", MaxHealth: 30, Strength: 6, Dexterity: 3, Ability: "power_strike"},
	"knight":  {Name: "knight", MaxHealth: 28, Strength: 5, Dexterity: 4, Ability: "shield_block"},
	"rogue":   {Name: "rogue", MaxHealth: 22, Strength: 4, Dexterity: 6, Ability: "backstab"},
	"toad":    {Name: "toad", MaxHealth: 18, Strength: 3, Dexterity: 5, Ability: "tongue_whip"},
}

// HeroClassNames returns the class names in a fixed order.
func HeroClassNames() []string {
	names := make([]string, 0, len(HeroClasses))
	for name := range HeroClasses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hero is the player character. The exported fields are the
// serializable source of truth; the d20 combat actor is rebuilt from
// them whenever they change.
type Hero struct {
	Class     string               `json:"class"`
	Health    int                  `json:"health"`
	MaxHealth int                  `json:"max_health"`
	Strength  int                  `json:"strength"`
	Dexterity int                  `json:"dexterity"`
	Level     int                  `json:"level"`
	XP        int                  `json:"xp"`
	Ability   string               `json:"ability,omitempty"`
	Inventory []string             `json:"inventory"`
	Equipped  map[item.Slot]string `json:"equipped,omitempty"`
	TorchLit  bool                 `json:"torch_lit,omitempty"`

	combat *d20.Actor // runtime only, never serialized
}

// NewHero creates a hero of the given class at level 1.
func NewHero(class string) (*Hero, error) {
	hc, ok := HeroClasses[class]
	if !ok {
		return nil, fmt.Errorf("unknown hero class: %s", class)
	}
	h := &Hero{
		Class:     hc.Name,
		Health:    hc.MaxHealth,
		MaxHealth: hc.MaxHealth,
		Strength:  hc.Strength,
		Dexterity: hc.Dexterity,
		Level:     1,
		Ability:   hc.Ability,
		Inventory: make([]string, 0),
		Equipped:  make(map[item.Slot]string),
	}
	if err := h.RebuildCombat(); err != nil {
		return nil, err
	}
	return h, nil
}

// RebuildCombat reconstructs the runtime d20 actor from the hero's
// serializable fields. Call it after any change to stats or equipment.
func (h *Hero) RebuildCombat() error {
	mods := make(map[string]int)
	for _, name := range h.EquippedNames() {
		if _, magnitude := item.Bonus(name); magnitude > 0 {
			mods[name] = magnitude
		}
	}
	a, err := d20.NewActor(h.Class).
		WithHP(h.MaxHealth).
		WithAC(10 + h.EffectiveDexterity()/2).
		WithAttributes(map[string]int{
			"strength":  h.EffectiveStrength(),
			"dexterity": h.EffectiveDexterity(),
		}).
		WithCombatModifiers(mods).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build combat actor: %w", err)
	}
	if h.Health != h.MaxHealth && h.Health > 0 {
		if err := a.SetHP(h.Health); err != nil {
			return fmt.Errorf("failed to set HP: %w", err)
		}
	}
	h.combat = a
	return nil
}

// Combat returns the runtime d20 actor, rebuilding it if needed.
func (h *Hero) Combat() *d20.Actor {
	if h.combat == nil {
		_ = h.RebuildCombat()
	}
	return h.combat
}

// EquippedNames returns equipped item names in fixed slot order.
func (h *Hero) EquippedNames() []string {
	slots := make([]string, 0, len(h.Equipped))
	for s := range h.Equipped {
		slots = append(slots, string(s))
	}
	sort.Strings(slots)
	names := make([]string, 0, len(slots))
	for _, s := range slots {
		names = append(names, h.Equipped[item.Slot(s)])
	}
	return names
}

// EffectiveStrength is base strength plus equip bonuses.
func (h *Hero) EffectiveStrength() int {
	return h.Strength + h.equipBonus("str")
}

// EffectiveDexterity is base dexterity plus equip bonuses.
func (h *Hero) EffectiveDexterity() int {
	return h.Dexterity + h.equipBonus("dex")
}

func (h *Hero) equipBonus(stat string) int {
	total := 0
	for _, name := range h.EquippedNames() {
		if s, magnitude := item.Bonus(name); s == stat {
			total += magnitude
		}
	}
	return total
}

// IsAlive returns true while the hero has health remaining.
func (h *Hero) IsAlive() bool {
	return h.Health > 0
}

// TakeDamage reduces health by n, clamped at 0.
func (h *Hero) TakeDamage(n int) {
	if n <= 0 {
		return
	}
	h.Health -= n
	if h.Health < 0 {
		h.Health = 0
	}
	if h.combat != nil {
		_ = h.combat.SetHP(h.Health)
	}
}

// HealBy increases health by n, clamped at MaxHealth.
func (h *Hero) HealBy(n int) {
	if n <= 0 {
		return
	}
	h.Health += n
	if h.Health > h.MaxHealth {
		h.Health = h.MaxHealth
	}
	if h.combat != nil {
		_ = h.combat.SetHP(h.Health)
	}
}

// SetHealth clamps the given value into [0, MaxHealth] and applies it.
func (h *Hero) SetHealth(n int) {
	if n < 0 {
		n = 0
	}
	if n > h.MaxHealth {
		n = h.MaxHealth
	}
	h.Health = n
	if h.combat != nil && n > 0 {
		_ = h.combat.SetHP(n)
	}
}

// GiveXP awards experience and resolves level-ups. The threshold is
// level*100; surplus XP carries over. Each level grants +5 max health
// (and current health), +1 strength and +1 dexterity.
// Returns the number of levels gained.
func (h *Hero) GiveXP(amount int) int {
	if amount <= 0 {
		return 0
	}
	h.XP += amount
	gained := 0
	for h.XP >= h.Level*100 {
		h.XP -= h.Level * 100
		h.Level++
		h.MaxHealth += 5
		h.Health += 5
		h.Strength++
		h.Dexterity++
		gained++
	}
	if gained > 0 {
		_ = h.RebuildCombat()
	}
	return gained
}

// HasItem reports whether the named item is in the hero's inventory
// (unequipped items only).
func (h *Hero) HasItem(name string) bool {
	for _, it := range h.Inventory {
		if it == name {
			return true
		}
	}
	return false
}

// RemoveItem removes the first occurrence of the named item from the
// inventory. Removing an absent item is a no-op.
func (h *Hero) RemoveItem(name string) bool {
	for i, it := range h.Inventory {
		if it == name {
			h.Inventory = append(h.Inventory[:i], h.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// AddItem appends the named item to the inventory.
func (h *Hero) AddItem(name string) {
	if h.Inventory == nil {
		h.Inventory = make([]string, 0)
	}
	h.Inventory = append(h.Inventory, name)
}

// UnmarshalJSON reconstructs a hero and rebuilds its combat actor.
func (h *Hero) UnmarshalJSON(data []byte) error {
	type alias Hero
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("failed to unmarshal hero: %w", err)
	}
	*h = Hero(a)
	if h.Equipped == nil {
		h.Equipped = make(map[item.Slot]string)
	}
	if h.Inventory == nil {
		h.Inventory = make([]string, 0)
	}
	return h.RebuildCombat()
}
