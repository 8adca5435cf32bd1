package state

import (
	"fmt"
	"math/rand"

	"github.com/torchlit/dungeongpt/pkg/actor"
	"github.com/torchlit/dungeongpt/pkg/dungeon"
	"github.com/torchlit/dungeongpt/pkg/item"
)

// The functions in this file are the only legal way to change a
// GameState outside the merge engine. Each preserves every invariant
// in Validate.

// Move steps the player in the named direction. Fails with
// ErrInvalidMove when no connection exists that way; position and turn
// are left unchanged on failure.
func (gs *GameState) Move(direction string) error {
	d, ok := dungeon.Directions[direction]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidMove, direction)
	}
	dest := dungeon.Coord{X: gs.Position.X + d.X, Y: gs.Position.Y + d.Y}
	room := gs.CurrentRoom()
	if room == nil || !room.ConnectsTo(dest) {
		return fmt.Errorf("%w: %s", ErrInvalidMove, direction)
	}
	gs.Position = dest
	if destRoom, ok := gs.Grid.Room(dest); ok {
		destRoom.Visited = true
	}
	return nil
}

// Loot transfers every item in the current room to the inventory.
// Idempotent when the room is already empty.
func (gs *GameState) Loot() []string {
	room := gs.CurrentRoom()
	if room == nil || len(room.Items) == 0 {
		return nil
	}
	taken := room.Items
	for _, it := range taken {
		gs.Hero.AddItem(it)
	}
	room.Items = nil
	return taken
}

// Equip moves an inventory item into its slot, displacing any
// previous occupant back to the inventory. Fails with ErrUnknownItem
// when the item is not held, ErrNoSlot when it has no equip
// classification.
func (gs *GameState) Equip(name string) (displaced string, err error) {
	h := gs.Hero
	if !h.HasItem(name) {
		return "", fmt.Errorf("%w: %s", ErrUnknownItem, name)
	}
	slot, ok := item.DetectSlot(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoSlot, name)
	}
	h.RemoveItem(name)
	if prev, occupied := h.Equipped[slot]; occupied {
		h.AddItem(prev)
		displaced = prev
	}
	h.Equipped[slot] = name
	if err := h.RebuildCombat(); err != nil {
		return displaced, err
	}
	return displaced, nil
}

// Unequip is the inverse of Equip. Fails with ErrEmptySlot when the
// slot is vacant.
func (gs *GameState) Unequip(slot item.Slot) (string, error) {
	h := gs.Hero
	name, ok := h.Equipped[slot]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrEmptySlot, slot)
	}
	delete(h.Equipped, slot)
	h.AddItem(name)
	if err := h.RebuildCombat(); err != nil {
		return name, err
	}
	return name, nil
}

// ApplyDamage deals damage to an enemy in the room at c. When the
// enemy's health reaches 0 it is removed from the room's enemy list,
// its loot drops into the room, and the hero is awarded its XP.
// Returns true when the enemy was defeated.
func (gs *GameState) ApplyDamage(c dungeon.Coord, target *actor.Enemy, n int) bool {
	target.TakeDamage(n)
	if !target.IsDefeated() {
		return false
	}
	if room, ok := gs.Grid.Room(c); ok {
		room.RemoveEnemy(target)
		room.Items = append(room.Items, target.Loot...)
	}
	gs.Hero.GiveXP(target.XP)
	return true
}

// DamageHero reduces the hero's health, clamped at 0.
func (gs *GameState) DamageHero(n int) {
	gs.Hero.TakeDamage(n)
}

// AttackEnemy resolves a player attack against the named enemy in the
// current room: a d20 roll plus effective strength.
func (gs *GameState) AttackEnemy(rng *rand.Rand, name string) (string, error) {
	room := gs.CurrentRoom()
	if room == nil {
		return "", fmt.Errorf("nothing to attack here")
	}
	var target *actor.Enemy
	if name == "" {
		if living := room.LivingEnemies(); len(living) > 0 {
			target = living[0]
		}
	} else if e, ok := room.FindEnemy(name); ok {
		target = e
	}
	if target == nil {
		return "", fmt.Errorf("no living enemy to attack")
	}
	roll := rng.Intn(20) + 1
	damage := roll + gs.Hero.EffectiveStrength()
	targetName := target.Name
	defeated := gs.ApplyDamage(gs.Position, target, damage)
	msg := fmt.Sprintf("You rolled a %d and dealt %d damage to the %s!", roll, damage, targetName)
	if defeated {
		msg += fmt.Sprintf(" The %s is slain.", targetName)
	}
	return msg, nil
}

// UseItem applies a consumable's effect and removes it from the
// inventory. Fails with ErrUnknownItem when not held, ErrNotUsable
// when the item has no consumable effect.
func (gs *GameState) UseItem(name string) (string, error) {
	h := gs.Hero
	if !h.HasItem(name) {
		return "", fmt.Errorf("%w: %s", ErrUnknownItem, name)
	}
	effect, ok := item.ConsumableEffect(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotUsable, name)
	}
	h.RemoveItem(name)
	switch {
	case effect.LightTorch:
		h.TorchLit = true
		return "You light the torch. The shadows retreat.", nil
	case effect.Heal > 0:
		before := h.Health
		h.HealBy(effect.Heal)
		return fmt.Sprintf("You drink the %s and recover %d health.", name, h.Health-before), nil
	default:
		return fmt.Sprintf("You use the %s. Nothing much happens.", name), nil
	}
}

// UseAbility resolves the hero class ability. Offensive abilities need
// a living enemy in the room.
func (gs *GameState) UseAbility(rng *rand.Rand) (string, error) {
	h := gs.Hero
	if h.Ability == "" {
		return "", fmt.Errorf("you have no special ability")
	}
	room := gs.CurrentRoom()
	living := room.LivingEnemies()

	switch h.Ability {
	case "heal":
		h.HealBy(10)
		return "You channel divine power and heal 10 health.", nil
	case "shield_block":
		h.HealBy(5)
		return "You raise your shield and bolster your defenses, recovering 5 health.", nil
	}

	if len(living) == 0 {
		return "", fmt.Errorf("no enemies to target with your ability")
	}
	target := living[0]
	targetName := target.Name
	switch h.Ability {
	case "fire_breath":
		dmg := h.EffectiveStrength() + 5
		for _, e := range living {
			gs.ApplyDamage(gs.Position, e, dmg)
		}
		return fmt.Sprintf("You breathe fire, dealing %d damage to all foes!", dmg), nil
	case "power_strike":
		dmg := h.EffectiveStrength() * 2
		gs.ApplyDamage(gs.Position, target, dmg)
		return fmt.Sprintf("You deliver a power strike for %d damage!", dmg), nil
	case "backstab":
		dmg := h.EffectiveDexterity() * 2
		gs.ApplyDamage(gs.Position, target, dmg)
		return fmt.Sprintf("You backstab the %s for %d damage!", targetName, dmg), nil
	case "tongue_whip":
		dmg := h.EffectiveStrength() + h.EffectiveDexterity()
		gs.ApplyDamage(gs.Position, target, dmg)
		return fmt.Sprintf("You lash out with your tongue, dealing %d damage!", dmg), nil
	default:
		return "", fmt.Errorf("unknown ability: %s", h.Ability)
	}
}

// TickEnemies moves every non-boss enemy one step toward the player
// along room connections. The pursuer list is snapshotted before any
// move applies, so each enemy moves at most one step per tick even
// when it lands in a room the walk has not reached yet. The boss never
// moves, and enemies do not stack into an occupied room. Deterministic
// given the grid and positions.
func (gs *GameState) TickEnemies() {
	type pursuer struct {
		enemy *actor.Enemy
		from  dungeon.Coord
	}
	occupied := make(map[dungeon.Coord]bool)
	bossRooms := make(map[dungeon.Coord]bool)
	var movers []pursuer
	for _, c := range gs.Grid.Coords() {
		room := gs.Grid.Rooms[c]
		for _, e := range room.LivingEnemies() {
			if e.IsBoss() {
				bossRooms[c] = true
				continue
			}
			occupied[c] = true
			movers = append(movers, pursuer{enemy: e, from: c})
		}
	}

	for _, p := range movers {
		room := gs.Grid.Rooms[p.from]
		delete(occupied, p.from)
		blocked := make(map[dungeon.Coord]bool, len(occupied)+len(bossRooms))
		for k := range occupied {
			blocked[k] = true
		}
		for k := range bossRooms {
			blocked[k] = true
		}
		path := gs.Grid.ShortestPath(p.from, gs.Position, blocked)
		if len(path) == 0 {
			occupied[p.from] = true
			continue
		}
		next := path[0]
		destRoom, ok := gs.Grid.Room(next)
		if !ok || len(destRoom.LivingEnemies()) > 0 {
			occupied[p.from] = true
			continue
		}
		room.RemoveEnemy(p.enemy)
		destRoom.Enemies = append(destRoom.Enemies, p.enemy)
		occupied[next] = true
	}
}

// SpawnEnemy places a new common enemy in a seeded-random room that is
// neither the boss room nor the player's.
func (gs *GameState) SpawnEnemy(rng *rand.Rand) *actor.Enemy {
	var candidates []dungeon.Coord
	for _, c := range gs.Grid.Coords() {
		room := gs.Grid.Rooms[c]
		if room.Type == dungeon.RoomBoss || c == gs.Position {
			continue
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return nil
	}
	c := candidates[rng.Intn(len(candidates))]
	names := actor.CommonEnemyNames()
	e, _ := actor.NewEnemy(names[rng.Intn(len(names))])
	gs.Grid.Rooms[c].Enemies = append(gs.Grid.Rooms[c].Enemies, e)
	return e
}

// CountCommonEnemies returns the number of living non-boss enemies.
func (gs *GameState) CountCommonEnemies() int {
	count := 0
	for _, c := range gs.Grid.Coords() {
		for _, e := range gs.Grid.Rooms[c].LivingEnemies() {
			if !e.IsBoss() {
				count++
			}
		}
	}
	return count
}
