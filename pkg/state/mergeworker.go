package state

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/torchlit/dungeongpt/pkg/dungeon"
	"github.com/torchlit/dungeongpt/pkg/item"
)

const (
	// MaxHealthSwing bounds how far a single merge may move the hero's
	// health. Larger proposals are treated as hallucinations.
	MaxHealthSwing = 50

	// MaxXPAward bounds a single merge's XP grant.
	MaxXPAward = 500

	// MaxEnemyHit bounds proposed per-enemy damage.
	MaxEnemyHit = 50
)

// MergeReport summarizes a merge: how many fragments were applied and
// which were discarded. Discards are diagnostic, never fatal.
type MergeReport struct {
	Applied   int
	Discarded int
	Discards  []string
}

// MergeWorker reconciles an untrusted proposed delta against the
// canonical game state. It walks the proposal field by field in a
// fixed canonical order, accepts each leaf only if it passes its
// sanity predicate, and silently drops everything else. It never
// fails: for any input the resulting state satisfies every invariant.
type MergeWorker struct {
	gs     *GameState
	delta  *Delta
	logger *slog.Logger
	report MergeReport
}

// NewMergeWorker creates a merge worker for one (state, delta) pair.
func NewMergeWorker(gs *GameState, delta *Delta, logger *slog.Logger) *MergeWorker {
	return &MergeWorker{gs: gs, delta: delta, logger: logger}
}

// Apply merges the delta into the state and returns the report.
// Application order is fixed (player fields in declaration order, then
// rooms sorted by coordinate, then the game-end flag), so a merge is
// reproducible for the same pair regardless of the proposal's internal
// key order.
func (w *MergeWorker) Apply() MergeReport {
	if w.delta == nil {
		return w.report
	}
	if w.delta.Player != nil {
		w.applyPlayer(w.delta.Player)
	}
	keys := make([]string, 0, len(w.delta.Rooms))
	for k := range w.delta.Rooms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.applyRoom(k, w.delta.Rooms[k])
	}
	if w.delta.GameEnded != nil {
		w.applyGameEnded(*w.delta.GameEnded)
	}
	if w.report.Discarded > 0 && w.logger != nil {
		w.logger.Info("Merge completed with discards",
			"applied", w.report.Applied,
			"discarded", w.report.Discarded)
	}
	return w.report
}

func (w *MergeWorker) accept() {
	w.report.Applied++
}

func (w *MergeWorker) discard(format string, args ...any) {
	reason := fmt.Sprintf(format, args...)
	w.report.Discarded++
	w.report.Discards = append(w.report.Discards, reason)
	if w.logger != nil {
		w.logger.Warn("Discarded delta fragment", "reason", reason)
	}
}

func (w *MergeWorker) applyPlayer(p *PlayerDelta) {
	hero := w.gs.Hero

	if p.Health != nil {
		// Clamp first, then bound the swing. An absurd proposal like
		// -9999 still lands on the clamped floor rather than
		// corrupting the state.
		clamped := *p.Health
		if clamped < 0 {
			clamped = 0
		}
		if clamped > hero.MaxHealth {
			clamped = hero.MaxHealth
		}
		swing := clamped - hero.Health
		if swing < 0 {
			swing = -swing
		}
		if swing > MaxHealthSwing {
			w.discard("player health %d swings too far from %d", *p.Health, hero.Health)
		} else {
			hero.SetHealth(clamped)
			w.accept()
		}
	}

	if p.XPGained != nil {
		n := *p.XPGained
		if n <= 0 || n > MaxXPAward {
			w.discard("xp award %d out of range", n)
		} else {
			hero.GiveXP(n)
			w.accept()
		}
	}

	if p.Location != "" {
		if c, err := dungeon.ParseCoord(p.Location); err != nil {
			w.discard("player location %q is not a coordinate", p.Location)
		} else if _, ok := w.gs.Grid.Room(c); !ok {
			w.discard("player location %s is not a room", c)
		} else if c != w.gs.Position && !w.gs.CurrentRoom().ConnectsTo(c) {
			// Teleporting through walls is a narrative hallucination.
			w.discard("player location %s is not connected to %s", c, w.gs.Position)
		} else {
			w.gs.Position = c
			if room, ok := w.gs.Grid.Room(c); ok {
				room.Visited = true
			}
			w.accept()
		}
	}

	for _, name := range p.AddToInventory {
		if !item.IsKnown(name) {
			w.discard("unknown item %q added to inventory", name)
			continue
		}
		hero.AddItem(name)
		w.accept()
	}

	for _, name := range p.RemoveFromInventory {
		// Removing an absent item is a no-op, not a discard.
		hero.RemoveItem(name)
		w.accept()
	}

	if p.TorchLit != nil {
		hero.TorchLit = *p.TorchLit
		w.accept()
	}
}

func (w *MergeWorker) applyRoom(key string, rd RoomDelta) {
	c, err := dungeon.ParseCoord(key)
	if err != nil {
		w.discard("room key %q is not a coordinate", key)
		return
	}
	room, ok := w.gs.Grid.Room(c)
	if !ok {
		w.discard("room %s does not exist", c)
		return
	}

	for _, name := range rd.AddItems {
		if !item.IsKnown(name) {
			w.discard("unknown item %q added to room %s", name, c)
			continue
		}
		room.Items = append(room.Items, name)
		w.accept()
	}

	for _, name := range rd.RemoveItems {
		for i, it := range room.Items {
			if it == name {
				room.Items = append(room.Items[:i], room.Items[i+1:]...)
				break
			}
		}
		w.accept()
	}

	// Deterministic order for enemy damage within a room.
	names := make([]string, 0, len(rd.EnemyDamage))
	for name := range rd.EnemyDamage {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		n := rd.EnemyDamage[name]
		target, found := room.FindEnemy(name)
		if !found {
			w.discard("no living enemy %q in room %s", name, c)
			continue
		}
		if n <= 0 || n > MaxEnemyHit {
			w.discard("enemy damage %d out of range for %q", n, name)
			continue
		}
		w.gs.ApplyDamage(c, target, n)
		w.accept()
	}

	if rd.Visited != nil {
		// Visited is monotone; a room cannot become unexplored.
		if !*rd.Visited && room.Visited {
			w.discard("room %s cannot be unvisited", c)
		} else {
			if *rd.Visited {
				room.Visited = true
			}
			w.accept()
		}
	}
}

func (w *MergeWorker) applyGameEnded(ended bool) {
	if !ended {
		if w.gs.GameOver {
			w.discard("game end cannot be revoked")
		} else {
			w.accept()
		}
		return
	}
	// The narrator may only declare the game over when the engine
	// agrees there is an ending condition.
	if !w.gs.Hero.IsAlive() || w.gs.BossDefeated() {
		w.gs.GameOver = true
		w.accept()
	} else {
		w.discard("game end proposed with hero alive and boss standing")
	}
}
