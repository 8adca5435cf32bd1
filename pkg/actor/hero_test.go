package actor

import (
	"encoding/json"
	"testing"

	"github.com/torchlit/dungeongpt/pkg/item"
)

func TestNewHero(t *testing.T) {
	for _, class := range HeroClassNames() {
		h, err := NewHero(class)
		if err != nil {
			t.Fatalf("NewHero(%q) failed: %v", class, err)
		}
		hc := HeroClasses[class]
		if h.Health != hc.MaxHealth || h.MaxHealth != hc.MaxHealth {
			t.Errorf("%s: health %d/%d, want %d/%d", class, h.Health, h.MaxHealth, hc.MaxHealth, hc.MaxHealth)
		}
		if h.Level != 1 || h.Ability != hc.Ability {
			t.Errorf("%s: level %d ability %q", class, h.Level, h.Ability)
		}
		if h.Combat() == nil {
			t.Errorf("%s: combat actor not built", class)
		}
	}

	if _, err := NewHero("necromancer"); err == nil {
		t.Error("unknown class should fail")
	}
}

func TestHero_GiveXP(t *testing.T) {
	h, err := NewHero("fighter")
	if err != nil {
		t.Fatalf("NewHero failed: %v", err)
	}

	// Below threshold: no level.
	if gained := h.GiveXP(50); gained != 0 {
		t.Errorf("gained %d levels from 50 XP", gained)
	}
	if h.XP != 50 || h.Level != 1 {
		t.Errorf("XP %d level %d, want 50/1", h.XP, h.Level)
	}

	// Crossing level 1 threshold (100) with carryover.
	if gained := h.GiveXP(75); gained != 1 {
		t.Errorf("gained %d levels, want 1", gained)
	}
	if h.Level != 2 || h.XP != 25 {
		t.Errorf("level %d XP %d, want 2/25", h.Level, h.XP)
	}
	if h.MaxHealth != 35 || h.Strength != 7 || h.Dexterity != 4 {
		t.Errorf("level-up stats wrong: %+v", h)
	}

	// A big award can cross several thresholds: 500 covers the level 2
	// (200) and level 3 (300) marks exactly.
	h.XP = 0
	if gained := h.GiveXP(500); gained != 2 {
		t.Errorf("gained %d levels from 500 XP at level 2, want 2", gained)
	}
	if h.Level != 4 {
		t.Errorf("level = %d, want 4", h.Level)
	}

	if gained := h.GiveXP(0); gained != 0 {
		t.Error("zero XP should award nothing")
	}
}

func TestHero_HealthClamps(t *testing.T) {
	h, _ := NewHero("rogue") // 22 max

	h.TakeDamage(100)
	if h.Health != 0 || h.IsAlive() {
		t.Errorf("overkill left health %d alive=%v", h.Health, h.IsAlive())
	}

	h.HealBy(500)
	if h.Health != h.MaxHealth {
		t.Errorf("overheal left health %d", h.Health)
	}

	h.SetHealth(-5)
	if h.Health != 0 {
		t.Errorf("SetHealth(-5) = %d", h.Health)
	}
	h.SetHealth(9999)
	if h.Health != h.MaxHealth {
		t.Errorf("SetHealth(9999) = %d", h.Health)
	}
}

func TestHero_EquipBonuses(t *testing.T) {
	h, _ := NewHero("fighter") // STR 6, DEX 3

	h.Equipped[item.SlotWeapon] = "rusty axe" // +2 str
	h.Equipped[item.SlotFeet] = "leather boots"
	if err := h.RebuildCombat(); err != nil {
		t.Fatalf("RebuildCombat failed: %v", err)
	}

	if got := h.EffectiveStrength(); got != 8 {
		t.Errorf("EffectiveStrength = %d, want 8", got)
	}
	if got := h.EffectiveDexterity(); got != 4 {
		t.Errorf("EffectiveDexterity = %d, want 4", got)
	}

	names := h.EquippedNames()
	if len(names) != 2 || names[0] != "leather boots" || names[1] != "rusty axe" {
		t.Errorf("EquippedNames order wrong: %v", names)
	}
}

func TestHero_Inventory(t *testing.T) {
	h, _ := NewHero("cleric")

	h.AddItem("torch")
	h.AddItem("torch")
	if !h.HasItem("torch") {
		t.Error("torch should be held")
	}

	if !h.RemoveItem("torch") {
		t.Error("removing held item should succeed")
	}
	if !h.HasItem("torch") {
		t.Error("only one copy should have been removed")
	}
	h.RemoveItem("torch")
	if h.RemoveItem("torch") {
		t.Error("removing absent item should report false")
	}
}

func TestHero_JSONRoundTrip(t *testing.T) {
	h, _ := NewHero("knight")
	h.TakeDamage(8)
	h.AddItem("health potion")
	h.Equipped[item.SlotWeapon] = "legendary sword"
	if err := h.RebuildCombat(); err != nil {
		t.Fatalf("RebuildCombat failed: %v", err)
	}

	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var back Hero
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if back.Health != h.Health || back.Class != h.Class || back.Level != h.Level {
		t.Errorf("round trip changed fields: %+v vs %+v", back, h)
	}
	if back.Equipped[item.SlotWeapon] != "legendary sword" {
		t.Error("equipment lost in round trip")
	}
	if back.Combat() == nil {
		t.Error("combat actor not rebuilt after unmarshal")
	}
	if back.EffectiveStrength() != h.EffectiveStrength() {
		t.Error("equip bonuses lost in round trip")
	}
}
