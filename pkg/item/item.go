package item

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category classifies an item by what it is for.
type Category string

const (
	CategoryWeapon     Category = "weapon"
	CategoryArmor      Category = "armor"
	CategoryConsumable Category = "consumable"
	CategoryKey        Category = "key"
	CategoryTreasure   Category = "treasure"
	CategoryGeneric    Category = "generic"
)

// Slot is an equipment slot on the hero. At most one item
// occupies a slot at a time.
type Slot string

const (
	SlotWeapon Slot = "weapon"
	SlotBody   Slot = "body"
	SlotFeet   Slot = "feet"
	SlotHead   Slot = "head"
)

// Effect describes what happens when a consumable item is used.
type Effect struct {
	Heal       int  `json:"heal,omitempty"`
	LightTorch bool `json:"light_torch,omitempty"`
}

// def is a static item definition. Items are value data; only their
// location (room, inventory, equipped slot) ever changes.
type def struct {
	Category    Category
	Slot        Slot
	BonusStat   string
	BonusAmount int
	Effect      *Effect
}

// known is the fixed item table. Names are lower-case keys.
var known = map[string]def{
	"health potion":   {Category: CategoryConsumable, Effect: &Effect{Heal: 10}},
	"torch":           {Category: CategoryConsumable, Effect: &Effect{LightTorch: true}},
	"silver key":      {Category: CategoryKey},
	"old map piece":   {Category: CategoryTreasure},
	"leather boots":   {Category: CategoryArmor, Slot: SlotFeet, BonusStat: "dex", BonusAmount: 1},
	"copper coin":     {Category: CategoryTreasure},
	"bone shard":      {Category: CategoryGeneric},
	"gelatin goop":    {Category: CategoryGeneric},
	"rusty axe":       {Category: CategoryWeapon, Slot: SlotWeapon, BonusStat: "str", BonusAmount: 2},
	"legendary sword": {Category: CategoryWeapon, Slot: SlotWeapon, BonusStat: "str", BonusAmount: 5},
}

// Keyword fallbacks for names that are not in the table. The narrator
// occasionally invents flavor items; classification must still be total.
var weaponWords = []string{"sword", "axe", "dagger", "blade", "mace", "spear", "bow", "club"}

// armorWords is ordered so that names matching more than one keyword
// always resolve to the same slot.
var armorWords = []struct {
	word string
	slot Slot
}{
	{"boots", SlotFeet},
	{"greaves", SlotFeet},
	{"helm", SlotHead},
	{"helmet", SlotHead},
	{"cap", SlotHead},
	{"mail", SlotBody},
	{"plate", SlotBody},
	{"cuirass", SlotBody},
	{"shield", SlotBody},
	{"cloak", SlotBody},
}
var consumableWords = []string{"potion", "elixir", "tonic", "draught"}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsKnown reports whether the name is in the fixed item table.
// The merge engine uses this to reject invented item names.
func IsKnown(name string) bool {
	_, ok := known[normalize(name)]
	return ok
}

// Names returns every name in the fixed item table, sorted.
func Names() []string {
	out := make([]string, 0, len(known))
	for k := range known {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Classify returns the item's category. It is a total function:
// unknown names fall back to a keyword heuristic, then to generic.
func Classify(name string) Category {
	n := normalize(name)
	if d, ok := known[n]; ok {
		return d.Category
	}
	for _, w := range weaponWords {
		if strings.Contains(n, w) {
			return CategoryWeapon
		}
	}
	for _, a := range armorWords {
		if strings.Contains(n, a.word) {
			return CategoryArmor
		}
	}
	for _, w := range consumableWords {
		if strings.Contains(n, w) {
			return CategoryConsumable
		}
	}
	if strings.Contains(n, "key") {
		return CategoryKey
	}
	return CategoryGeneric
}

// DetectSlot returns the equip slot for the item, if it has one.
// Consumables, keys and treasure have no slot.
func DetectSlot(name string) (Slot, bool) {
	n := normalize(name)
	if d, ok := known[n]; ok {
		if d.Slot == "" {
			return "", false
		}
		return d.Slot, true
	}
	for _, w := range weaponWords {
		if strings.Contains(n, w) {
			return SlotWeapon, true
		}
	}
	for _, a := range armorWords {
		if strings.Contains(n, a.word) {
			return a.slot, true
		}
	}
	return "", false
}

// Bonus returns the stat bonus granted while the item is equipped.
// Unknown items grant nothing.
func Bonus(name string) (stat string, magnitude int) {
	n := normalize(name)
	if d, ok := known[n]; ok {
		return d.BonusStat, d.BonusAmount
	}
	// Heuristic items still grant a minimal bonus so that an equip
	// is never a strict no-op.
	if slot, ok := DetectSlot(n); ok {
		if slot == SlotWeapon {
			return "str", 1
		}
		return "dex", 1
	}
	return "", 0
}

// ConsumableEffect returns the effect of using the item, if it is
// consumable.
func ConsumableEffect(name string) (Effect, bool) {
	n := normalize(name)
	if d, ok := known[n]; ok && d.Effect != nil {
		return *d.Effect, true
	}
	if Classify(n) == CategoryConsumable {
		return Effect{Heal: 5}, true
	}
	return Effect{}, false
}

var titleCaser = cases.Title(language.English)

// DisplayName renders an item name for the UI.
func DisplayName(name string) string {
	return titleCaser.String(normalize(name))
}
