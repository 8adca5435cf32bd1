package actor

// Enemy represents a hostile creature in the dungeon.
// Enemies are spawned from the fixed template table during generation
// or by the spawn tick, and are managed by GameState.
type Enemy struct {
	Name      string   `json:"name"`
	Health    int      `json:"health"`
	MaxHealth int      `json:"max_health"`
	Attack    int      `json:"attack"`
	Agility   int      `json:"agility"`
	XP        int      `json:"xp"`
	Loot      []string `json:"loot,omitempty"`
}

// BossName identifies the single boss enemy. The boss never moves and
// is placed exactly once per dungeon.
const BossName = "dungeon boss"

// EnemyTable is the fixed enemy template table.
var EnemyTable = map[string]Enemy{
	"goblin":   {Name: "goblin", MaxHealth: 8, Attack: 2, Agility: 2, XP: 15, Loot: []string{"copper coin"}},
	"skeleton": {Name: "skeleton", MaxHealth: 12, Attack: 3, Agility: 1, XP: 25, Loot: []string{"bone shard"}},
	"orc":      {Name: "orc", MaxHealth: 18, Attack: 4, Agility: 1, XP: 40, Loot: []string{"rusty axe"}},
	"slime":    {Name: "slime", MaxHealth: 6, Attack: 1, Agility: 3, XP: 10, Loot: []string{"gelatin goop"}},
	BossName:   {Name: BossName, MaxHealth: 35, Attack: 6, Agility: 3, XP: 150, Loot: []string{"legendary sword"}},
}

// CommonEnemyNames returns the non-boss template names in a fixed
// order, for seeded selection.
func CommonEnemyNames() []string {
	return []string{"goblin", "orc", "skeleton", "slime"}
}

// NewEnemy creates an enemy instance from the template table at full
// health. The second return is false for unknown names.
func NewEnemy(name string) (*Enemy, bool) {
	tmpl, ok := EnemyTable[name]
	if !ok {
		return nil, false
	}
	e := tmpl
	e.Health = e.MaxHealth
	e.Loot = append([]string(nil), tmpl.Loot...)
	return &e, true
}

// TakeDamage reduces the enemy's health by n. Health cannot go below 0.
func (e *Enemy) TakeDamage(n int) {
	if n <= 0 {
		return
	}
	e.Health -= n
	if e.Health < 0 {
		e.Health = 0
	}
}

// Heal increases the enemy's health by n. Health cannot exceed MaxHealth.
func (e *Enemy) Heal(n int) {
	if n <= 0 {
		return
	}
	e.Health += n
	if e.Health > e.MaxHealth {
		e.Health = e.MaxHealth
	}
}

// IsDefeated returns true if the enemy's health is 0 or less.
// Defeated enemies are removed from their room and never resurrected.
func (e *Enemy) IsDefeated() bool {
	return e.Health <= 0
}

// IsBoss reports whether this enemy is the dungeon boss.
func (e *Enemy) IsBoss() bool {
	return e.Name == BossName
}
