package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"

	"github.com/torchlit/dungeongpt/internal/logger"
	"github.com/torchlit/dungeongpt/internal/services"
	"github.com/torchlit/dungeongpt/internal/storage"
	"github.com/torchlit/dungeongpt/pkg/actor"
	"github.com/torchlit/dungeongpt/pkg/chat"
	"github.com/torchlit/dungeongpt/pkg/item"
	"github.com/torchlit/dungeongpt/pkg/state"
)

const (
	// SpawnInterval is how many turns pass between enemy spawn attempts.
	SpawnInterval = 5

	// MaxCommonEnemies caps the living non-boss enemy population.
	MaxCommonEnemies = 6
)

// Result is the outcome of one line of player input, ready for the UI.
type Result struct {
	Text         string
	Options      []string // suggested actions, only when hints were requested
	TurnConsumed bool
	GameOver     bool
	Stale        bool // a newer command superseded this one; drop silently
	Quit         bool
}

// Session owns the canonical game state for one run and drives the
// turn loop. All access to the state goes through it; the narrator is
// consulted outside the lock so a slow model never freezes the game.
type Session struct {
	mu       sync.Mutex
	gs       *state.GameState
	narrator services.Narrator
	store    storage.Storage // nil disables saving
	logger   *slog.Logger
	rng      *rand.Rand

	// generation tags narrator requests. A response whose tag no
	// longer matches is stale and gets discarded.
	generation uint64
}

// New creates a session around an existing game state. The rng drives
// combat rolls and spawns and is separate from the dungeon seed, which
// was consumed at generation time.
func New(gs *state.GameState, narrator services.Narrator, store storage.Storage, logger *slog.Logger) *Session {
	return &Session{
		gs:       gs,
		narrator: narrator,
		store:    store,
		logger:   logger,
		rng:      rand.New(rand.NewSource(gs.Seed + 1)),
	}
}

// State returns the canonical game state. Callers must treat it as
// read-only; mutations go through Do.
func (s *Session) State() *state.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gs
}

// Do executes one line of player input and returns the outcome.
// Meta command failures consume no turn and leave the state untouched.
func (s *Session) Do(ctx context.Context, input string) (*Result, error) {
	cmd := state.ParseCommand(input)

	switch cmd.Type {
	case state.CmdNone:
		return &Result{}, nil
	case state.CmdUnknown:
		return &Result{Text: fmt.Sprintf("Unknown command %q. Try /help.", cmd.Arg)}, nil
	case state.CmdHelp:
		return &Result{Text: state.HelpText}, nil
	case state.CmdQuit:
		return &Result{Quit: true}, nil
	}

	s.mu.Lock()
	if s.gs.GameOver && cmd.Type == state.CmdNarrative {
		s.mu.Unlock()
		return s.narrativeTurn(ctx, cmd.Raw, false, false)
	}

	switch cmd.Type {
	case state.CmdLook:
		defer s.mu.Unlock()
		return &Result{Text: s.gs.DescribeRoom()}, nil
	case state.CmdInventory:
		defer s.mu.Unlock()
		return &Result{Text: s.gs.DescribeInventory()}, nil
	case state.CmdStats:
		defer s.mu.Unlock()
		return &Result{Text: s.gs.DescribeStats()}, nil
	case state.CmdMap:
		defer s.mu.Unlock()
		return &Result{Text: s.gs.MapString()}, nil
	case state.CmdSave:
		s.mu.Unlock()
		return s.save(ctx)
	case state.CmdLoad:
		s.mu.Unlock()
		return s.load(ctx)
	case state.CmdHint:
		s.mu.Unlock()
		return s.narrativeTurn(ctx, "The player asks for a hint about what to do next.", false, true)
	case state.CmdGo:
		return s.moveLocked(ctx, cmd.Arg)
	case state.CmdLoot:
		return s.lootLocked()
	case state.CmdEquip:
		return s.equipLocked(cmd.Arg)
	case state.CmdUnequip:
		return s.unequipLocked(cmd.Arg)
	case state.CmdUse:
		return s.useLocked(cmd.Arg)
	case state.CmdAttack:
		return s.attackLocked(cmd.Arg)
	case state.CmdAbility:
		return s.abilityLocked()
	case state.CmdNarrative:
		s.mu.Unlock()
		return s.narrativeTurn(ctx, cmd.Raw, false, false)
	default:
		s.mu.Unlock()
		return &Result{Text: "Nothing happens."}, nil
	}
}

// moveLocked steps the player, then asks the narrator for a brief room
// description. Invalid moves fail locally without consuming a turn.
// Called with the lock held; releases it.
func (s *Session) moveLocked(ctx context.Context, direction string) (*Result, error) {
	if direction == "" {
		s.mu.Unlock()
		return &Result{Text: "Go where? Try /go north."}, nil
	}
	threats := s.roomThreats()
	if err := s.gs.Move(direction); err != nil {
		s.mu.Unlock()
		return &Result{Text: fmt.Sprintf("You can't go %s from here.", direction)}, nil
	}
	fallback := s.gs.DescribeRoom()
	events := s.finishTurn(threats)
	s.mu.Unlock()

	res, err := s.narrativeTurn(ctx, "The player moves "+direction+".", true, false)
	if err != nil || res.Stale {
		res = &Result{Text: fallback}
	}
	res.Text = joinEvents(res.Text, events)
	res.TurnConsumed = true
	res.GameOver = s.State().GameOver
	return res, nil
}

func (s *Session) lootLocked() (*Result, error) {
	defer s.mu.Unlock()
	threats := s.roomThreats()
	taken := s.gs.Loot()
	if len(taken) == 0 {
		return &Result{Text: "There is nothing here to take."}, nil
	}
	names := make([]string, 0, len(taken))
	for _, it := range taken {
		names = append(names, item.DisplayName(it))
	}
	text := "You pick up: " + strings.Join(names, ", ") + "."
	events := s.finishTurn(threats)
	return &Result{Text: joinEvents(text, events), TurnConsumed: true, GameOver: s.gs.GameOver}, nil
}

func (s *Session) equipLocked(name string) (*Result, error) {
	defer s.mu.Unlock()
	if name == "" {
		return &Result{Text: "Equip what? Try /equip rusty axe."}, nil
	}
	displaced, err := s.gs.Equip(name)
	if err != nil {
		return &Result{Text: equipFailureText(err, name)}, nil
	}
	text := fmt.Sprintf("You equip the %s.", item.DisplayName(name))
	if displaced != "" {
		text += fmt.Sprintf(" The %s goes back in your pack.", item.DisplayName(displaced))
	}
	return &Result{Text: text}, nil
}

func (s *Session) unequipLocked(slotName string) (*Result, error) {
	defer s.mu.Unlock()
	if slotName == "" {
		return &Result{Text: "Unequip which slot? weapon, body, feet or head."}, nil
	}
	name, err := s.gs.Unequip(item.Slot(slotName))
	if err != nil {
		return &Result{Text: fmt.Sprintf("Nothing is equipped in the %s slot.", slotName)}, nil
	}
	return &Result{Text: fmt.Sprintf("You unequip the %s.", item.DisplayName(name))}, nil
}

func (s *Session) useLocked(name string) (*Result, error) {
	defer s.mu.Unlock()
	if name == "" {
		return &Result{Text: "Use what? Try /use health potion."}, nil
	}
	threats := s.roomThreats()
	text, err := s.gs.UseItem(name)
	if err != nil {
		return &Result{Text: useFailureText(err, name)}, nil
	}
	events := s.finishTurn(threats)
	return &Result{Text: joinEvents(text, events), TurnConsumed: true, GameOver: s.gs.GameOver}, nil
}

func (s *Session) attackLocked(target string) (*Result, error) {
	defer s.mu.Unlock()
	threats := s.roomThreats()
	text, err := s.gs.AttackEnemy(s.rng, target)
	if err != nil {
		return &Result{Text: "There is nothing here to attack."}, nil
	}
	events := s.finishTurn(threats)
	return &Result{Text: joinEvents(text, events), TurnConsumed: true, GameOver: s.gs.GameOver}, nil
}

func (s *Session) abilityLocked() (*Result, error) {
	defer s.mu.Unlock()
	threats := s.roomThreats()
	text, err := s.gs.UseAbility(s.rng)
	if err != nil {
		return &Result{Text: strings.ToUpper(err.Error()[:1]) + err.Error()[1:] + "."}, nil
	}
	events := s.finishTurn(threats)
	return &Result{Text: joinEvents(text, events), TurnConsumed: true, GameOver: s.gs.GameOver}, nil
}

// narrativeTurn runs the full collaborator pipeline: snapshot, prompt,
// merge, enemy phase. The lock is released for the narrator call.
func (s *Session) narrativeTurn(ctx context.Context, command string, brief, wantHints bool) (*Result, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	req := &chat.TurnRequest{
		GameStateID: s.gs.ID,
		State:       state.ToPromptState(s.gs),
		Command:     command,
		History:     s.gs.History.Recent(state.PromptHistoryLimit),
		Brief:       brief,
		WantHints:   wantHints,
		GameOver:    s.gs.GameOver,
		Generation:  gen,
	}
	s.mu.Unlock()

	resp, err := s.narrator.GenerateTurn(ctx, req)
	if err != nil {
		s.logger.Warn("Narrator request failed", "error", err)
		return nil, fmt.Errorf("the dungeon master is silent: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if resp.Generation != s.generation {
		s.logger.Debug("Discarding stale narrator response",
			"response_generation", resp.Generation, "current_generation", s.generation)
		return &Result{Stale: true}, nil
	}

	res := &Result{Text: resp.Narrative}
	if wantHints {
		// The bound holds for any Narrator, not just ones that clamp
		// their own output.
		res.Options = resp.Options
		if len(res.Options) > chat.MaxOptions {
			res.Options = res.Options[:chat.MaxOptions]
		}
	}

	// Hints and brief movement narration never re-merge state; the
	// local mutation already happened for movement.
	if brief || wantHints || s.gs.GameOver {
		s.gs.RecordTurn(command, resp.Narrative)
		return res, nil
	}

	threats := s.roomThreats()
	report := state.NewMergeWorker(s.gs, resp.Delta, s.logger).Apply()
	if report.Discarded > 0 {
		s.logger.Warn("Merge discarded delta fragments",
			"applied", report.Applied, "discarded", report.Discarded)
	}
	s.gs.RecordTurn(command, resp.Narrative)
	events := s.finishTurn(threats)
	res.Text = joinEvents(res.Text, events)
	res.TurnConsumed = true
	res.GameOver = s.gs.GameOver
	return res, nil
}

// roomThreats snapshots the living enemies sharing the player's room
// before an action resolves. Survivors strike back afterward, whether
// the player fought, fled or ignored them.
func (s *Session) roomThreats() []*actor.Enemy {
	room := s.gs.CurrentRoom()
	if room == nil {
		return nil
	}
	return room.LivingEnemies()
}

// finishTurn runs the engine side of a consumed turn: retaliation,
// pursuit, spawning, end conditions and the autosave. Returns event
// lines for the UI. Called with the lock held.
func (s *Session) finishTurn(threats []*actor.Enemy) []string {
	var events []string

	for _, e := range threats {
		if e.IsDefeated() || !s.gs.Hero.IsAlive() {
			continue
		}
		s.gs.DamageHero(e.Attack)
		events = append(events, fmt.Sprintf("The %s strikes you for %d damage!", e.Name, e.Attack))
	}

	s.gs.TickEnemies()
	s.gs.AdvanceTurn()

	if s.gs.Turn%SpawnInterval == 0 && s.gs.CountCommonEnemies() < MaxCommonEnemies {
		if e := s.gs.SpawnEnemy(s.rng); e != nil {
			s.logger.Debug("Spawned enemy", "name", e.Name)
		}
	}

	if !s.gs.Hero.IsAlive() {
		s.gs.GameOver = true
		events = append(events, "You have fallen. The dungeon claims another soul.")
	} else if s.gs.BossDefeated() {
		s.gs.GameOver = true
		events = append(events, "The dungeon boss is no more. You are victorious!")
	}

	s.autosave()
	return events
}

// autosave is best effort: a failed save never interrupts play.
func (s *Session) autosave() {
	if s.store == nil {
		return
	}
	if err := s.store.SaveGameState(context.Background(), s.gs.ID, s.gs); err != nil {
		s.logger.Warn("Autosave failed", "error", err)
	}
}

func (s *Session) save(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return &Result{Text: "Saving is not configured."}, nil
	}
	if err := s.store.SaveGameState(ctx, s.gs.ID, s.gs); err != nil {
		logger.WithError(s.logger, err).Error("Save failed")
		return &Result{Text: "The save failed. Your progress is unchanged."}, nil
	}
	return &Result{Text: "Game saved."}, nil
}

// load replaces the canonical state with the stored snapshot. A
// corrupt or missing snapshot leaves the current state standing.
func (s *Session) load(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return &Result{Text: "Saving is not configured."}, nil
	}
	gs, err := s.store.LoadGameState(ctx, s.gs.ID)
	if err != nil {
		logger.WithError(s.logger, err).Error("Load failed")
		return &Result{Text: "The save file could not be read. Your current game continues."}, nil
	}
	if gs == nil {
		return &Result{Text: "No saved game found."}, nil
	}
	s.gs = gs
	return &Result{Text: "Game loaded.\n" + s.gs.DescribeRoom()}, nil
}

func equipFailureText(err error, name string) string {
	if errors.Is(err, state.ErrNoSlot) {
		return fmt.Sprintf("The %s cannot be equipped.", item.DisplayName(name))
	}
	return fmt.Sprintf("You are not carrying a %s.", item.DisplayName(name))
}

func useFailureText(err error, name string) string {
	if errors.Is(err, state.ErrNotUsable) {
		return fmt.Sprintf("The %s is not something you can use.", item.DisplayName(name))
	}
	return fmt.Sprintf("You are not carrying a %s.", item.DisplayName(name))
}

func joinEvents(text string, events []string) string {
	if len(events) == 0 {
		return text
	}
	parts := append([]string{text}, events...)
	return strings.Join(parts, "\n")
}
