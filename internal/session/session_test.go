package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/torchlit/dungeongpt/internal/services"
	"github.com/torchlit/dungeongpt/internal/storage"
	"github.com/torchlit/dungeongpt/pkg/actor"
	"github.com/torchlit/dungeongpt/pkg/chat"
	"github.com/torchlit/dungeongpt/pkg/dungeon"
	"github.com/torchlit/dungeongpt/pkg/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(t *testing.T) (*Session, *services.MockNarrator, *storage.MockStorage) {
	t.Helper()
	gs, err := state.NewGameState(1337, 6, 6, "fighter")
	if err != nil {
		t.Fatalf("NewGameState failed: %v", err)
	}
	// A fresh entrance is quiet; tests that want threats add their own.
	gs.CurrentRoom().Enemies = nil

	narrator := services.NewMockNarrator()
	store := storage.NewMockStorage()
	return New(gs, narrator, store, testLogger()), narrator, store
}

func do(t *testing.T, s *Session, input string) *Result {
	t.Helper()
	res, err := s.Do(context.Background(), input)
	if err != nil {
		t.Fatalf("Do(%q) failed: %v", input, err)
	}
	return res
}

func TestDo_MetaCommandsConsumeNoTurn(t *testing.T) {
	s, _, _ := newTestSession(t)

	inputs := []string{"/look", "/inventory", "/stats", "/map", "/help"}
	for _, input := range inputs {
		res := do(t, s, input)
		if res.TurnConsumed {
			t.Errorf("%s consumed a turn", input)
		}
		if res.Text == "" {
			t.Errorf("%s returned no text", input)
		}
	}
	if s.State().Turn != 0 {
		t.Errorf("turn advanced to %d by meta commands", s.State().Turn)
	}
}

func TestDo_EmptyAndUnknown(t *testing.T) {
	s, _, _ := newTestSession(t)

	if res := do(t, s, "   "); res.Text != "" || res.TurnConsumed {
		t.Errorf("blank input produced %+v", res)
	}
	res := do(t, s, "/dance")
	if !strings.Contains(res.Text, "Unknown command") || res.TurnConsumed {
		t.Errorf("unknown command produced %+v", res)
	}
}

func TestDo_Quit(t *testing.T) {
	s, _, _ := newTestSession(t)
	if res := do(t, s, "/quit"); !res.Quit {
		t.Error("quit flag not set")
	}
}

func TestDo_InvalidMoveLeavesStateUntouched(t *testing.T) {
	s, _, _ := newTestSession(t)
	before := s.State().Position
	beforeTurn := s.State().Turn

	// The entrance is the corner (0,0); north leads off the grid.
	res := do(t, s, "/go north")
	if res.TurnConsumed {
		t.Error("failed move consumed a turn")
	}
	if !strings.Contains(res.Text, "can't go north") {
		t.Errorf("failure text %q", res.Text)
	}
	if s.State().Position != before || s.State().Turn != beforeTurn {
		t.Error("failed move changed position or turn")
	}
}

func TestDo_MoveConsumesTurn(t *testing.T) {
	s, narrator, _ := newTestSession(t)
	gs := s.State()
	dir := ""
	for _, name := range dungeon.DirectionNames {
		d := dungeon.Directions[name]
		next := dungeon.Coord{X: gs.Position.X + d.X, Y: gs.Position.Y + d.Y}
		if gs.CurrentRoom().ConnectsTo(next) {
			dir = name
			break
		}
	}
	if dir == "" {
		t.Fatal("entrance has no exit")
	}

	res := do(t, s, "/go "+dir)
	if !res.TurnConsumed {
		t.Error("move did not consume a turn")
	}
	if res.Text == "" {
		t.Error("move produced no narration")
	}
	if s.State().Turn != 1 {
		t.Errorf("turn %d after one move", s.State().Turn)
	}

	// The narrator was asked for a brief movement description.
	calls := narrator.GenerateTurnCalls
	if len(calls) != 1 || !calls[0].Brief {
		t.Errorf("narrator calls %d, brief=%v", len(calls), len(calls) > 0 && calls[0].Brief)
	}
}

func TestDo_MoveFallsBackWhenNarratorFails(t *testing.T) {
	s, narrator, _ := newTestSession(t)
	narrator.SetGenerateTurnError(errors.New("model offline"))

	gs := s.State()
	dir := ""
	for _, name := range dungeon.DirectionNames {
		d := dungeon.Directions[name]
		next := dungeon.Coord{X: gs.Position.X + d.X, Y: gs.Position.Y + d.Y}
		if gs.CurrentRoom().ConnectsTo(next) {
			dir = name
			break
		}
	}

	res := do(t, s, "/go "+dir)
	if !res.TurnConsumed {
		t.Error("move did not consume a turn despite narrator failure")
	}
	if !strings.Contains(res.Text, "room") {
		t.Errorf("fallback description missing: %q", res.Text)
	}
}

func TestDo_NarrativeTurnMergesDelta(t *testing.T) {
	s, narrator, _ := newTestSession(t)
	xp := 25
	narrator.GenerateTurnFunc = func(ctx context.Context, req *chat.TurnRequest) (*chat.TurnResponse, error) {
		return &chat.TurnResponse{
			Narrative:  "You pry a coin from the cracked flagstones.",
			Delta:      &state.Delta{Player: &state.PlayerDelta{XPGained: &xp}},
			Generation: req.Generation,
		}, nil
	}

	res := do(t, s, "I search the floor for loose stones")
	if !res.TurnConsumed {
		t.Error("narrative turn did not consume a turn")
	}
	if s.State().Hero.XP != 25 {
		t.Errorf("hero XP %d, want 25 from the merge", s.State().Hero.XP)
	}
	if s.State().Turn != 1 {
		t.Errorf("turn %d after one narrative turn", s.State().Turn)
	}
	if s.State().History.Len() != 1 {
		t.Error("turn not recorded in history")
	}
}

func TestDo_NarratorErrorSurfaces(t *testing.T) {
	s, narrator, _ := newTestSession(t)
	narrator.SetGenerateTurnError(errors.New("timeout"))

	_, err := s.Do(context.Background(), "I listen at the door")
	if err == nil {
		t.Fatal("expected error from failed narrative turn")
	}
	if s.State().Turn != 0 {
		t.Error("failed narrative turn advanced the turn counter")
	}
}

func TestDo_StaleResponseDiscarded(t *testing.T) {
	s, narrator, _ := newTestSession(t)
	narrator.GenerateTurnFunc = func(ctx context.Context, req *chat.TurnRequest) (*chat.TurnResponse, error) {
		// Simulate a response that arrives after a newer request was
		// issued by tagging it with an outdated generation.
		return &chat.TurnResponse{Narrative: "old news", Generation: req.Generation - 1}, nil
	}

	res := do(t, s, "I shout into the darkness")
	if !res.Stale {
		t.Error("stale response not flagged")
	}
	if res.TurnConsumed || s.State().Turn != 0 {
		t.Error("stale response consumed a turn")
	}
	if s.State().History.Len() != 0 {
		t.Error("stale response was recorded")
	}
}

func TestDo_HintGating(t *testing.T) {
	s, narrator, _ := newTestSession(t)
	narrator.GenerateTurnFunc = func(ctx context.Context, req *chat.TurnRequest) (*chat.TurnResponse, error) {
		return &chat.TurnResponse{
			Narrative:  "The shadows hold possibilities.",
			Options:    []string{"loot the room", "go east"},
			Generation: req.Generation,
		}, nil
	}

	// Unsolicited options are stripped.
	res := do(t, s, "I ponder my next move")
	if len(res.Options) != 0 {
		t.Errorf("unrequested options survived: %v", res.Options)
	}

	// /hint requests them explicitly and consumes no turn.
	res = do(t, s, "/hint")
	if len(res.Options) != 2 {
		t.Errorf("hint options %v, want 2", res.Options)
	}
	if res.TurnConsumed {
		t.Error("hint consumed a turn")
	}
	calls := narrator.GenerateTurnCalls
	if len(calls) != 2 || !calls[1].WantHints {
		t.Error("hint request not flagged WantHints")
	}
}

func TestDo_HintOptionsCapped(t *testing.T) {
	s, narrator, _ := newTestSession(t)
	narrator.GenerateTurnFunc = func(ctx context.Context, req *chat.TurnRequest) (*chat.TurnResponse, error) {
		return &chat.TurnResponse{
			Narrative:  "So many choices.",
			Options:    []string{"a", "b", "c", "d", "e", "f", "g"},
			Generation: req.Generation,
		}, nil
	}

	res := do(t, s, "/hint")
	if len(res.Options) != chat.MaxOptions {
		t.Errorf("%d options survived, want %d", len(res.Options), chat.MaxOptions)
	}
}

func TestDo_ThreatRetaliation(t *testing.T) {
	s, _, _ := newTestSession(t)
	gs := s.State()
	goblin, _ := actor.NewEnemy("goblin")
	gs.CurrentRoom().Enemies = []*actor.Enemy{goblin}
	goblin.MaxHealth = 1000
	goblin.Health = 1000 // survives any single hit
	startHealth := gs.Hero.Health

	res := do(t, s, "/attack goblin")
	if !res.TurnConsumed {
		t.Error("attack did not consume a turn")
	}
	if !strings.Contains(res.Text, "strikes you") {
		t.Errorf("no retaliation line in %q", res.Text)
	}
	if gs.Hero.Health != startHealth-goblin.Attack {
		t.Errorf("hero health %d, want %d", gs.Hero.Health, startHealth-goblin.Attack)
	}
}

func TestDo_DefeatedThreatDoesNotStrike(t *testing.T) {
	s, _, _ := newTestSession(t)
	gs := s.State()
	slime, _ := actor.NewEnemy("slime") // dies to any fighter hit
	gs.CurrentRoom().Enemies = []*actor.Enemy{slime}
	startHealth := gs.Hero.Health

	res := do(t, s, "/attack slime")
	if !strings.Contains(res.Text, "slain") {
		t.Errorf("slime survived: %q", res.Text)
	}
	if gs.Hero.Health != startHealth {
		t.Errorf("dead slime still struck: health %d", gs.Hero.Health)
	}
}

func TestDo_EquipUnequip(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.State().Hero.AddItem("rusty axe")

	res := do(t, s, "/equip rusty axe")
	if !strings.Contains(res.Text, "equip") || res.TurnConsumed {
		t.Errorf("equip result %+v", res)
	}
	res = do(t, s, "/unequip weapon")
	if !strings.Contains(res.Text, "unequip") {
		t.Errorf("unequip result %+v", res)
	}

	res = do(t, s, "/equip excalibur")
	if !strings.Contains(res.Text, "not carrying") {
		t.Errorf("missing item text %q", res.Text)
	}
}

func TestDo_SaveLoadRoundTrip(t *testing.T) {
	s, _, store := newTestSession(t)

	res := do(t, s, "/save")
	if res.Text != "Game saved." {
		t.Errorf("save text %q", res.Text)
	}
	if store.SaveCalls != 1 {
		t.Errorf("save calls %d", store.SaveCalls)
	}

	// Mutate, then load the snapshot back.
	s.State().Hero.TakeDamage(10)
	damaged := s.State().Hero.Health

	res = do(t, s, "/load")
	if !strings.Contains(res.Text, "Game loaded.") {
		t.Errorf("load text %q", res.Text)
	}
	if s.State().Hero.Health == damaged {
		t.Error("load did not restore the snapshot")
	}
}

func TestDo_SaveWithoutStore(t *testing.T) {
	gs, err := state.NewGameState(1337, 6, 6, "fighter")
	if err != nil {
		t.Fatalf("NewGameState failed: %v", err)
	}
	s := New(gs, services.NewMockNarrator(), nil, testLogger())

	res := do(t, s, "/save")
	if !strings.Contains(res.Text, "not configured") {
		t.Errorf("save without store: %q", res.Text)
	}
}

func TestDo_LoadFailureKeepsCurrentState(t *testing.T) {
	s, _, store := newTestSession(t)
	do(t, s, "/save")
	store.LoadErr = errors.New("backend down")

	beforeTurn := s.State().Turn
	res := do(t, s, "/load")
	if !strings.Contains(res.Text, "could not be read") {
		t.Errorf("load failure text %q", res.Text)
	}
	if s.State().Turn != beforeTurn {
		t.Error("failed load replaced the state")
	}
}

func TestDo_AutosaveAfterTurn(t *testing.T) {
	s, _, store := newTestSession(t)
	do(t, s, "I tap the walls")
	if store.SaveCalls != 1 {
		t.Errorf("autosave calls %d, want 1", store.SaveCalls)
	}
}

func TestDo_HeroDeathEndsGame(t *testing.T) {
	s, _, _ := newTestSession(t)
	gs := s.State()
	gs.Hero.SetHealth(1)
	goblin, _ := actor.NewEnemy("goblin")
	goblin.MaxHealth = 1000
	goblin.Health = 1000
	gs.CurrentRoom().Enemies = []*actor.Enemy{goblin}

	res := do(t, s, "/attack goblin")
	if !res.GameOver {
		t.Error("death did not end the game")
	}
	if !strings.Contains(res.Text, "fallen") {
		t.Errorf("no death line in %q", res.Text)
	}
	if !gs.GameOver {
		t.Error("GameOver flag not set on the state")
	}
}

func TestDo_BossDefeatEndsGame(t *testing.T) {
	s, _, _ := newTestSession(t)
	gs := s.State()

	// Reduce the boss to one hit and bring it to the player.
	var boss *actor.Enemy
	for _, c := range gs.Grid.Coords() {
		for _, e := range gs.Grid.Rooms[c].LivingEnemies() {
			if e.IsBoss() {
				boss = e
				gs.Grid.Rooms[c].RemoveEnemy(e)
			}
		}
	}
	if boss == nil {
		t.Fatal("boss missing")
	}
	boss.Health = 1
	gs.CurrentRoom().Enemies = append(gs.CurrentRoom().Enemies, boss)

	res := do(t, s, "/attack")
	if !res.GameOver || !gs.GameOver {
		t.Error("boss defeat did not end the game")
	}
	if !strings.Contains(res.Text, "victorious") {
		t.Errorf("no victory line in %q", res.Text)
	}
}

func TestDo_GameOverNarrativeStillAnswers(t *testing.T) {
	s, narrator, _ := newTestSession(t)
	s.State().GameOver = true

	res := do(t, s, "what happened?")
	if res.TurnConsumed {
		t.Error("post-game narration consumed a turn")
	}
	if res.Text == "" {
		t.Error("post-game narration empty")
	}
	calls := narrator.GenerateTurnCalls
	if len(calls) != 1 || !calls[0].GameOver {
		t.Error("post-game request not flagged GameOver")
	}
}

func TestDo_SpawnOnInterval(t *testing.T) {
	s, _, _ := newTestSession(t)
	gs := s.State()

	// Clear the dungeon of common enemies so the cap cannot interfere.
	for _, c := range gs.Grid.Coords() {
		room := gs.Grid.Rooms[c]
		var keep []*actor.Enemy
		for _, e := range room.Enemies {
			if e.IsBoss() {
				keep = append(keep, e)
			}
		}
		room.Enemies = keep
	}

	for i := 0; i < SpawnInterval; i++ {
		do(t, s, "I wait and listen")
	}
	if gs.Turn != SpawnInterval {
		t.Fatalf("turn %d, want %d", gs.Turn, SpawnInterval)
	}
	if gs.CountCommonEnemies() != 1 {
		t.Errorf("%d common enemies after the spawn interval, want 1", gs.CountCommonEnemies())
	}
}
