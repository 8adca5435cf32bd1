// Command validate checks saved game files against the engine's state
// invariants. Useful after hand-editing a save or when a session
// refuses to load one.
//
// Usage: validate <save.json> [more saves...]
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/torchlit/dungeongpt/pkg/state"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <save.json> [more saves...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := 0
	for _, filename := range os.Args[1:] {
		if err := validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", filename, err)
			failed++
			continue
		}
		fmt.Printf("%s: ok\n", filename)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func validateFile(filename string) error {
	if !strings.HasSuffix(filename, ".json") {
		return fmt.Errorf("save files are JSON; expected a .json extension")
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("file is not valid JSON")
	}

	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return fmt.Errorf("failed to unmarshal game state: %w", err)
	}
	if err := gs.Validate(); err != nil {
		return err
	}

	fmt.Printf("  seed %d, %dx%d grid, %s level %d, turn %d\n",
		gs.Seed, gs.Grid.Width, gs.Grid.Height,
		gs.Hero.Class, gs.Hero.Level, gs.Turn)
	return nil
}
