package state

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		wantType CommandType
		wantArg  string
	}{
		{"", CmdNone, ""},
		{"   ", CmdNone, ""},
		{"/help", CmdHelp, ""},
		{"/look", CmdLook, ""},
		{"/l", CmdLook, ""},
		{"/inventory", CmdInventory, ""},
		{"/i", CmdInventory, ""},
		{"/stats", CmdStats, ""},
		{"/map", CmdMap, ""},
		{"/save", CmdSave, ""},
		{"/load", CmdLoad, ""},
		{"/equip rusty axe", CmdEquip, "rusty axe"},
		{"/unequip weapon", CmdUnequip, "weapon"},
		{"/use health potion", CmdUse, "health potion"},
		{"/attack goblin", CmdAttack, "goblin"},
		{"/a", CmdAttack, ""},
		{"/ability", CmdAbility, ""},
		{"/hint", CmdHint, ""},
		{"/go north", CmdGo, "north"},
		{"/go n", CmdGo, "north"},
		{"/move s", CmdGo, "south"},
		{"/quit", CmdQuit, ""},
		{"/exit", CmdQuit, ""},
		{"/q", CmdQuit, ""},
		{"/GO NORTH", CmdGo, "north"},

		// Unknown slash commands are local errors, never narrative.
		{"/dance", CmdUnknown, "dance"},
		{"/", CmdUnknown, ""},

		// Bare directions are movement shorthands.
		{"north", CmdGo, "north"},
		{"N", CmdGo, "north"},
		{"go west", CmdGo, "west"},
		{"e", CmdGo, "east"},

		// Everything else goes to the narrator.
		{"I search the walls for secret doors", CmdNarrative, "I search the walls for secret doors"},
		{"go away you goblin", CmdNarrative, "go away you goblin"},
		{"northward ho", CmdNarrative, "northward ho"},
	}

	for _, tt := range tests {
		got := ParseCommand(tt.input)
		if got.Type != tt.wantType {
			t.Errorf("ParseCommand(%q).Type = %q, want %q", tt.input, got.Type, tt.wantType)
		}
		if got.Arg != tt.wantArg {
			t.Errorf("ParseCommand(%q).Arg = %q, want %q", tt.input, got.Arg, tt.wantArg)
		}
	}
}
