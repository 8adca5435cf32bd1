package state

import "strings"

// CommandType classifies parsed player input.
type CommandType string

const (
	CmdHelp      CommandType = "help"
	CmdLook      CommandType = "look"
	CmdLoot      CommandType = "loot"
	CmdInventory CommandType = "inventory"
	CmdStats     CommandType = "stats"
	CmdMap       CommandType = "map"
	CmdSave      CommandType = "save"
	CmdLoad      CommandType = "load"
	CmdEquip     CommandType = "equip"
	CmdUnequip   CommandType = "unequip"
	CmdUse       CommandType = "use"
	CmdAttack    CommandType = "attack"
	CmdAbility   CommandType = "ability"
	CmdHint      CommandType = "hint"
	CmdGo        CommandType = "go"
	CmdQuit      CommandType = "quit"

	// CmdNarrative is free-form text for the narrator.
	CmdNarrative CommandType = "narrative"

	// CmdUnknown is unrecognized leading-slash input. It is a local
	// error, never forwarded as narrative text.
	CmdUnknown CommandType = "unknown"

	CmdNone CommandType = ""
)

// Command is one parsed line of player input.
type Command struct {
	Type CommandType
	Arg  string
	Raw  string
}

var metaCommands = map[string]CommandType{
	"help":      CmdHelp,
	"look":      CmdLook,
	"l":         CmdLook,
	"loot":      CmdLoot,
	"inventory": CmdInventory,
	"i":         CmdInventory,
	"stats":     CmdStats,
	"map":       CmdMap,
	"save":      CmdSave,
	"load":      CmdLoad,
	"equip":     CmdEquip,
	"unequip":   CmdUnequip,
	"use":       CmdUse,
	"attack":    CmdAttack,
	"a":         CmdAttack,
	"ability":   CmdAbility,
	"hint":      CmdHint,
	"go":        CmdGo,
	"move":      CmdGo,
	"quit":      CmdQuit,
	"exit":      CmdQuit,
	"q":         CmdQuit,
}

var directionAliases = map[string]string{
	"n": "north", "north": "north",
	"s": "south", "south": "south",
	"e": "east", "east": "east",
	"w": "west", "west": "west",
}

// ParseCommand classifies raw input. Leading-slash input is a meta
// command (unknown ones are CmdUnknown, a local error); bare
// directions are movement shorthands; everything else is narrative
// text for the collaborator.
func ParseCommand(input string) Command {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{Type: CmdNone, Raw: raw}
	}
	lower := strings.ToLower(raw)

	if strings.HasPrefix(lower, "/") {
		fields := strings.Fields(lower[1:])
		if len(fields) == 0 {
			return Command{Type: CmdUnknown, Raw: raw}
		}
		cmd, ok := metaCommands[fields[0]]
		if !ok {
			return Command{Type: CmdUnknown, Arg: fields[0], Raw: raw}
		}
		arg := strings.TrimSpace(strings.Join(fields[1:], " "))
		if cmd == CmdGo {
			if dir, ok := directionAliases[arg]; ok {
				arg = dir
			}
		}
		return Command{Type: cmd, Arg: arg, Raw: raw}
	}

	// Bare direction shorthands count as movement.
	if dir, ok := directionAliases[lower]; ok {
		return Command{Type: CmdGo, Arg: dir, Raw: raw}
	}
	if rest, ok := strings.CutPrefix(lower, "go "); ok {
		if dir, found := directionAliases[strings.TrimSpace(rest)]; found {
			return Command{Type: CmdGo, Arg: dir, Raw: raw}
		}
	}

	return Command{Type: CmdNarrative, Arg: raw, Raw: raw}
}

// HelpText lists the meta commands for the /help command.
const HelpText = `Available commands:
  /help           Show this help message
  /look           Describe the current room
  /loot           Pick up all items in the room
  /inventory      Show your inventory and equipment
  /stats          Show your stats
  /map            Show a map of the dungeon
  /go <direction> Move north, south, east or west
  /attack [enemy] Attack an enemy in the room
  /ability        Use your hero's special ability
  /equip <item>   Equip a weapon or piece of armor
  /unequip <slot> Unequip a slot (weapon, body, feet, head)
  /use <item>     Use a consumable item
  /hint           Ask the narrator for suggestions
  /save           Save your game
  /load           Load your game
  /quit, /exit    Quit the game
Anything else is said to the Dungeon Master.`
