package state

import "errors"

// Gameplay error taxonomy. All of these are recoverable at the command
// layer: they are reported to the user and never consume a turn.
var (
	// ErrInvalidMove means no connection exists in the requested
	// direction from the current room.
	ErrInvalidMove = errors.New("no passage in that direction")

	// ErrUnknownItem means the named item is not in the inventory.
	ErrUnknownItem = errors.New("no such item in inventory")

	// ErrNoSlot means the item has no equip classification.
	ErrNoSlot = errors.New("item cannot be equipped")

	// ErrEmptySlot means nothing is equipped in the slot.
	ErrEmptySlot = errors.New("nothing equipped in that slot")

	// ErrNotUsable means the item has no consumable effect.
	ErrNotUsable = errors.New("item cannot be used")

	// ErrCorruptSave means a loaded snapshot failed invariant
	// validation. The load is refused and the current state stands.
	ErrCorruptSave = errors.New("save data failed validation")
)
