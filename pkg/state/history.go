package state

import "encoding/json"

// HistoryCapacity bounds the rolling turn history. Oldest entries are
// evicted first.
const HistoryCapacity = 50

// PromptHistoryLimit caps how many recent turns are sent to the
// narrator for context.
const PromptHistoryLimit = 10

// TurnRecord is one remembered turn.
type TurnRecord struct {
	Turn      int    `json:"turn"`
	Command   string `json:"command"`
	Narrative string `json:"narrative,omitempty"`
}

// TurnHistory is a fixed-capacity ring buffer of recent turns.
type TurnHistory struct {
	entries []TurnRecord
	start   int
	count   int
}

// NewTurnHistory creates an empty history with the default capacity.
func NewTurnHistory() *TurnHistory {
	return &TurnHistory{entries: make([]TurnRecord, HistoryCapacity)}
}

// Push appends a record, evicting the oldest when full.
func (h *TurnHistory) Push(rec TurnRecord) {
	if len(h.entries) == 0 {
		h.entries = make([]TurnRecord, HistoryCapacity)
	}
	idx := (h.start + h.count) % len(h.entries)
	h.entries[idx] = rec
	if h.count < len(h.entries) {
		h.count++
	} else {
		h.start = (h.start + 1) % len(h.entries)
	}
}

// Len returns the number of stored records.
func (h *TurnHistory) Len() int {
	return h.count
}

// All returns the records oldest-first.
func (h *TurnHistory) All() []TurnRecord {
	out := make([]TurnRecord, 0, h.count)
	for i := 0; i < h.count; i++ {
		out = append(out, h.entries[(h.start+i)%len(h.entries)])
	}
	return out
}

// Recent returns at most n of the newest records, oldest-first.
func (h *TurnHistory) Recent(n int) []TurnRecord {
	all := h.All()
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all
}

// MarshalJSON serializes the history as an ordered array.
func (h *TurnHistory) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.All())
}

// UnmarshalJSON restores the history from an ordered array, keeping
// only the newest HistoryCapacity records.
func (h *TurnHistory) UnmarshalJSON(data []byte) error {
	var records []TurnRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	h.entries = make([]TurnRecord, HistoryCapacity)
	h.start = 0
	h.count = 0
	for _, rec := range records {
		h.Push(rec)
	}
	return nil
}
