package models

// Slot is one required field of the booking. A slot carries an
// unconfirmed candidate until the caller explicitly acknowledges it;
// only then is Confirmed set. Extraction never clears a confirmed slot
// on its own — the confirmation protocol must reject it first.
type Slot struct {
	Name         FieldName `json:"name"`
	RawCandidate string    `json:"rawCandidate,omitempty"`
	Value        string    `json:"value,omitempty"`
	// Date and Clock are used by the datetime slot only, so a partial
	// answer ("next Monday") can be held while the time is collected.
	Date      string `json:"date,omitempty"`
	Clock     string `json:"clock,omitempty"`
	Confirmed bool   `json:"confirmed"`
}

// HasValue reports whether the slot holds a complete typed value.
func (s *Slot) HasValue() bool {
	if s.Name == FieldDateTime {
		return s.Date != "" && s.Clock != ""
	}
	return s.Value != ""
}

// SlotStore is the conversation's working memory: exactly one slot per
// required field, all present from session start.
type SlotStore struct {
	Slots map[FieldName]*Slot `json:"slots"`
}

func NewSlotStore() *SlotStore {
	store := &SlotStore{Slots: make(map[FieldName]*Slot, len(FieldOrder))}
	for _, f := range FieldOrder {
		store.Slots[f] = &Slot{Name: f}
	}
	return store
}

func (ss *SlotStore) Get(f FieldName) *Slot {
	return ss.Slots[f]
}

// Apply records an extracted candidate for a simple field. A confirmed
// slot is left untouched unless the restated value is identical, which
// is a no-op either way.
func (ss *SlotStore) Apply(f FieldName, raw, value string) {
	slot := ss.Slots[f]
	if slot.Confirmed {
		return
	}
	slot.RawCandidate = raw
	slot.Value = value
}

// ApplyDateTime merges extracted date/time parts into the datetime
// slot. Either part may be empty; known parts are retained so the
// dialogue can ask for just the missing half.
func (ss *SlotStore) ApplyDateTime(raw, date, clock string) {
	slot := ss.Slots[FieldDateTime]
	if slot.Confirmed {
		return
	}
	slot.RawCandidate = raw
	if date != "" {
		slot.Date = date
	}
	if clock != "" {
		slot.Clock = clock
	}
	if slot.Date != "" && slot.Clock != "" {
		slot.Value = slot.Date + " " + slot.Clock
	}
}

// Confirm marks a slot as acknowledged by the caller. Confirming a slot
// that holds no value is ignored.
func (ss *SlotStore) Confirm(f FieldName) {
	slot := ss.Slots[f]
	if slot.HasValue() {
		slot.Confirmed = true
	}
}

// Reject clears the candidate after the caller denies it.
func (ss *SlotStore) Reject(f FieldName) {
	slot := ss.Slots[f]
	slot.RawCandidate = ""
	slot.Value = ""
	slot.Date = ""
	slot.Clock = ""
	slot.Confirmed = false
}

// AllConfirmed reports whether every slot has been confirmed.
func (ss *SlotStore) AllConfirmed() bool {
	for _, f := range FieldOrder {
		if !ss.Slots[f].Confirmed {
			return false
		}
	}
	return true
}

// Missing returns the unconfirmed fields in collection order.
func (ss *SlotStore) Missing() []FieldName {
	var out []FieldName
	for _, f := range FieldOrder {
		if !ss.Slots[f].Confirmed {
			out = append(out, f)
		}
	}
	return out
}
