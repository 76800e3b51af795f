package enums

import "fmt"

// ActionKind names a presentation-layer action routed through a session.
type ActionKind string

const (
	ActionSetQuantity      ActionKind = "set_quantity"
	ActionIncrement        ActionKind = "increment"
	ActionDecrement        ActionKind = "decrement"
	ActionRemoveLine       ActionKind = "remove_line"
	ActionSpecialIncrement ActionKind = "special_increment"
	ActionSpecialDecrement ActionKind = "special_decrement"
	ActionCommitDraft      ActionKind = "commit_draft"
	ActionRemoveDraft      ActionKind = "remove_draft"
	ActionFinalizeSpecial  ActionKind = "finalize_special"
	ActionUpdateClient     ActionKind = "update_client"
	ActionUpdateNotes      ActionKind = "update_notes"
	ActionSave             ActionKind = "save"
	ActionPrepareDelivery  ActionKind = "prepare_delivery"
	ActionConfirmDelivery  ActionKind = "confirm_delivery"
	ActionAbortDelivery    ActionKind = "abort_delivery"
	ActionDeliver          ActionKind = "deliver"
	ActionReset            ActionKind = "reset"
)

var validActionKinds = []ActionKind{
	ActionSetQuantity,
	ActionIncrement,
	ActionDecrement,
	ActionRemoveLine,
	ActionSpecialIncrement,
	ActionSpecialDecrement,
	ActionCommitDraft,
	ActionRemoveDraft,
	ActionFinalizeSpecial,
	ActionUpdateClient,
	ActionUpdateNotes,
	ActionSave,
	ActionPrepareDelivery,
	ActionConfirmDelivery,
	ActionAbortDelivery,
	ActionDeliver,
	ActionReset,
}

// String implements fmt.Stringer.
func (a ActionKind) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActionKind.
func (a ActionKind) IsValid() bool {
	for _, candidate := range validActionKinds {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActionKind converts raw input into an ActionKind.
func ParseActionKind(value string) (ActionKind, error) {
	for _, candidate := range validActionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid action kind %q", value)
}
