package models

// ChoiceKind classifies an entry in a choice list.
type ChoiceKind string

const (
	KindAccount ChoiceKind = "account"
	KindFolder  ChoiceKind = "folder"
	KindFile    ChoiceKind = "file"
)

const (
	// LocationRoot is the sentinel for "no account chosen yet". It is the
	// empty string on purpose so the zero-value NavState starts at root.
	LocationRoot = ""

	// AccountRoot marks the top-level folder of the selected account.
	AccountRoot = "root"
)

// Choice is one numbered entry from the most recent listing. Index-based
// commands (cd N, get N, send N) resolve against the choice list that
// produced it.
type Choice struct {
	Kind  ChoiceKind `json:"kind"`
	ID    string     `json:"id"`
	Label string     `json:"label"`
}

// NavState is the per-identity navigation record. It is read and rewritten
// on every inbound command; the zero value is the initial state (at root,
// no account selected, nothing listed).
type NavState struct {
	Location        string   `json:"location"`
	SelectedAccount string   `json:"selected_account"`
	ParentStack     []string `json:"parent_stack"`
	LastChoices     []Choice `json:"last_choices"`
}

// AtRoot reports whether the state is at the account-picker level.
// Invariant: ParentStack is empty exactly when this is true.
func (s *NavState) AtRoot() bool {
	return s.Location == LocationRoot
}

// Descend pushes the current location and moves to the given one.
func (s *NavState) Descend(location string) {
	s.ParentStack = append(s.ParentStack, s.Location)
	s.Location = location
}

// Ascend pops the parent stack into Location. Returns false when already
// at the top level, in which case nothing changes.
func (s *NavState) Ascend() bool {
	if len(s.ParentStack) == 0 {
		return false
	}
	s.Location = s.ParentStack[len(s.ParentStack)-1]
	s.ParentStack = s.ParentStack[:len(s.ParentStack)-1]
	if s.AtRoot() {
		s.SelectedAccount = ""
	}
	return true
}

// Reset returns the state to its initial value. Always total; this is the
// recovery path every error message points at.
func (s *NavState) Reset() {
	s.Location = LocationRoot
	s.SelectedAccount = ""
	s.ParentStack = nil
	s.LastChoices = nil
}
