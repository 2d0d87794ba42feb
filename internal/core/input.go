package core

import "fmt"

// Action is one of the discrete input commands accepted by an engine.
// Commands carry no parameters beyond the tag.
type Action int

const (
	ActionNone Action = iota
	ActionMoveLeft
	ActionMoveRight
	ActionSoftDrop
	ActionHardDrop
	ActionRotateCW
	ActionRotateCCW
	ActionHold
	ActionPauseToggle
)

var actionNames = map[Action]string{
	ActionNone:        "none",
	ActionMoveLeft:    "moveLeft",
	ActionMoveRight:   "moveRight",
	ActionSoftDrop:    "softDrop",
	ActionHardDrop:    "hardDrop",
	ActionRotateCW:    "rotateCW",
	ActionRotateCCW:   "rotateCCW",
	ActionHold:        "hold",
	ActionPauseToggle: "pauseToggle",
}

// String returns the wire tag of the action (e.g. "moveLeft").
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAction converts a wire tag back to an Action.
func ParseAction(s string) (Action, error) {
	for a, name := range actionNames {
		if a != ActionNone && name == s {
			return a, nil
		}
	}
	return ActionNone, fmt.Errorf("core: unknown action %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// InputFrame holds the actions collected for a single engine step.
// Actions are applied in the order they were added.
type InputFrame struct {
	Actions []Action
}

// NewInputFrame creates an input frame holding the given actions.
func NewInputFrame(actions ...Action) InputFrame {
	return InputFrame{Actions: append([]Action(nil), actions...)}
}

// Set appends an action to the frame.
func (f *InputFrame) Set(a Action) {
	if a == ActionNone {
		return
	}
	f.Actions = append(f.Actions, a)
}

// Has returns true if the given action is part of this frame.
func (f InputFrame) Has(a Action) bool {
	for _, got := range f.Actions {
		if got == a {
			return true
		}
	}
	return false
}

// Len returns the number of actions in the frame.
func (f InputFrame) Len() int {
	return len(f.Actions)
}

// Clear resets the frame for the next step.
func (f *InputFrame) Clear() {
	f.Actions = f.Actions[:0]
}

// Clone creates a copy of this input frame.
func (f InputFrame) Clone() InputFrame {
	return NewInputFrame(f.Actions...)
}
