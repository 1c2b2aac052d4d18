package domain

// EventType identifies a logical input event.
type EventType string

const (
	EventKeyPress        EventType = "key_press"
	EventSelectionChange EventType = "selection_change"
	EventSubmitRequested EventType = "submit_requested"
	EventCancelRequested EventType = "cancel_requested"

	// Navigation shortcuts for line-oriented and remote clients that
	// cannot express them as key presses.
	EventAdvance   EventType = "advance"
	EventRetreat   EventType = "retreat"
	EventFocusNext EventType = "focus_next"
	EventFocusPrev EventType = "focus_prev"
	EventFocus     EventType = "focus"
)

// KeyCode is a decoded logical key. Raw terminal decoding is the input source's job.
type KeyCode string

const (
	KeyRune      KeyCode = "rune"
	KeyEnter     KeyCode = "enter"
	KeyTab       KeyCode = "tab"
	KeyShiftTab  KeyCode = "shift_tab"
	KeyBackspace KeyCode = "backspace"
	KeyDelete    KeyCode = "delete"
	KeyEsc       KeyCode = "esc"
	KeyUp        KeyCode = "up"
	KeyDown      KeyCode = "down"
	KeyLeft      KeyCode = "left"
	KeyRight     KeyCode = "right"
	KeySpace     KeyCode = "space"
	KeyHome      KeyCode = "home"
	KeyEnd       KeyCode = "end"
)

// Key is a single key press. Text carries the typed characters for KeyRune
// (more than one rune when the terminal delivers a paste).
type Key struct {
	Code KeyCode `json:"code"`
	Text string  `json:"text,omitempty"`
}

// Event is delivered by an input source to a session's event loop.
type Event struct {
	Type    EventType `json:"type"`
	Key     *Key      `json:"key,omitempty"`
	Control string    `json:"control,omitempty"`
	Value   any       `json:"value,omitempty"`
}

// KeyPress builds a key press event.
func KeyPress(code KeyCode) Event {
	return Event{Type: EventKeyPress, Key: &Key{Code: code}}
}

// TypeText builds a key press event carrying printable text.
func TypeText(text string) Event {
	return Event{Type: EventKeyPress, Key: &Key{Code: KeyRune, Text: text}}
}

// SelectionChange builds an event that sets a control value directly.
func SelectionChange(control string, value any) Event {
	return Event{Type: EventSelectionChange, Control: control, Value: value}
}

// SubmitRequested builds a submit event.
func SubmitRequested() Event { return Event{Type: EventSubmitRequested} }

// CancelRequested builds a cancel event.
func CancelRequested() Event { return Event{Type: EventCancelRequested} }
