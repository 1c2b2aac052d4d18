package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aretw0/stepform/pkg/domain"
)

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Back   key.Binding
	Toggle key.Binding
	Submit key.Binding
	Quit   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Next:   key.NewBinding(key.WithKeys("tab", "enter"), key.WithHelp("tab/enter", "next")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Submit: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "cancel")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Back, k.Toggle, k.Submit, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keyCodes = map[tea.KeyType]domain.KeyCode{
	tea.KeyEnter:     domain.KeyEnter,
	tea.KeyTab:       domain.KeyTab,
	tea.KeyShiftTab:  domain.KeyShiftTab,
	tea.KeyBackspace: domain.KeyBackspace,
	tea.KeyDelete:    domain.KeyDelete,
	tea.KeyEsc:       domain.KeyEsc,
	tea.KeyUp:        domain.KeyUp,
	tea.KeyDown:      domain.KeyDown,
	tea.KeyLeft:      domain.KeyLeft,
	tea.KeyRight:     domain.KeyRight,
	tea.KeySpace:     domain.KeySpace,
	tea.KeyHome:      domain.KeyHome,
	tea.KeyEnd:       domain.KeyEnd,
}

// translate turns a terminal key into a form event. Keys the form has no
// use for report false.
func (k keyMap) translate(msg tea.KeyMsg) (domain.Event, bool) {
	switch {
	case key.Matches(msg, k.Quit):
		return domain.CancelRequested(), true
	case key.Matches(msg, k.Submit):
		return domain.SubmitRequested(), true
	}
	if msg.Type == tea.KeyRunes {
		if !msg.Paste && string(msg.Runes) == " " {
			return domain.KeyPress(domain.KeySpace), true
		}
		return domain.TypeText(string(msg.Runes)), true
	}
	if code, ok := keyCodes[msg.Type]; ok {
		return domain.KeyPress(code), true
	}
	return domain.Event{}, false
}
