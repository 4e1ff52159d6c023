package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Calculate key.Binding
	Clear     key.Binding
	Backspace key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Calculate: key.NewBinding(
			key.WithKeys("enter", "="),
			key.WithHelp("enter/=", "calculate"),
		),
		Clear: key.NewBinding(
			key.WithKeys("esc", "delete", "c", "C"),
			key.WithHelp("esc/del/c", "clear"),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("⌫", "erase"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Calculate, k.Clear, k.Backspace, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
