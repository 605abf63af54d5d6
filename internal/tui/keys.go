package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Submit key.Binding
	Focus  key.Binding
	Toggle key.Binding
	Delete key.Binding
	Edit   key.Binding
	Quit   key.Binding
	Abort  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add")),
		Focus:  key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch focus")),
		Toggle: key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle")),
		Delete: key.NewBinding(key.WithKeys("d", "x", "delete"), key.WithHelp("d", "delete")),
		Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
		Abort:  key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

// listKeys are shown in the list's help line next to its own bindings.
func (k keyMap) listKeys() []key.Binding {
	return []key.Binding{k.Toggle, k.Delete, k.Edit, k.Focus}
}
