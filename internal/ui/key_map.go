package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap carries the bindings for the catalog browser, one field per action
// surfaced in the help line of some view.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	details key.Binding
	watch   key.Binding
	back    key.Binding
	confirm key.Binding
	cancel  key.Binding
	browse  key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		details: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		watch:   key.NewBinding(key.WithKeys("enter", "w"), key.WithHelp("enter/w", "watch")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		confirm: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		cancel:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		browse:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "browse")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.details},
		{k.watch, k.back},
		{k.confirm, k.cancel},
		{k.browse, k.quit},
	}
}
