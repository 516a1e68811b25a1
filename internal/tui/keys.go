package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle   key.Binding
	Dark     key.Binding
	Light    key.Binding
	Next     key.Binding
	Prev     key.Binding
	Home     key.Binding
	Projects key.Binding
	Theme    key.Binding
	Up       key.Binding
	Down     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Toggle:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle theme")),
		Dark:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dark")),
		Light:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "light")),
		Next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next page")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous page")),
		Home:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "home")),
		Projects: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "projects")),
		Theme:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "appearance")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Next, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Dark, k.Light},
		{k.Next, k.Prev, k.Home, k.Projects, k.Theme},
		{k.Up, k.Down, k.Help, k.Quit},
	}
}
