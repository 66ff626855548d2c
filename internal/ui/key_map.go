package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	toggle  key.Binding
	all     key.Binding
	edit    key.Binding
	remove  key.Binding
	search  key.Binding
	clear   key.Binding
	next    key.Binding
	prev    key.Binding
	match   key.Binding
	sweep   key.Binding
	yes     key.Binding
	no      key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle row")),
		all:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select page")),
		edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit row")),
		remove:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove row")),
		search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		clear:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "clear filters")),
		next:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next page")),
		prev:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev page")),
		match:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "match selected")),
		sweep:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "retraction sweep")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.toggle, k.all, k.edit, k.remove},
		{k.search, k.clear, k.next, k.prev},
		{k.match, k.sweep, k.restart, k.quit},
	}
}
