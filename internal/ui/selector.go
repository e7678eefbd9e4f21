package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// SelectorItem is one choice in a Selector
type SelectorItem struct {
	ID          string
	Label       string
	Description string
}

// Selector is an inline list of choices. Arrow keys move, enter or the
// item's number picks, esc cancels.
type Selector struct {
	title    string
	items    []SelectorItem
	cursor   int
	selected int
	active   bool
	width    int
}

// NewSelector creates an active selector with the cursor on the first item
func NewSelector(title string, items []SelectorItem) Selector {
	return Selector{
		title:    title,
		items:    items,
		selected: -1,
		active:   len(items) > 0,
		width:    defaultWidth,
	}
}

// SetWidth sets the width used to wrap the title
func (s *Selector) SetWidth(w int) {
	if w > 0 {
		s.width = w
	}
}

// Active reports whether the selector still waits for a choice
func (s *Selector) Active() bool {
	return s.active
}

// Selected returns the chosen item ID, or "" if nothing was chosen
func (s *Selector) Selected() string {
	if s.selected >= 0 && s.selected < len(s.items) {
		return s.items[s.selected].ID
	}
	return ""
}

// Cancelled reports whether the selector was closed without a choice
func (s *Selector) Cancelled() bool {
	return !s.active && s.selected < 0
}

// Update handles key input
func (s *Selector) Update(msg tea.Msg) (*Selector, tea.Cmd) {
	if !s.active {
		return s, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch k := key.String(); k {
	case "up", "k", "left", "h":
		s.cursor = (s.cursor - 1 + len(s.items)) % len(s.items)
	case "down", "j", "right", "l", "tab":
		s.cursor = (s.cursor + 1) % len(s.items)
	case "enter":
		s.choose(s.cursor)
	case "esc", "q":
		s.active = false
	default:
		if len(k) == 1 && k[0] >= '1' && k[0] <= '9' {
			if n := int(k[0] - '1'); n < len(s.items) {
				s.choose(n)
			}
		}
	}

	return s, nil
}

func (s *Selector) choose(i int) {
	s.cursor = i
	s.selected = i
	s.active = false
}

// View renders the selector; an inactive selector renders nothing
func (s *Selector) View() string {
	if !s.active {
		return ""
	}

	var b strings.Builder

	if s.title != "" {
		b.WriteString(EmphasisStyle.Width(s.width - 2).Render(s.title))
		b.WriteString("\n")
	}

	for i, item := range s.items {
		label := item.Label
		if label == "" {
			label = item.ID
		}
		line := fmt.Sprintf("%d. %s", i+1, label)

		if i == s.cursor {
			b.WriteString(SelectorCursor.Render(SymbolArrow) + " ")
			b.WriteString(SelectorActive.Render(line))
		} else {
			b.WriteString("  ")
			b.WriteString(SelectorItemStyle.Render(line))
		}
		if item.Description != "" {
			b.WriteString("  ")
			b.WriteString(SelectorDim.Render(item.Description))
		}
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render("↑/↓ move • enter or number to pick • esc to cancel"))
	return b.String()
}
