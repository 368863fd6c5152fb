package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/flowsmith/flowsmith/pkg/workflow/diff"
)

// List styles.
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// OpListModel is the bubbletea model for picking diff operations during an
// interactive merge. All operations start selected; space toggles, enter
// confirms, q aborts without applying anything.
type OpListModel struct {
	Ops       []diff.Op
	Cursor    int
	Picked    map[string]bool
	Confirmed bool
	Height    int
	Offset    int
}

// NewOpListModel creates an op picker with every operation selected.
func NewOpListModel(ops []diff.Op) OpListModel {
	picked := make(map[string]bool, len(ops))
	for _, op := range ops {
		picked[opKey(op)] = true
	}
	return OpListModel{
		Ops:    ops,
		Picked: picked,
		Height: 15,
	}
}

func opKey(op diff.Op) string {
	return op.Path() + string(op.Kind)
}

func (m OpListModel) Init() tea.Cmd {
	return nil
}

func (m OpListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Ops)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ":
			key := opKey(m.Ops[m.Cursor])
			m.Picked[key] = !m.Picked[key]
		case "a":
			for _, op := range m.Ops {
				m.Picked[opKey(op)] = true
			}
		case "n":
			for _, op := range m.Ops {
				m.Picked[opKey(op)] = false
			}
		case "enter":
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m OpListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Operations"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  n none  ⏎ apply  q abort"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Ops) {
		end = len(m.Ops)
	}

	selected := 0
	for _, op := range m.Ops {
		if m.Picked[opKey(op)] {
			selected++
		}
	}

	for i := m.Offset; i < end; i++ {
		op := m.Ops[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := "[ ]"
		if m.Picked[opKey(op)] {
			mark = "[x]"
		}

		line := fmt.Sprintf("%s%s %s", cursor, mark, op.String())
		switch {
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case m.Picked[opKey(op)]:
			b.WriteString(listNormalStyle.Render(line))
		default:
			b.WriteString(listDimStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d selected]", selected, len(m.Ops))))

	return b.String()
}
