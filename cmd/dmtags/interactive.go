package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/gatan-dm/dm"
	"github.com/wippyai/gatan-dm/tagstore"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	regionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const pageSize = 20

type modelState int

const (
	stateBrowse modelState = iota
	stateFilter
	stateDetail
)

type browserModel struct {
	file     *dm.File
	filter   textinput.Model
	all      []tagstore.Entry
	visible  []tagstore.Entry
	selected int
	offset   int
	state    modelState
}

func newBrowserModel(f *dm.File) *browserModel {
	ti := textinput.New()
	ti.Placeholder = "path substring"
	ti.Prompt = "filter: "
	ti.Width = 50

	all := make([]tagstore.Entry, 0, f.Tags.Len())
	for _, k := range f.Tags.Keys() {
		v, _ := f.Tags.Get(k)
		all = append(all, tagstore.Entry{Path: k, Value: v})
	}

	return &browserModel{
		file:    f,
		filter:  ti,
		all:     all,
		visible: all,
		state:   stateBrowse,
	}
}

func (m *browserModel) Init() tea.Cmd {
	return nil
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.state == stateFilter {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter", "esc":
			m.filter.Blur()
			m.state = stateBrowse
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.state == stateBrowse {
			m.move(-1)
		}

	case "down", "j":
		if m.state == stateBrowse {
			m.move(1)
		}

	case "pgup":
		if m.state == stateBrowse {
			m.move(-pageSize)
		}

	case "pgdown":
		if m.state == stateBrowse {
			m.move(pageSize)
		}

	case "/":
		if m.state == stateBrowse {
			m.state = stateFilter
			return m, m.filter.Focus()
		}

	case "enter":
		switch m.state {
		case stateBrowse:
			if len(m.visible) > 0 {
				m.state = stateDetail
			}
		case stateDetail:
			m.state = stateBrowse
		}

	case "esc":
		if m.state == stateDetail {
			m.state = stateBrowse
		} else if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.applyFilter()
		}
	}

	return m, nil
}

func (m *browserModel) move(delta int) {
	m.selected += delta
	if m.selected >= len(m.visible) {
		m.selected = len(m.visible) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+pageSize {
		m.offset = m.selected - pageSize + 1
	}
}

func (m *browserModel) applyFilter() {
	q := strings.ToLower(m.filter.Value())
	if q == "" {
		m.visible = m.all
	} else {
		m.visible = nil
		for _, e := range m.all {
			if strings.Contains(strings.ToLower(e.Path), q) {
				m.visible = append(m.visible, e)
			}
		}
	}
	m.selected = 0
	m.offset = 0
}

func (m *browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("DM Tags"))
	b.WriteString(" ")
	b.WriteString(m.file.Name)
	fmt.Fprintf(&b, " (%s, %d/%d tags)\n\n", m.file.Header.Version, len(m.visible), len(m.all))

	if m.state == stateDetail {
		m.viewDetail(&b)
		return b.String()
	}

	if m.state == stateFilter || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}

	end := min(m.offset+pageSize, len(m.visible))
	for i := m.offset; i < end; i++ {
		e := m.visible[i]
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + e.String()))
		} else {
			b.WriteString("  " + pathStyle.Render(e.Path) + " = " + e.Value)
		}
		b.WriteString("\n")
	}
	if len(m.visible) == 0 {
		b.WriteString("no matching tags\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • pgup/pgdown page • / filter • enter details • q quit"))
	return b.String()
}

func (m *browserModel) viewDetail(b *strings.Builder) {
	e := m.visible[m.selected]
	b.WriteString(pathStyle.Render(e.Path))
	b.WriteString("\n\n")
	b.WriteString(e.Value)
	b.WriteString("\n")

	if base, ok := strings.CutSuffix(e.Path, tagstore.SizeSuffix); ok {
		m.viewRegion(b, base)
	} else if base, ok := strings.CutSuffix(e.Path, tagstore.OffsetSuffix); ok {
		m.viewRegion(b, base)
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter/esc back • q quit"))
}

func (m *browserModel) viewRegion(b *strings.Builder, base string) {
	r, err := m.file.Tags.Region(base)
	if err != nil {
		return
	}
	b.WriteString("\n")
	b.WriteString(regionStyle.Render(fmt.Sprintf("payload of %s: bytes 0x%x..0x%x (%d bytes)", base, r.Offset, r.End(), r.Size)))
	b.WriteString("\n")
}

func runInteractive(f *dm.File) error {
	p := tea.NewProgram(newBrowserModel(f), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
