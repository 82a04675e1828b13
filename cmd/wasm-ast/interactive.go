package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	wasmast "github.com/wippyai/wasm-ast"
	"github.com/wippyai/wasm-ast/analysis"
	"github.com/wippyai/wasm-ast/component"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD580"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browseEntry struct {
	instance string
	function analysis.AnalysedFunction
}

type browseModel struct {
	err      error
	filename string
	entries  []browseEntry
	visible  []int
	warnings []string
	filter   textinput.Model
	selected int
	state    browseState
}

type browseState int

const (
	stateList browseState = iota
	stateFilter
	stateDetail
)

func newBrowseModel(filename string) *browseModel {
	filter := textinput.New()
	filter.Placeholder = "filter"
	filter.Prompt = "/"
	filter.Width = 40
	return &browseModel{filename: filename, filter: filter}
}

type analysedMsg struct {
	err      error
	entries  []browseEntry
	warnings []string
}

func (m *browseModel) Init() tea.Cmd {
	return m.analyse
}

func (m *browseModel) analyse() tea.Msg {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		return analysedMsg{err: err}
	}
	c, err := component.Parse(data, wasmast.Full)
	if err != nil {
		return analysedMsg{err: err}
	}

	ctx := analysis.NewAnalysisContext(c)
	exports, err := ctx.GetTopLevelExports()
	if err != nil {
		return analysedMsg{err: err}
	}

	var entries []browseEntry
	for _, export := range exports {
		switch e := export.(type) {
		case analysis.AnalysedFunction:
			entries = append(entries, browseEntry{function: e})
		case analysis.AnalysedInstance:
			for _, f := range e.Functions {
				entries = append(entries, browseEntry{instance: e.Name, function: f})
			}
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].instance != entries[j].instance {
			return entries[i].instance < entries[j].instance
		}
		return entries[i].function.Name < entries[j].function.Name
	})

	var warnings []string
	for _, warning := range ctx.Warnings() {
		warnings = append(warnings, warning.Warning())
	}
	return analysedMsg{entries: entries, warnings: warnings}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateFilter {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateList && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateList && m.selected < len(m.visible)-1 {
				m.selected++
			}

		case "/":
			if m.state == stateList {
				m.state = stateFilter
				m.filter.Focus()
				return m, nil
			}

		case "enter":
			switch m.state {
			case stateList:
				if len(m.visible) > 0 {
					m.state = stateDetail
				}
			case stateFilter:
				m.state = stateList
				m.filter.Blur()
			case stateDetail:
				m.state = stateList
			}

		case "esc":
			switch m.state {
			case stateFilter:
				m.state = stateList
				m.filter.Blur()
				m.filter.SetValue("")
				m.applyFilter()
			case stateDetail:
				m.state = stateList
			}
		}

	case analysedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.entries = msg.entries
		m.warnings = msg.warnings
		m.applyFilter()
	}

	if m.state == stateFilter {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
		return m, cmd
	}

	return m, nil
}

func (m *browseModel) applyFilter() {
	needle := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, entry := range m.entries {
		name := strings.ToLower(entry.qualifiedName())
		if needle == "" || strings.Contains(name, needle) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = 0
	}
}

func (e browseEntry) qualifiedName() string {
	if e.instance == "" {
		return e.function.Name
	}
	return e.instance + "." + e.function.Name
}

func (e browseEntry) kind() string {
	switch {
	case e.function.IsConstructor():
		return "constructor"
	case e.function.IsMethod():
		return "method"
	case e.function.IsStaticMethod():
		return "static"
	}
	return "function"
}

func (m *browseModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.entries == nil {
		return "Analysing component..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("WASM Exports"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateList, stateFilter:
		for pos, i := range m.visible {
			entry := m.entries[i]
			line := m.formatEntry(entry)
			if pos == m.selected && m.state == stateList {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		if len(m.visible) == 0 {
			b.WriteString(helpStyle.Render("  no matching exports"))
			b.WriteString("\n")
		}
		for _, warning := range m.warnings {
			b.WriteString(warnStyle.Render("  ! " + warning))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateFilter {
			b.WriteString(m.filter.View())
			b.WriteString("\n")
			b.WriteString(helpStyle.Render("enter apply • esc clear"))
		} else {
			b.WriteString(helpStyle.Render("↑/↓ select • enter details • / filter • q quit"))
		}

	case stateDetail:
		entry := m.entries[m.visible[m.selected]]
		b.WriteString(funcStyle.Render(entry.qualifiedName()))
		b.WriteString(" (" + entry.kind() + ")\n\n")
		if len(entry.function.Parameters) == 0 {
			b.WriteString(helpStyle.Render("  no parameters"))
			b.WriteString("\n")
		}
		for _, p := range entry.function.Parameters {
			b.WriteString("  " + p.Name + ": " + typeStyle.Render(analysedTypeStr(p.Typ)))
			b.WriteString("\n")
		}
		for _, r := range entry.function.Results {
			name := "result"
			if r.Name != nil {
				name = *r.Name
			}
			b.WriteString("  -> " + name + ": " + typeStyle.Render(analysedTypeStr(r.Typ)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter/esc back • q quit"))
	}

	return b.String()
}

func (m *browseModel) formatEntry(entry browseEntry) string {
	var params []string
	for _, p := range entry.function.Parameters {
		params = append(params, p.Name+": "+typeStyle.Render(analysedTypeStr(p.Typ)))
	}
	result := ""
	if len(entry.function.Results) > 0 {
		result = " -> " + typeStyle.Render(analysedTypeStr(entry.function.Results[0].Typ))
	}
	return funcStyle.Render(entry.qualifiedName()) + "(" + strings.Join(params, ", ") + ")" + result
}

func runInteractive(filename string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode requires a terminal")
	}
	p := tea.NewProgram(newBrowseModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
