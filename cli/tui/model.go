package tui

import (
	"fmt"
	"path"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Mode represents the current interaction mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeCommand
	ModeHelp
)

// Model represents the state of the TUI application
type Model struct {
	adapter *VFSAdapter
	theme   *Theme
	keys    KeyMap
	help    help.Model

	// Navigation state
	currentPath string
	previousDir string // Name of directory we came from
	entries     []*Entry
	cursor      int
	offset      int

	// View state
	width          int
	height         int
	showPreview    bool
	localized      bool
	previewContent string
	previewError   error
	previewGen     int

	mode      Mode
	textInput textinput.Model

	statusMsg  string
	errorMsg   string
	commandOut string

	showFullHelp bool
}

// NewModel creates a browser positioned at the root of the file system.
func NewModel(adapter *VFSAdapter) *Model {
	ti := textinput.New()
	ti.Placeholder = "Enter command..."
	ti.CharLimit = 256

	return &Model{
		adapter:     adapter,
		theme:       DefaultTheme(),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		showPreview: true,
		textInput:   ti,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadDirectory(),
		textinput.Blink,
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case directoryLoadedMsg:
		if msg.path != m.currentPath {
			return m, nil
		}
		m.entries = msg.entries
		m.errorMsg = ""
		m.cursor = 0
		m.offset = 0

		if m.previousDir != "" {
			for i, entry := range m.entries {
				if entry.Name == m.previousDir {
					m.moveCursor(i)
					break
				}
			}
			m.previousDir = ""
		}
		return m, m.updatePreview()

	case previewLoadedMsg:
		if msg.generation == m.previewGen {
			m.previewContent = msg.content
			m.previewError = msg.err
		}
		return m, nil

	case commandExecutedMsg:
		m.commandOut = msg.output
		m.errorMsg = msg.error
		m.statusMsg = fmt.Sprintf("Exit code %d", msg.code)
		return m, nil

	case errorMsg:
		m.errorMsg = string(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	if m.mode == ModeCommand {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeCommand:
		return m.handleCommandMode(msg)
	case ModeHelp:
		return m.handleHelpMode(msg)
	}
	return m.handleNormalMode(msg)
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.mode = ModeHelp
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-10)
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(10)
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.Top):
		m.moveCursor(-len(m.entries))
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(len(m.entries))
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.Enter):
		return m, m.enterDirectory()

	case key.Matches(msg, m.keys.Back):
		return m, m.goBack()

	case key.Matches(msg, m.keys.TogglePreview):
		m.showPreview = !m.showPreview
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.Localized):
		m.localized = !m.localized
		m.statusMsg = fmt.Sprintf("Localized merge: %t", m.localized)
		return m, m.updatePreview()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadDirectory()

	case key.Matches(msg, m.keys.Command):
		m.mode = ModeCommand
		m.textInput.SetValue("")
		m.textInput.Focus()
		m.errorMsg = ""
		m.statusMsg = ""
		return m, nil
	}

	return m, nil
}

func (m *Model) handleCommandMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.cancelInput()
		return m, nil

	case tea.KeyEnter:
		line := strings.TrimSpace(m.textInput.Value())
		m.cancelInput()
		if line == "" {
			return m, nil
		}
		return m, m.executeCommand(line)
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) handleHelpMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Quit) {
		m.mode = ModeNormal
	}
	return m, nil
}

func (m *Model) cancelInput() {
	m.mode = ModeNormal
	m.textInput.Blur()
	m.textInput.SetValue("")
}

// moveCursor moves the cursor by delta, handling bounds and scrolling
func (m *Model) moveCursor(delta int) {
	if len(m.entries) == 0 {
		return
	}

	m.cursor = min(max(m.cursor+delta, 0), len(m.entries)-1)

	visibleLines := m.getVisibleLines()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visibleLines {
		m.offset = m.cursor - visibleLines + 1
	}
}

// getVisibleLines returns how many entries can be displayed
func (m *Model) getVisibleLines() int {
	// title, status bar, help and borders
	const reserved = 8
	return max(m.height-reserved, 5)
}

func (m *Model) currentEntry() *Entry {
	if m.cursor >= 0 && m.cursor < len(m.entries) {
		return m.entries[m.cursor]
	}
	return nil
}

type directoryLoadedMsg struct {
	path    string
	entries []*Entry
}

type previewLoadedMsg struct {
	content    string
	err        error
	generation int
}

type commandExecutedMsg struct {
	output string
	error  string
	code   int
}

type errorMsg string

func (m *Model) loadDirectory() tea.Cmd {
	dir := m.currentPath
	return func() tea.Msg {
		entries, err := m.adapter.ListDirectory(dir)
		if err != nil {
			return errorMsg(fmt.Sprintf("Failed to load directory: %v", err))
		}
		return directoryLoadedMsg{path: dir, entries: entries}
	}
}

func (m *Model) updatePreview() tea.Cmd {
	if !m.showPreview {
		return nil
	}

	// stale previews are dropped by generation
	m.previewGen++
	generation := m.previewGen

	entry := m.currentEntry()
	if entry == nil || entry.IsDir {
		return func() tea.Msg {
			return previewLoadedMsg{generation: generation}
		}
	}

	localized := m.localized
	maxLines := m.getVisibleLines() - 4
	return func() tea.Msg {
		content, err := m.adapter.GeneratePreview(entry, localized, maxLines)
		return previewLoadedMsg{content: content, err: err, generation: generation}
	}
}

func (m *Model) enterDirectory() tea.Cmd {
	entry := m.currentEntry()
	if entry == nil {
		return nil
	}

	if !entry.IsDir {
		m.statusMsg = fmt.Sprintf("Not a directory: %s", entry.Name)
		return nil
	}

	m.currentPath = entry.Path
	m.previousDir = ""
	return m.loadDirectory()
}

func (m *Model) goBack() tea.Cmd {
	if m.currentPath == "" {
		return nil
	}

	m.previousDir = path.Base(m.currentPath)

	parent := path.Dir(m.currentPath)
	if parent == "." {
		parent = ""
	}
	m.currentPath = parent
	return m.loadDirectory()
}

func (m *Model) executeCommand(line string) tea.Cmd {
	return func() tea.Msg {
		output, code, err := m.adapter.Execute(line)

		msg := commandExecutedMsg{output: output, code: code}
		if err != nil {
			msg.error = err.Error()
		}
		return msg
	}
}

// parseCommandLine splits a command line into tokens, honouring quotes.
func parseCommandLine(line string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)

	for _, ch := range line {
		switch {
		case ch == '"' || ch == '\'':
			if !inQuote {
				inQuote = true
				quoteChar = ch
			} else if ch == quoteChar {
				inQuote = false
				quoteChar = 0
			} else {
				current.WriteRune(ch)
			}

		case ch == ' ' && !inQuote:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}

		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}

	return args
}
