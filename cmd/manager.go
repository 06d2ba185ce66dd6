package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
)

// Manager handles command registration, parsing and execution.
type Manager struct {
	mu   sync.RWMutex
	api  API
	cmds map[string]Command
}

func NewManager(api API) *Manager {
	return &Manager{
		api:  api,
		cmds: make(map[string]Command),
	}
}

// Register registers a command under its name.
func (m *Manager) Register(cmd Command) error {
	if cmd == nil {
		return fmt.Errorf("command cannot be nil")
	}

	name := cmd.Name()
	if name == "" {
		return fmt.Errorf("command name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.cmds[name]; exists {
		return fmt.Errorf("command '%s' already registered", name)
	}

	m.cmds[name] = cmd
	return nil
}

// Unregister removes a command, reporting whether it was registered.
func (m *Manager) Unregister(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.cmds[name]; !exists {
		return false
	}

	delete(m.cmds, name)
	return true
}

func (m *Manager) Get(name string) (Command, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cmd, ok := m.cmds[name]
	return cmd, ok
}

// List returns every registered command sorted by name.
func (m *Manager) List() []Command {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cmds := make([]Command, 0, len(m.cmds))
	for _, cmd := range m.cmds {
		cmds = append(cmds, cmd)
	}

	slices.SortFunc(cmds, func(a, b Command) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return cmds
}

// Execute parses args[1:] against the flags of the command named args[0]
// and runs it, writing output to writer.
func (m *Manager) Execute(ctx context.Context, writer io.Writer, args ...string) (int, error) {
	if len(args) == 0 {
		return 1, fmt.Errorf("no command specified")
	}

	cmd, ok := m.Get(args[0])
	if !ok {
		return 127, fmt.Errorf("unknown command: %s", args[0])
	}

	flags := cmd.GetFlags()
	if flags == nil {
		flags = &CommandFlagSet{}
	}

	parsed, err := NewParser(flags).Parse(args[1:])
	if err != nil {
		return 2, fmt.Errorf("%s: %w", cmd.Name(), err)
	}

	return cmd.Execute(ctx, m.api, parsed, writer)
}

// Usage writes one line per registered command.
func (m *Manager) Usage(writer io.Writer) {
	for _, cmd := range m.List() {
		fmt.Fprintf(writer, "  %-28s %s\n", cmd.Usage(), cmd.Description())
	}
}
