package cmd

import "fmt"

// CommandArgs contains parsed command arguments
type CommandArgs struct {
	// Positional arguments (command-specific)
	Args []string

	// Parsed flags
	Flags map[string]any

	// Raw unparsed arguments (for custom parsing)
	Raw []string
}

// CommandFlagSet defines the expected flags for a command
type CommandFlagSet struct {
	Flags map[string]*CommandFlag
}

// CommandFlag represents a single command-line flag
type CommandFlag struct {
	Name        string `json:"name"`              // e.g., "type" or "t"
	Short       string `json:"short"`             // Single-char shorthand (e.g., "t")
	Type        string `json:"type"`              // "string", "bool", "int"
	Default     any    `json:"default,omitempty"` // Default value
	Required    bool   `json:"required"`          // Must be provided
	Description string `json:"description"`       // Help text
	Multiple    bool   `json:"multiple"`          // Can be specified multiple times
}

// String returns the flag value as string, or "" if unset.
func (a *CommandArgs) String(name string) string {
	switch v := a.Flags[name].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the flag value as int, or 0 if unset.
func (a *CommandArgs) Int(name string) int {
	switch v := a.Flags[name].(type) {
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Bool reports whether the flag is set to true.
func (a *CommandArgs) Bool(name string) bool {
	v, _ := a.Flags[name].(bool)
	return v
}

// Arg returns the positional argument at index, or def if missing.
func (a *CommandArgs) Arg(index int, def string) string {
	if index < len(a.Args) {
		return a.Args[index]
	}
	return def
}
