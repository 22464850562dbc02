// Package command parses bot command invocations out of message text.
package command

import "strings"

// Parsed is one recognized command invocation.
type Parsed struct {
	Command string   // first token, lower-cased
	Args    []string // remaining tokens, original case and order
	Text    string   // args re-joined with single spaces
}

// Parse splits a command and its arguments from text given a prefix.
// Returns nil when text does not start with the prefix (exact, case
// sensitive). A prefix-only input yields an empty Command, which callers
// must treat as unmatched since no plugin may register an empty alias.
func Parse(text, prefix string) *Parsed {
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return nil
	}

	fields := strings.Fields(strings.TrimSpace(text[len(prefix):]))
	if len(fields) == 0 {
		return &Parsed{Args: []string{}}
	}

	return &Parsed{
		Command: strings.ToLower(fields[0]),
		Args:    fields[1:],
		Text:    strings.Join(fields[1:], " "),
	}
}
