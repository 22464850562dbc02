// Package plugin holds the command handler descriptors, the registry that
// indexes them by alias, and the manifest loader that discovers plugin
// declarations from a directory.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/idlanyor/kachina-go/internal/message"
	"github.com/idlanyor/kachina-go/internal/wa"
)

// Client is the slice of the bot client a plugin handler may use. The
// concrete client satisfies it; tests substitute fakes.
type Client interface {
	SendText(ctx context.Context, jid, text string, opts *wa.SendOptions) (*wa.MessageKey, error)
	SendMessage(ctx context.Context, jid string, content wa.Content, opts *wa.SendOptions) (*wa.MessageKey, error)
	GroupMetadata(ctx context.Context, jid string) (*wa.GroupMetadata, error)
	Prefix() string
}

// Context is the execution context handed to a handler, built fresh per
// dispatch and discarded afterwards.
type Context struct {
	Client    Client
	Message   *message.Message
	Args      []string
	Command   string
	Prefix    string
	Transport wa.Transport
}

// Handler executes one command invocation. A returned error is reported
// back to the invoking chat by the dispatcher.
type Handler func(ctx context.Context, pctx *Context) error

// Spec is a raw plugin declaration before validation.
type Spec struct {
	Name        string
	Commands    []string
	Category    string
	Description string

	Owner    bool
	Group    bool
	Private  bool
	Admin    bool
	BotAdmin bool

	Exec Handler
}

// Plugin is a validated, registered command handler.
type Plugin struct {
	Name        string
	Aliases     []string
	Category    string
	Description string

	Owner    bool
	Group    bool
	Private  bool
	Admin    bool
	BotAdmin bool

	Exec Handler
}

// Validation errors.
var (
	ErrNoHandler = errors.New("plugin: missing exec handler")
	ErrNoAlias   = errors.New("plugin: no name or command to derive an alias from")
)

// Normalize validates a Spec and produces a Plugin. Aliases are lower-cased
// and default to the plugin name; fallbackName fills in a missing name
// (callers derive it from the source filename). Pure, so it stays testable
// without any loading machinery.
func Normalize(spec Spec, fallbackName string) (*Plugin, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		name = strings.TrimSpace(fallbackName)
	}

	if spec.Exec == nil {
		return nil, fmt.Errorf("%w (plugin %q)", ErrNoHandler, name)
	}

	var aliases []string
	for _, c := range spec.Commands {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			aliases = append(aliases, c)
		}
	}
	if len(aliases) == 0 {
		if name == "" {
			return nil, ErrNoAlias
		}
		aliases = []string{strings.ToLower(name)}
	}
	if name == "" {
		name = aliases[0]
	}

	return &Plugin{
		Name:        name,
		Aliases:     aliases,
		Category:    spec.Category,
		Description: spec.Description,
		Owner:       spec.Owner,
		Group:       spec.Group,
		Private:     spec.Private,
		Admin:       spec.Admin,
		BotAdmin:    spec.BotAdmin,
		Exec:        spec.Exec,
	}, nil
}
