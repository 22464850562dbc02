// Package handler routes canonical messages to plugin handlers: it parses
// the command, checks access predicates and invokes the handler, converting
// failures into chat replies instead of propagating them.
package handler

import (
	"context"
	"fmt"
	"sync"

	"github.com/idlanyor/kachina-go/internal/cache"
	"github.com/idlanyor/kachina-go/internal/command"
	"github.com/idlanyor/kachina-go/internal/logger"
	"github.com/idlanyor/kachina-go/internal/message"
	"github.com/idlanyor/kachina-go/internal/plugin"
	"github.com/idlanyor/kachina-go/internal/wa"
)

// Access-denial notices, sent verbatim as replies.
const (
	noticeOwnerOnly   = "⚠️ This command is for owner only!"
	noticeGroupOnly   = "⚠️ This command can only be used in groups!"
	noticePrivateOnly = "⚠️ This command can only be used in private chat!"
	noticeAdminOnly   = "⚠️ This command is for group admins only!"
	noticeBotAdmin    = "⚠️ Bot must be admin to use this command!"
)

// Options configure a Dispatcher. Configuration is explicit here, never
// read from ambient state, so access control stays independently testable.
type Options struct {
	Prefix string   // active command prefix, e.g. "!"
	Owners []string // owner allow-list: bare numbers or full JIDs
}

// Dispatcher resolves commands against the plugin registry and runs them.
type Dispatcher struct {
	registry  *plugin.Registry
	client    plugin.Client
	transport wa.Transport
	cache     *cache.Cache
	log       *logger.Logger

	mu     sync.RWMutex
	prefix string
	owners []string
}

// New creates a Dispatcher.
func New(reg *plugin.Registry, client plugin.Client, transport wa.Transport, metaCache *cache.Cache, opts Options, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "!"
	}
	return &Dispatcher{
		registry:  reg,
		client:    client,
		transport: transport,
		cache:     metaCache,
		log:       log.WithPrefix("Dispatch"),
		prefix:    prefix,
		owners:    opts.Owners,
	}
}

// Prefix returns the active command prefix.
func (d *Dispatcher) Prefix() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.prefix
}

// SetPrefix changes the active command prefix.
func (d *Dispatcher) SetPrefix(prefix string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prefix = prefix
}

// Execute runs one dispatch for a canonical message. All failures are
// terminal to this call: access denials and handler errors become chat
// replies, nothing propagates to the caller.
func (d *Dispatcher) Execute(ctx context.Context, m *message.Message) {
	if m == nil || m.Body == "" {
		return
	}

	prefix := d.Prefix()
	parsed := command.Parse(m.Body, prefix)
	if parsed == nil || parsed.Command == "" {
		return
	}

	p := d.registry.Resolve(parsed.Command)
	if p == nil {
		return
	}

	if p.Owner && !IsOwner(m.Sender, d.ownerList()) {
		d.reply(ctx, m, noticeOwnerOnly)
		return
	}
	if p.Group && !m.IsGroup {
		d.reply(ctx, m, noticeGroupOnly)
		return
	}
	if p.Private && m.IsGroup {
		d.reply(ctx, m, noticePrivateOnly)
		return
	}
	if p.Admin && m.IsGroup {
		admins, err := d.groupAdmins(ctx, m.Chat)
		if err != nil {
			d.fail(ctx, m, parsed.Command, err)
			return
		}
		if !contains(admins, m.Sender) {
			d.reply(ctx, m, noticeAdminOnly)
			return
		}
	}
	if p.BotAdmin && m.IsGroup {
		admins, err := d.groupAdmins(ctx, m.Chat)
		if err != nil {
			d.fail(ctx, m, parsed.Command, err)
			return
		}
		self := d.transport.Self()
		if self == nil || !contains(admins, wa.SelfJID(self.ID)) {
			d.reply(ctx, m, noticeBotAdmin)
			return
		}
	}

	d.log.Command(prefix+parsed.Command, m.Sender)

	pctx := &plugin.Context{
		Client:    d.client,
		Message:   m,
		Args:      parsed.Args,
		Command:   parsed.Command,
		Prefix:    prefix,
		Transport: d.transport,
	}

	if err := d.invoke(ctx, p, pctx); err != nil {
		d.fail(ctx, m, parsed.Command, err)
	}
}

// invoke runs the handler, turning panics into errors so a misbehaving
// plugin cannot take the event loop down.
func (d *Dispatcher) invoke(ctx context.Context, p *plugin.Plugin, pctx *plugin.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.Exec(ctx, pctx)
}

func (d *Dispatcher) fail(ctx context.Context, m *message.Message, cmd string, err error) {
	d.log.Errorf("command %s failed: %v", cmd, err)
	d.reply(ctx, m, fmt.Sprintf("❌ Error: %v", err))
}

func (d *Dispatcher) reply(ctx context.Context, m *message.Message, text string) {
	if _, err := m.Reply(ctx, text); err != nil {
		d.log.Errorf("reply failed: %v", err)
	}
}

// groupAdmins returns the admin JIDs of a group, consulting the metadata
// cache before the transport.
func (d *Dispatcher) groupAdmins(ctx context.Context, jid string) ([]string, error) {
	if meta := d.cache.GetGroupMetadata(ctx, jid); meta != nil {
		return meta.AdminJIDs(), nil
	}
	meta, err := d.transport.GroupMetadata(ctx, jid)
	if err != nil {
		return nil, fmt.Errorf("fetch group metadata: %w", err)
	}
	d.cache.SetGroupMetadata(ctx, meta)
	return meta.AdminJIDs(), nil
}

func (d *Dispatcher) ownerList() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.owners
}

// IsOwner reports whether a sender JID appears in the owner list, matched
// either as a bare number or as the full JID.
func IsOwner(jid string, owners []string) bool {
	number := wa.BareNumber(jid)
	for _, o := range owners {
		if o == number || o == jid {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
