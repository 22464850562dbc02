// Package builtin ships the plugins bundled with the bot: ping, help,
// reload and a per-user usage counter. They double as reference
// implementations for manifest-loaded plugins.
package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/idlanyor/kachina-go/internal/client"
	"github.com/idlanyor/kachina-go/internal/plugin"
	"github.com/idlanyor/kachina-go/internal/store"
	"github.com/idlanyor/kachina-go/internal/wa"
)

// Specs returns the bundled plugin specs, closed over the running client
// and store.
func Specs(bot *client.Client, db *store.Store) []plugin.Spec {
	return []plugin.Spec{
		{
			Name:        "ping",
			Commands:    []string{"ping", "p"},
			Category:    "main",
			Description: "Check whether the bot is alive",
			Exec:        pingHandler(),
		},
		{
			Name:        "help",
			Commands:    []string{"help", "menu"},
			Category:    "main",
			Description: "List available commands",
			Exec:        helpHandler(bot),
		},
		{
			Name:        "reload",
			Commands:    []string{"reload"},
			Category:    "owner",
			Description: "Unload a plugin by name",
			Owner:       true,
			Exec:        reloadHandler(bot),
		},
		{
			Name:        "stats",
			Commands:    []string{"stats"},
			Category:    "main",
			Description: "Show how many commands you have run",
			Exec:        statsHandler(db),
		},
	}
}

// Handlers exposes the bundled handlers for manifest-based plugin files,
// so a plugins directory can re-declare or re-alias them.
func Handlers(bot *client.Client, db *store.Store) plugin.HandlerMap {
	return plugin.HandlerMap{
		"ping":   pingHandler(),
		"help":   helpHandler(bot),
		"reload": reloadHandler(bot),
		"stats":  statsHandler(db),
	}
}

func pingHandler() plugin.Handler {
	return func(ctx context.Context, pctx *plugin.Context) error {
		_, err := pctx.Message.Reply(ctx, "🏓 Pong!")
		return err
	}
}

func helpHandler(bot *client.Client) plugin.Handler {
	return func(ctx context.Context, pctx *plugin.Context) error {
		byCategory := map[string][]*plugin.Plugin{}
		var categories []string
		for _, p := range bot.Plugins().List() {
			cat := p.Category
			if cat == "" {
				cat = "misc"
			}
			if _, seen := byCategory[cat]; !seen {
				categories = append(categories, cat)
			}
			byCategory[cat] = append(byCategory[cat], p)
		}

		var b strings.Builder
		b.WriteString("📖 *Commands*\n")
		for _, cat := range categories {
			fmt.Fprintf(&b, "\n*%s*\n", cat)
			for _, p := range byCategory[cat] {
				fmt.Fprintf(&b, "  %s%s — %s\n", pctx.Prefix, p.Aliases[0], p.Description)
			}
		}
		_, err := pctx.Message.Reply(ctx, b.String())
		return err
	}
}

func reloadHandler(bot *client.Client) plugin.Handler {
	return func(ctx context.Context, pctx *plugin.Context) error {
		if len(pctx.Args) == 0 {
			_, err := pctx.Message.Reply(ctx, fmt.Sprintf("Usage: %sreload <plugin>", pctx.Prefix))
			return err
		}
		name := pctx.Args[0]
		if !bot.Plugins().Reload(name) {
			return fmt.Errorf("no plugin named %q", name)
		}
		_, err := pctx.Message.Reply(ctx, fmt.Sprintf("♻️ Unloaded %s", name))
		return err
	}
}

func statsHandler(db *store.Store) plugin.Handler {
	return func(ctx context.Context, pctx *plugin.Context) error {
		user := wa.BareNumber(pctx.Message.Sender)
		usage, err := db.Increment("usage", user, "commands", 1)
		if err != nil {
			return err
		}
		count, _ := usage["commands"].(float64)
		_, err = pctx.Message.Reply(ctx, fmt.Sprintf("📊 You have run %.0f commands.", count))
		return err
	}
}
