package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context, pctx *Context) error { return nil }

func TestNormalize(t *testing.T) {
	t.Run("full spec", func(t *testing.T) {
		p, err := Normalize(Spec{
			Name:     "Ping",
			Commands: []string{"Ping", " P "},
			Category: "general",
			Owner:    true,
			Exec:     noop,
		}, "")
		require.NoError(t, err)
		assert.Equal(t, "Ping", p.Name)
		assert.Equal(t, []string{"ping", "p"}, p.Aliases)
		assert.True(t, p.Owner)
	})

	t.Run("alias defaults to name", func(t *testing.T) {
		p, err := Normalize(Spec{Name: "Help", Exec: noop}, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"help"}, p.Aliases)
	})

	t.Run("fallback name fills missing name", func(t *testing.T) {
		p, err := Normalize(Spec{Exec: noop}, "weather")
		require.NoError(t, err)
		assert.Equal(t, "weather", p.Name)
		assert.Equal(t, []string{"weather"}, p.Aliases)
	})

	t.Run("name derived from first alias", func(t *testing.T) {
		p, err := Normalize(Spec{Commands: []string{"roll", "dice"}, Exec: noop}, "")
		require.NoError(t, err)
		assert.Equal(t, "roll", p.Name)
	})

	t.Run("missing handler", func(t *testing.T) {
		_, err := Normalize(Spec{Name: "broken"}, "")
		assert.ErrorIs(t, err, ErrNoHandler)
	})

	t.Run("nothing to alias", func(t *testing.T) {
		_, err := Normalize(Spec{Exec: noop}, "")
		assert.ErrorIs(t, err, ErrNoAlias)
	})
}

func TestRegistry_LoadAndResolve(t *testing.T) {
	r := NewRegistry(nil)

	p := r.Load(Spec{Name: "ping", Commands: []string{"ping", "p"}, Exec: noop})
	require.NotNil(t, p)

	assert.Equal(t, p, r.Get("ping"))
	assert.Equal(t, p, r.Resolve("ping"))
	assert.Equal(t, p, r.Resolve("p"))
	assert.Nil(t, r.Resolve("pong"))
	assert.Nil(t, r.Resolve(""))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_LoadInvalidSpec(t *testing.T) {
	r := NewRegistry(nil)
	assert.Nil(t, r.Load(Spec{Name: "broken"}))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_AliasCollisionLastWins(t *testing.T) {
	r := NewRegistry(nil)
	r.Load(Spec{Name: "first", Commands: []string{"x"}, Exec: noop})
	second := r.Load(Spec{Name: "second", Commands: []string{"x"}, Exec: noop})

	assert.Equal(t, second, r.Resolve("x"))
	// Both plugins remain registered by name.
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_ReplaceDropsStaleAliases(t *testing.T) {
	r := NewRegistry(nil)
	r.Load(Spec{Name: "dup", Commands: []string{"a", "b"}, Exec: noop})
	replacement := r.Load(Spec{Name: "dup", Commands: []string{"b"}, Exec: noop})

	// Every surviving alias points at the current name-map entry.
	assert.Equal(t, replacement, r.Get("dup"))
	assert.Equal(t, replacement, r.Resolve("b"))
	assert.Nil(t, r.Resolve("a"))
}

func TestRegistry_ReplaceKeepsStolenAlias(t *testing.T) {
	r := NewRegistry(nil)
	r.Load(Spec{Name: "one", Commands: []string{"x"}, Exec: noop})
	thief := r.Load(Spec{Name: "two", Commands: []string{"x"}, Exec: noop})

	// Re-loading "one" must not drop the alias "two" now owns.
	r.Load(Spec{Name: "one", Commands: []string{"y"}, Exec: noop})
	assert.Equal(t, thief, r.Resolve("x"))
}

func TestRegistry_Reload(t *testing.T) {
	r := NewRegistry(nil)
	r.Load(Spec{Name: "stats", Commands: []string{"stats", "st"}, Exec: noop})

	assert.True(t, r.Reload("stats"))
	assert.Nil(t, r.Get("stats"))
	assert.Nil(t, r.Resolve("stats"))
	assert.Nil(t, r.Resolve("st"))
	assert.False(t, r.Reload("stats"))
}

func TestRegistry_ReloadKeepsStolenAlias(t *testing.T) {
	r := NewRegistry(nil)
	r.Load(Spec{Name: "old", Commands: []string{"cmd"}, Exec: noop})
	current := r.Load(Spec{Name: "new", Commands: []string{"cmd"}, Exec: noop})

	// Removing the plugin that lost the alias must not drop the alias of
	// the one currently owning it.
	assert.True(t, r.Reload("old"))
	assert.Equal(t, current, r.Resolve("cmd"))
}

func TestRegistry_ListSorted(t *testing.T) {
	r := NewRegistry(nil)
	r.Load(Spec{Name: "zeta", Exec: noop})
	r.Load(Spec{Name: "alpha", Exec: noop})
	r.Load(Spec{Name: "mid", Exec: noop})

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "mid", list[1].Name)
	assert.Equal(t, "zeta", list[2].Name)
}

func TestRegistry_LoadedFlag(t *testing.T) {
	r := NewRegistry(nil)
	assert.False(t, r.Loaded())
	r.MarkLoaded()
	assert.True(t, r.Loaded())
}
