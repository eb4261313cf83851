package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stub struct {
	name    string
	aliases []string
	ran     []string
}

func (s *stub) Name() string        { return s.name }
func (s *stub) Description() string { return "stub " + s.name }
func (s *stub) Aliases() []string   { return s.aliases }

func (s *stub) Run(_ context.Context, inv *Invocation) error {
	s.ran = append(s.ran, inv.Rest())
	return nil
}

func TestRegistryAliases(t *testing.T) {
	r := NewRegistry()
	play := &stub{name: "play", aliases: []string{"p", "Add"}}
	r.Register(Apply(play, func(c Command) Command {
		return Wrap(c, c.Run)
	}))
	r.Register(&stub{name: "skip"})

	require.NotNil(t, r.Get("p"))
	assert.Equal(t, "play", r.Get("add").Name())
	assert.Equal(t, "play", r.Get("PLAY").Name())
	assert.Nil(t, r.Get("missing"))
	assert.Same(t, play, Root(r.Get("p")))

	names := []string{}
	for _, c := range r.GetAll() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"play", "skip"}, names)
}

func TestApplyOrder(t *testing.T) {
	var order []string
	mw := func(tag string) Middleware {
		return func(c Command) Command {
			return Wrap(c, func(ctx context.Context, inv *Invocation) error {
				order = append(order, tag)
				return c.Run(ctx, inv)
			})
		}
	}
	s := &stub{name: "x"}
	c := Apply(s, mw("inner"), mw("outer"))

	require.NoError(t, c.Run(context.Background(), &Invocation{Args: []string{"a", "b"}}))
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, []string{"a b"}, s.ran)
}

func TestParse(t *testing.T) {
	name, inv, ok := Parse("!", "  !Play never gonna give  you up ")
	require.True(t, ok)
	assert.Equal(t, "play", name)
	assert.Equal(t, []string{"never", "gonna", "give", "you", "up"}, inv.Args)
	assert.Equal(t, "never gonna give you up", inv.Rest())

	_, _, ok = Parse("!", "play something")
	assert.False(t, ok)
	_, _, ok = Parse("!", "!   ")
	assert.False(t, ok)
}
