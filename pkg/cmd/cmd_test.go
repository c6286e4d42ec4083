package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCommand struct {
	name    string
	aliases []string
	ran     int
}

func (s *stubCommand) Name() string        { return s.name }
func (s *stubCommand) Description() string { return "stub " + s.name }
func (s *stubCommand) Aliases() []string   { return s.aliases }
func (s *stubCommand) Run(context.Context, *Invocation) error {
	s.ran++
	return nil
}

func TestRegistryResolvesAliasesThroughMiddleware(t *testing.T) {
	r := NewRegistry()
	inner := &stubCommand{name: "purge", aliases: []string{"Clean"}}

	var order []string
	trace := func(tag string) Middleware {
		return func(c Command) Command {
			return Wrap(c, func(ctx context.Context, inv *Invocation) error {
				order = append(order, tag)
				return c.Run(ctx, inv)
			})
		}
	}
	r.Register(Apply(inner, trace("inner"), trace("outer")))

	got := r.Get("clean")
	require.NotNil(t, got)
	assert.Equal(t, "purge", got.Name())
	assert.Same(t, inner, Root(got))

	require.NoError(t, got.Run(context.Background(), &Invocation{}))
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, 1, inner.ran)
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("missing"))
}

func TestRegistryGetAllSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubCommand{name: "purges"})
	r.Register(&stubCommand{name: "purge"})
	r.Register(&stubCommand{name: "about"})

	var names []string
	for _, c := range r.GetAll() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"about", "purge", "purges"}, names)
}
