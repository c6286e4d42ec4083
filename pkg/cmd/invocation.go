// Package cmd provides a transport-agnostic command core: a command is something
// with a name, description, and Run(ctx, invocation). How it is registered and
// dispatched (Discord text prefix, slash interaction, CLI) is defined by adapters
// that wrap this.
package cmd

import "context"

// Invocation carries the minimal input any command runner can pass: positional
// arguments and an opaque payload. Adapters set Data to their transport context
// (e.g. a message-create event plus session).
type Invocation struct {
	Args []string
	Data interface{}
}

// Command is the universal contract: identity plus execution. Permissions,
// aliases, and transport-specific registration stay in optional interfaces.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}

// Aliased is implemented by commands reachable under more than one name.
type Aliased interface {
	Aliases() []string
}
