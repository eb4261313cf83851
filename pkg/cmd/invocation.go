// Package cmd provides a transport-agnostic command core: a command is something
// with a name, description, and Run(ctx, invocation). How it is registered and
// dispatched (Discord chat prefix, HTTP) is defined by adapters that wrap this.
package cmd

import (
	"context"
	"strings"
)

// Invocation carries the minimal input any command runner can pass: arguments
// and an opaque payload. Adapters set Data to their context.
type Invocation struct {
	Args []string
	Data any
}

// Command is the universal contract: identity plus execution. Permissions and
// transport-specific registration stay in adapters.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}

// Parse splits a prefixed chat line into a command name and arguments. It
// reports false when line does not start with prefix or names nothing.
func Parse(prefix, line string) (string, *Invocation, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), prefix)
	if !ok {
		return "", nil, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), &Invocation{Args: fields[1:]}, true
}

// Rest joins the arguments back into free text.
func (inv *Invocation) Rest() string {
	return strings.Join(inv.Args, " ")
}
