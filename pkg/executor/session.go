// Package executor dispatches a parsed command.Command against a
// store.GlobalStore (or an active store.Transaction) and renders the
// deterministic text response the line protocol requires.
package executor

import (
	"github.com/cuemby/mumpsdb/pkg/mvalue"
	"github.com/cuemby/mumpsdb/pkg/store"
)

// Session holds the per-connection state a command may read or mutate:
// local variables and at most one active transaction. Never shared across
// connections.
type Session struct {
	Locals map[string]mvalue.Value
	Txn    *store.Transaction
}

func NewSession() *Session {
	return &Session{Locals: make(map[string]mvalue.Value)}
}
