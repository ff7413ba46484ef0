// Package replication defines the replication dispatcher collaborator: a
// non-blocking notification fired on every successful mutation, intended
// for an external process that forwards operations to peer nodes. Grounded
// on a best-effort, non-blocking fan-out broker without a full pub/sub
// subscriber registry, which this single-writer core has no use for.
package replication

import "github.com/cuemby/mumpsdb/pkg/mvalue"

// Replicator receives a best-effort, non-blocking callback for every Set
// and Kill the store applies outside a transaction; a committed
// transaction's writes are not reported individually. When absent,
// mutations are simply not forwarded — Noop satisfies the interface as a
// no-op.
type Replicator interface {
	OnMutation(kind, global string, path mvalue.Path, value mvalue.Value)
}

// Noop is the default used when no replication collaborator is wired in.
type Noop struct{}

func (Noop) OnMutation(string, string, mvalue.Path, mvalue.Value) {}

// Broker fans mutation notifications out to a bounded channel a caller can
// drain asynchronously (e.g. to forward over a network link); a full
// channel drops the notification rather than blocking the writer.
type Broker struct {
	ch chan Event
}

// Event is one recorded mutation.
type Event struct {
	Kind   string
	Global string
	Path   mvalue.Path
	Value  mvalue.Value
}

func NewBroker(bufferSize int) *Broker {
	return &Broker{ch: make(chan Event, bufferSize)}
}

func (b *Broker) OnMutation(kind, global string, path mvalue.Path, value mvalue.Value) {
	select {
	case b.ch <- Event{Kind: kind, Global: global, Path: path, Value: value}:
	default:
	}
}

// Events returns the channel downstream consumers drain.
func (b *Broker) Events() <-chan Event { return b.ch }

// Backlog reports how many mutation events are buffered waiting for a
// downstream consumer to drain them — the closest thing this best-effort,
// non-blocking broker has to a replication lag figure.
func (b *Broker) Backlog() int { return len(b.ch) }
