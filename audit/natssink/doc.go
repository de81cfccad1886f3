// Package natssink publishes persontric audit events to NATS.
//
// Each event is JSON-encoded and published on "<subject>.<event_type>", so consumers
// can subscribe to "<subject>.>" for everything or to a single event type. The sink is
// meant to sit behind the engine's async audit dispatcher; Emit never blocks on the
// network beyond the client's own write buffer.
package natssink
