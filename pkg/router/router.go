// Package router dispatches inbound chat events to registered handlers.
//
// Every matching event handler runs; command handlers compete for exclusive
// first-match dispatch; unmatched replies fall through to the pending-reply
// workflow. Handler failures are isolated at this boundary and never escape
// to crash the processing of other events.
package router

import (
	"context"
	"log/slog"

	"karmabot/pkg/event"
	"karmabot/pkg/workflow"
)

// Handler is the capability contract every behavior unit implements.
type Handler interface {
	// Name identifies the handler in logs and pending-reply records.
	Name() string

	// CanHandle reports whether this handler wants the event. It must be
	// side-effect free.
	CanHandle(ev *event.ChatEvent) bool

	// Handle processes the event. The returned flag reports whether the
	// event was fully consumed. Call only when CanHandle returned true.
	Handle(ctx context.Context, ev *event.ChatEvent) (bool, error)
}

// Resumer is implemented by command handlers that suspend into the
// pending-reply workflow.
type Resumer interface {
	Handler

	// Resume continues the workflow at the state stored in the record.
	Resume(ctx context.Context, ev *event.ChatEvent, record workflow.Record) error
}

// Router runs the three-phase dispatch over registered handlers.
type Router struct {
	events   []Handler
	commands []Handler
	pending  *workflow.Engine
	log      *slog.Logger
}

// New builds a router backed by the given pending-reply engine.
func New(pending *workflow.Engine, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		pending: pending,
		log:     log.With("component", "router"),
	}
}

// RegisterEvent adds an always-run handler. Registration order is execution
// order.
func (r *Router) RegisterEvent(h Handler) {
	r.events = append(r.events, h)
}

// RegisterCommand adds a first-match-wins command handler. Registration
// order is priority order.
func (r *Router) RegisterCommand(h Handler) {
	r.commands = append(r.commands, h)
}

// Route dispatches one inbound event. An event with no matching handler and
// no pending reply is a silent no-op.
func (r *Router) Route(ctx context.Context, ev *event.ChatEvent) {
	if ev == nil {
		return
	}

	for _, h := range r.events {
		if h.CanHandle(ev) {
			r.invoke(ctx, h, ev)
		}
	}

	for _, h := range r.commands {
		if h.CanHandle(ev) {
			r.invoke(ctx, h, ev)
			return
		}
	}

	if ev.ReplyTo != nil {
		r.resumePending(ctx, ev)
	}
}

// invoke runs a single handler, absorbing its errors and panics so the other
// handlers of this event still run.
func (r *Router) invoke(ctx context.Context, h Handler, ev *event.ChatEvent) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.log.Error("Handler panicked", "handler", h.Name(), "chat_id", ev.ChatID, "panic", recovered)
		}
	}()

	if _, err := h.Handle(ctx, ev); err != nil {
		r.log.Error("Handler failed", "handler", h.Name(), "chat_id", ev.ChatID, "error", err)
	}
}

// resumePending consumes a pending-reply record anchored to the replied-to
// message and dispatches it to the owning handler. A missing or expired
// record means there is nothing to resume.
func (r *Router) resumePending(ctx context.Context, ev *event.ChatEvent) {
	key := workflow.Key{
		ChatID:    ev.ChatID,
		MessageID: ev.ReplyTo.MessageID,
		UserID:    ev.From.ID,
	}

	record, found := r.pending.Consume(ctx, key)
	if !found {
		return
	}

	owner := r.commandByName(record.Handler)
	if owner == nil {
		r.log.Warn("Pending reply owned by unknown handler", "handler", record.Handler, "state", record.State)
		return
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			r.log.Error("Resume panicked", "handler", owner.Name(), "state", record.State, "panic", recovered)
		}
	}()

	if err := owner.Resume(ctx, ev, record); err != nil {
		r.log.Error("Resume failed", "handler", owner.Name(), "state", record.State, "error", err)
	}
}

func (r *Router) commandByName(name string) Resumer {
	for _, h := range r.commands {
		if h.Name() != name {
			continue
		}
		if resumer, ok := h.(Resumer); ok {
			return resumer
		}
		return nil
	}
	return nil
}
