package host

import (
	"context"
	"sync/atomic"

	"github.com/tidwall/match"

	"github.com/tendril-dev/tendril/internal/event"
)

// Topic prefixes on the underlying bus.
const (
	topicEvent    = "event."
	topicFiletype = "filetype."
	topicSignal   = "signal."
)

// SignalPluginLoaded is the signal the loader emits when a plugin finishes
// loading, tagged with the plugin's repo. After-relations listen on it.
const SignalPluginLoaded = "plugin_loaded"

// TriggerFunc handles a fired trigger. data carries the trigger-specific
// payload: the file name for events and filetypes, the emitter's tag for
// signals.
type TriggerFunc func(ctx context.Context, data string)

// Group is a handle to a set of listener subscriptions that act as one
// trigger. Cancelling the group cancels every subscription in it.
type Group struct {
	subs []*event.Subscription
}

// Cancel stops delivery to every subscription in the group.
func (g *Group) Cancel() {
	for _, sub := range g.subs {
		sub.Cancel()
	}
}

// Active reports whether any subscription in the group can still fire.
func (g *Group) Active() bool {
	for _, sub := range g.subs {
		if sub.Active() {
			return true
		}
	}
	return false
}

// Triggers exposes the host's event-shaped trigger primitives: named
// events and filetype events restricted by a file glob, and user-defined
// signals. All are delivered synchronously through the event bus.
type Triggers struct {
	bus *event.Bus
}

// NewTriggers creates a trigger surface over bus.
func NewTriggers(bus *event.Bus) *Triggers {
	return &Triggers{bus: bus}
}

// OnEvent listens for any of the named host events whose file payload
// matches pattern. With once set, the first firing of any event in the set
// disarms the whole group before fn runs.
func (t *Triggers) OnEvent(events []string, pattern string, once bool, fn TriggerFunc) *Group {
	return t.listen(topicEvent, events, pattern, once, fn)
}

// FireEvent publishes a host event for file, invoking matching listeners
// before it returns.
func (t *Triggers) FireEvent(ctx context.Context, name, file string) {
	t.bus.Publish(ctx, topicEvent+name, file)
}

// OnFiletype listens for any of the named filetypes being assigned to a
// file matching pattern. Group-once semantics match OnEvent.
func (t *Triggers) OnFiletype(filetypes []string, pattern string, once bool, fn TriggerFunc) *Group {
	return t.listen(topicFiletype, filetypes, pattern, once, fn)
}

// FireFiletype publishes a filetype assignment for file.
func (t *Triggers) FireFiletype(ctx context.Context, filetype, file string) {
	t.bus.Publish(ctx, topicFiletype+filetype, file)
}

// OnSignal listens for a user-defined signal whose tag matches pattern.
// The loaded-plugin broadcast and after-relations ride on this primitive.
func (t *Triggers) OnSignal(name, pattern string, once bool, fn TriggerFunc) *Group {
	return t.listen(topicSignal, []string{name}, pattern, once, fn)
}

// EmitSignal publishes a user-defined signal with the given tag.
func (t *Triggers) EmitSignal(ctx context.Context, name, tag string) {
	t.bus.Publish(ctx, topicSignal+name, tag)
}

// listen subscribes fn under prefix for every name in names, filtered to
// payloads matching pattern. An empty pattern matches anything. With once
// set the group shares a single arm: whichever subscription fires first
// claims it and cancels the rest.
func (t *Triggers) listen(prefix string, names []string, pattern string, once bool, fn TriggerFunc) *Group {
	group := &Group{}
	var claimed atomic.Bool

	handler := func(ctx context.Context, ev event.Event) {
		data, _ := ev.Data.(string)
		if once {
			if claimed.Swap(true) {
				return
			}
			group.Cancel()
		}
		fn(ctx, data)
	}

	filter := func(ev event.Event) bool {
		if pattern == "" || pattern == "*" {
			return true
		}
		data, _ := ev.Data.(string)
		return match.Match(data, pattern)
	}

	for _, name := range names {
		sub := t.bus.Subscribe(prefix+name, handler, event.WithFilter(filter))
		group.subs = append(group.subs, sub)
	}
	return group
}
