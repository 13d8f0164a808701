package host

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// CommandFunc handles a command invocation with its trailing arguments.
type CommandFunc func(ctx context.Context, args []string)

// Commands is the host command table. Registering an existing name
// replaces the previous handler; a lazy-load trigger registers a
// placeholder that unregisters itself, loads the plugin, and re-dispatches
// to whatever the plugin installed under the same name.
type Commands struct {
	mu       sync.RWMutex
	handlers map[string]CommandFunc
}

// NewCommands creates an empty command table.
func NewCommands() *Commands {
	return &Commands{handlers: make(map[string]CommandFunc)}
}

// Register installs fn under name, replacing any previous handler.
func (c *Commands) Register(name string, fn CommandFunc) {
	if name == "" || fn == nil {
		return
	}
	c.mu.Lock()
	c.handlers[name] = fn
	c.mu.Unlock()
}

// Unregister removes the handler under name. It returns false if none
// existed.
func (c *Commands) Unregister(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.handlers[name]; !ok {
		return false
	}
	delete(c.handlers, name)
	return true
}

// Exists reports whether a handler is registered under name.
func (c *Commands) Exists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.handlers[name]
	return ok
}

// Dispatch invokes the handler registered under name with args. The handler
// runs on the caller's goroutine, outside the table lock, so it may
// re-register or re-dispatch.
func (c *Commands) Dispatch(ctx context.Context, name string, args ...string) error {
	c.mu.RLock()
	fn, ok := c.handlers[name]
	c.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	fn(ctx, args)
	return nil
}

// Names returns all registered command names, sorted.
func (c *Commands) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.handlers))
	for name := range c.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
