package host

import (
	"context"
	"sort"
	"sync"
)

// KeyFunc handles a key chord press.
type KeyFunc func(ctx context.Context)

// keyBinding is one chord-to-callback mapping.
type keyBinding struct {
	fn   KeyFunc
	desc string
}

// Keymap is the host key binding table. Chords are opaque strings in the
// host's notation ("<leader>ff", "C-s"); the engine never parses them.
type Keymap struct {
	mu       sync.RWMutex
	bindings map[string]keyBinding
}

// NewKeymap creates an empty keymap.
func NewKeymap() *Keymap {
	return &Keymap{bindings: make(map[string]keyBinding)}
}

// Bind installs fn under chord, replacing any previous binding.
func (k *Keymap) Bind(chord string, fn KeyFunc, desc string) {
	if chord == "" || fn == nil {
		return
	}
	k.mu.Lock()
	k.bindings[chord] = keyBinding{fn: fn, desc: desc}
	k.mu.Unlock()
}

// Unbind removes the binding under chord. It returns false if none existed.
func (k *Keymap) Unbind(chord string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, ok := k.bindings[chord]; !ok {
		return false
	}
	delete(k.bindings, chord)
	return true
}

// Bound reports whether chord has a binding.
func (k *Keymap) Bound(chord string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	_, ok := k.bindings[chord]
	return ok
}

// Description returns the description of the binding under chord.
func (k *Keymap) Description(chord string) string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.bindings[chord].desc
}

// Feed replays chord through the keymap: the current binding runs, or
// nothing happens if the chord is unbound. A lazy-load trigger calls Feed
// after loading so the chord reaches the binding the plugin just installed.
func (k *Keymap) Feed(ctx context.Context, chord string) {
	k.mu.RLock()
	b, ok := k.bindings[chord]
	k.mu.RUnlock()

	if ok {
		b.fn(ctx)
	}
}

// Chords returns all bound chords, sorted.
func (k *Keymap) Chords() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()

	chords := make([]string, 0, len(k.bindings))
	for chord := range k.bindings {
		chords = append(chords, chord)
	}
	sort.Strings(chords)
	return chords
}
