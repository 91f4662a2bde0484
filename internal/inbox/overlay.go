package inbox

import "sync"

// Flags are the per-contact UI marks
type Flags struct {
	Checked bool `json:"checked"`
	Deleted bool `json:"deleted"`
}

// Overlay maps group keys to Flags. It is never part of the rebuilt groups;
// callers look flags up by key after every rebuild. A nil *Overlay reads as
// empty
type Overlay struct {
	mu    sync.RWMutex
	flags map[string]Flags
}

// NewOverlay creates an empty overlay
func NewOverlay() *Overlay {
	return &Overlay{flags: make(map[string]Flags)}
}

// Flags returns the marks for key
func (o *Overlay) Flags(key string) Flags {
	if o == nil {
		return Flags{}
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.flags[key]
}

// Checked reports whether key is checked
func (o *Overlay) Checked(key string) bool {
	return o.Flags(key).Checked
}

// Deleted reports whether key is hidden
func (o *Overlay) Deleted(key string) bool {
	return o.Flags(key).Deleted
}

// SetChecked sets or clears the checked mark
func (o *Overlay) SetChecked(key string, checked bool) {
	o.update(key, func(f *Flags) { f.Checked = checked })
}

// Delete hides key from views
func (o *Overlay) Delete(key string) {
	o.update(key, func(f *Flags) { f.Deleted = true })
}

// Restore undoes Delete
func (o *Overlay) Restore(key string) {
	o.update(key, func(f *Flags) { f.Deleted = false })
}

func (o *Overlay) update(key string, fn func(*Flags)) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.flags == nil {
		o.flags = make(map[string]Flags)
	}
	f := o.flags[key]
	fn(&f)
	if f == (Flags{}) {
		delete(o.flags, key)
		return
	}
	o.flags[key] = f
}

// Retain drops the marks of keys that are not in keys and returns how many
// were dropped
func (o *Overlay) Retain(keys []string) int {
	keep := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keep[k] = struct{}{}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	dropped := 0
	for k := range o.flags {
		if _, ok := keep[k]; !ok {
			delete(o.flags, k)
			dropped++
		}
	}
	return dropped
}

// Reset clears every mark
func (o *Overlay) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.flags = make(map[string]Flags)
}

// Len returns the number of keys carrying a mark
func (o *Overlay) Len() int {
	if o == nil {
		return 0
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.flags)
}

// Snapshot returns a copy of the current marks
func (o *Overlay) Snapshot() map[string]Flags {
	out := make(map[string]Flags)
	if o == nil {
		return out
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	for k, f := range o.flags {
		out[k] = f
	}
	return out
}
