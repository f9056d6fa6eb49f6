package page

import (
	"slices"
	"sync"
)

// MemoryWindow is an in-memory Window that records every pushed command.
type MemoryWindow struct {
	mu      sync.RWMutex
	queues  map[string][]any
	globals map[string]any
}

// NewMemoryWindow creates an empty MemoryWindow.
func NewMemoryWindow() *MemoryWindow {
	return &MemoryWindow{
		queues:  make(map[string][]any),
		globals: make(map[string]any),
	}
}

// Queue returns the named queue, creating it if absent.
func (w *MemoryWindow) Queue(name string) Queue {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.queues[name]; !ok {
		w.queues[name] = []any{}
	}
	return &memoryQueue{window: w, name: name}
}

// Has reports whether a queue or global with the given name exists.
func (w *MemoryWindow) Has(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, q := w.queues[name]
	_, g := w.globals[name]
	return q || g
}

// Commands returns a copy of the commands pushed onto the named queue.
func (w *MemoryWindow) Commands(name string) []any {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.queues[name])
}

// Set defines a global value, e.g. the state object a vendor script would
// attach after loading.
func (w *MemoryWindow) Set(name string, value any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.globals[name] = value
}

// Value reads a dotted path. The first segment names a global set with Set;
// a bare queue name yields its commands.
func (w *MemoryWindow) Value(path string) (any, bool) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return nil, false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if root, ok := w.globals[segs[0]]; ok {
		return lookup(root, segs[1:])
	}
	if cmds, ok := w.queues[segs[0]]; ok && len(segs) == 1 {
		return slices.Clone(cmds), true
	}
	return nil, false
}

type memoryQueue struct {
	window *MemoryWindow
	name   string
}

func (q *memoryQueue) Push(cmd any) {
	q.window.mu.Lock()
	defer q.window.mu.Unlock()
	q.window.queues[q.name] = append(q.window.queues[q.name], cmd)
}
