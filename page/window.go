package page

import (
	"strings"
)

// Queue is a vendor command queue living in the global namespace,
// e.g. window._veroq. Vendors replace push once their script loads.
type Queue interface {
	Push(cmd any)
}

// Window is the global namespace shared by vendor snippets and scripts.
type Window interface {
	// Queue returns the named global queue, creating an empty one if the
	// global is not defined yet.
	Queue(name string) Queue
	// Value reads a dotted path such as "optimizely.data.experiments".
	// It reports false when any segment is missing.
	Value(path string) (any, bool)
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// lookup walks nested maps along segs.
func lookup(root any, segs []string) (any, bool) {
	cur := root
	for _, seg := range segs {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]string:
			v, ok := m[seg]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}
