package page

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/kbukum/analyticskit/logger"
)

// RuntimeWindow is a Window backed by a goja JavaScript runtime. Queues are
// real JS arrays on the global object, so a vendor script evaluated with Eval
// sees the commands pushed before it loaded and may replace push.
//
// goja runtimes are not goroutine safe; every access is serialised.
type RuntimeWindow struct {
	mu      sync.Mutex
	vm      *goja.Runtime
	timeout time.Duration
	log     *logger.Logger
}

// NewRuntimeWindow creates a runtime with `window` aliased to the global
// object. Scripts running longer than timeout are interrupted; zero disables
// the limit.
func NewRuntimeWindow(timeout time.Duration) *RuntimeWindow {
	vm := goja.New()
	_ = vm.Set("window", vm.GlobalObject())
	return &RuntimeWindow{vm: vm, timeout: timeout, log: logger.Get("page")}
}

// Queue returns the named global array, defining it if absent.
func (w *RuntimeWindow) Queue(name string) Queue {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !defined(w.vm.Get(name)) {
		_ = w.vm.Set(name, w.vm.NewArray())
	}
	return &runtimeQueue{window: w, name: name}
}

// Value reads a dotted path from the global object and exports it to Go.
func (w *RuntimeWindow) Value(path string) (any, bool) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return nil, false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	v := w.vm.Get(segs[0])
	for _, seg := range segs[1:] {
		if !defined(v) {
			return nil, false
		}
		v = v.ToObject(w.vm).Get(seg)
	}
	if !defined(v) {
		return nil, false
	}
	return v.Export(), true
}

// Commands exports the named global array. It returns nil when the global
// is missing or is no longer an array.
func (w *RuntimeWindow) Commands(name string) []any {
	v, ok := w.Value(name)
	if !ok {
		return nil
	}
	cmds, _ := v.([]any)
	return cmds
}

// Set defines a global value converted to native JS values.
func (w *RuntimeWindow) Set(name string, value any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.vm.Set(name, w.toJS(value))
}

// Eval compiles and runs src in the window's global scope.
func (w *RuntimeWindow) Eval(name, src string) error {
	program, err := goja.Compile(name, src, false)
	if err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timeout > 0 {
		timer := time.AfterFunc(w.timeout, func() {
			w.vm.Interrupt(fmt.Sprintf("script %s exceeded %s", name, w.timeout))
		})
		defer func() {
			timer.Stop()
			w.vm.ClearInterrupt()
		}()
	}
	if _, err := w.vm.RunProgram(program); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// toJS converts Go command values into native JS arrays and objects so
// vendor code sees the shapes it expects (Array.isArray, property access).
// Must be called while holding mu.
func (w *RuntimeWindow) toJS(value any) goja.Value {
	switch v := value.(type) {
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = w.toJS(item)
		}
		return w.vm.NewArray(items...)
	case map[string]any:
		obj := w.vm.NewObject()
		for k, item := range v {
			_ = obj.Set(k, w.toJS(item))
		}
		return obj
	}

	// Named bags such as provider.Properties.
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.IsNil() {
			return goja.Null()
		}
		obj := w.vm.NewObject()
		iter := rv.MapRange()
		for iter.Next() {
			_ = obj.Set(iter.Key().String(), w.toJS(iter.Value().Interface()))
		}
		return obj
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = w.toJS(rv.Index(i).Interface())
		}
		return w.vm.NewArray(items...)
	}
	return w.vm.ToValue(value)
}

type runtimeQueue struct {
	window *RuntimeWindow
	name   string
}

// Push calls the global's current push, which may be a vendor replacement.
func (q *runtimeQueue) Push(cmd any) {
	w := q.window
	w.mu.Lock()
	defer w.mu.Unlock()

	target := w.vm.Get(q.name)
	if !defined(target) {
		target = w.vm.NewArray()
		_ = w.vm.Set(q.name, target)
	}
	obj := target.ToObject(w.vm)
	push, ok := goja.AssertFunction(obj.Get("push"))
	if !ok {
		w.log.Warn("global has no push function", logger.Fields("global", q.name))
		return
	}
	if _, err := push(obj, w.toJS(cmd)); err != nil {
		w.log.Warn("queue push failed", logger.Fields("global", q.name, logger.FieldError, err.Error()))
	}
}

func defined(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}
