package page

import (
	"strings"
	"testing"
	"time"
)

func TestRuntimeWindowQueueDefinesArray(t *testing.T) {
	w := NewRuntimeWindow(time.Second)
	w.Queue("_veroq").Push([]any{"init", map[string]any{"api_key": "x"}})

	cmds := w.Commands("_veroq")
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	cmd, ok := cmds[0].([]any)
	if !ok {
		t.Fatalf("expected command exported as array, got %T", cmds[0])
	}
	if cmd[0] != "init" {
		t.Errorf("expected init, got %v", cmd[0])
	}
	args, ok := cmd[1].(map[string]any)
	if !ok || args["api_key"] != "x" {
		t.Errorf("expected {api_key: x}, got %v", cmd[1])
	}
}

func TestRuntimeWindowWindowAlias(t *testing.T) {
	w := NewRuntimeWindow(time.Second)
	w.Queue("_uc").Push([]any{"_key", "k"})

	if err := w.Eval("check.js", `window.seen = window._uc.length + ":" + Array.isArray(window._uc[0]);`); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	v, ok := w.Value("seen")
	if !ok || v != "1:true" {
		t.Errorf("expected window alias to see the queue as native arrays, got %v", v)
	}
}

func TestRuntimeWindowVendorReplacesPush(t *testing.T) {
	w := NewRuntimeWindow(time.Second)
	q := w.Queue("_veroq")
	q.Push([]any{"init", map[string]any{"api_key": "x"}})

	// A loaded vendor script drains the stub queue and installs its own push.
	script := `
		var handled = [];
		var pending = window._veroq;
		for (var i = 0; i < pending.length; i++) { handled.push(pending[i][0]); }
		window._veroq = { push: function (cmd) { handled.push(cmd[0]); } };
		window.handled = handled;
	`
	if err := w.Eval("m.js", script); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	q.Push([]any{"track", "Signup", map[string]any{}})

	v, ok := w.Value("handled")
	if !ok {
		t.Fatal("expected handled global")
	}
	handled := v.([]any)
	if len(handled) != 2 || handled[0] != "init" || handled[1] != "track" {
		t.Errorf("expected [init track], got %v", handled)
	}
	if w.Commands("_veroq") != nil {
		t.Error("expected Commands nil once the global is no longer an array")
	}
}

func TestRuntimeWindowValueAndSet(t *testing.T) {
	w := NewRuntimeWindow(time.Second)
	w.Set("optimizely", map[string]any{
		"data": map[string]any{
			"experiments": map[string]any{"1": map[string]any{"name": "Checkout"}},
		},
	})

	v, ok := w.Value("optimizely.data.experiments.1.name")
	if !ok || v != "Checkout" {
		t.Errorf("expected Checkout, got %v (ok=%v)", v, ok)
	}
	if _, ok := w.Value("optimizely.data.state"); ok {
		t.Error("expected missing segment to report false")
	}
	if _, ok := w.Value("nothing.here"); ok {
		t.Error("expected missing root to report false")
	}
}

func TestRuntimeWindowEvalErrors(t *testing.T) {
	w := NewRuntimeWindow(time.Second)

	if err := w.Eval("bad.js", "function ("); err == nil || !strings.Contains(err.Error(), "compile") {
		t.Errorf("expected compile error, got %v", err)
	}
	if err := w.Eval("throw.js", "throw new Error('boom')"); err == nil || !strings.Contains(err.Error(), "run") {
		t.Errorf("expected run error, got %v", err)
	}
}

func TestRuntimeWindowEvalTimeout(t *testing.T) {
	w := NewRuntimeWindow(20 * time.Millisecond)
	err := w.Eval("loop.js", "for (;;) {}")
	if err == nil {
		t.Fatal("expected runaway script to be interrupted")
	}

	// The runtime stays usable after an interrupt.
	if err := w.Eval("ok.js", "window.after = 1;"); err != nil {
		t.Fatalf("expected runtime usable after interrupt, got %v", err)
	}
}

type bag map[string]any

func TestRuntimeWindowNamedMapsBecomeObjects(t *testing.T) {
	w := NewRuntimeWindow(time.Second)
	w.Queue("_cio").Push([]any{"track", "Signup", bag{"plan": "pro", "tags": []string{"a", "b"}}})

	if err := w.Eval("check.js", `
		var cmd = window._cio[0];
		window.seen = cmd[2].plan + ":" + Array.isArray(cmd[2].tags) + ":" + cmd[2].tags.length;
	`); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	v, _ := w.Value("seen")
	if v != "pro:true:2" {
		t.Errorf("expected named map as native object, got %v", v)
	}
}

func TestRuntimeWindowNilNamedMap(t *testing.T) {
	w := NewRuntimeWindow(time.Second)
	w.Queue("_uc").Push([]any{"action", "Signup", bag(nil)})

	if err := w.Eval("check.js", `window.seen = window._uc[0][2] === null;`); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if v, _ := w.Value("seen"); v != true {
		t.Errorf("expected nil map to become null, got %v", v)
	}
}
