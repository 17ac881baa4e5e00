package systems

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/magicjedi90/insiculous-2d-sub000/components"
	"github.com/magicjedi90/insiculous-2d-sub000/physics"
)

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "on_collision.tengo")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestScriptHandlerReceivesEvent(t *testing.T) {
	path := writeScript(t, `
hit_a := 0
hit_b := 0
was_started := false
contact_depth := 0.0

on_collision := func(event) {
	hit_a = event.entity_a
	hit_b = event.entity_b
	was_started = event.started
	if len(event.contacts) > 0 {
		contact_depth = event.contacts[0].depth
	}
}
`)

	handler, err := NewScriptHandler(path)
	if err != nil {
		t.Fatalf("NewScriptHandler: %v", err)
	}

	cb := handler.Callback()
	cb(physics.CollisionData{
		Event: physics.CollisionEvent{EntityA: 7, EntityB: 11, Started: true},
		Points: []physics.ContactPoint{{
			Point:  components.Vector{X: 1, Y: 2},
			Normal: components.Vector{X: 0, Y: 1},
			Depth:  -0.5,
		}},
	})

	if got := handler.Global("hit_a"); got != int64(7) {
		t.Fatalf("hit_a = %v, want 7", got)
	}
	if got := handler.Global("hit_b"); got != int64(11) {
		t.Fatalf("hit_b = %v, want 11", got)
	}
	if got := handler.Global("was_started"); got != true {
		t.Fatalf("was_started = %v, want true", got)
	}
	if got := handler.Global("contact_depth"); got != -0.5 {
		t.Fatalf("contact_depth = %v, want -0.5", got)
	}
}

func TestScriptHandlerCompileError(t *testing.T) {
	path := writeScript(t, `on_collision := func(event) {`)
	if _, err := NewScriptHandler(path); err == nil {
		t.Fatal("expected a compile error for an unterminated function")
	}
}

func TestScriptHandlerMissingFile(t *testing.T) {
	if _, err := NewScriptHandler(filepath.Join(t.TempDir(), "nope.tengo")); err == nil {
		t.Fatal("expected an error for a missing script file")
	}
}

func TestScriptHandlerRuntimeErrorDoesNotPanic(t *testing.T) {
	path := writeScript(t, `
on_collision := func(event) {
	event.contacts[99].depth
}
`)
	handler, err := NewScriptHandler(path)
	if err != nil {
		t.Fatalf("NewScriptHandler: %v", err)
	}
	// runtime failure is logged, not propagated
	handler.Callback()(physics.CollisionData{})
}
