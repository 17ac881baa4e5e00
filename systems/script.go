package systems

import (
	"fmt"
	"log"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/magicjedi90/insiculous-2d-sub000/physics"
)

// Collision handlers can be written as tengo scripts. A script defines
//
//	on_collision := func(event) { ... }
//
// where event is a map with entity_a, entity_b, started, stopped, and
// contacts (a list of {x, y, nx, ny, depth} maps). The compiled script is
// registered as an ordinary callback.

const collisionDispatchScript = `
on_collision(__event)
`

// ScriptHandler wraps a compiled collision-handler script.
type ScriptHandler struct {
	path     string
	compiled *tengo.Compiled
}

// NewScriptHandler loads and compiles a collision-handler script.
func NewScriptHandler(path string) (*ScriptHandler, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("physics script: load %s: %w", path, err)
	}

	script := tengo.NewScript(append(src, []byte("\n"+collisionDispatchScript)...))
	_ = script.Add("__event", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("physics script: compile %s: %w", path, err)
	}

	return &ScriptHandler{path: path, compiled: compiled}, nil
}

// Callback returns the handler as a CollisionCallback. Script errors are
// logged and the event skipped; they never abort the tick.
func (h *ScriptHandler) Callback() CollisionCallback {
	return func(data physics.CollisionData) {
		if err := h.invoke(data); err != nil {
			log.Printf("physics script: %s: %v", h.path, err)
		}
	}
}

func (h *ScriptHandler) invoke(data physics.CollisionData) error {
	if h == nil || h.compiled == nil {
		return fmt.Errorf("nil script handler")
	}

	contacts := make([]tengo.Object, 0, len(data.Points))
	for _, p := range data.Points {
		contacts = append(contacts, &tengo.ImmutableMap{Value: map[string]tengo.Object{
			"x":     &tengo.Float{Value: p.Point.X},
			"y":     &tengo.Float{Value: p.Point.Y},
			"nx":    &tengo.Float{Value: p.Normal.X},
			"ny":    &tengo.Float{Value: p.Normal.Y},
			"depth": &tengo.Float{Value: p.Depth},
		}})
	}

	event := &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"entity_a": &tengo.Int{Value: int64(data.Event.EntityA)},
		"entity_b": &tengo.Int{Value: int64(data.Event.EntityB)},
		"started":  boolObject(data.Event.Started),
		"stopped":  boolObject(data.Event.Stopped),
		"contacts": &tengo.ImmutableArray{Value: contacts},
	}}

	if err := h.compiled.Set("__event", event); err != nil {
		return err
	}
	return h.compiled.Run()
}

// Global returns the value of a script global after the last invocation, or
// nil when undefined.
func (h *ScriptHandler) Global(name string) interface{} {
	if h == nil || h.compiled == nil || !h.compiled.IsDefined(name) {
		return nil
	}
	return h.compiled.Get(name).Value()
}

func boolObject(b bool) tengo.Object {
	if b {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}
