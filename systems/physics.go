package systems

import (
	"fmt"
	"log"

	"github.com/yohamta/donburi"

	"github.com/magicjedi90/insiculous-2d-sub000/components"
	"github.com/magicjedi90/insiculous-2d-sub000/physics"
)

const (
	// DefaultFixedTimestep advances the simulation at 60 Hz regardless of
	// frame timing.
	DefaultFixedTimestep = 1.0 / 60.0
	// DefaultMaxDelta bounds catch-up work after a slow frame.
	DefaultMaxDelta = 0.1
)

// CollisionCallback receives one collision event per invocation.
type CollisionCallback func(physics.CollisionData)

type systemState int

const (
	stateCreated systemState = iota
	stateInitialized
	stateShutdown
)

// PhysicsSystem keeps the entity world and the simulation world in sync. It
// lazily creates simulation objects for entities that gained physics
// components, steps the simulation on a fixed timestep, writes results back
// onto components, and fans collision events out to registered callbacks.
type PhysicsSystem struct {
	world *physics.World

	fixedTimestep float64
	maxDelta      float64
	accumulator   float64

	callbacks []CollisionCallback
	state     systemState
}

// NewPhysicsSystem creates a synchronization system over a simulation world.
func NewPhysicsSystem(world *physics.World) *PhysicsSystem {
	return &PhysicsSystem{
		world:         world,
		fixedTimestep: DefaultFixedTimestep,
		maxDelta:      DefaultMaxDelta,
	}
}

// SetFixedTimestep overrides the fixed step size. Non-positive values are
// ignored.
func (s *PhysicsSystem) SetFixedTimestep(dt float64) {
	if dt > 0 {
		s.fixedTimestep = dt
	}
}

// SetMaxDelta overrides the per-frame delta clamp. Non-positive values are
// ignored.
func (s *PhysicsSystem) SetMaxDelta(d float64) {
	if d > 0 {
		s.maxDelta = d
	}
}

// World returns the simulation world the system drives.
func (s *PhysicsSystem) World() *physics.World {
	return s.world
}

// Initialize readies the system for ticking. It fails when called twice or
// after Shutdown.
func (s *PhysicsSystem) Initialize() error {
	if s.state != stateCreated {
		return fmt.Errorf("physics system: initialize in state %d", s.state)
	}
	g := s.world.Gravity()
	log.Printf("physics: initialized, gravity=(%g, %g)", g.X, g.Y)
	s.state = stateInitialized
	return nil
}

// Shutdown releases system state. It fails when the system was never
// initialized or is already shut down.
func (s *PhysicsSystem) Shutdown() error {
	if s.state != stateInitialized {
		return fmt.Errorf("physics system: shutdown in state %d", s.state)
	}
	log.Printf("physics: shut down")
	s.callbacks = nil
	s.accumulator = 0
	s.state = stateShutdown
	return nil
}

// RegisterCollisionCallback appends a callback. Callbacks run in
// registration order, once per event.
func (s *PhysicsSystem) RegisterCollisionCallback(cb CollisionCallback) {
	if cb == nil {
		return
	}
	s.callbacks = append(s.callbacks, cb)
}

// ClearCollisionCallbacks removes every registered callback.
func (s *PhysicsSystem) ClearCollisionCallbacks() {
	s.callbacks = nil
}

// CallbackCount returns the number of registered callbacks.
func (s *PhysicsSystem) CallbackCount() int {
	return len(s.callbacks)
}

// Update runs one synchronization tick: prune dead entities, lazily create
// simulation objects, step the simulation a whole number of fixed
// increments, write results back, and dispatch collision events.
func (s *PhysicsSystem) Update(w donburi.World, deltaTime float64) {
	if s == nil || s.state != stateInitialized || w == nil {
		return
	}
	if deltaTime > s.maxDelta {
		deltaTime = s.maxDelta
	}

	s.pruneDeadEntities(w)
	s.syncNewEntities(w)

	var events []physics.CollisionData
	s.accumulator += deltaTime
	for s.accumulator >= s.fixedTimestep {
		s.world.Step(s.fixedTimestep)
		s.accumulator -= s.fixedTimestep
		if len(s.callbacks) > 0 {
			events = append(events, s.world.CollisionEvents()...)
		}
	}

	s.writeBack(w)

	for _, data := range events {
		for _, cb := range s.callbacks {
			cb(data)
		}
	}
}

// pruneDeadEntities tears down simulation objects whose entity no longer
// exists in the world, keeping the handle maps free of orphans.
func (s *PhysicsSystem) pruneDeadEntities(w donburi.World) {
	for _, entity := range s.world.TrackedEntities() {
		if !w.Valid(entity) {
			s.world.RemoveEntity(entity)
		}
	}
}

// syncNewEntities creates simulation objects for entities that gained
// physics components since the last tick. Additive only: removal is driven
// by explicit component or entity removal.
func (s *PhysicsSystem) syncNewEntities(w donburi.World) {
	components.RigidBody.Each(w, func(entry *donburi.Entry) {
		entity := entry.Entity()
		if s.world.HasRigidBody(entity) {
			return
		}
		rb := components.RigidBody.Get(entry)
		position, rotation := entryPose(entry)
		s.world.AddRigidBody(entity, rb, position, rotation)
	})

	components.Collider.Each(w, func(entry *donburi.Entry) {
		entity := entry.Entity()
		if s.world.HasCollider(entity) {
			return
		}
		col := components.Collider.Get(entry)
		var rb *components.RigidBodyData
		if entry.HasComponent(components.RigidBody) {
			rb = components.RigidBody.Get(entry)
		}
		position, _ := entryPose(entry)
		s.world.AddCollider(entity, col, rb, position)
	})
}

// writeBack copies simulation results onto components. Dynamic and kinematic
// bodies overwrite the transform; dynamic bodies also overwrite the velocity
// fields. Static bodies are immovable and never read back.
func (s *PhysicsSystem) writeBack(w donburi.World) {
	components.RigidBody.Each(w, func(entry *donburi.Entry) {
		rb := components.RigidBody.Get(entry)
		if rb.Type == components.BodyStatic {
			return
		}
		entity := entry.Entity()
		position, rotation, ok := s.world.BodyTransform(entity)
		if !ok {
			return
		}
		if entry.HasComponent(components.Transform) {
			t := components.Transform.Get(entry)
			t.X = position.X
			t.Y = position.Y
			t.Rotation = rotation
		}
		if rb.Type == components.BodyDynamic {
			if velocity, angular, ok := s.world.BodyVelocity(entity); ok {
				rb.Velocity = velocity
				rb.AngularVelocity = angular
			}
		}
	})
}

func entryPose(entry *donburi.Entry) (components.Vector, float64) {
	if !entry.HasComponent(components.Transform) {
		return components.Vector{}, 0
	}
	t := components.Transform.Get(entry)
	return components.Vector{X: t.X, Y: t.Y}, t.Rotation
}
