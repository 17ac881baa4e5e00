package physics

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/yohamta/donburi"

	"github.com/magicjedi90/insiculous-2d-sub000/components"
)

// maxSubsteps bounds how finely a single Step may be subdivided for
// continuous collision detection.
const maxSubsteps = 8

// World wraps the Chipmunk space and owns every simulation-side object. It
// keeps bidirectional maps between entities and engine handles; no other
// component holds or interprets a raw handle.
type World struct {
	cfg   Config
	space *cp.Space

	bodies     map[donburi.Entity]*cp.Body
	bodyOwner  map[*cp.Body]donburi.Entity
	shapes     map[donburi.Entity]*cp.Shape
	shapeOwner map[*cp.Shape]donburi.Entity

	// minExtent is the smallest collider dimension per entity, in
	// simulation units, used to size CCD substeps.
	minExtent map[donburi.Entity]float64
	ccd       map[donburi.Entity]bool

	kinematicTargets map[donburi.Entity]cp.Vector

	// touching is the live set of pairs in narrow-phase contact, maintained
	// by the engine's begin/pre-solve/separate callbacks.
	touching     map[EntityPair][]ContactPoint
	prevTouching map[EntityPair]struct{}
	events       []CollisionData
}

// NewWorld creates a simulation world from a config.
func NewWorld(cfg Config) *World {
	space := cp.NewSpace()
	space.Iterations = cfg.solverIterations()

	w := &World{
		cfg:              cfg,
		space:            space,
		bodies:           make(map[donburi.Entity]*cp.Body),
		bodyOwner:        make(map[*cp.Body]donburi.Entity),
		shapes:           make(map[donburi.Entity]*cp.Shape),
		shapeOwner:       make(map[*cp.Shape]donburi.Entity),
		minExtent:        make(map[donburi.Entity]float64),
		ccd:              make(map[donburi.Entity]bool),
		kinematicTargets: make(map[donburi.Entity]cp.Vector),
		touching:         make(map[EntityPair][]ContactPoint),
		prevTouching:     make(map[EntityPair]struct{}),
	}
	space.SetGravity(w.toSim(cfg.Gravity))
	w.installContactHandler()
	return w
}

// installContactHandler wires the engine's narrow-phase callbacks to the
// touching set. Every shape keeps the default collision type, so one handler
// sees every pair that passes the broad phase and filter masks.
func (w *World) installContactHandler() {
	handler := w.space.NewCollisionHandler(0, 0)
	handler.UserData = w
	handler.BeginFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		world, ok := userData.(*World)
		if ok && world != nil {
			world.recordContact(arb)
		}
		return true
	}
	handler.PreSolveFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		world, ok := userData.(*World)
		if ok && world != nil {
			world.recordContact(arb)
		}
		return true
	}
	handler.SeparateFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) {
		world, ok := userData.(*World)
		if !ok || world == nil {
			return
		}
		shapeA, shapeB := arb.Shapes()
		entityA, okA := world.shapeOwner[shapeA]
		entityB, okB := world.shapeOwner[shapeB]
		if !okA || !okB {
			return
		}
		delete(world.touching, MakePair(entityA, entityB))
	}
}

// recordContact captures the arbiter's manifold for the canonical pair, in
// display units. The normal is flipped when canonicalization swapped the
// entities so it always points from EntityA toward EntityB.
func (w *World) recordContact(arb *cp.Arbiter) {
	shapeA, shapeB := arb.Shapes()
	entityA, okA := w.shapeOwner[shapeA]
	entityB, okB := w.shapeOwner[shapeB]
	if !okA || !okB || entityA == entityB {
		return
	}
	set := arb.ContactPointSet()

	pair := MakePair(entityA, entityB)
	normal := set.Normal
	if pair.A != entityA {
		normal = normal.Neg()
	}
	points := make([]ContactPoint, 0, set.Count)
	for i := 0; i < set.Count; i++ {
		p := set.Points[i]
		points = append(points, ContactPoint{
			Point:  w.toDisplay(p.PointA),
			Normal: components.Vector{X: normal.X, Y: normal.Y},
			Depth:  w.toDisplayScalar(-p.Distance),
		})
	}
	w.touching[pair] = points
}

// Space returns the underlying Chipmunk space. Debug rendering only; game
// code must go through the wrapper.
func (w *World) Space() *cp.Space {
	if w == nil {
		return nil
	}
	return w.space
}

// Config returns the active configuration.
func (w *World) Config() Config {
	return w.cfg
}

// Gravity returns the gravity vector in display units.
func (w *World) Gravity() components.Vector {
	return w.cfg.Gravity
}

// SetGravity replaces the gravity vector, in display units.
func (w *World) SetGravity(g components.Vector) {
	w.cfg.Gravity = g
	w.space.SetGravity(w.toSim(g))
}

// ApplyConfig re-applies the tunable parts of a config at runtime: gravity
// and solver iterations. PixelsPerUnit is fixed at construction because every
// stored handle was converted under it.
func (w *World) ApplyConfig(cfg Config) {
	w.cfg.VelocityIterations = cfg.VelocityIterations
	w.cfg.PositionIterations = cfg.PositionIterations
	w.space.Iterations = w.cfg.solverIterations()
	w.SetGravity(cfg.Gravity)
}

// AddRigidBody inserts a simulation body for an entity, replacing any body
// it already had. Position and velocity are display units. The handle is
// written back into the component.
func (w *World) AddRigidBody(entity donburi.Entity, rb *components.RigidBodyData, position components.Vector, rotation float64) {
	if w == nil || rb == nil {
		return
	}
	w.RemoveRigidBody(entity)

	var body *cp.Body
	switch rb.Type {
	case components.BodyStatic:
		body = cp.NewStaticBody()
	case components.BodyKinematic:
		body = cp.NewKinematicBody()
	default:
		moment := 1.0
		if !rb.CanRotate {
			moment = math.Inf(1)
		}
		body = cp.NewBody(1, moment)
	}

	body.SetPosition(w.toSim(position))
	body.SetAngle(rotation)
	body.SetVelocityVector(w.toSim(rb.Velocity))
	body.SetAngularVelocity(rb.AngularVelocity)

	if rb.Type == components.BodyDynamic {
		gravityScale := rb.GravityScale
		linearDamping := rb.LinearDamping
		angularDamping := rb.AngularDamping
		if gravityScale != 1 || linearDamping > 0 || angularDamping > 0 {
			body.SetVelocityUpdateFunc(func(b *cp.Body, gravity cp.Vector, damping, dt float64) {
				if linearDamping > 0 {
					damping *= math.Exp(-linearDamping * dt)
				}
				cp.BodyUpdateVelocity(b, gravity.Mult(gravityScale), damping, dt)
				if angularDamping > 0 {
					b.SetAngularVelocity(b.AngularVelocity() * math.Exp(-angularDamping*dt))
				}
			})
		}
	}

	w.space.AddBody(body)
	w.bodies[entity] = body
	w.bodyOwner[body] = entity
	if rb.CCD {
		w.ccd[entity] = true
	}
	rb.Handle = body
}

// AddCollider inserts a simulation shape for an entity, replacing any shape
// it already had. The shape attaches to the entity's body when rb is non-nil
// and tracked; otherwise it is inserted as free-floating static geometry at
// position. The handle is written back into the component.
func (w *World) AddCollider(entity donburi.Entity, col *components.ColliderData, rb *components.RigidBodyData, position components.Vector) {
	if w == nil || col == nil {
		return
	}
	w.RemoveCollider(entity)

	// Resolve the body through the tracking map, never through rb.Handle:
	// the component may hold a handle to a body that was since removed.
	body := w.space.StaticBody
	anchor := w.toSim(position)
	attached := false
	if rb != nil {
		if tracked, ok := w.bodies[entity]; ok {
			body = tracked
			anchor = cp.Vector{}
			attached = true
			rb.Handle = tracked
		}
	}
	offset := anchor.Add(w.toSim(col.Offset))

	var shape *cp.Shape
	switch col.Kind {
	case components.ShapeCircle:
		shape = cp.NewCircle(body, w.toSimScalar(col.Radius), offset)
		w.minExtent[entity] = w.toSimScalar(col.Radius * 2)
	case components.ShapeCapsuleX:
		hh := w.toSimScalar(col.HalfHeight)
		a := offset.Add(cp.Vector{X: -hh})
		b := offset.Add(cp.Vector{X: hh})
		shape = cp.NewSegment(body, a, b, w.toSimScalar(col.Radius))
		w.minExtent[entity] = w.toSimScalar(col.Radius * 2)
	case components.ShapeCapsuleY:
		hh := w.toSimScalar(col.HalfHeight)
		a := offset.Add(cp.Vector{Y: -hh})
		b := offset.Add(cp.Vector{Y: hh})
		shape = cp.NewSegment(body, a, b, w.toSimScalar(col.Radius))
		w.minExtent[entity] = w.toSimScalar(col.Radius * 2)
	default:
		width := w.toSimScalar(col.HalfWidth * 2)
		height := w.toSimScalar(col.HalfHeight * 2)
		bb := cp.BB{
			L: offset.X - width/2,
			B: offset.Y - height/2,
			R: offset.X + width/2,
			T: offset.Y + height/2,
		}
		shape = cp.NewBox2(body, bb, 0)
		w.minExtent[entity] = math.Min(width, height)
	}

	shape.SetFriction(col.Friction)
	shape.SetElasticity(col.Restitution)
	shape.SetSensor(col.Sensor)
	shape.SetFilter(w.shapeFilter(col))

	if attached && rb.Type == components.BodyDynamic && rb.CanRotate {
		body.SetMoment(w.momentFor(body.Mass(), col))
	}

	w.space.AddShape(shape)
	w.shapes[entity] = shape
	w.shapeOwner[shape] = entity
	col.Handle = shape
}

func (w *World) shapeFilter(col *components.ColliderData) cp.ShapeFilter {
	categories := col.Group
	if categories == 0 {
		categories = cp.ALL_CATEGORIES
	}
	mask := col.Mask
	if mask == 0 {
		mask = cp.ALL_CATEGORIES
	}
	return cp.NewShapeFilter(cp.NO_GROUP, categories, mask)
}

func (w *World) momentFor(mass float64, col *components.ColliderData) float64 {
	switch col.Kind {
	case components.ShapeCircle:
		return cp.MomentForCircle(mass, 0, w.toSimScalar(col.Radius), w.toSim(col.Offset))
	case components.ShapeCapsuleX:
		hh := w.toSimScalar(col.HalfHeight)
		return cp.MomentForSegment(mass, cp.Vector{X: -hh}, cp.Vector{X: hh}, w.toSimScalar(col.Radius))
	case components.ShapeCapsuleY:
		hh := w.toSimScalar(col.HalfHeight)
		return cp.MomentForSegment(mass, cp.Vector{Y: -hh}, cp.Vector{Y: hh}, w.toSimScalar(col.Radius))
	default:
		return cp.MomentForBox(mass, w.toSimScalar(col.HalfWidth*2), w.toSimScalar(col.HalfHeight*2))
	}
}

// RemoveCollider removes the entity's simulation shape, if any. A component
// still holding the old Handle sees a dead pointer; handles are only
// refreshed by Add calls, and no wrapper operation reads them.
func (w *World) RemoveCollider(entity donburi.Entity) {
	if w == nil {
		return
	}
	shape, ok := w.shapes[entity]
	if !ok {
		return
	}
	w.space.RemoveShape(shape)
	delete(w.shapes, entity)
	delete(w.shapeOwner, shape)
	delete(w.minExtent, entity)
	w.dropPairs(entity)
}

// RemoveRigidBody removes the entity's simulation body and any shapes still
// attached to it. Component Handle fields go stale like in RemoveCollider.
func (w *World) RemoveRigidBody(entity donburi.Entity) {
	if w == nil {
		return
	}
	body, ok := w.bodies[entity]
	if !ok {
		return
	}

	var attached []*cp.Shape
	body.EachShape(func(s *cp.Shape) {
		attached = append(attached, s)
	})
	for _, s := range attached {
		w.space.RemoveShape(s)
		if owner, ok := w.shapeOwner[s]; ok {
			delete(w.shapes, owner)
			delete(w.shapeOwner, s)
			delete(w.minExtent, owner)
		}
	}

	w.space.RemoveBody(body)
	delete(w.bodies, entity)
	delete(w.bodyOwner, body)
	delete(w.ccd, entity)
	delete(w.kinematicTargets, entity)
	w.dropPairs(entity)
}

// RemoveEntity tears down every simulation object tracked for an entity.
func (w *World) RemoveEntity(entity donburi.Entity) {
	w.RemoveRigidBody(entity)
	w.RemoveCollider(entity)
}

// dropPairs forgets any previously-touching pair involving the entity so a
// removed object does not surface a stopped event against a dead entity.
func (w *World) dropPairs(entity donburi.Entity) {
	for pair := range w.prevTouching {
		if pair.A == entity || pair.B == entity {
			delete(w.prevTouching, pair)
		}
	}
	for pair := range w.touching {
		if pair.A == entity || pair.B == entity {
			delete(w.touching, pair)
		}
	}
}

// Step advances the simulation by dt seconds and rebuilds the collision
// event list by diffing this step's touching pairs against the last step's.
func (w *World) Step(dt float64) {
	if w == nil || dt <= 0 {
		return
	}

	for entity, target := range w.kinematicTargets {
		body, ok := w.bodies[entity]
		if !ok {
			delete(w.kinematicTargets, entity)
			continue
		}
		body.SetVelocityVector(target.Sub(body.Position()).Mult(1 / dt))
	}

	steps := w.substeps(dt)
	h := dt / float64(steps)
	// Union the touching set across substeps so a fast transient contact
	// still surfaces on the step it was detected.
	active := make(map[EntityPair][]ContactPoint)
	for i := 0; i < steps; i++ {
		w.space.Step(h)
		for pair, points := range w.touching {
			active[pair] = points
		}
	}

	for entity := range w.kinematicTargets {
		if body, ok := w.bodies[entity]; ok {
			body.SetVelocityVector(cp.Vector{})
		}
		delete(w.kinematicTargets, entity)
	}

	events := make([]CollisionData, 0, len(active))
	for pair, points := range active {
		_, was := w.prevTouching[pair]
		events = append(events, CollisionData{
			Event:  CollisionEvent{EntityA: pair.A, EntityB: pair.B, Started: !was},
			Points: points,
		})
	}
	for pair := range w.prevTouching {
		if _, still := active[pair]; !still {
			events = append(events, CollisionData{
				Event: CollisionEvent{EntityA: pair.A, EntityB: pair.B, Stopped: true},
			})
		}
	}

	prev := make(map[EntityPair]struct{}, len(active))
	for pair := range active {
		prev[pair] = struct{}{}
	}
	w.prevTouching = prev
	w.events = events
}

// substeps sizes the step subdivision needed so that no CCD-enabled body
// travels more than its smallest collider extent per engine tick.
func (w *World) substeps(dt float64) int {
	steps := 1
	for entity := range w.ccd {
		body, ok := w.bodies[entity]
		if !ok {
			continue
		}
		extent := w.minExtent[entity]
		if extent <= 0 {
			continue
		}
		travel := body.Velocity().Length() * dt
		if travel <= extent {
			continue
		}
		n := int(math.Ceil(travel / extent))
		if n > steps {
			steps = n
		}
	}
	if steps > maxSubsteps {
		steps = maxSubsteps
	}
	return steps
}

// CollisionEvents returns the events produced by the most recent Step. The
// slice is owned by the world and valid until the next Step.
func (w *World) CollisionEvents() []CollisionData {
	if w == nil {
		return nil
	}
	return w.events
}

// BodyTransform reads back an entity's position and rotation, in display
// units. ok is false when the entity has no tracked body.
func (w *World) BodyTransform(entity donburi.Entity) (position components.Vector, rotation float64, ok bool) {
	body, tracked := w.bodies[entity]
	if !tracked {
		return components.Vector{}, 0, false
	}
	return w.toDisplay(body.Position()), body.Angle(), true
}

// BodyVelocity reads back an entity's linear and angular velocity, in
// display units. ok is false when the entity has no tracked body.
func (w *World) BodyVelocity(entity donburi.Entity) (velocity components.Vector, angular float64, ok bool) {
	body, tracked := w.bodies[entity]
	if !tracked {
		return components.Vector{}, 0, false
	}
	return w.toDisplay(body.Velocity()), body.AngularVelocity(), true
}

// SetBodyTransform teleports an entity's body. Prefer SetKinematicTarget for
// kinematic bodies so contacts along the path still register.
func (w *World) SetBodyTransform(entity donburi.Entity, position components.Vector, rotation float64) {
	body, ok := w.bodies[entity]
	if !ok {
		return
	}
	body.SetPosition(w.toSim(position))
	body.SetAngle(rotation)
	body.EachShape(func(s *cp.Shape) {
		s.CacheBB()
	})
}

// SetBodyVelocity overwrites an entity's linear and angular velocity, in
// display units.
func (w *World) SetBodyVelocity(entity donburi.Entity, velocity components.Vector, angular float64) {
	body, ok := w.bodies[entity]
	if !ok {
		return
	}
	body.SetVelocityVector(w.toSim(velocity))
	body.SetAngularVelocity(angular)
}

// SetKinematicTarget sets the position the solver moves a kinematic body
// toward during the next Step. The body sweeps the intervening space, so it
// registers contacts along its path instead of teleporting through them.
func (w *World) SetKinematicTarget(entity donburi.Entity, target components.Vector) {
	if _, ok := w.bodies[entity]; !ok {
		return
	}
	w.kinematicTargets[entity] = w.toSim(target)
}

// ApplyImpulse applies an instantaneous impulse at the body's center of
// mass, in display units.
func (w *World) ApplyImpulse(entity donburi.Entity, impulse components.Vector) {
	body, ok := w.bodies[entity]
	if !ok {
		return
	}
	body.ApplyImpulseAtWorldPoint(w.toSim(impulse), body.Position())
}

// ApplyForce applies a continuous force at the body's center of mass, in
// display units. Forces reset after each engine tick.
func (w *World) ApplyForce(entity donburi.Entity, force components.Vector) {
	body, ok := w.bodies[entity]
	if !ok {
		return
	}
	body.ApplyForceAtWorldPoint(w.toSim(force), body.Position())
}

// HasRigidBody reports whether the entity has a tracked simulation body.
func (w *World) HasRigidBody(entity donburi.Entity) bool {
	_, ok := w.bodies[entity]
	return ok
}

// HasCollider reports whether the entity has a tracked simulation shape.
func (w *World) HasCollider(entity donburi.Entity) bool {
	_, ok := w.shapes[entity]
	return ok
}

// RigidBodyCount returns the number of tracked bodies.
func (w *World) RigidBodyCount() int {
	return len(w.bodies)
}

// ColliderCount returns the number of tracked shapes.
func (w *World) ColliderCount() int {
	return len(w.shapes)
}

// TrackedEntities returns every entity with a tracked body or shape.
func (w *World) TrackedEntities() []donburi.Entity {
	seen := make(map[donburi.Entity]struct{}, len(w.bodies)+len(w.shapes))
	out := make([]donburi.Entity, 0, len(w.bodies)+len(w.shapes))
	for entity := range w.bodies {
		seen[entity] = struct{}{}
		out = append(out, entity)
	}
	for entity := range w.shapes {
		if _, dup := seen[entity]; !dup {
			out = append(out, entity)
		}
	}
	return out
}
