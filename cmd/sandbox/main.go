package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math/rand"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/yohamta/donburi"

	"github.com/magicjedi90/insiculous-2d-sub000/components"
	"github.com/magicjedi90/insiculous-2d-sub000/debugdraw"
	"github.com/magicjedi90/insiculous-2d-sub000/physics"
	"github.com/magicjedi90/insiculous-2d-sub000/systems"
)

const (
	screenWidth  = 1280
	screenHeight = 720
)

var rayColor = color.RGBA{R: 255, G: 80, B: 80, A: 255}

type Game struct {
	world   donburi.World
	physics *physics.World
	system  *systems.PhysicsSystem
	watcher *physics.ConfigWatcher

	events int
}

func NewGame(cfg physics.Config, watcher *physics.ConfigWatcher) (*Game, error) {
	g := &Game{
		world:   donburi.NewWorld(),
		physics: physics.NewWorld(cfg),
		watcher: watcher,
	}
	g.system = systems.NewPhysicsSystem(g.physics)
	if err := g.system.Initialize(); err != nil {
		return nil, err
	}

	g.system.RegisterCollisionCallback(func(data physics.CollisionData) {
		g.events++
		if data.Event.Started {
			log.Printf("sandbox: collision started %v <-> %v", data.Event.EntityA, data.Event.EntityB)
		}
		if data.Event.Stopped {
			log.Printf("sandbox: collision stopped %v <-> %v", data.Event.EntityA, data.Event.EntityB)
		}
	})

	g.spawnGround()
	return g, nil
}

func (g *Game) spawnGround() {
	ground := g.world.Create(components.Transform, components.Collider)
	entry := g.world.Entry(ground)
	components.Transform.SetValue(entry, components.TransformData{X: screenWidth / 2, Y: screenHeight - 40, ScaleX: 1, ScaleY: 1})
	components.Collider.SetValue(entry, components.NewBoxCollider(screenWidth/2, 20))

	// sensor zone in the middle of the arena
	zone := g.world.Create(components.Transform, components.Collider)
	entry = g.world.Entry(zone)
	components.Transform.SetValue(entry, components.TransformData{X: screenWidth / 2, Y: screenHeight / 2, ScaleX: 1, ScaleY: 1})
	sensor := components.NewBoxCollider(120, 120)
	sensor.Sensor = true
	components.Collider.SetValue(entry, sensor)
}

func (g *Game) spawnBody(x, y float64) {
	entity := g.world.Create(components.Transform, components.RigidBody, components.Collider)
	entry := g.world.Entry(entity)
	components.Transform.SetValue(entry, components.TransformData{X: x, Y: y, ScaleX: 1, ScaleY: 1})
	components.RigidBody.SetValue(entry, components.NewRigidBody(components.BodyDynamic))
	if rand.Intn(2) == 0 {
		components.Collider.SetValue(entry, components.NewBoxCollider(16, 16))
	} else {
		components.Collider.SetValue(entry, components.NewCircleCollider(16))
	}
}

func (g *Game) Update() error {
	if g.watcher != nil {
		select {
		case cfg, ok := <-g.watcher.Configs:
			if ok {
				g.physics.ApplyConfig(cfg)
				log.Printf("sandbox: config reloaded, gravity=(%g, %g)", cfg.Gravity.X, cfg.Gravity.Y)
			}
		case err, ok := <-g.watcher.Errors:
			if ok {
				log.Printf("sandbox: config reload: %v", err)
			}
		default:
		}
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		g.spawnBody(float64(x), float64(y))
	}

	g.system.Update(g.world, 1.0/60.0)
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	debugdraw.Draw(g.physics, screen)

	origin := components.Vector{X: 40, Y: 40}
	cx, cy := ebiten.CursorPosition()
	dir := components.Vector{X: float64(cx), Y: float64(cy)}.Sub(origin)
	if hit, ok := g.physics.Raycast(origin, dir, 2000); ok {
		ebitenutil.DrawLine(screen, origin.X, origin.Y, hit.Point.X, hit.Point.Y, rayColor)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("hit %v at %.0f", hit.Entity, hit.Distance), int(hit.Point.X)+4, int(hit.Point.Y))
	}

	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"click to spawn | bodies=%d colliders=%d events=%d",
		g.physics.RigidBodyCount(), g.physics.ColliderCount(), g.events,
	))
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	configPath := flag.String("config", "", "physics config YAML (watched for changes)")
	flag.Parse()

	cfg := physics.DefaultConfig()
	// screen coordinates grow downward
	cfg.Gravity = components.Vector{X: 0, Y: 980}

	var watcher *physics.ConfigWatcher
	if *configPath != "" {
		loaded, err := physics.LoadConfig(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
		watcher, err = physics.NewConfigWatcher(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		defer watcher.Close()
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("physics sandbox")

	game, err := NewGame(cfg, watcher)
	if err != nil {
		log.Fatal(err)
	}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
