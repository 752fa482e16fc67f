package systems

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/ecs"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/types"
)

// BurstSpec describes how one particle effect spawns its particles.
type BurstSpec struct {
	Count    int
	Speed    float64 // 初速度上限(米/秒)
	Drag     float64
	Size     float64
	EndSize  float64
	Lifetime float64
	Colors   []color.RGBA
	Additive bool
}

// DefaultBursts 各粒子效果的默认参数
func DefaultBursts() map[game.EffectKey]BurstSpec {
	fire := []color.RGBA{
		{R: 255, G: 200, B: 60, A: 255},
		{R: 255, G: 120, B: 30, A: 255},
		{R: 220, G: 50, B: 20, A: 255},
	}
	return map[game.EffectKey]BurstSpec{
		game.EffectExplosion: {
			Count: 24, Speed: 6, Drag: 2.5, Size: 0.5, EndSize: 0.1, Lifetime: 0.6,
			Colors: fire, Additive: true,
		},
		game.EffectBigExplosion: {
			Count: 60, Speed: 11, Drag: 2, Size: 0.9, EndSize: 0.2, Lifetime: 1.1,
			Colors: append(fire, color.RGBA{R: 90, G: 90, B: 90, A: 255}), Additive: true,
		},
		game.EffectSpeedBoost: {
			Count: 18, Speed: 4, Drag: 1.5, Size: 0.35, EndSize: 0.05, Lifetime: 0.5,
			Colors: []color.RGBA{{R: 80, G: 220, B: 255, A: 255}, {R: 255, G: 255, B: 255, A: 255}},
		},
		game.EffectShotTrail: {
			Count: 1, Speed: 0.5, Drag: 4, Size: 0.4, EndSize: 0, Lifetime: 0.35,
			Colors: []color.RGBA{{R: 200, G: 200, B: 160, A: 200}}, Additive: true,
		},
	}
}

// ParticleSystem spawns particle bursts and moves live particles each frame.
//
// Particles live in their own EntityManager owned by the scene, separate from
// the race entities. Expiry is left to LifetimeSystem.
type ParticleSystem struct {
	EntityManager *ecs.EntityManager

	rng    *rand.Rand
	bursts map[game.EffectKey]BurstSpec
}

// NewParticleSystem creates a new ParticleSystem instance.
func NewParticleSystem(em *ecs.EntityManager, rng *rand.Rand, bursts map[game.EffectKey]BurstSpec) *ParticleSystem {
	return &ParticleSystem{
		EntityManager: em,
		rng:           rng,
		bursts:        bursts,
	}
}

// Burst spawns the particles of one effect at origin and returns how many were created.
// Unknown effects spawn nothing.
func (ps *ParticleSystem) Burst(key game.EffectKey, origin types.Vec3) int {
	spec, ok := ps.bursts[key]
	if !ok || spec.Count <= 0 {
		return 0
	}

	for i := 0; i < spec.Count; i++ {
		angle := ps.rng.Float64() * 2 * math.Pi
		speed := spec.Speed * (0.3 + 0.7*ps.rng.Float64())
		c := spec.Colors[ps.rng.Intn(len(spec.Colors))]

		id := ps.EntityManager.CreateEntity()
		ecs.AddComponent(ps.EntityManager, id, &components.ParticleComponent{
			Position: origin,
			Velocity: types.Vec3{X: math.Cos(angle) * speed, Z: math.Sin(angle) * speed},
			Drag:     spec.Drag,
			Size:     spec.Size,
			EndSize:  spec.EndSize,
			Color:    c,
			Alpha:    1,
			Additive: spec.Additive,
		})
		ecs.AddComponent(ps.EntityManager, id, &components.LifetimeComponent{
			MaxLifetime: spec.Lifetime * (0.7 + 0.3*ps.rng.Float64()),
		})
	}
	return spec.Count
}

// Update moves every particle and fades it according to its lifetime.
func (ps *ParticleSystem) Update(dt float64) {
	ids := ecs.GetEntitiesWith2[*components.ParticleComponent, *components.LifetimeComponent](ps.EntityManager)
	for _, id := range ids {
		p, _ := ecs.GetComponent[*components.ParticleComponent](ps.EntityManager, id)
		life, _ := ecs.GetComponent[*components.LifetimeComponent](ps.EntityManager, id)

		p.Position = p.Position.Add(p.Velocity.Scale(dt))
		p.Velocity = p.Velocity.Scale(math.Max(0, 1-p.Drag*dt))
		p.Alpha = 1 - life.Progress()
	}
}

// CurrentSize 粒子当前边长，从 Size 线性过渡到 EndSize
func CurrentSize(p *components.ParticleComponent, life *components.LifetimeComponent) float64 {
	t := life.Progress()
	return p.Size + (p.EndSize-p.Size)*t
}
