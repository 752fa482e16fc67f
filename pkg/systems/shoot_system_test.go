package systems

import (
	"math"
	"testing"

	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/ecs"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/types"
	"github.com/decker502/crashthatcar/pkg/utils"
)

// TestComputeVelocity 测试速度大小恒定且方向符合屏幕到世界的映射
func TestComputeVelocity(t *testing.T) {
	tests := []struct {
		name   string
		p1, p2 types.Point
		wantX  float64
		wantZ  float64
	}{
		{"right", types.Point{X: 0, Y: 0}, types.Point{X: 10, Y: 0}, 10, 0},
		{"left", types.Point{X: 10, Y: 0}, types.Point{X: 0, Y: 0}, -10, 0},
		{"up", types.Point{X: 0, Y: 10}, types.Point{X: 0, Y: 0}, 0, 10},
		{"down", types.Point{X: 0, Y: 0}, types.Point{X: 0, Y: 10}, 0, -10},
		{"diagonal", types.Point{X: 0, Y: 0}, types.Point{X: 3, Y: -4}, 6, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := ComputeVelocity(tt.p1, tt.p2, 10)
			if !ok {
				t.Fatal("Expected a valid velocity")
			}
			if math.Abs(v.X-tt.wantX) > 1e-9 || math.Abs(v.Z-tt.wantZ) > 1e-9 || v.Y != 0 {
				t.Errorf("Expected (%v, 0, %v), got %+v", tt.wantX, tt.wantZ, v)
			}
			if math.Abs(v.Length()-10) > 1e-9 {
				t.Errorf("Expected magnitude 10, got %v", v.Length())
			}
		})
	}
}

// TestSwipeFollowsProjection 在投影后的屏幕上从一条车道滑向另一条车道，
// 射出方向应当与两点的世界位移一致
func TestSwipeFollowsProjection(t *testing.T) {
	proj := utils.NewProjection()
	proj.CameraX = 8

	tests := []struct {
		name     string
		from, to types.Vec3
	}{
		{"first to second lane", types.Vec3{X: 10, Z: -5}, types.Vec3{X: 10, Z: 5}},
		{"second to first lane", types.Vec3{X: 10, Z: 5}, types.Vec3{X: 10, Z: -5}},
		{"forward and across", types.Vec3{X: 10, Z: -5}, types.Vec3{X: 14, Z: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := ComputeVelocity(proj.WorldToScreen(tt.from), proj.WorldToScreen(tt.to), 10)
			if !ok {
				t.Fatal("Expected a valid velocity")
			}
			dz := tt.to.Z - tt.from.Z
			if math.Signbit(v.Z) != math.Signbit(dz) {
				t.Errorf("Expected vZ with the sign of %v, got %v", dz, v.Z)
			}
			dx := tt.to.X - tt.from.X
			if dx != 0 && math.Signbit(v.X) != math.Signbit(dx) {
				t.Errorf("Expected vX with the sign of %v, got %v", dx, v.X)
			}
		})
	}
}

// TestComputeVelocityDegenerate 测试两点重合时不产生速度
func TestComputeVelocityDegenerate(t *testing.T) {
	v, ok := ComputeVelocity(types.Point{X: 5, Y: 5}, types.Point{X: 5, Y: 5}, 10)
	if ok {
		t.Error("Expected degenerate gesture to be rejected")
	}
	if v != (types.Vec3{}) {
		t.Errorf("Expected zero velocity, got %+v", v)
	}
}

// catchObstacle 把障碍物置为 InBarrier 并让点击命中它
func catchObstacle(h *harness, id ecs.EntityID) *components.ObstacleComponent {
	obstacle, _ := ecs.GetComponent[*components.ObstacleComponent](h.em, id)
	obstacle.Tag = components.ObstacleInBarrier
	obstacle.CapturedBy = obstacle.Lane
	h.world.Hits = []types.Handle{obstacle.Handle}
	return obstacle
}

// TestShootFlow 测试按下-滑动射出
func TestShootFlow(t *testing.T) {
	h := newHarness(t)
	obstacles, _ := h.spawnAll()
	shoot := NewShootSystem(h.em, h.world, h.effects, h.index, h.spawner, h.cfg.Obstacles.LaunchSpeed)

	obstacle := catchObstacle(h, obstacles[0])
	var g Gesture

	if got := shoot.TouchDown(&g, types.Point{X: 100, Y: 100}, 1.0); got != TouchSelected {
		t.Fatalf("Expected TouchSelected, got %v", got)
	}
	if obstacle.Tag != components.ObstacleBeingShot || !g.Active {
		t.Fatalf("Expected BeingShot with active gesture, got %s", obstacle.Tag)
	}

	// 与按下点相同的采样只是等待
	shoot.TouchMove(&g, types.Point{X: 100, Y: 100}, 1.01)
	if obstacle.Tag != components.ObstacleBeingShot || !g.Active {
		t.Fatal("Expected gesture to keep waiting on a zero-length move")
	}

	shoot.TouchMove(&g, types.Point{X: 100, Y: 50}, 1.05)
	if obstacle.Tag != components.ObstacleShot {
		t.Fatalf("Expected Shot, got %s", obstacle.Tag)
	}
	if g.Active {
		t.Error("Expected gesture cleared after shot")
	}
	if len(h.world.Impulses) != 1 {
		t.Fatalf("Expected 1 impulse, got %d", len(h.world.Impulses))
	}
	imp := h.world.Impulses[0]
	if imp.Handle != obstacle.Handle || math.Abs(imp.Velocity.Z-10) > 1e-9 {
		t.Errorf("Expected +Z impulse of 10 on obstacle, got %+v", imp)
	}
	if !h.effects.Attached[obstacle.Handle][game.EffectShotTrail] {
		t.Error("Expected shot trail attached")
	}

	// 抬起时手势已经结束，不再有冲量
	shoot.TouchUp(&g, types.Point{X: 100, Y: 0}, 1.1)
	if len(h.world.Impulses) != 1 {
		t.Errorf("Expected no extra impulse, got %d", len(h.world.Impulses))
	}
}

// TestShootCancelledOnDegenerateRelease 测试原地抬起取消射击
func TestShootCancelledOnDegenerateRelease(t *testing.T) {
	h := newHarness(t)
	obstacles, _ := h.spawnAll()
	shoot := NewShootSystem(h.em, h.world, h.effects, h.index, h.spawner, 10)

	obstacle := catchObstacle(h, obstacles[0])
	var g Gesture
	shoot.TouchDown(&g, types.Point{X: 10, Y: 10}, 0)
	shoot.TouchUp(&g, types.Point{X: 10, Y: 10}, 0.2)

	if obstacle.Tag != components.ObstacleInBarrier {
		t.Errorf("Expected InBarrier after cancel, got %s", obstacle.Tag)
	}
	if g.Active {
		t.Error("Expected gesture cleared")
	}
	if len(h.world.Impulses) != 0 {
		t.Errorf("Expected no impulse, got %d", len(h.world.Impulses))
	}
}

// TestShootIgnoresNonCaughtObstacle 测试点击未被接住的障碍物无效
func TestShootIgnoresNonCaughtObstacle(t *testing.T) {
	h := newHarness(t)
	obstacles, _ := h.spawnAll()
	shoot := NewShootSystem(h.em, h.world, h.effects, h.index, h.spawner, 10)

	obstacle, _ := ecs.GetComponent[*components.ObstacleComponent](h.em, obstacles[0])
	h.world.Hits = []types.Handle{obstacle.Handle}

	var g Gesture
	if got := shoot.TouchDown(&g, types.Point{}, 0); got != TouchMissed {
		t.Errorf("Expected TouchMissed, got %v", got)
	}
	if obstacle.Tag != components.ObstacleNormal || g.Active {
		t.Error("Expected Normal obstacle to be untouched")
	}

	// Shot 状态再次点击也无效
	obstacle.Tag = components.ObstacleShot
	if got := shoot.TouchDown(&g, types.Point{}, 0); got != TouchMissed {
		t.Errorf("Expected TouchMissed on Shot obstacle, got %v", got)
	}
}

// TestShootDetonate 测试点击待爆炸的障碍物将其引爆
func TestShootDetonate(t *testing.T) {
	h := newHarness(t)
	obstacles, _ := h.spawnAll()
	shoot := NewShootSystem(h.em, h.world, h.effects, h.index, h.spawner, 10)

	obstacle, _ := ecs.GetComponent[*components.ObstacleComponent](h.em, obstacles[3])
	handle := obstacle.Handle
	obstacle.Tag = components.ObstacleReadyToExplode
	h.world.Hits = []types.Handle{handle}

	var g Gesture
	if got := shoot.TouchDown(&g, types.Point{}, 0); got != TouchDetonated {
		t.Fatalf("Expected TouchDetonated, got %v", got)
	}
	if !h.world.Nodes[handle].Destroyed {
		t.Error("Expected node destroyed")
	}
	if h.em.Alive(obstacles[3]) {
		t.Error("Expected entity marked for removal")
	}
	if h.effects.ParticleCount(game.EffectExplosion) != 1 {
		t.Errorf("Expected 1 explosion, got %d", h.effects.ParticleCount(game.EffectExplosion))
	}
}

// TestShootOnlyOneGesture 测试手势进行中新的按下被忽略
func TestShootOnlyOneGesture(t *testing.T) {
	h := newHarness(t)
	obstacles, _ := h.spawnAll()
	shoot := NewShootSystem(h.em, h.world, h.effects, h.index, h.spawner, 10)

	first := catchObstacle(h, obstacles[0])
	var g Gesture
	shoot.TouchDown(&g, types.Point{}, 0)

	second := catchObstacle(h, obstacles[1])
	if got := shoot.TouchDown(&g, types.Point{}, 0); got != TouchMissed {
		t.Errorf("Expected second touch ignored, got %v", got)
	}
	if first.Tag != components.ObstacleBeingShot || second.Tag != components.ObstacleInBarrier {
		t.Errorf("Expected exactly one BeingShot, got %s and %s", first.Tag, second.Tag)
	}
}
