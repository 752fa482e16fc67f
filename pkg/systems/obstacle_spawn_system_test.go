package systems

import (
	"errors"
	"math"
	"testing"

	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/ecs"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/types"
)

// TestSpawnLayout 测试障碍物数量和位置范围
func TestSpawnLayout(t *testing.T) {
	h := newHarness(t)
	obstacles, speedObstacles := h.spawner.Spawn()

	perLane := h.cfg.Obstacles.PerLane
	if len(obstacles) != 2*perLane {
		t.Fatalf("Expected %d obstacles, got %d", 2*perLane, len(obstacles))
	}
	if len(speedObstacles) != 2*(perLane/2) {
		t.Fatalf("Expected %d speed obstacles, got %d", 2*(perLane/2), len(speedObstacles))
	}

	maxZ := h.cfg.Track.HalfWidth() - h.cfg.Obstacles.Margin
	for _, id := range obstacles {
		o, _ := ecs.GetComponent[*components.ObstacleComponent](h.em, id)
		pos := o.Transform.Position

		if o.SpeedUp || o.Tag != components.ObstacleNormal {
			t.Errorf("Expected plain Normal obstacle, got %+v", o)
		}
		wantX := float64(o.Index) * h.cfg.Obstacles.Spacing
		if pos.X != wantX {
			t.Errorf("Expected x=%v for index %d, got %v", wantX, o.Index, pos.X)
		}
		absZ := math.Abs(pos.Z)
		if absZ < 1 || absZ >= maxZ {
			t.Errorf("Expected |z| in [1, %v), got %v", maxZ, pos.Z)
		}
		if math.Signbit(pos.Z) != (o.Lane.LaneSign() < 0) {
			t.Errorf("Expected z on lane %s side, got %v", o.Lane, pos.Z)
		}
		if pos.Y != h.cfg.Obstacles.Height {
			t.Errorf("Expected y=%v, got %v", h.cfg.Obstacles.Height, pos.Y)
		}
		if o.Palette < 0 || o.Palette >= h.cfg.Obstacles.PaletteSize {
			t.Errorf("Palette out of range: %d", o.Palette)
		}
	}

	for _, id := range speedObstacles {
		o, _ := ecs.GetComponent[*components.ObstacleComponent](h.em, id)
		if !o.SpeedUp || o.Index%2 != 0 {
			t.Errorf("Expected speed obstacle at even index, got %+v", o)
		}
		wantX := float64(o.Index)*h.cfg.Obstacles.Spacing + h.cfg.Obstacles.SpeedObstacleOffset
		if o.Transform.Position.X != wantX {
			t.Errorf("Expected x=%v, got %v", wantX, o.Transform.Position.X)
		}
	}
}

// TestSpawnStaggeredInsertion 测试插入按间隔逐个进行
func TestSpawnStaggeredInsertion(t *testing.T) {
	h := newHarness(t)
	obstacles, speedObstacles := h.spawner.Spawn()
	total := len(obstacles) + len(speedObstacles)

	// k=0 立即到期
	h.sched.Update(0)
	if got := h.index.Len(); got != 1 {
		t.Fatalf("Expected 1 inserted obstacle at t=0, got %d", got)
	}

	h.sched.Update(h.cfg.Obstacles.SpawnDelay * 2.5)
	if got := h.index.Len(); got != 3 {
		t.Errorf("Expected 3 inserted obstacles, got %d", got)
	}

	h.sched.Update(100)
	if got := h.index.Len(); got != total {
		t.Errorf("Expected all %d inserted, got %d", total, got)
	}
	if live := h.world.Live(ObstacleTemplate) + h.world.Live(SpeedObstacleTemplate); live != total {
		t.Errorf("Expected %d live nodes, got %d", total, live)
	}

	o, _ := ecs.GetComponent[*components.ObstacleComponent](h.em, speedObstacles[0])
	node := h.world.Nodes[o.Handle]
	if node.Body == nil || node.Body.Category != components.CategorySpeedObstacle {
		t.Errorf("Expected speed obstacle collider, got %+v", node.Body)
	}
}

// TestReapDropsPendingAndDestroysInserted 测试回收已插入和未插入的障碍物
func TestReapDropsPendingAndDestroysInserted(t *testing.T) {
	h := newHarness(t)
	obstacles, speedObstacles := h.spawner.Spawn()
	h.sched.Update(h.cfg.Obstacles.SpawnDelay * 4.5) // 5 个已插入

	h.sched.NextGeneration()
	h.spawner.Reap(obstacles, speedObstacles)

	if got := h.effects.ParticleCount(game.EffectExplosion); got != 5 {
		t.Errorf("Expected 5 explosions for inserted obstacles, got %d", got)
	}
	if h.index.Len() != 0 {
		t.Errorf("Expected empty handle index, got %d", h.index.Len())
	}

	// 旧回合的插入任务全部作废
	h.sched.Update(100)
	if live := h.world.Live(ObstacleTemplate) + h.world.Live(SpeedObstacleTemplate); live != 0 {
		t.Errorf("Expected no live obstacles after reap, got %d", live)
	}

	h.em.RemoveMarkedEntities()
	if n := len(ecs.GetEntitiesWith1[*components.ObstacleComponent](h.em)); n != 0 {
		t.Errorf("Expected no obstacle entities, got %d", n)
	}
}

// TestReapedEntryBailsWithoutGenerationChange 测试被回收的条目即使任务未过期也不会插入
func TestReapedEntryBailsWithoutGenerationChange(t *testing.T) {
	h := newHarness(t)
	obstacles, speedObstacles := h.spawner.Spawn()
	h.spawner.Reap(obstacles, speedObstacles)

	h.sched.Update(100)
	if h.index.Len() != 0 {
		t.Errorf("Expected nothing inserted, got %d", h.index.Len())
	}
}

// TestSpawnFailureDropsEntry 测试世界实例化失败时丢弃条目
func TestSpawnFailureDropsEntry(t *testing.T) {
	h := newHarness(t)
	h.world.SpawnErr = errors.New("no template")
	obstacles, _ := h.spawner.Spawn()
	h.sched.Update(100)

	if h.em.Alive(obstacles[0]) {
		t.Error("Expected failed entry to be dropped")
	}
}

// TestDestroyObstacleIdempotent 测试重复销毁是安全的
func TestDestroyObstacleIdempotent(t *testing.T) {
	h := newHarness(t)
	obstacles, _ := h.spawnAll()

	_, o, ok := h.spawner.Lookup(mustHandle(h, obstacles[0]))
	if !ok || o == nil {
		t.Fatal("Expected lookup by handle to succeed")
	}

	h.spawner.DestroyObstacle(obstacles[0], game.EffectBigExplosion)
	h.spawner.DestroyObstacle(obstacles[0], game.EffectBigExplosion)

	if got := h.effects.ParticleCount(game.EffectBigExplosion); got != 1 {
		t.Errorf("Expected 1 effect, got %d", got)
	}
	if _, _, ok := h.spawner.Lookup(types.Handle(999)); ok {
		t.Error("Expected unknown handle lookup to fail")
	}
}

func mustHandle(h *harness, id ecs.EntityID) types.Handle {
	o, _ := ecs.GetComponent[*components.ObstacleComponent](h.em, id)
	return o.Handle
}
