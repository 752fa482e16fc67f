package systems

import (
	"math/rand"
	"testing"

	"github.com/decker502/crashthatcar/pkg/config"
	"github.com/decker502/crashthatcar/pkg/ecs"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/game/gametest"
	"github.com/decker502/crashthatcar/pkg/logger"
	"github.com/decker502/crashthatcar/pkg/types"
)

// harness 系统测试的公共环境
type harness struct {
	em      *ecs.EntityManager
	world   *gametest.World
	effects *gametest.Effects
	hud     *gametest.HUD
	camera  *gametest.Camera
	sched   *game.Scheduler
	index   *HandleIndex
	cfg     *config.RaceConfig
	spawner *ObstacleSpawnSystem
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger.Discard()

	h := &harness{
		em:      ecs.NewEntityManager(),
		world:   gametest.NewTrackWorld(),
		effects: gametest.NewEffects(),
		hud:     gametest.NewHUD(),
		camera:  gametest.NewCamera(),
		sched:   game.NewScheduler(),
		index:   NewHandleIndex(),
		cfg:     config.DefaultRaceConfig(),
	}
	h.spawner = NewObstacleSpawnSystem(h.em, h.world, h.effects, h.sched, h.index, rand.New(rand.NewSource(7)), h.cfg)
	return h
}

// spawnAll 生成并等待全部障碍物插入
func (h *harness) spawnAll() (obstacles, speedObstacles []ecs.EntityID) {
	obstacles, speedObstacles = h.spawner.Spawn()
	h.sched.Update(100)
	return obstacles, speedObstacles
}

func typesHandle(h uint64) types.Handle {
	return types.Handle(h)
}

func gametestRect(x, y, w, hgt float64) gametest.Rect {
	return gametest.Rect{X: x, Y: y, W: w, H: hgt}
}
