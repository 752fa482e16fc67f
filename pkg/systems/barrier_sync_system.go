package systems

import (
	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/ecs"
	"github.com/decker502/crashthatcar/pkg/game"
)

// BarrierSyncSystem 让护栏始终保持在车头前方
type BarrierSyncSystem struct {
	em    *ecs.EntityManager
	world game.World
}

// NewBarrierSyncSystem 创建护栏同步系统
func NewBarrierSyncSystem(em *ecs.EntityManager, world game.World) *BarrierSyncSystem {
	return &BarrierSyncSystem{em: em, world: world}
}

// Update 把每个护栏移动到 车辆位置 + 偏移
func (s *BarrierSyncSystem) Update(deltaTime float64) {
	for _, id := range ecs.GetEntitiesWith1[*components.CarComponent](s.em) {
		car, _ := ecs.GetComponent[*components.CarComponent](s.em, id)
		barrier, ok := ecs.GetComponent[*components.BarrierComponent](s.em, car.Barrier)
		if !ok {
			continue
		}
		s.world.SetPosition(barrier.Handle, s.world.Position(car.Handle).Add(barrier.Offset))
	}
}
