package entities

import (
	"fmt"

	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/ecs"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/types"
)

// NewCarEntity 为场景中已有的车辆和护栏节点创建实体
//
// 参数:
//   - em: 实体管理器
//   - world: 场景世界，用于读取起点和挂载碰撞体
//   - player: 车辆所属玩家
//   - carHandle / barrierHandle: 场景节点句柄
//   - barrierOffset: 护栏相对车辆的位置
//
// 返回:
//   - carID, barrierID: 创建的实体ID
//   - error: 参数无效时返回错误
//
// 起点在此时记录，之后每回合重开都恢复到这里
func NewCarEntity(
	em *ecs.EntityManager,
	world game.World,
	player types.PlayerID,
	carHandle, barrierHandle types.Handle,
	barrierOffset types.Vec3,
) (carID, barrierID ecs.EntityID, err error) {
	if em == nil || world == nil {
		return 0, 0, fmt.Errorf("entity manager and world cannot be nil")
	}
	if player == types.PlayerNone {
		return 0, 0, fmt.Errorf("car must belong to a player")
	}
	if carHandle == 0 || barrierHandle == 0 {
		return 0, 0, fmt.Errorf("invalid handles for %s car: car=%d barrier=%d", player, carHandle, barrierHandle)
	}

	carStart := world.Position(carHandle)

	barrierID = em.CreateEntity()
	ecs.AddComponent(em, barrierID, &components.BarrierComponent{
		Owner:         player,
		Handle:        barrierHandle,
		StartPosition: carStart.Add(barrierOffset),
		Offset:        barrierOffset,
	})
	world.AttachCollider(barrierHandle, components.BarrierBody)

	carID = em.CreateEntity()
	ecs.AddComponent(em, carID, &components.CarComponent{
		Player:        player,
		Handle:        carHandle,
		StartPosition: carStart,
		Barrier:       barrierID,
	})
	world.AttachCollider(carHandle, components.CarBody)

	return carID, barrierID, nil
}

// NewLineEntity 为终点线、边界线、中线创建实体
func NewLineEntity(em *ecs.EntityManager, world game.World, h types.Handle, spec components.BodySpec) (ecs.EntityID, error) {
	if h == 0 {
		return 0, fmt.Errorf("invalid handle for %s line", spec.Category)
	}
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.LineComponent{
		Handle:   h,
		Category: spec.Category,
	})
	world.AttachCollider(h, spec)
	return id, nil
}
