package race

import (
	"github.com/decker502/crashthatcar/pkg/ecs"
	"github.com/decker502/crashthatcar/pkg/systems"
	"github.com/decker502/crashthatcar/pkg/types"
)

// RoundState 一个回合内的全部可变状态
// 车辆和护栏在加载时创建，跨回合保留；其余字段每回合重置
type RoundState struct {
	Generation uint64
	Winner     types.PlayerID
	Gesture    systems.Gesture

	Cars     [2]ecs.EntityID // 下标 0 为一号玩家
	Barriers [2]ecs.EntityID

	Obstacles      []ecs.EntityID
	SpeedObstacles []ecs.EntityID

	HelpOpen bool
}

// reset 为新回合重新赋值每个字段
func (r *RoundState) reset(generation uint64) {
	*r = RoundState{
		Generation:     generation,
		Winner:         types.PlayerNone,
		Gesture:        systems.Gesture{},
		Cars:           r.Cars,
		Barriers:       r.Barriers,
		Obstacles:      nil,
		SpeedObstacles: nil,
		HelpOpen:       false,
	}
}

func playerSlot(p types.PlayerID) int {
	if p == types.PlayerSecond {
		return 1
	}
	return 0
}
