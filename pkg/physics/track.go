package physics

import (
	"github.com/decker502/crashthatcar/pkg/config"
	"github.com/decker502/crashthatcar/pkg/race"
	"github.com/decker502/crashthatcar/pkg/systems"
	"github.com/decker502/crashthatcar/pkg/types"
)

// 节点尺寸（米）
var (
	CarExtent      = Extent{Length: 2.0, Width: 1.2}
	ObstacleExtent = Extent{Length: 1.0, Width: 1.0}
	lineThickness  = 0.5
	trackPadding   = 30.0
)

// TrackBounds 按赛道配置计算世界范围
func TrackBounds(cfg *config.RaceConfig) Bounds {
	half := cfg.Track.HalfWidth()
	return Bounds{
		MinX: cfg.Track.CarStartX - trackPadding,
		MaxX: cfg.Track.Length + trackPadding,
		MinZ: -half - 6,
		MaxZ: half + 6,
	}
}

// NewTrackWorld 按配置搭建比赛场景
//
// 创建比赛控制器要求的全部节点，并注册两种障碍物模板
func NewTrackWorld(cfg *config.RaceConfig) *World {
	w := NewWorld(TrackBounds(cfg))
	w.RegisterTemplate(systems.ObstacleTemplate, ObstacleExtent)
	w.RegisterTemplate(systems.SpeedObstacleTemplate, ObstacleExtent)

	track := cfg.Track
	half := track.HalfWidth()
	barrier := Extent{Length: lineThickness, Width: half - 1}
	runwayLength := track.Length + 2*trackPadding
	runwayX := track.Length / 2

	for _, lane := range []struct {
		car, barrier string
		z            float64
	}{
		{race.NodePlayer1Car, race.NodePlayer1Barrier, -track.CarLaneZ},
		{race.NodePlayer2Car, race.NodePlayer2Barrier, track.CarLaneZ},
	} {
		carPos := types.Vec3{X: track.CarStartX, Z: lane.z}
		w.AddNode(lane.car, carPos, CarExtent)
		w.AddNode(lane.barrier, carPos.Add(cfg.Cars.BarrierOffset), barrier)
	}

	w.AddNode(race.NodeFinishLine, types.Vec3{X: track.FinishLineX}, Extent{Length: lineThickness, Width: track.Width})
	w.AddNode(race.NodeBorderLineLeft, types.Vec3{X: runwayX, Z: -half - lineThickness}, Extent{Length: runwayLength, Width: 2 * lineThickness})
	w.AddNode(race.NodeBorderLineRight, types.Vec3{X: runwayX, Z: half + lineThickness}, Extent{Length: runwayLength, Width: 2 * lineThickness})
	w.AddNode(race.NodeMiddleLine, types.Vec3{X: runwayX}, Extent{Length: runwayLength, Width: 0.1})

	return w
}
