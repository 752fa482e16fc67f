package systems

import (
	"math"

	"github.com/decker502/crashthatcar/pkg/config"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/types"
)

// CameraSystem 开场巡视与比赛中的横向跟随
type CameraSystem struct {
	camera      game.Camera
	sched       *game.Scheduler
	intro       config.IntroConfig
	trackOffset float64
}

// NewCameraSystem 创建镜头编排系统
func NewCameraSystem(camera game.Camera, sched *game.Scheduler, cfg *config.RaceConfig) *CameraSystem {
	return &CameraSystem{
		camera:      camera,
		sched:       sched,
		intro:       cfg.Intro,
		trackOffset: cfg.Camera.TrackOffset,
	}
}

// PlayIntro 沿配置路径巡视赛道，全部路段结束后调用 onDone
// onDone 收到的是计划完成时刻
func (cs *CameraSystem) PlayIntro(onDone game.TaskFunc) {
	path := make([]types.Vec3, len(cs.intro.Legs))
	durations := make([]float64, len(cs.intro.Legs))
	for i, leg := range cs.intro.Legs {
		path[i] = leg.Position
		durations[i] = leg.Duration
	}

	cs.camera.MoveCamera(path, durations)
	cs.sched.After(cs.intro.Total(), "introComplete", onDone)
}

// Follow 跟随落后的那辆车
func (cs *CameraSystem) Follow(car1X, car2X float64) {
	cs.camera.Track(math.Min(car1X, car2X) + cs.trackOffset)
}
