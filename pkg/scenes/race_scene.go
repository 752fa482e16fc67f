package scenes

import (
	"fmt"
	"math/rand"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"

	"github.com/decker502/crashthatcar/pkg/config"
	"github.com/decker502/crashthatcar/pkg/ecs"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/logger"
	"github.com/decker502/crashthatcar/pkg/physics"
	"github.com/decker502/crashthatcar/pkg/race"
	"github.com/decker502/crashthatcar/pkg/systems"
	"github.com/decker502/crashthatcar/pkg/types"
	"github.com/decker502/crashthatcar/pkg/utils"
)

// RaceSceneDeps 比赛场景的外部依赖
type RaceSceneDeps struct {
	Config   *config.RaceConfig
	Audio    *game.AudioManager   // 可为 nil
	Settings *game.SettingsManager // 可为 nil
	Seed     int64                 // 0 表示按时间随机
}

// RaceScene 比赛场景
//
// 场景把 ebiten 的输入与帧循环接到比赛控制器上：
// 指针事件转成触摸回调，每帧先推进物理世界，再推进控制器。
// 它同时是控制器各个协作者（世界、效果、HUD、镜头）的宿主。
type RaceScene struct {
	cfg        *config.RaceConfig
	settings   *game.SettingsManager
	controller *race.RaceController

	world      *physics.World
	projection *utils.Projection
	camera     *CameraRig
	hud        *RaceHUD
	effects    *SceneEffects
	pointer    *utils.PointerTracker

	// 表现层实体（粒子），与比赛实体分开存放
	fx        *ecs.EntityManager
	particles *systems.ParticleSystem
	lifetimes *systems.LifetimeSystem
	glow      *ebiten.Image

	clock float64
	log   zerolog.Logger
}

var (
	_ game.Scene    = (*RaceScene)(nil)
	_ game.Saveable = (*RaceScene)(nil)
)

// NewRaceScene 搭建赛道并加载比赛
func NewRaceScene(deps RaceSceneDeps) (*RaceScene, error) {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultRaceConfig()
	}
	var rng *rand.Rand
	if deps.Seed != 0 {
		rng = rand.New(rand.NewSource(deps.Seed))
	}

	s := &RaceScene{
		cfg:        cfg,
		settings:   deps.Settings,
		world:      physics.NewTrackWorld(cfg),
		projection: utils.NewProjection(),
		hud:        NewRaceHUD(cfg.Countdown),
		pointer:    utils.NewPointerTracker(),
		fx:         ecs.NewEntityManager(),
		glow:       ebiten.NewImage(config.GameWindowWidth, config.GameWindowHeight),
		log:        logger.For("RaceScene"),
	}
	s.world.SetProjector(s.projection)

	fxRand := rng
	if fxRand == nil {
		fxRand = rand.New(rand.NewSource(1))
	}
	s.particles = systems.NewParticleSystem(s.fx, fxRand, systems.DefaultBursts())
	s.lifetimes = systems.NewLifetimeSystem(s.fx)

	var sounds SoundPlayer
	if deps.Audio != nil {
		sounds = deps.Audio
	}
	s.effects = NewSceneEffects(sounds, s.particles, s.world)

	start := types.Vec3{X: cfg.Track.CarStartX + cfg.Camera.TrackOffset}
	s.camera = NewCameraRig(s.projection, start)

	opts := race.Options{Config: cfg, Rand: rng}
	if deps.Settings != nil {
		opts.Tutorial = deps.Settings
	}
	s.controller = race.NewRaceController(game.Services{
		World:   s.world,
		Effects: s.effects,
		HUD:     s.hud,
		Camera:  s.camera,
	}, opts)

	if err := s.controller.Load(); err != nil {
		return nil, fmt.Errorf("failed to load race scene: %w", err)
	}
	return s, nil
}

// Controller 比赛控制器
func (s *RaceScene) Controller() *race.RaceController {
	return s.controller
}

// Update 每帧更新
func (s *RaceScene) Update(deltaTime float64) {
	s.clock += deltaTime

	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		s.toggleSound()
	}

	for _, ev := range s.pointer.Poll() {
		now := s.controller.Now()
		switch ev.Phase {
		case utils.PointerDown:
			s.controller.OnTouchDown(ev.Point, now)
		case utils.PointerMove:
			s.controller.OnTouchMove(ev.Point, now)
		case utils.PointerUp:
			s.controller.OnTouchUp(ev.Point, now)
		}
	}

	s.world.Step(deltaTime)
	s.controller.Update(deltaTime)

	s.camera.Update(deltaTime)
	s.hud.Update(deltaTime)
	s.effects.Update(deltaTime)
	s.particles.Update(deltaTime)
	s.lifetimes.Update(deltaTime)
	s.fx.RemoveMarkedEntities()
}

// Draw 绘制赛道、节点、粒子和 HUD
func (s *RaceScene) Draw(screen *ebiten.Image) {
	s.drawTrack(screen)
	s.drawNodes(screen)
	s.drawParticles(screen)
	s.hud.Draw(screen)
}

// SaveOnExit 退出时保存设置
func (s *RaceScene) SaveOnExit() bool {
	if s.settings == nil {
		return true
	}
	if err := s.settings.Save(); err != nil {
		s.log.Warn().Err(err).Msg("failed to save settings on exit")
		return false
	}
	return true
}

func (s *RaceScene) toggleSound() {
	if s.settings == nil {
		return
	}
	enabled := !s.settings.GetSettings().SoundEnabled
	s.settings.SetSoundEnabled(enabled)
	s.log.Info().Bool("enabled", enabled).Msg("sound toggled")
}
