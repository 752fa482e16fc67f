// simulate_race 无窗口跑若干回合，两个脚本玩家互相射击障碍物
//
// 使用真实的物理世界和回合控制器，表现层替换为只记日志的实现。
// 用于调参后快速检查一局的节奏和胜负分布：
//
//	go run ./cmd/simulate_race -rounds 20 -race data/race.yaml
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/rs/zerolog"

	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/config"
	"github.com/decker502/crashthatcar/pkg/ecs"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/logger"
	"github.com/decker502/crashthatcar/pkg/physics"
	"github.com/decker502/crashthatcar/pkg/race"
	"github.com/decker502/crashthatcar/pkg/types"
	"github.com/decker502/crashthatcar/pkg/utils"
)

var (
	verbose    = flag.Bool("verbose", false, "显示详细调试信息")
	rounds     = flag.Int("rounds", 10, "模拟回合数")
	seed       = flag.Int64("seed", 1, "随机种子")
	raceConfig = flag.String("race", "", "比赛调参 YAML 文件（为空使用内置配置）")
	aggression = flag.Float64("aggression", 0.05, "脚本玩家每帧出手的概率")
	maxSeconds = flag.Float64("max-seconds", 120, "单回合最长模拟时间")
)

const tickDelta = 1.0 / 60

func main() {
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	logger.Setup(os.Stderr, level)
	log := logger.For("Simulate")

	cfg := config.DefaultRaceConfig()
	if *raceConfig != "" {
		loaded, err := config.LoadRaceConfig(*raceConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "比赛配置加载失败: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	sim := newSimulation(cfg, *seed, log)
	if err := sim.controller.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "场景加载失败: %v\n", err)
		os.Exit(1)
	}

	wins := map[types.PlayerID]int{}
	for round := 1; round <= *rounds; round++ {
		winner, elapsed, ok := sim.playRound(*maxSeconds)
		if !ok {
			log.Warn().Int("round", round).Msg("round timed out")
			break
		}
		wins[winner]++
		log.Info().
			Int("round", round).
			Str("winner", winner.String()).
			Float64("seconds", elapsed).
			Int("shots", sim.shots).
			Int("detonations", sim.detonations).
			Msg("round finished")
	}

	log.Info().
		Int("first", wins[types.PlayerFirst]).
		Int("second", wins[types.PlayerSecond]).
		Msg("simulation complete")
}

// simulation 一个无窗口的比赛实例
type simulation struct {
	world      *physics.World
	projection *utils.Projection
	hud        *headlessHUD
	controller *race.RaceController
	rng        *rand.Rand
	laneZ      float64

	shots       int
	detonations int
	log         zerolog.Logger
}

func newSimulation(cfg *config.RaceConfig, seed int64, log zerolog.Logger) *simulation {
	world := physics.NewTrackWorld(cfg)
	projection := utils.NewProjection()
	world.SetProjector(projection)

	hud := &headlessHUD{visible: map[game.OverlayID]bool{}, log: log}
	fx := logEffects{log: log}

	svc := game.Services{World: world, Effects: fx, HUD: hud, Camera: nullCamera{}}
	controller := race.NewRaceController(svc, race.Options{
		Config: cfg,
		Rand:   rand.New(rand.NewSource(seed)),
	})

	return &simulation{
		world:      world,
		projection: projection,
		hud:        hud,
		controller: controller,
		rng:        rand.New(rand.NewSource(seed + 1)),
		laneZ:      cfg.Track.CarLaneZ,
		log:        log,
	}
}

func (s *simulation) tick() {
	s.world.Step(tickDelta)
	s.controller.Update(tickDelta)
}

// playRound 从 TapToPlay（或 GameOver 后的重玩）推进到下一次 GameOver
func (s *simulation) playRound(maxSeconds float64) (types.PlayerID, float64, bool) {
	limit := int(maxSeconds / tickDelta)
	s.shots, s.detonations = 0, 0

	if s.controller.State() == game.StateGameOver {
		for i := 0; i < limit && !s.hud.visible[game.OverlayReplay]; i++ {
			s.tick()
		}
		s.controller.OnTouchDown(types.Point{}, s.controller.Now())
	}

	for i := 0; i < limit && s.controller.State() != game.StateTapToPlay; i++ {
		s.tick()
	}
	// 帮助面板打开时第一下只关闭面板
	for i := 0; i < 2 && s.controller.State() == game.StateTapToPlay; i++ {
		s.controller.OnTouchDown(types.Point{}, s.controller.Now())
	}

	start := s.controller.Now()
	for i := 0; i < limit; i++ {
		s.tick()
		switch s.controller.State() {
		case game.StatePlay:
			s.act(types.PlayerFirst)
			s.act(types.PlayerSecond)
		case game.StateGameOver:
			return s.controller.Winner(), s.controller.Now() - start, true
		}
	}
	return types.PlayerNone, s.controller.Now() - start, false
}

// act 脚本玩家：引爆待爆炸的障碍物，或把自己护栏里的障碍物射向对方车道
func (s *simulation) act(player types.PlayerID) {
	if s.rng.Float64() >= *aggression {
		return
	}
	em := s.controller.Entities()
	for _, id := range ecs.GetEntitiesWith1[*components.ObstacleComponent](em) {
		if !em.Alive(id) {
			continue
		}
		obstacle, _ := ecs.GetComponent[*components.ObstacleComponent](em, id)
		if !obstacle.Inserted() || !s.world.Exists(obstacle.Handle) {
			continue
		}

		pos := s.world.Position(obstacle.Handle)
		at := s.projection.WorldToScreen(pos)
		now := s.controller.Now()
		switch {
		case obstacle.Tag == components.ObstacleReadyToExplode && pos.Z*player.LaneSign() > 0:
			s.controller.OnTouchDown(at, now)
			s.detonations++
			return
		case obstacle.Tag == components.ObstacleInBarrier && obstacle.CapturedBy == player:
			// 从障碍物滑向对方车道上稍微靠前的一点
			target := s.projection.WorldToScreen(types.Vec3{
				X: pos.X + 1,
				Z: player.Opponent().LaneSign() * s.laneZ,
			})
			s.controller.OnTouchDown(at, now)
			s.controller.OnTouchMove(target, now)
			s.controller.OnTouchUp(target, now)
			s.shots++
			return
		}
	}
}

// headlessHUD 记录覆盖层可见性，任意点都算点中可见的覆盖层
type headlessHUD struct {
	visible map[game.OverlayID]bool
	log     zerolog.Logger
}

func (h *headlessHUD) ShowOverlay(id game.OverlayID) {
	h.visible[id] = true
	h.log.Debug().Str("overlay", string(id)).Msg("show")
}

func (h *headlessHUD) HideOverlay(id game.OverlayID) {
	delete(h.visible, id)
}

func (h *headlessHUD) OverlayHit(id game.OverlayID, _ types.Point) bool {
	return h.visible[id]
}

// logEffects 只记录日志的效果实现
type logEffects struct {
	log zerolog.Logger
}

func (e logEffects) PlaySound(key game.SoundKey) {
	e.log.Debug().Str("sound", string(key)).Msg("play")
}

func (e logEffects) PlayParticleEffect(key game.EffectKey, t types.Transform) {
	e.log.Debug().Str("effect", string(key)).Float64("x", t.Position.X).Float64("z", t.Position.Z).Msg("particles")
}

func (e logEffects) AttachEffect(types.Handle, game.EffectKey) {}

func (e logEffects) DetachEffect(types.Handle, game.EffectKey) {}

type nullCamera struct{}

func (nullCamera) MoveCamera([]types.Vec3, []float64) {}

func (nullCamera) Track(float64) {}
