// Package race 实现双人分道赛车的回合控制
//
// RaceController 是比赛核心的唯一入口：触摸事件、物理接触和每帧更新
// 都从这里进入，再分发到状态机和各个系统。它不是并发安全的，
// 所有调用必须来自同一个 goroutine（主循环）。
package race

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/config"
	"github.com/decker502/crashthatcar/pkg/ecs"
	"github.com/decker502/crashthatcar/pkg/entities"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/logger"
	"github.com/decker502/crashthatcar/pkg/systems"
	"github.com/decker502/crashthatcar/pkg/types"
)

// 场景中必须存在的节点
const (
	NodePlayer1Car      = "player1Car"
	NodePlayer2Car      = "player2Car"
	NodePlayer1Barrier  = "player1Barrier"
	NodePlayer2Barrier  = "player2Barrier"
	NodeFinishLine      = "finishLine"
	NodeBorderLineLeft  = "borderLineLeft"
	NodeBorderLineRight = "borderLineRight"
	NodeMiddleLine      = "middleLine"
)

// RequiredNodes 加载时查找的全部节点名
var RequiredNodes = []string{
	NodePlayer1Car, NodePlayer2Car,
	NodePlayer1Barrier, NodePlayer2Barrier,
	NodeFinishLine, NodeBorderLineLeft, NodeBorderLineRight, NodeMiddleLine,
}

// Options 控制器的可选依赖
type Options struct {
	// Config 为 nil 时使用内置默认配置
	Config *config.RaceConfig
	// Rand 为 nil 时以当前时间为种子
	Rand *rand.Rand
	// Tutorial 教程进度存储，可为 nil
	Tutorial systems.TutorialStore
}

// RaceController 回合控制器
type RaceController struct {
	cfg *config.RaceConfig
	svc game.Services

	em    *ecs.EntityManager
	sched *game.Scheduler
	fsm   *game.RaceStateMachine
	index *systems.HandleIndex
	round RoundState

	collisions *systems.CollisionSystem
	spawner    *systems.ObstacleSpawnSystem
	shooter    *systems.ShootSystem
	camera     *systems.CameraSystem
	countdown  *systems.CountdownSystem
	gameOver   *systems.GameOverSystem
	tutorial   *systems.TutorialSystem
	barriers   *systems.BarrierSyncSystem

	loaded bool
	log    zerolog.Logger
}

// NewRaceController 创建控制器，调用 Load 之后才开始比赛
func NewRaceController(svc game.Services, opts Options) *RaceController {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultRaceConfig()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	c := &RaceController{
		cfg:   cfg,
		svc:   svc,
		em:    ecs.NewEntityManager(),
		sched: game.NewScheduler(),
		fsm:   game.NewRaceStateMachine(),
		index: systems.NewHandleIndex(),
		log:   logger.For("RaceController"),
	}

	c.collisions = systems.NewCollisionSystem(contactRouter{c})
	c.spawner = systems.NewObstacleSpawnSystem(c.em, svc.World, svc.Effects, c.sched, c.index, rng, cfg)
	c.shooter = systems.NewShootSystem(c.em, svc.World, svc.Effects, c.index, c.spawner, cfg.Obstacles.LaunchSpeed)
	c.camera = systems.NewCameraSystem(svc.Camera, c.sched, cfg)
	c.countdown = systems.NewCountdownSystem(svc.HUD, svc.Effects, c.sched, cfg)
	c.gameOver = systems.NewGameOverSystem(svc.HUD, svc.Effects, c.sched, cfg)
	c.tutorial = systems.NewTutorialSystem(svc.HUD, opts.Tutorial)
	c.barriers = systems.NewBarrierSyncSystem(c.em, svc.World)

	c.fsm.SetOnChange(func(from, to game.RaceState, at float64) {
		c.log.Info().
			Str("from", from.String()).
			Str("to", to.String()).
			Float64("at", at).
			Uint64("generation", c.round.Generation).
			Msg("race state changed")
	})

	return c
}

// Load 绑定场景节点并开始第一回合
// 缺少任何必需节点时返回 *game.LoadError，列出所有缺失的节点
func (c *RaceController) Load() error {
	if c.loaded {
		return nil
	}

	world := c.svc.World
	handles := make(map[string]types.Handle, len(RequiredNodes))
	var missing []string
	for _, name := range RequiredNodes {
		h, ok := world.Lookup(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		handles[name] = h
	}
	if len(missing) > 0 {
		return &game.LoadError{Missing: missing}
	}

	offset := c.cfg.Cars.BarrierOffset
	for _, p := range []struct {
		player       types.PlayerID
		car, barrier string
	}{
		{types.PlayerFirst, NodePlayer1Car, NodePlayer1Barrier},
		{types.PlayerSecond, NodePlayer2Car, NodePlayer2Barrier},
	} {
		carID, barrierID, err := entities.NewCarEntity(c.em, world, p.player, handles[p.car], handles[p.barrier], offset)
		if err != nil {
			return &game.LoadError{Err: err}
		}
		slot := playerSlot(p.player)
		c.round.Cars[slot] = carID
		c.round.Barriers[slot] = barrierID
		c.index.Bind(handles[p.car], carID)
		c.index.Bind(handles[p.barrier], barrierID)
	}

	lines := []struct {
		name string
		spec components.BodySpec
	}{
		{NodeFinishLine, components.FinishLineBody},
		{NodeBorderLineLeft, components.BorderLineBody},
		{NodeBorderLineRight, components.BorderLineBody},
		{NodeMiddleLine, components.MiddleLineBody},
	}
	for _, l := range lines {
		id, err := entities.NewLineEntity(c.em, world, handles[l.name], l.spec)
		if err != nil {
			return &game.LoadError{Err: err}
		}
		c.index.Bind(handles[l.name], id)
	}

	world.SetContactHandler(c.OnContactBegin)

	c.loaded = true
	c.round.reset(c.sched.Generation())
	c.startRound()
	c.log.Info().Msg("race scene loaded")
	return nil
}

// State 当前比赛阶段
func (c *RaceController) State() game.RaceState {
	return c.fsm.State()
}

// Winner 本回合胜者，未分出胜负时为 PlayerNone
func (c *RaceController) Winner() types.PlayerID {
	return c.round.Winner
}

// Generation 当前回合代数
func (c *RaceController) Generation() uint64 {
	return c.round.Generation
}

// Now 控制器的虚拟时间
func (c *RaceController) Now() float64 {
	return c.sched.Now()
}

// Entities 只读访问实体存储（渲染层用来读取障碍物状态）
func (c *RaceController) Entities() *ecs.EntityManager {
	return c.em
}

// HelpOpen 帮助面板是否打开
func (c *RaceController) HelpOpen() bool {
	return c.round.HelpOpen
}

// Obstacles 本回合的障碍物和加速障碍物集合
func (c *RaceController) Obstacles() (obstacles, speedObstacles []ecs.EntityID) {
	return c.round.Obstacles, c.round.SpeedObstacles
}

// OnTouchDown 处理按下
func (c *RaceController) OnTouchDown(p types.Point, t float64) {
	switch c.fsm.State() {
	case game.StateTapToPlay:
		if c.tutorial.HandleTouch(&c.round.HelpOpen, p) {
			return
		}
		c.startCountdown()
	case game.StatePlay:
		c.shooter.TouchDown(&c.round.Gesture, p, t)
	case game.StateGameOver:
		if c.svc.HUD.OverlayHit(game.OverlayReplay, p) {
			c.Replay()
		}
	}
}

// OnTouchMove 处理滑动，只在比赛中生效
func (c *RaceController) OnTouchMove(p types.Point, t float64) {
	if c.fsm.Is(game.StatePlay) {
		c.shooter.TouchMove(&c.round.Gesture, p, t)
	}
}

// OnTouchUp 处理抬起，只在比赛中生效
func (c *RaceController) OnTouchUp(p types.Point, t float64) {
	if c.fsm.Is(game.StatePlay) {
		c.shooter.TouchUp(&c.round.Gesture, p, t)
	}
}

// OnContactBegin 物理接触回调，只在比赛中处理
func (c *RaceController) OnContactBegin(a, b game.Body) {
	if !c.fsm.Is(game.StatePlay) {
		return
	}
	c.collisions.Dispatch(a, b)
}

// Update 每帧调用：推进定时任务、同步护栏、跟随镜头
func (c *RaceController) Update(dt float64) {
	if !c.loaded {
		return
	}

	c.sched.Update(dt)
	c.barriers.Update(dt)

	if c.fsm.Is(game.StatePlay) {
		car1, _ := ecs.GetComponent[*components.CarComponent](c.em, c.round.Cars[0])
		car2, _ := ecs.GetComponent[*components.CarComponent](c.em, c.round.Cars[1])
		c.camera.Follow(c.svc.World.Position(car1.Handle).X, c.svc.World.Position(car2.Handle).X)
	}

	c.em.RemoveMarkedEntities()
}

// Replay 重新开始：只在结算阶段有效
func (c *RaceController) Replay() {
	if !c.fsm.Is(game.StateGameOver) {
		c.log.Warn().Str("state", c.fsm.State().String()).Msg("replay ignored outside GameOver")
		return
	}

	generation := c.sched.NextGeneration()
	c.spawner.Reap(c.round.Obstacles, c.round.SpeedObstacles)
	c.round.reset(generation)
	c.restoreCars()
	c.hideAllOverlays()

	c.transition(game.StatePreparingScene, c.sched.Now())
	c.startRound()
}

// startRound 生成障碍物并播放开场镜头
func (c *RaceController) startRound() {
	c.round.Obstacles, c.round.SpeedObstacles = c.spawner.Spawn()
	c.camera.PlayIntro(func(dueAt float64) {
		c.transition(game.StateTapToPlay, dueAt)
		c.svc.HUD.ShowOverlay(game.OverlayTapToPlay)
		c.tutorial.Enter(&c.round.HelpOpen)
	})
}

func (c *RaceController) startCountdown() {
	c.svc.HUD.HideOverlay(game.OverlayTapToPlay)
	c.tutorial.Leave(&c.round.HelpOpen)
	c.transition(game.StateCountDown, c.sched.Now())

	c.countdown.Start(func(dueAt float64) {
		c.transition(game.StatePlay, dueAt)
		launch := types.Vec3{X: c.cfg.Cars.LaunchSpeed}
		for _, id := range c.round.Cars {
			car, _ := ecs.GetComponent[*components.CarComponent](c.em, id)
			c.svc.World.SetVelocity(car.Handle, launch)
		}
		c.svc.Effects.PlaySound(game.SoundGo)
	})
}

// finish 结束本回合
func (c *RaceController) finish(winner types.PlayerID) {
	c.round.Winner = winner
	c.round.Gesture.Clear()
	c.transition(game.StateGameOver, c.sched.Now())

	for _, id := range c.round.Cars {
		car, _ := ecs.GetComponent[*components.CarComponent](c.em, id)
		c.svc.World.SetVelocity(car.Handle, types.Vec3{})
	}

	c.spawner.Reap(c.round.Obstacles, c.round.SpeedObstacles)
	c.round.Obstacles, c.round.SpeedObstacles = nil, nil

	c.log.Info().Str("winner", winner.String()).Uint64("generation", c.round.Generation).Msg("round finished")
	c.gameOver.Start(winner)
}

// restoreCars 把车辆和护栏放回起点并停下
func (c *RaceController) restoreCars() {
	world := c.svc.World
	for slot := range c.round.Cars {
		car, _ := ecs.GetComponent[*components.CarComponent](c.em, c.round.Cars[slot])
		barrier, _ := ecs.GetComponent[*components.BarrierComponent](c.em, c.round.Barriers[slot])
		world.SetPosition(car.Handle, car.StartPosition)
		world.SetVelocity(car.Handle, types.Vec3{})
		world.SetPosition(barrier.Handle, barrier.StartPosition)
	}
}

func (c *RaceController) hideAllOverlays() {
	hud := c.svc.HUD
	c.gameOver.Hide()
	for _, id := range c.countdown.Overlays() {
		hud.HideOverlay(id)
	}
	hud.HideOverlay(game.OverlayTapToPlay)
	hud.HideOverlay(game.OverlayHelpButton)
	hud.HideOverlay(game.OverlayHelpPanel)
}

// transition 沿转移表切换状态
// 非法切换说明控制流有误，直接 panic
func (c *RaceController) transition(to game.RaceState, at float64) {
	if err := c.fsm.Transition(to, at); err != nil {
		panic(err)
	}
}

func (c *RaceController) carFor(h types.Handle) (*components.CarComponent, bool) {
	id, ok := c.index.Lookup(h)
	if !ok {
		return nil, false
	}
	return ecs.GetComponent[*components.CarComponent](c.em, id)
}

func (c *RaceController) barrierFor(h types.Handle) (*components.BarrierComponent, bool) {
	id, ok := c.index.Lookup(h)
	if !ok {
		return nil, false
	}
	return ecs.GetComponent[*components.BarrierComponent](c.em, id)
}
