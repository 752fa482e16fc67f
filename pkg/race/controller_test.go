package race

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/ecs"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/game/gametest"
	"github.com/decker502/crashthatcar/pkg/logger"
	"github.com/decker502/crashthatcar/pkg/systems"
	"github.com/decker502/crashthatcar/pkg/types"
)

var (
	replayButton = gametest.Rect{X: 400, Y: 400, W: 100, H: 50}
	helpButton   = gametest.Rect{X: 0, Y: 0, W: 40, H: 40}
	// 不落在任何按钮上的点
	openSpace = types.Point{X: 300, Y: 200}
)

type finishedStore struct{ finished bool }

func (s *finishedStore) TutorialFinished() bool      { return s.finished }
func (s *finishedStore) MarkTutorialFinished() error { s.finished = true; return nil }

type fixture struct {
	c       *RaceController
	world   *gametest.World
	effects *gametest.Effects
	hud     *gametest.HUD
	camera  *gametest.Camera
}

func newFixture(t *testing.T, tutorialFinished bool) *fixture {
	t.Helper()
	logger.Discard()

	f := &fixture{
		world:   gametest.NewTrackWorld(),
		effects: gametest.NewEffects(),
		hud:     gametest.NewHUD(),
		camera:  gametest.NewCamera(),
	}
	f.hud.Bounds[game.OverlayReplay] = replayButton
	f.hud.Bounds[game.OverlayHelpButton] = helpButton

	f.c = NewRaceController(gametest.Services(f.world, f.effects, f.hud, f.camera), Options{
		Rand:     rand.New(rand.NewSource(42)),
		Tutorial: &finishedStore{finished: tutorialFinished},
	})
	return f
}

// load 加载场景并等待开场镜头结束
func (f *fixture) load(t *testing.T) {
	t.Helper()
	if err := f.c.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	f.c.Update(f.c.cfg.Intro.Total() + 0.01)
	if f.c.State() != game.StateTapToPlay {
		t.Fatalf("Expected TapToPlay after intro, got %s", f.c.State())
	}
}

// play 从加载一直推进到比赛中，并等待所有障碍物插入
func (f *fixture) play(t *testing.T) {
	t.Helper()
	f.load(t)
	f.c.OnTouchDown(openSpace, f.c.Now())
	f.c.Update(f.c.cfg.Countdown.Total() + 0.01)
	if f.c.State() != game.StatePlay {
		t.Fatalf("Expected Play after countdown, got %s", f.c.State())
	}
	f.c.Update(20)
}

func (f *fixture) car(slot int) *components.CarComponent {
	car, _ := ecs.GetComponent[*components.CarComponent](f.c.em, f.c.round.Cars[slot])
	return car
}

func (f *fixture) obstacle(id ecs.EntityID) *components.ObstacleComponent {
	o, _ := ecs.GetComponent[*components.ObstacleComponent](f.c.em, id)
	return o
}

func (f *fixture) liveObstacles() int {
	return f.world.Live(systems.ObstacleTemplate) + f.world.Live(systems.SpeedObstacleTemplate)
}

// TestLoadMissingNodes 测试缺失节点时返回 LoadError 并列出全部缺失项
func TestLoadMissingNodes(t *testing.T) {
	f := newFixture(t, true)
	f.world.RemoveNode(NodeFinishLine)
	f.world.RemoveNode(NodePlayer2Barrier)

	err := f.c.Load()
	var loadErr *game.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Expected *game.LoadError, got %v", err)
	}
	if len(loadErr.Missing) != 2 {
		t.Fatalf("Expected 2 missing nodes, got %v", loadErr.Missing)
	}
	if loadErr.Missing[0] != NodePlayer2Barrier || loadErr.Missing[1] != NodeFinishLine {
		t.Errorf("Unexpected missing list: %v", loadErr.Missing)
	}

	// 未加载时 Update 不做任何事
	f.c.Update(10)
	if len(f.camera.Paths) != 0 {
		t.Error("Expected no intro without a loaded scene")
	}
}

// TestIntroShowsTapToPlay 测试开场镜头结束后显示点击开始
func TestIntroShowsTapToPlay(t *testing.T) {
	f := newFixture(t, true)
	if err := f.c.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if f.c.State() != game.StatePreparingScene {
		t.Fatalf("Expected PreparingScene after load, got %s", f.c.State())
	}
	if len(f.camera.Paths) != 1 {
		t.Fatalf("Expected intro camera move, got %d", len(f.camera.Paths))
	}

	f.c.Update(f.c.cfg.Intro.Total() + 0.01)
	if !f.hud.Visible[game.OverlayTapToPlay] || !f.hud.Visible[game.OverlayHelpButton] {
		t.Errorf("Expected TapToPlay and help button visible, got %v", f.hud.Visible)
	}
	if f.c.HelpOpen() {
		t.Error("Expected help panel closed for returning player")
	}
}

// TestCountdownTransitionTime 场景5：倒计时结束时刻等于延时之和，与帧率无关
func TestCountdownTransitionTime(t *testing.T) {
	for _, dt := range []float64{1.0 / 60, 1.0 / 24, 0.37} {
		f := newFixture(t, true)
		f.load(t)

		t0 := f.c.Now()
		f.c.OnTouchDown(openSpace, t0)
		if f.c.State() != game.StateCountDown {
			t.Fatalf("Expected CountDown, got %s", f.c.State())
		}

		for f.c.State() == game.StateCountDown {
			f.c.Update(dt)
		}

		if f.c.State() != game.StatePlay {
			t.Fatalf("Expected Play, got %s", f.c.State())
		}
		elapsed := f.c.fsm.EnteredAt() - t0
		if math.Abs(elapsed-f.c.cfg.Countdown.Total()) > 1e-9 {
			t.Errorf("dt=%v: expected Play at +%v, got +%v", dt, f.c.cfg.Countdown.Total(), elapsed)
		}

		for slot := 0; slot < 2; slot++ {
			v := f.world.Velocity(f.car(slot).Handle)
			if v.X != f.c.cfg.Cars.LaunchSpeed {
				t.Errorf("Expected car %d launched at %v, got %+v", slot, f.c.cfg.Cars.LaunchSpeed, v)
			}
		}
		if f.effects.SoundCount(game.SoundGo) != 1 {
			t.Errorf("Expected go sound once, got %d", f.effects.SoundCount(game.SoundGo))
		}
	}
}

// TestFinishLineWins 场景1：越过终点线获胜，所有障碍物被清除
func TestFinishLineWins(t *testing.T) {
	f := newFixture(t, true)
	f.play(t)

	if f.liveObstacles() == 0 {
		t.Fatal("Expected obstacles on track before finish")
	}

	car := f.car(1)
	f.world.Contact(f.world.MustLookup(NodeFinishLine), car.Handle)

	if f.c.State() != game.StateGameOver {
		t.Fatalf("Expected GameOver, got %s", f.c.State())
	}
	if f.c.Winner() != types.PlayerSecond {
		t.Errorf("Expected second player to win, got %s", f.c.Winner())
	}
	if n := f.liveObstacles(); n != 0 {
		t.Errorf("Expected all obstacles destroyed, got %d live", n)
	}
	if v := f.world.Velocity(car.Handle); v != (types.Vec3{}) {
		t.Errorf("Expected cars stopped, got %+v", v)
	}

	f.c.Update(f.c.cfg.GameOver.PopInterval*3 + 0.01)
	if !f.hud.Visible[game.OverlayPlayer2Won] || !f.hud.Visible[game.OverlayReplay] {
		t.Errorf("Expected winner banner and replay button, got %v", f.hud.Visible)
	}
}

// TestCarHitsObstacleLoses 场景2：车撞上障碍物，对手获胜，大爆炸只播放一次
func TestCarHitsObstacleLoses(t *testing.T) {
	f := newFixture(t, true)
	f.play(t)

	obstacles, _ := f.c.Obstacles()
	target := f.obstacle(obstacles[0])
	car := f.car(0)

	f.world.Contact(target.Handle, car.Handle)
	// 同一批次的后续接触在 GameOver 后被忽略
	f.world.Contact(f.world.MustLookup(NodeFinishLine), f.car(1).Handle)

	if f.c.State() != game.StateGameOver {
		t.Fatalf("Expected GameOver, got %s", f.c.State())
	}
	if f.c.Winner() != types.PlayerSecond {
		t.Errorf("Expected opponent to win, got %s", f.c.Winner())
	}
	if got := f.effects.ParticleCount(game.EffectBigExplosion); got != 1 {
		t.Errorf("Expected exactly one big explosion, got %d", got)
	}
	if f.effects.SoundCount(game.SoundWin) != 0 {
		t.Error("Expected finish line contact after GameOver to be ignored")
	}
}

// TestShootScenario 场景3和4：接住、射出、撞上对方护栏、点击引爆
func TestShootScenario(t *testing.T) {
	f := newFixture(t, true)
	f.play(t)

	obstacles, _ := f.c.Obstacles()
	id := obstacles[0]
	o := f.obstacle(id)
	handle := o.Handle
	if o.Lane != types.PlayerFirst {
		t.Fatalf("Expected first obstacle in first lane, got %s", o.Lane)
	}

	barrier1 := f.world.MustLookup(NodePlayer1Barrier)
	barrier2 := f.world.MustLookup(NodePlayer2Barrier)

	f.world.Contact(barrier1, handle)
	if o.Tag != components.ObstacleInBarrier || o.CapturedBy != types.PlayerFirst {
		t.Fatalf("Expected InBarrier captured by first player, got %s/%s", o.Tag, o.CapturedBy)
	}
	if !f.effects.Attached[handle][game.EffectInBarrier] {
		t.Error("Expected InBarrier cue attached")
	}

	f.world.Hits = []types.Handle{handle}
	down := types.Point{X: 200, Y: 300}
	f.c.OnTouchDown(down, 1.0)
	if o.Tag != components.ObstacleBeingShot {
		t.Fatalf("Expected BeingShot, got %s", o.Tag)
	}
	if g := f.c.round.Gesture; !g.Active || g.Start != down || g.Target != id {
		t.Errorf("Expected gesture recorded at %+v, got %+v", down, g)
	}

	f.c.OnTouchMove(types.Point{X: 200, Y: 250}, 1.05)
	if o.Tag != components.ObstacleShot {
		t.Fatalf("Expected Shot, got %s", o.Tag)
	}
	if len(f.world.Impulses) != 1 || f.world.Impulses[0].Velocity.Z <= 0 {
		t.Errorf("Expected one impulse towards +Z, got %+v", f.world.Impulses)
	}

	// 自己的护栏不会让它进入待爆炸
	f.world.Contact(barrier1, handle)
	if o.Tag != components.ObstacleShot {
		t.Fatalf("Expected own barrier to be ignored, got %s", o.Tag)
	}

	f.world.Contact(handle, barrier2)
	if o.Tag != components.ObstacleReadyToExplode {
		t.Fatalf("Expected ReadyToExplode, got %s", o.Tag)
	}
	if !f.effects.Attached[handle][game.EffectReadyToExplode] || f.effects.Attached[handle][game.EffectShotTrail] {
		t.Error("Expected cue swapped to ReadyToExplode")
	}

	// 待爆炸的障碍物再碰到任一护栏都保持原状
	f.world.Contact(barrier1, handle)
	f.world.Contact(handle, barrier2)
	if o.Tag != components.ObstacleReadyToExplode {
		t.Fatalf("Expected ReadyToExplode to survive barrier contacts, got %s", o.Tag)
	}
	if f.effects.Attached[handle][game.EffectInBarrier] || !f.effects.Attached[handle][game.EffectReadyToExplode] {
		t.Errorf("Expected cues unchanged, got %+v", f.effects.Attached[handle])
	}
	if f.world.Nodes[handle].Destroyed {
		t.Fatal("Expected obstacle still alive after barrier contacts")
	}

	f.c.OnTouchDown(down, 2.0)
	if !f.world.Nodes[handle].Destroyed {
		t.Fatal("Expected detonated obstacle destroyed")
	}
	if f.effects.ParticleCount(game.EffectExplosion) != 1 || f.effects.ParticleCount(game.EffectBigExplosion) != 0 {
		t.Errorf("Expected one standard explosion, got %+v", f.effects.Particles)
	}
	if f.c.State() != game.StatePlay {
		t.Errorf("Expected race to continue, got %s", f.c.State())
	}
}

// TestNoShootOutsidePlay 测试比赛外的触摸不会选中障碍物
func TestNoShootOutsidePlay(t *testing.T) {
	f := newFixture(t, true)
	f.load(t)
	f.c.Update(20)

	obstacles, _ := f.c.Obstacles()
	o := f.obstacle(obstacles[0])
	o.Tag = components.ObstacleInBarrier
	f.world.Hits = []types.Handle{o.Handle}

	// TapToPlay 阶段的触摸只会开始倒计时
	f.c.OnTouchDown(openSpace, f.c.Now())
	if f.c.State() != game.StateCountDown {
		t.Fatalf("Expected CountDown, got %s", f.c.State())
	}
	f.c.OnTouchDown(openSpace, f.c.Now())
	f.c.OnTouchMove(types.Point{X: 0, Y: 0}, f.c.Now())
	f.c.OnTouchUp(types.Point{X: 0, Y: 0}, f.c.Now())

	if o.Tag != components.ObstacleInBarrier {
		t.Errorf("Expected obstacle untouched outside Play, got %s", o.Tag)
	}
	if len(f.world.Impulses) != 0 {
		t.Errorf("Expected no impulses, got %d", len(f.world.Impulses))
	}

	// 倒计时中的接触同样被忽略
	f.world.Contact(f.car(0).Handle, f.world.MustLookup(NodeFinishLine))
	if f.c.State() != game.StateCountDown {
		t.Errorf("Expected contact ignored during CountDown, got %s", f.c.State())
	}
}

// TestReplayRestoresRound 测试重玩恢复起点并重新生成全部障碍物
func TestReplayRestoresRound(t *testing.T) {
	f := newFixture(t, true)
	f.load(t)

	initialObstacles, initialSpeed := f.c.Obstacles()
	wantObstacles, wantSpeed := len(initialObstacles), len(initialSpeed)

	// 插入尚未完成时结束比赛，留下过期的插入任务
	f.c.OnTouchDown(openSpace, f.c.Now())
	f.c.Update(f.c.cfg.Countdown.Total() + 0.01)

	car1, car2 := f.car(0), f.car(1)
	f.world.SetPosition(car1.Handle, types.Vec3{X: 30, Z: -4})
	f.world.SetPosition(car2.Handle, types.Vec3{X: 31, Z: 6})
	f.c.Update(0.016)
	f.world.Contact(car1.Handle, f.world.MustLookup(NodeFinishLine))
	if f.c.State() != game.StateGameOver {
		t.Fatalf("Expected GameOver, got %s", f.c.State())
	}

	// 回放按钮出现前点击无效
	f.c.OnTouchDown(types.Point{X: 410, Y: 410}, f.c.Now())
	if f.c.State() != game.StateGameOver {
		t.Fatal("Expected replay to wait for the button")
	}

	f.c.Update(f.c.cfg.GameOver.PopInterval*3 + 0.01)
	generation := f.c.Generation()
	f.c.OnTouchDown(types.Point{X: 410, Y: 410}, f.c.Now())

	if f.c.State() != game.StatePreparingScene {
		t.Fatalf("Expected PreparingScene after replay, got %s", f.c.State())
	}
	if f.c.Generation() != generation+1 {
		t.Errorf("Expected generation %d, got %d", generation+1, f.c.Generation())
	}
	if f.c.Winner() != types.PlayerNone {
		t.Errorf("Expected winner cleared, got %s", f.c.Winner())
	}
	if f.hud.VisibleCount() != 0 {
		t.Errorf("Expected overlays hidden, got %v", f.hud.Visible)
	}

	for slot, car := range []*components.CarComponent{car1, car2} {
		if got := f.world.Position(car.Handle); got != car.StartPosition {
			t.Errorf("Car %d: expected start %+v, got %+v", slot, car.StartPosition, got)
		}
		if v := f.world.Velocity(car.Handle); v != (types.Vec3{}) {
			t.Errorf("Car %d: expected stopped, got %+v", slot, v)
		}
		barrier, _ := ecs.GetComponent[*components.BarrierComponent](f.c.em, car.Barrier)
		if got := f.world.Position(barrier.Handle); got != barrier.StartPosition {
			t.Errorf("Barrier %d: expected start %+v, got %+v", slot, barrier.StartPosition, got)
		}
	}

	obstacles, speed := f.c.Obstacles()
	if len(obstacles) != wantObstacles || len(speed) != wantSpeed {
		t.Errorf("Expected %d/%d obstacles, got %d/%d", wantObstacles, wantSpeed, len(obstacles), len(speed))
	}

	f.c.Update(20)
	if got := f.liveObstacles(); got != wantObstacles+wantSpeed {
		t.Errorf("Expected exactly %d live obstacles after replay, got %d", wantObstacles+wantSpeed, got)
	}
	if f.c.State() != game.StateTapToPlay {
		t.Errorf("Expected intro to finish again, got %s", f.c.State())
	}
}

// TestReplayIgnoredOutsideGameOver 测试非结算阶段调用 Replay 无效
func TestReplayIgnoredOutsideGameOver(t *testing.T) {
	f := newFixture(t, true)
	f.load(t)

	f.c.Replay()
	if f.c.State() != game.StateTapToPlay {
		t.Errorf("Expected state unchanged, got %s", f.c.State())
	}
}

// TestSpeedObstacleBoost 测试加速障碍物
func TestSpeedObstacleBoost(t *testing.T) {
	f := newFixture(t, true)
	f.play(t)

	_, speed := f.c.Obstacles()
	o := f.obstacle(speed[0])
	car := f.car(0)

	f.world.Contact(car.Handle, o.Handle)

	want := f.c.cfg.Cars.LaunchSpeed * f.c.cfg.Cars.SpeedBoostFactor
	if v := f.world.Velocity(car.Handle); math.Abs(v.X-want) > 1e-9 {
		t.Errorf("Expected boosted speed %v, got %v", want, v.X)
	}
	if f.c.State() != game.StatePlay {
		t.Errorf("Expected race to continue, got %s", f.c.State())
	}
	if f.effects.ParticleCount(game.EffectSpeedBoost) != 1 || f.effects.SoundCount(game.SoundBoost) != 1 {
		t.Error("Expected boost effect and sound")
	}

	// 已销毁的句柄再次接触被忽略
	f.world.Contact(car.Handle, o.Handle)
	if f.effects.SoundCount(game.SoundBoost) != 1 {
		t.Error("Expected stale contact ignored")
	}

	// 护栏不理会加速障碍物
	other := f.obstacle(speed[1])
	f.world.Contact(f.world.MustLookup(NodePlayer1Barrier), other.Handle)
	if other.Tag != components.ObstacleNormal {
		t.Errorf("Expected speed obstacle untouched by barrier, got %s", other.Tag)
	}
}

// TestBorderLineDestroysObstacle 测试飞出边界的障碍物被销毁
func TestBorderLineDestroysObstacle(t *testing.T) {
	f := newFixture(t, true)
	f.play(t)

	obstacles, _ := f.c.Obstacles()
	o := f.obstacle(obstacles[5])
	handle := o.Handle
	o.Tag = components.ObstacleShot

	f.world.Contact(f.world.MustLookup(NodeBorderLineRight), handle)
	if !f.world.Nodes[handle].Destroyed {
		t.Error("Expected obstacle destroyed at border")
	}
	if f.effects.ParticleCount(game.EffectExplosion) != 1 {
		t.Errorf("Expected one explosion, got %d", f.effects.ParticleCount(game.EffectExplosion))
	}
}

// TestCameraTracksDuringPlay 测试比赛中镜头跟随落后的车
func TestCameraTracksDuringPlay(t *testing.T) {
	f := newFixture(t, true)
	f.play(t)

	f.world.SetPosition(f.car(0).Handle, types.Vec3{X: 12, Z: -5})
	f.world.SetPosition(f.car(1).Handle, types.Vec3{X: 8, Z: 5})
	f.c.Update(0.016)

	last := f.camera.Tracks[len(f.camera.Tracks)-1]
	if last != 8+f.c.cfg.Camera.TrackOffset {
		t.Errorf("Expected camera at %v, got %v", 8+f.c.cfg.Camera.TrackOffset, last)
	}

	barrier, _ := ecs.GetComponent[*components.BarrierComponent](f.c.em, f.car(0).Barrier)
	want := types.Vec3{X: 12, Z: -5}.Add(f.c.cfg.Cars.BarrierOffset)
	if got := f.world.Position(barrier.Handle); got != want {
		t.Errorf("Expected barrier synced to %+v, got %+v", want, got)
	}
}

// TestTutorialGate 测试首次游玩时帮助面板拦截第一次触摸
func TestTutorialGate(t *testing.T) {
	f := newFixture(t, false)
	f.load(t)

	if !f.c.HelpOpen() || !f.hud.Visible[game.OverlayHelpPanel] {
		t.Fatal("Expected help panel opened for a new player")
	}

	f.c.OnTouchDown(openSpace, f.c.Now())
	if f.c.State() != game.StateTapToPlay || f.c.HelpOpen() {
		t.Fatalf("Expected panel closed without starting, got %s (open=%v)", f.c.State(), f.c.HelpOpen())
	}

	// 帮助按钮再次打开面板
	f.c.OnTouchDown(types.Point{X: 10, Y: 10}, f.c.Now())
	if !f.c.HelpOpen() {
		t.Fatal("Expected help button to reopen the panel")
	}
	f.c.OnTouchDown(openSpace, f.c.Now())
	f.c.OnTouchDown(openSpace, f.c.Now())
	if f.c.State() != game.StateCountDown {
		t.Errorf("Expected CountDown, got %s", f.c.State())
	}
	if f.hud.Visible[game.OverlayHelpButton] || f.hud.Visible[game.OverlayTapToPlay] {
		t.Error("Expected TapToPlay overlays hidden during countdown")
	}
}
