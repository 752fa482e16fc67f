package physics

import (
	"math/rand"
	"testing"

	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/config"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/game/gametest"
	"github.com/decker502/crashthatcar/pkg/logger"
	"github.com/decker502/crashthatcar/pkg/race"
	"github.com/decker502/crashthatcar/pkg/systems"
	"github.com/decker502/crashthatcar/pkg/types"
)

var testBounds = Bounds{MinX: -20, MaxX: 80, MinZ: -15, MaxZ: 15}

type contactLog struct {
	pairs [][2]game.Body
}

func (l *contactLog) handle(a, b game.Body) {
	l.pairs = append(l.pairs, [2]game.Body{a, b})
}

// fixedProjector 把屏幕像素直接当作米
type fixedProjector struct{}

func (fixedProjector) ScreenToWorld(p types.Point) types.Vec3 {
	return types.Vec3{X: p.X, Z: p.Y}
}

func TestContactBeginReportedOnce(t *testing.T) {
	logger.Discard()
	w := NewWorld(testBounds)
	log := &contactLog{}
	w.SetContactHandler(log.handle)

	car := w.AddNode("car", types.Vec3{X: 0, Z: 0}, CarExtent)
	line := w.AddNode("finish", types.Vec3{X: 5}, Extent{Length: 0.5, Width: 20})
	w.AttachCollider(car, components.CarBody)
	w.AttachCollider(line, components.FinishLineBody)

	w.SetVelocity(car, types.Vec3{X: 10})
	w.Step(0.1) // x=1，尚未接触
	if len(log.pairs) != 0 {
		t.Fatalf("Expected no contact yet, got %d", len(log.pairs))
	}

	w.Step(0.3) // x=4，车头进入终点线
	if len(log.pairs) != 1 {
		t.Fatalf("Expected one contact, got %d", len(log.pairs))
	}
	got := log.pairs[0]
	if got[0].Category|got[1].Category != components.CategoryCar|components.CategoryFinishLine {
		t.Errorf("Unexpected contact categories: %s / %s", got[0].Category, got[1].Category)
	}

	// 持续重叠不会重复上报
	w.Step(0.01)
	if len(log.pairs) != 1 {
		t.Errorf("Expected contact reported once while touching, got %d", len(log.pairs))
	}

	// 离开后再次进入会重新上报
	w.SetVelocity(car, types.Vec3{})
	w.SetPosition(car, types.Vec3{X: 0})
	w.Step(0.01)
	w.SetPosition(car, types.Vec3{X: 5})
	w.Step(0.01)
	if len(log.pairs) != 2 {
		t.Errorf("Expected a new contact after separating, got %d", len(log.pairs))
	}
}

func TestContactMaskFiltering(t *testing.T) {
	logger.Discard()
	w := NewWorld(testBounds)
	log := &contactLog{}
	w.SetContactHandler(log.handle)

	car := w.AddNode("car", types.Vec3{}, CarExtent)
	middle := w.AddNode("middle", types.Vec3{}, Extent{Length: 50, Width: 0.1})
	barrier := w.AddNode("barrier", types.Vec3{X: 0.5}, Extent{Length: 0.5, Width: 4})
	w.AttachCollider(car, components.CarBody)
	w.AttachCollider(middle, components.MiddleLineBody)
	w.AttachCollider(barrier, components.BarrierBody)

	// 没有碰撞体的节点不参与接触
	w.AddNode("decoration", types.Vec3{}, Extent{Length: 3, Width: 3})

	w.Step(0.016)
	if len(log.pairs) != 0 {
		t.Errorf("Expected no contacts outside the contact masks, got %+v", log.pairs)
	}
}

func TestDestroyInsideCallbackDropsQueuedContacts(t *testing.T) {
	logger.Discard()
	w := NewWorld(testBounds)
	w.RegisterTemplate("box", ObstacleExtent)

	car := w.AddNode("car", types.Vec3{}, CarExtent)
	w.AttachCollider(car, components.CarBody)
	barrier := w.AddNode("barrier", types.Vec3{X: 0.2}, Extent{Length: 0.5, Width: 4})
	w.AttachCollider(barrier, components.BarrierBody)

	box, err := w.Spawn("box", types.Transform{Position: types.Vec3{X: 0.3}})
	if err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}
	w.AttachCollider(box, components.ObstacleBody)

	calls := 0
	w.SetContactHandler(func(a, b game.Body) {
		calls++
		w.Destroy(box)
	})

	w.Step(0.016)

	// car-box 和 barrier-box 都在同一批次，第一次回调销毁 box 后第二个被丢弃
	if calls != 1 {
		t.Errorf("Expected one delivered contact, got %d", calls)
	}
	if _, ok := w.nodes[box]; ok {
		t.Error("Expected box removed")
	}
}

func TestSpawnUnknownTemplate(t *testing.T) {
	w := NewWorld(testBounds)
	if _, err := w.Spawn("missing", types.Transform{}); err == nil {
		t.Error("Expected error for unknown template")
	}
}

func TestHitTest(t *testing.T) {
	w := NewWorld(testBounds)
	w.RegisterTemplate("box", ObstacleExtent)

	if hits := w.HitTest(types.Point{}); hits != nil {
		t.Errorf("Expected no hits without a projector, got %v", hits)
	}

	w.SetProjector(fixedProjector{})
	w.SetTouchRadius(0.5)

	a, _ := w.Spawn("box", types.Transform{Position: types.Vec3{X: 10, Z: 3}})
	b, _ := w.Spawn("box", types.Transform{Position: types.Vec3{X: 10.8, Z: 3}})
	w.Spawn("box", types.Transform{Position: types.Vec3{X: 30, Z: 3}})

	hits := w.HitTest(types.Point{X: 10.4, Y: 3})
	if len(hits) != 2 || hits[0] != a || hits[1] != b {
		t.Errorf("Expected hits [%d %d], got %v", a, b, hits)
	}

	if hits := w.HitTest(types.Point{X: 20, Y: 3}); len(hits) != 0 {
		t.Errorf("Expected empty track to miss, got %v", hits)
	}

	// 命中测试不会在空间中留下探针
	if n := len(w.Nodes()); n != 3 {
		t.Errorf("Expected 3 nodes, got %d", n)
	}
}

func TestTrackWorldHasRequiredNodes(t *testing.T) {
	w := NewTrackWorld(config.DefaultRaceConfig())
	for _, name := range race.RequiredNodes {
		if _, ok := w.Lookup(name); !ok {
			t.Errorf("Expected node %q", name)
		}
	}
	if _, err := w.Spawn(systems.ObstacleTemplate, types.Transform{}); err != nil {
		t.Errorf("Expected obstacle template registered: %v", err)
	}
}

// TestRaceOnTrackWorld 在真实世界上跑一整局，直到分出胜负
func TestRaceOnTrackWorld(t *testing.T) {
	logger.Discard()
	cfg := config.DefaultRaceConfig()
	w := NewTrackWorld(cfg)
	effects := gametest.NewEffects()
	hud := gametest.NewHUD()

	c := race.NewRaceController(gametest.Services(w, effects, hud, gametest.NewCamera()), race.Options{
		Config: cfg,
		Rand:   rand.New(rand.NewSource(3)),
	})
	if err := c.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	const dt = 1.0 / 60
	tick := func() {
		w.Step(dt)
		c.Update(dt)
	}

	for i := 0; i < 600 && c.State() != game.StateTapToPlay; i++ {
		tick()
	}
	// 首次游玩时帮助面板先打开，第一下只关闭面板
	c.OnTouchDown(types.Point{X: 500, Y: 500}, c.Now())
	c.OnTouchDown(types.Point{X: 500, Y: 500}, c.Now())
	if c.State() != game.StateCountDown {
		t.Fatalf("Expected CountDown, got %s", c.State())
	}

	for i := 0; i < 60*60 && c.State() != game.StateGameOver; i++ {
		tick()
	}

	if c.State() != game.StateGameOver {
		t.Fatalf("Expected the round to finish, got %s", c.State())
	}
	if c.Winner() == types.PlayerNone {
		t.Error("Expected a winner")
	}
	if n := len(w.Nodes()); n != len(race.RequiredNodes) {
		t.Errorf("Expected only scene nodes after reaping, got %d", n)
	}
}
