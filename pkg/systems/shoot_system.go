package systems

import (
	"github.com/rs/zerolog"

	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/ecs"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/logger"
	"github.com/decker502/crashthatcar/pkg/types"
)

// MinSwipeDistance 小于该距离（像素）的滑动视为没有方向
const MinSwipeDistance = 1e-6

// ComputeVelocity 根据两次触摸位置计算射出速度
//
// 屏幕 X 映射到世界 X，屏幕 Y（向下）映射到世界 -Z。
// 结果的大小恒为 speed；两点重合时返回 ok=false。
func ComputeVelocity(p1, p2 types.Point, speed float64) (types.Vec3, bool) {
	d := p2.Sub(p1)
	length := d.Length()
	if length < MinSwipeDistance {
		return types.Vec3{}, false
	}
	return types.Vec3{
		X: speed * d.X / length,
		Y: 0,
		Z: -speed * d.Y / length,
	}, true
}

// Gesture 触摸手势记录
// 只在有障碍物处于 BeingShot 时有效，射出或取消后清空
type Gesture struct {
	Active    bool
	Start     types.Point
	StartedAt float64
	Target    ecs.EntityID
}

// Clear 清空手势
func (g *Gesture) Clear() {
	*g = Gesture{}
}

// ObstacleDestroyer 销毁障碍物并播放粒子效果
type ObstacleDestroyer interface {
	DestroyObstacle(id ecs.EntityID, effect game.EffectKey)
}

// TouchResult 一次按下事件的处理结果
type TouchResult int

const (
	// TouchMissed 没有点中可交互的障碍物
	TouchMissed TouchResult = iota
	// TouchSelected 选中了护栏中的障碍物，开始手势
	TouchSelected
	// TouchDetonated 引爆了待爆炸的障碍物
	TouchDetonated
)

// ShootSystem 触摸射击机制
// 按下选中护栏里的障碍物，滑动或抬起时沿手势方向射出
type ShootSystem struct {
	em        *ecs.EntityManager
	world     game.World
	effects   game.Effects
	index     *HandleIndex
	destroyer ObstacleDestroyer
	speed     float64
	log       zerolog.Logger
}

// NewShootSystem 创建射击系统，speed 为射出速度大小
func NewShootSystem(em *ecs.EntityManager, world game.World, effects game.Effects, index *HandleIndex, destroyer ObstacleDestroyer, speed float64) *ShootSystem {
	return &ShootSystem{
		em:        em,
		world:     world,
		effects:   effects,
		index:     index,
		destroyer: destroyer,
		speed:     speed,
		log:       logger.For("ShootSystem"),
	}
}

// TouchDown 处理按下
// 手势进行中时忽略新的按下，保证一次手势最多只有一个 BeingShot
func (s *ShootSystem) TouchDown(g *Gesture, p types.Point, t float64) TouchResult {
	if g.Active {
		return TouchMissed
	}

	for _, h := range s.world.HitTest(p) {
		id, ok := s.index.Lookup(h)
		if !ok {
			continue
		}
		obstacle, ok := ecs.GetComponent[*components.ObstacleComponent](s.em, id)
		if !ok || !s.em.Alive(id) {
			continue
		}

		if Detonatable(obstacle.Tag) {
			s.log.Debug().Uint64("entity", uint64(id)).Msg("obstacle detonated")
			s.destroyer.DestroyObstacle(id, game.EffectExplosion)
			return TouchDetonated
		}

		next, ok := AdvanceObstacle(obstacle.Tag, TriggerTouchDown)
		if !ok {
			continue
		}
		obstacle.Tag = next
		*g = Gesture{Active: true, Start: p, StartedAt: t, Target: id}
		s.log.Debug().Uint64("entity", uint64(id)).Msg("obstacle selected")
		return TouchSelected
	}

	return TouchMissed
}

// TouchMove 处理滑动
// 位置与按下点重合时继续等待下一次采样
func (s *ShootSystem) TouchMove(g *Gesture, p types.Point, t float64) {
	if !g.Active {
		return
	}
	s.shoot(g, p)
}

// TouchUp 处理抬起
// 没有位移的手势被取消，障碍物回到 InBarrier
func (s *ShootSystem) TouchUp(g *Gesture, p types.Point, t float64) {
	if !g.Active {
		return
	}
	if s.shoot(g, p) {
		return
	}

	if obstacle, ok := ecs.GetComponent[*components.ObstacleComponent](s.em, g.Target); ok {
		if next, ok := AdvanceObstacle(obstacle.Tag, TriggerShotCancelled); ok {
			obstacle.Tag = next
		}
	}
	s.log.Debug().Uint64("entity", uint64(g.Target)).Msg("shot cancelled")
	g.Clear()
}

// shoot 计算速度并作用到第一个 BeingShot 的障碍物
// 手势没有方向时返回 false，手势保持不变
func (s *ShootSystem) shoot(g *Gesture, p types.Point) bool {
	velocity, ok := ComputeVelocity(g.Start, p, s.speed)
	if !ok {
		return false
	}
	defer g.Clear()

	id, obstacle, found := s.firstBeingShot()
	if !found {
		return true
	}

	next, _ := AdvanceObstacle(obstacle.Tag, TriggerShotApplied)
	obstacle.Tag = next

	s.world.ApplyImpulse(obstacle.Handle, velocity)
	s.effects.DetachEffect(obstacle.Handle, game.EffectInBarrier)
	s.effects.AttachEffect(obstacle.Handle, game.EffectShotTrail)
	s.effects.PlaySound(game.SoundShoot)

	s.log.Debug().
		Uint64("entity", uint64(id)).
		Float64("vx", velocity.X).
		Float64("vz", velocity.Z).
		Msg("obstacle shot")
	return true
}

// firstBeingShot 按生成顺序找到第一个 BeingShot 的障碍物
func (s *ShootSystem) firstBeingShot() (ecs.EntityID, *components.ObstacleComponent, bool) {
	for _, id := range ecs.GetEntitiesWith1[*components.ObstacleComponent](s.em) {
		if !s.em.Alive(id) {
			continue
		}
		obstacle, _ := ecs.GetComponent[*components.ObstacleComponent](s.em, id)
		if obstacle.Tag == components.ObstacleBeingShot {
			return id, obstacle, true
		}
	}
	return 0, nil, false
}
