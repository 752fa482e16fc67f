package race

import (
	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/systems"
)

// contactRouter 把分类后的接触转给控制器
// 任一方句柄已不在索引中（比如障碍物刚被销毁）时忽略该接触
type contactRouter struct {
	c *RaceController
}

var _ systems.ContactHandler = contactRouter{}

func (r contactRouter) OnCarHitObstacle(carBody, obstacleBody game.Body) {
	c := r.c
	car, ok := c.carFor(carBody.Handle)
	if !ok {
		return
	}
	id, _, ok := c.spawner.Lookup(obstacleBody.Handle)
	if !ok {
		return
	}

	c.spawner.DestroyObstacle(id, game.EffectBigExplosion)
	c.svc.Effects.PlaySound(game.SoundCrash)
	c.log.Info().Str("player", car.Player.String()).Msg("car hit obstacle")
	c.finish(car.Player.Opponent())
}

func (r contactRouter) OnCarHitSpeedObstacle(carBody, obstacleBody game.Body) {
	c := r.c
	car, ok := c.carFor(carBody.Handle)
	if !ok {
		return
	}
	id, _, ok := c.spawner.Lookup(obstacleBody.Handle)
	if !ok {
		return
	}

	world := c.svc.World
	world.SetVelocity(car.Handle, world.Velocity(car.Handle).Scale(c.cfg.Cars.SpeedBoostFactor))
	c.spawner.DestroyObstacle(id, game.EffectSpeedBoost)
	c.svc.Effects.PlaySound(game.SoundBoost)
	c.log.Debug().Str("player", car.Player.String()).Msg("car boosted")
}

func (r contactRouter) OnCarCrossFinishLine(carBody, _ game.Body) {
	c := r.c
	car, ok := c.carFor(carBody.Handle)
	if !ok {
		return
	}
	c.svc.Effects.PlaySound(game.SoundWin)
	c.log.Info().Str("player", car.Player.String()).Msg("car crossed finish line")
	c.finish(car.Player)
}

func (r contactRouter) OnBarrierCaughtObstacle(barrierBody, obstacleBody game.Body) {
	c := r.c
	barrier, ok := c.barrierFor(barrierBody.Handle)
	if !ok {
		return
	}
	id, obstacle, ok := c.spawner.Lookup(obstacleBody.Handle)
	if !ok {
		return
	}

	effects := c.svc.Effects
	switch {
	case obstacle.Tag == components.ObstacleNormal:
		next, _ := systems.AdvanceObstacle(obstacle.Tag, systems.TriggerBarrierContact)
		obstacle.Tag = next
		obstacle.CapturedBy = barrier.Owner
		effects.AttachEffect(obstacle.Handle, game.EffectInBarrier)

	case obstacle.Tag == components.ObstacleShot && barrier.Owner != obstacle.CapturedBy:
		next, _ := systems.AdvanceObstacle(obstacle.Tag, systems.TriggerOpposingBarrier)
		obstacle.Tag = next
		effects.DetachEffect(obstacle.Handle, game.EffectShotTrail)
		effects.AttachEffect(obstacle.Handle, game.EffectReadyToExplode)

	default:
		return
	}

	c.log.Debug().
		Uint64("entity", uint64(id)).
		Str("barrier", barrier.Owner.String()).
		Str("tag", obstacle.Tag.String()).
		Msg("obstacle caught")
}

func (r contactRouter) OnObstacleLeftTrack(_, obstacleBody game.Body) {
	c := r.c
	id, _, ok := c.spawner.Lookup(obstacleBody.Handle)
	if !ok {
		return
	}
	c.spawner.DestroyObstacle(id, game.EffectExplosion)
}
