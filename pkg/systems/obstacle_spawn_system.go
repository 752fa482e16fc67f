package systems

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/config"
	"github.com/decker502/crashthatcar/pkg/ecs"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/logger"
	"github.com/decker502/crashthatcar/pkg/types"
)

// 场景模板名
const (
	ObstacleTemplate      = "obstacle"
	SpeedObstacleTemplate = "speedObstacle"
)

// ObstacleSpawnSystem 障碍物的生成与回收
//
// Spawn 立即为每个计划位置创建实体，但插入世界按 spawnDelay 错开执行；
// 插入任务绑定回合代数，回合重置后不会再插入旧障碍物。
type ObstacleSpawnSystem struct {
	em      *ecs.EntityManager
	world   game.World
	effects game.Effects
	sched   *game.Scheduler
	index   *HandleIndex
	rng     *rand.Rand

	obstacles config.ObstacleConfig
	track     config.TrackConfig

	log zerolog.Logger
}

// NewObstacleSpawnSystem 创建生成系统
// rng 由调用方注入，固定种子可以得到可复现的赛道
func NewObstacleSpawnSystem(
	em *ecs.EntityManager,
	world game.World,
	effects game.Effects,
	sched *game.Scheduler,
	index *HandleIndex,
	rng *rand.Rand,
	cfg *config.RaceConfig,
) *ObstacleSpawnSystem {
	return &ObstacleSpawnSystem{
		em:        em,
		world:     world,
		effects:   effects,
		sched:     sched,
		index:     index,
		rng:       rng,
		obstacles: cfg.Obstacles,
		track:     cfg.Track,
		log:       logger.For("ObstacleSpawnSystem"),
	}
}

// Spawn 规划并创建本回合的全部障碍物
// 返回普通障碍物和加速障碍物两个集合，均按生成顺序排列
func (s *ObstacleSpawnSystem) Spawn() (obstacles, speedObstacles []ecs.EntityID) {
	lateral := s.track.HalfWidth() - s.obstacles.Margin - 1
	inserted := 0

	for _, lane := range []types.PlayerID{types.PlayerFirst, types.PlayerSecond} {
		sign := lane.LaneSign()
		for i := 1; i <= s.obstacles.PerLane; i++ {
			pos := types.Vec3{
				X: float64(i) * s.obstacles.Spacing,
				Y: s.obstacles.Height,
				Z: sign * (1 + s.rng.Float64()*lateral),
			}
			id := s.plan(lane, i, pos, false)
			obstacles = append(obstacles, id)
			s.scheduleInsert(id, inserted)
			inserted++

			if i%2 == 0 {
				speedPos := pos
				speedPos.X += s.obstacles.SpeedObstacleOffset
				sid := s.plan(lane, i, speedPos, true)
				speedObstacles = append(speedObstacles, sid)
				s.scheduleInsert(sid, inserted)
				inserted++
			}
		}
	}

	s.log.Info().
		Int("obstacles", len(obstacles)).
		Int("speedObstacles", len(speedObstacles)).
		Uint64("generation", s.sched.Generation()).
		Msg("obstacles planned")
	return obstacles, speedObstacles
}

func (s *ObstacleSpawnSystem) plan(lane types.PlayerID, index int, pos types.Vec3, speedUp bool) ecs.EntityID {
	id := s.em.CreateEntity()
	ecs.AddComponent(s.em, id, &components.ObstacleComponent{
		Tag:     components.ObstacleNormal,
		SpeedUp: speedUp,
		Index:   index,
		Lane:    lane,
		Palette: s.rng.Intn(s.obstacles.PaletteSize),
		Transform: types.Transform{
			Position: pos,
			Rotation: types.Vec3{Y: s.rng.Float64() * 2 * math.Pi},
		},
	})
	return id
}

func (s *ObstacleSpawnSystem) scheduleInsert(id ecs.EntityID, k int) {
	delay := float64(k) * s.obstacles.SpawnDelay
	s.sched.After(delay, fmt.Sprintf("insertObstacle:%d", id), func(float64) {
		s.insert(id)
	})
}

// insert 把已规划的障碍物放进世界
// 已被回收或已插入的条目直接跳过
func (s *ObstacleSpawnSystem) insert(id ecs.EntityID) {
	if !s.em.Alive(id) {
		return
	}
	obstacle, ok := ecs.GetComponent[*components.ObstacleComponent](s.em, id)
	if !ok || obstacle.Inserted() {
		return
	}

	template, body := ObstacleTemplate, components.ObstacleBody
	if obstacle.SpeedUp {
		template, body = SpeedObstacleTemplate, components.SpeedObstacleBody
	}

	h, err := s.world.Spawn(template, obstacle.Transform)
	if err != nil {
		s.log.Warn().Err(err).Uint64("entity", uint64(id)).Msg("failed to insert obstacle")
		s.em.DestroyEntity(id)
		return
	}
	s.world.AttachCollider(h, body)
	obstacle.Handle = h
	s.index.Bind(h, id)
}

// Lookup 通过世界句柄找到障碍物
func (s *ObstacleSpawnSystem) Lookup(h types.Handle) (ecs.EntityID, *components.ObstacleComponent, bool) {
	id, ok := s.index.Lookup(h)
	if !ok || !s.em.Alive(id) {
		return 0, nil, false
	}
	obstacle, ok := ecs.GetComponent[*components.ObstacleComponent](s.em, id)
	if !ok {
		return 0, nil, false
	}
	return id, obstacle, true
}

// DestroyObstacle 在障碍物当前位置播放粒子效果并移除它
// 重复调用是安全的
func (s *ObstacleSpawnSystem) DestroyObstacle(id ecs.EntityID, effect game.EffectKey) {
	if !s.em.Alive(id) {
		return
	}
	obstacle, ok := ecs.GetComponent[*components.ObstacleComponent](s.em, id)
	if ok && obstacle.Inserted() {
		pos := s.world.Position(obstacle.Handle)
		s.effects.PlayParticleEffect(effect, types.Transform{Position: pos})
		s.world.Destroy(obstacle.Handle)
		s.index.Unbind(obstacle.Handle)
		obstacle.Handle = 0
	}
	s.em.DestroyEntity(id)
}

// Reap 回合结束时清除集合中的全部障碍物
// 已插入的播放爆炸效果，尚未插入的直接丢弃
func (s *ObstacleSpawnSystem) Reap(collections ...[]ecs.EntityID) {
	reaped := 0
	for _, ids := range collections {
		for _, id := range ids {
			if !s.em.Alive(id) {
				continue
			}
			s.DestroyObstacle(id, game.EffectExplosion)
			reaped++
		}
	}
	s.log.Debug().Int("reaped", reaped).Msg("obstacles reaped")
}
