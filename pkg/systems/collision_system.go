package systems

import (
	"github.com/rs/zerolog"

	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/logger"
)

// ContactKind 接触分类结果
type ContactKind int

const (
	// ContactIgnored 不关心的接触（包括中线、重复的护栏接触等）
	ContactIgnored ContactKind = iota
	// ContactCarObstacle 车撞上障碍物，该车输掉比赛
	ContactCarObstacle
	// ContactCarSpeedObstacle 车吃到加速障碍物
	ContactCarSpeedObstacle
	// ContactCarFinishLine 车越过终点线，该车获胜
	ContactCarFinishLine
	// ContactBarrierObstacle 护栏接住障碍物
	ContactBarrierObstacle
	// ContactBorderLineObstacle 障碍物飞出边界
	ContactBorderLineObstacle
)

func (k ContactKind) String() string {
	switch k {
	case ContactCarObstacle:
		return "carObstacle"
	case ContactCarSpeedObstacle:
		return "carSpeedObstacle"
	case ContactCarFinishLine:
		return "carFinishLine"
	case ContactBarrierObstacle:
		return "barrierObstacle"
	case ContactBorderLineObstacle:
		return "borderLineObstacle"
	default:
		return "ignored"
	}
}

// contactRule 一条分类规则：subject 类别 + 任一 object 类别
type contactRule struct {
	kind    ContactKind
	subject components.PhysicsCategory
	object  components.PhysicsCategory
}

// contactRules 按优先级排列，第一条匹配的规则生效
var contactRules = []contactRule{
	{ContactCarObstacle, components.CategoryCar, components.CategoryObstacle},
	{ContactCarSpeedObstacle, components.CategoryCar, components.CategorySpeedObstacle},
	{ContactCarFinishLine, components.CategoryCar, components.CategoryFinishLine},
	{ContactBarrierObstacle, components.CategoryBarrier, components.CategoryObstacle},
	{ContactBorderLineObstacle, components.CategoryBorderLine, components.CategoryObstacle | components.CategorySpeedObstacle},
}

// ClassifyContact 对无序的一对物体分类
// 返回的 subject 是车/护栏/边界线一方，object 是另一方
func ClassifyContact(a, b game.Body) (kind ContactKind, subject, object game.Body) {
	for _, rule := range contactRules {
		if a.Category.Has(rule.subject) && b.Category&rule.object != 0 {
			return rule.kind, a, b
		}
		if b.Category.Has(rule.subject) && a.Category&rule.object != 0 {
			return rule.kind, b, a
		}
	}
	return ContactIgnored, a, b
}

// ContactHandler 各类接触的处理者
type ContactHandler interface {
	OnCarHitObstacle(car, obstacle game.Body)
	OnCarHitSpeedObstacle(car, obstacle game.Body)
	OnCarCrossFinishLine(car, line game.Body)
	OnBarrierCaughtObstacle(barrier, obstacle game.Body)
	OnObstacleLeftTrack(line, obstacle game.Body)
}

// CollisionSystem 接触分发器
// 只做分类和路由；是否处于比赛阶段由调用方判断
type CollisionSystem struct {
	handler ContactHandler
	log     zerolog.Logger
}

// NewCollisionSystem 创建接触分发器
func NewCollisionSystem(handler ContactHandler) *CollisionSystem {
	return &CollisionSystem{
		handler: handler,
		log:     logger.For("CollisionSystem"),
	}
}

// Dispatch 分类并调用对应的处理函数，返回分类结果
func (cs *CollisionSystem) Dispatch(a, b game.Body) ContactKind {
	kind, subject, object := ClassifyContact(a, b)
	if kind == ContactIgnored {
		return kind
	}

	cs.log.Debug().
		Str("kind", kind.String()).
		Uint64("subject", uint64(subject.Handle)).
		Uint64("object", uint64(object.Handle)).
		Msg("contact")

	switch kind {
	case ContactCarObstacle:
		cs.handler.OnCarHitObstacle(subject, object)
	case ContactCarSpeedObstacle:
		cs.handler.OnCarHitSpeedObstacle(subject, object)
	case ContactCarFinishLine:
		cs.handler.OnCarCrossFinishLine(subject, object)
	case ContactBarrierObstacle:
		cs.handler.OnBarrierCaughtObstacle(subject, object)
	case ContactBorderLineObstacle:
		cs.handler.OnObstacleLeftTrack(subject, object)
	}
	return kind
}
