package components

import "strings"

// PhysicsCategory 碰撞体类别位掩码
// 每个碰撞体只属于一个类别，CollidesWith / ContactTest 则是多个类别的按位或
type PhysicsCategory uint32

const (
	CategoryNone          PhysicsCategory = 0
	CategoryCar           PhysicsCategory = 1 << 1
	CategoryObstacle      PhysicsCategory = 1 << 2
	CategorySpeedObstacle PhysicsCategory = 1 << 3
	CategoryBarrier       PhysicsCategory = 1 << 4
	CategoryFinishLine    PhysicsCategory = 1 << 5
	CategoryBorderLine    PhysicsCategory = 1 << 6
	CategoryMiddleLine    PhysicsCategory = 1 << 7
)

var categoryNames = []struct {
	cat  PhysicsCategory
	name string
}{
	{CategoryCar, "car"},
	{CategoryObstacle, "obstacle"},
	{CategorySpeedObstacle, "speedObstacle"},
	{CategoryBarrier, "barrier"},
	{CategoryFinishLine, "finishLine"},
	{CategoryBorderLine, "borderLine"},
	{CategoryMiddleLine, "middleLine"},
}

// Has 判断掩码是否包含指定类别
func (c PhysicsCategory) Has(other PhysicsCategory) bool {
	return other != CategoryNone && c&other == other
}

// String 返回类别名称，多个类别以 | 连接
func (c PhysicsCategory) String() string {
	if c == CategoryNone {
		return "none"
	}
	parts := make([]string, 0, 2)
	for _, n := range categoryNames {
		if c.Has(n.cat) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "|")
}

// BodySpec 描述一个碰撞体的注册参数
//   - Category: 自身类别
//   - CollidesWith: 会产生物理碰撞响应的类别
//   - ContactTest: 只上报接触事件的类别（传感器）
type BodySpec struct {
	Category     PhysicsCategory
	CollidesWith PhysicsCategory
	ContactTest  PhysicsCategory
	Dynamic      bool
	Gravity      bool
}

// 各类实体的碰撞体预设
var (
	CarBody = BodySpec{
		Category:     CategoryCar,
		CollidesWith: CategoryMiddleLine | CategoryBorderLine,
		ContactTest:  CategoryFinishLine | CategoryObstacle | CategorySpeedObstacle,
		Dynamic:      true,
	}
	BarrierBody = BodySpec{
		Category:    CategoryBarrier,
		ContactTest: CategoryObstacle,
	}
	ObstacleBody = BodySpec{
		Category:    CategoryObstacle,
		ContactTest: CategoryCar | CategoryBarrier | CategoryBorderLine,
		Dynamic:     true,
	}
	SpeedObstacleBody = BodySpec{
		Category:    CategorySpeedObstacle,
		ContactTest: CategoryCar | CategoryBorderLine,
		Dynamic:     true,
	}
	FinishLineBody = BodySpec{
		Category:    CategoryFinishLine,
		ContactTest: CategoryCar,
	}
	BorderLineBody = BodySpec{
		Category:     CategoryBorderLine,
		CollidesWith: CategoryCar,
		ContactTest:  CategoryObstacle | CategorySpeedObstacle,
	}
	MiddleLineBody = BodySpec{
		Category:     CategoryMiddleLine,
		CollidesWith: CategoryCar,
	}
)
