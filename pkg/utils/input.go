package utils

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/decker502/crashthatcar/pkg/types"
)

// PointerPhase 指针事件阶段
type PointerPhase int

const (
	PointerDown PointerPhase = iota
	PointerMove
	PointerUp
)

// String 返回阶段名称
func (p PointerPhase) String() string {
	switch p {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	default:
		return "unknown"
	}
}

// PointerEvent 一次按下、移动或抬起
type PointerEvent struct {
	Phase PointerPhase
	Point types.Point
}

// PointerTracker 把鼠标左键和第一根手指统一成单指针事件流
//
// 同一时刻只跟踪一个指针：按下后直到抬起前，其他手指被忽略。
// 触摸抬起时 ebiten 已无法读取位置，使用最后一次记录的位置。
type PointerTracker struct {
	active  bool
	touchID ebiten.TouchID
	isTouch bool
	last    types.Point
	events  []PointerEvent
}

// NewPointerTracker 创建指针跟踪器
func NewPointerTracker() *PointerTracker {
	return &PointerTracker{touchID: -1}
}

// Active 是否有指针处于按下状态
func (pt *PointerTracker) Active() bool {
	return pt.active
}

// Poll 读取本帧的 ebiten 输入并返回产生的事件
// 返回的切片在下一次 Poll 前有效
func (pt *PointerTracker) Poll() []PointerEvent {
	pt.events = pt.events[:0]

	if !pt.active {
		if ids := inpututil.AppendJustPressedTouchIDs(nil); len(ids) > 0 {
			x, y := ebiten.TouchPosition(ids[0])
			pt.press(true, ids[0], x, y)
		} else if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			x, y := ebiten.CursorPosition()
			pt.press(false, -1, x, y)
		}
		return pt.events
	}

	if pt.isTouch {
		if inpututil.IsTouchJustReleased(pt.touchID) {
			pt.release(pt.last)
			return pt.events
		}
		x, y := ebiten.TouchPosition(pt.touchID)
		pt.move(x, y)
		return pt.events
	}

	x, y := ebiten.CursorPosition()
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		pt.release(types.Point{X: float64(x), Y: float64(y)})
		return pt.events
	}
	pt.move(x, y)
	return pt.events
}

func (pt *PointerTracker) press(isTouch bool, id ebiten.TouchID, x, y int) {
	pt.active = true
	pt.isTouch = isTouch
	pt.touchID = id
	pt.last = types.Point{X: float64(x), Y: float64(y)}
	pt.events = append(pt.events, PointerEvent{Phase: PointerDown, Point: pt.last})
}

// move 位置变化时才产生移动事件
func (pt *PointerTracker) move(x, y int) {
	p := types.Point{X: float64(x), Y: float64(y)}
	if p == pt.last {
		return
	}
	pt.last = p
	pt.events = append(pt.events, PointerEvent{Phase: PointerMove, Point: p})
}

func (pt *PointerTracker) release(p types.Point) {
	pt.events = append(pt.events, PointerEvent{Phase: PointerUp, Point: p})
	pt.Reset()
}

// Reset 放弃当前跟踪的指针
func (pt *PointerTracker) Reset() {
	pt.active = false
	pt.isTouch = false
	pt.touchID = -1
	pt.last = types.Point{}
}
