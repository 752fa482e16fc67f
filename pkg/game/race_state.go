package game

import "fmt"

// RaceState 比赛阶段
type RaceState int

const (
	// StatePreparingScene 开场镜头巡视赛道
	StatePreparingScene RaceState = iota
	// StateTapToPlay 等待玩家点击开始
	StateTapToPlay
	// StateCountDown 倒计时
	StateCountDown
	// StatePlay 比赛进行中
	StatePlay
	// StateGameOver 已分出胜负，等待重玩
	StateGameOver
)

func (s RaceState) String() string {
	switch s {
	case StatePreparingScene:
		return "PreparingScene"
	case StateTapToPlay:
		return "TapToPlay"
	case StateCountDown:
		return "CountDown"
	case StatePlay:
		return "Play"
	case StateGameOver:
		return "GameOver"
	default:
		return fmt.Sprintf("RaceState(%d)", int(s))
	}
}

// raceTransitions 完整转移表：每个阶段只有一个合法后继
var raceTransitions = map[RaceState]RaceState{
	StatePreparingScene: StateTapToPlay,
	StateTapToPlay:      StateCountDown,
	StateCountDown:      StatePlay,
	StatePlay:           StateGameOver,
	StateGameOver:       StatePreparingScene,
}

// CanTransition from → to 是否在转移表中
func CanTransition(from, to RaceState) bool {
	next, ok := raceTransitions[from]
	return ok && next == to
}

// StateChangeFunc 阶段切换回调
type StateChangeFunc func(from, to RaceState, at float64)

// RaceStateMachine 比赛状态机
// 状态只能通过 Transition 沿转移表推进，外部无法直接设置
type RaceStateMachine struct {
	state     RaceState
	enteredAt float64
	onChange  StateChangeFunc
}

// NewRaceStateMachine 创建状态机，初始为 PreparingScene
func NewRaceStateMachine() *RaceStateMachine {
	return &RaceStateMachine{state: StatePreparingScene}
}

// State 当前阶段
func (m *RaceStateMachine) State() RaceState {
	return m.state
}

// Is 当前是否处于 s
func (m *RaceStateMachine) Is(s RaceState) bool {
	return m.state == s
}

// EnteredAt 进入当前阶段的虚拟时刻
func (m *RaceStateMachine) EnteredAt() float64 {
	return m.enteredAt
}

// SetOnChange 设置阶段切换回调
func (m *RaceStateMachine) SetOnChange(fn StateChangeFunc) {
	m.onChange = fn
}

// Transition 切换到 to，at 为切换发生的虚拟时刻
// 不在转移表中的切换返回 ErrInvalidTransition，状态不变
func (m *RaceStateMachine) Transition(to RaceState, at float64) error {
	from := m.state
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	m.state = to
	m.enteredAt = at
	if m.onChange != nil {
		m.onChange(from, to, at)
	}
	return nil
}
