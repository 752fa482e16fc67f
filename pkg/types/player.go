package types

// PlayerID 标识比赛中的两位玩家
type PlayerID int

const (
	// PlayerNone 无玩家（如尚未决出胜者）
	PlayerNone PlayerID = iota
	// PlayerFirst 一号玩家（Z 轴负方向车道）
	PlayerFirst
	// PlayerSecond 二号玩家（Z 轴正方向车道）
	PlayerSecond
)

// String 返回玩家的字符串表示
func (p PlayerID) String() string {
	switch p {
	case PlayerFirst:
		return "first"
	case PlayerSecond:
		return "second"
	default:
		return "none"
	}
}

// Opponent 返回对手
func (p PlayerID) Opponent() PlayerID {
	switch p {
	case PlayerFirst:
		return PlayerSecond
	case PlayerSecond:
		return PlayerFirst
	default:
		return PlayerNone
	}
}

// LaneSign 返回玩家车道所在的 Z 轴方向（-1 或 +1）
func (p PlayerID) LaneSign() float64 {
	if p == PlayerSecond {
		return 1
	}
	return -1
}

// Handle 外部世界（物理/渲染）中节点的不透明句柄，0 表示无效
type Handle uint64
