package systems

import (
	"github.com/decker502/crashthatcar/pkg/config"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/types"
)

// GameOverSystem 结算界面的分阶段弹出
//
// 阶段：
//  1. "游戏结束" 横幅
//  2. 胜者横幅
//  3. 重玩按钮
//
// 每个阶段间隔 popInterval 秒并播放弹出音效
type GameOverSystem struct {
	hud      game.HUD
	effects  game.Effects
	sched    *game.Scheduler
	interval float64
}

// NewGameOverSystem 创建结算系统
func NewGameOverSystem(hud game.HUD, effects game.Effects, sched *game.Scheduler, cfg *config.RaceConfig) *GameOverSystem {
	return &GameOverSystem{
		hud:      hud,
		effects:  effects,
		sched:    sched,
		interval: cfg.GameOver.PopInterval,
	}
}

// Start 开始弹出结算覆盖层
func (s *GameOverSystem) Start(winner types.PlayerID) {
	for i, overlay := range s.stages(winner) {
		overlay := overlay
		s.sched.After(float64(i+1)*s.interval, "gameOver:"+string(overlay), func(float64) {
			s.hud.ShowOverlay(overlay)
			s.effects.PlaySound(game.SoundPop)
		})
	}
}

// Hide 隐藏所有结算覆盖层
func (s *GameOverSystem) Hide() {
	for _, overlay := range []game.OverlayID{game.OverlayGameOver, game.OverlayPlayer1Won, game.OverlayPlayer2Won, game.OverlayReplay} {
		s.hud.HideOverlay(overlay)
	}
}

func (s *GameOverSystem) stages(winner types.PlayerID) []game.OverlayID {
	return []game.OverlayID{game.OverlayGameOver, game.WinnerOverlay(winner), game.OverlayReplay}
}
