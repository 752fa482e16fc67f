package systems

import (
	"github.com/decker502/crashthatcar/pkg/config"
	"github.com/decker502/crashthatcar/pkg/game"
)

// CountdownSystem 倒计时数字的依次弹出
// 每一步显示自己的覆盖层并隐藏上一步的，最后一步结束后回调
type CountdownSystem struct {
	hud     game.HUD
	effects game.Effects
	sched   *game.Scheduler
	steps   []config.CountdownStep
}

// NewCountdownSystem 创建倒计时系统
func NewCountdownSystem(hud game.HUD, effects game.Effects, sched *game.Scheduler, cfg *config.RaceConfig) *CountdownSystem {
	return &CountdownSystem{
		hud:     hud,
		effects: effects,
		sched:   sched,
		steps:   cfg.Countdown.Steps,
	}
}

// Start 开始倒计时
// onDone 在所有步骤的延时之和之后触发，与帧率无关
func (cs *CountdownSystem) Start(onDone game.TaskFunc) {
	at := 0.0
	var previous game.OverlayID

	for _, step := range cs.steps {
		overlay := game.OverlayID(step.Overlay)
		hide := previous
		cs.sched.After(at, "countdown:"+step.Overlay, func(float64) {
			if hide != "" {
				cs.hud.HideOverlay(hide)
			}
			cs.hud.ShowOverlay(overlay)
			cs.effects.PlaySound(game.SoundCountdown)
		})
		previous = overlay
		at += step.Delay
	}

	last := previous
	cs.sched.After(at, "countdown:go", func(dueAt float64) {
		cs.hud.HideOverlay(last)
		onDone(dueAt)
	})
}

// Overlays 倒计时用到的全部覆盖层
func (cs *CountdownSystem) Overlays() []game.OverlayID {
	ids := make([]game.OverlayID, len(cs.steps))
	for i, step := range cs.steps {
		ids[i] = game.OverlayID(step.Overlay)
	}
	return ids
}
