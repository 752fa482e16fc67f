package systems

import (
	"github.com/rs/zerolog"

	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/logger"
	"github.com/decker502/crashthatcar/pkg/types"
)

// TutorialStore 教程进度的持久化
// *game.SettingsManager 实现了该接口
type TutorialStore interface {
	TutorialFinished() bool
	MarkTutorialFinished() error
}

// TutorialSystem 等待开始阶段的帮助面板
//
// 帮助面板打开时，下一次触摸只会关闭它，不会开始倒计时。
// 从未完成过教程的玩家进入等待阶段时面板自动打开。
type TutorialSystem struct {
	hud   game.HUD
	store TutorialStore
	log   zerolog.Logger
}

// NewTutorialSystem 创建教程系统，store 可为 nil（每次都视为首次游玩）
func NewTutorialSystem(hud game.HUD, store TutorialStore) *TutorialSystem {
	return &TutorialSystem{
		hud:   hud,
		store: store,
		log:   logger.For("TutorialSystem"),
	}
}

// Enter 进入等待开始阶段
func (s *TutorialSystem) Enter(open *bool) {
	s.hud.ShowOverlay(game.OverlayHelpButton)
	if s.store == nil || !s.store.TutorialFinished() {
		s.openPanel(open)
	}
}

// Leave 离开等待开始阶段，隐藏按钮和面板
func (s *TutorialSystem) Leave(open *bool) {
	s.hud.HideOverlay(game.OverlayHelpButton)
	s.hud.HideOverlay(game.OverlayHelpPanel)
	*open = false
}

// HandleTouch 处理等待阶段的触摸，返回触摸是否被帮助面板消耗
func (s *TutorialSystem) HandleTouch(open *bool, p types.Point) bool {
	if *open {
		s.closePanel(open)
		return true
	}
	if s.hud.OverlayHit(game.OverlayHelpButton, p) {
		s.openPanel(open)
		return true
	}
	return false
}

func (s *TutorialSystem) openPanel(open *bool) {
	*open = true
	s.hud.ShowOverlay(game.OverlayHelpPanel)
}

func (s *TutorialSystem) closePanel(open *bool) {
	*open = false
	s.hud.HideOverlay(game.OverlayHelpPanel)
	if s.store == nil {
		return
	}
	if err := s.store.MarkTutorialFinished(); err != nil {
		s.log.Warn().Err(err).Msg("failed to save tutorial progress")
	}
}
