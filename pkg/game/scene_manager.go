package game

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/crashthatcar/pkg/logger"
)

// SceneFactory 场景工厂函数类型
// 用于重建场景，避免 game 包依赖 scenes 包
type SceneFactory func() (Scene, error)

// SceneManager manages the game's high-level state by controlling which scene is active.
// It ensures only one scene's Update and Draw methods are called at any given time.
type SceneManager struct {
	currentScene Scene
	sceneFactory SceneFactory
}

// NewSceneManager creates and returns a new SceneManager instance.
// The manager starts with no active scene; use SwitchTo to set the initial scene.
func NewSceneManager() *SceneManager {
	return &SceneManager{}
}

// SetSceneFactory 设置场景工厂函数
func (sm *SceneManager) SetSceneFactory(factory SceneFactory) {
	sm.sceneFactory = factory
}

// SwitchTo changes the active scene to the provided scene.
func (sm *SceneManager) SwitchTo(scene Scene) {
	sm.currentScene = scene
}

// GetCurrentScene 返回当前活动的场景，没有时返回 nil
func (sm *SceneManager) GetCurrentScene() Scene {
	return sm.currentScene
}

// Reload 用工厂重建当前场景
// 工厂失败时保留旧场景并返回错误
func (sm *SceneManager) Reload() error {
	log := logger.For("SceneManager")

	if sm.sceneFactory == nil {
		log.Error().Msg("scene factory not set")
		return errSceneFactoryMissing
	}

	scene, err := sm.sceneFactory()
	if err != nil {
		log.Error().Err(err).Msg("failed to build scene")
		return err
	}

	sm.SwitchTo(scene)
	log.Info().Msg("scene loaded")
	return nil
}

// Update updates the currently active scene.
// If no scene is active, this method does nothing.
func (sm *SceneManager) Update(deltaTime float64) {
	if sm.currentScene != nil {
		sm.currentScene.Update(deltaTime)
	}
}

// Draw renders the currently active scene to the provided screen.
// If no scene is active, this method does nothing.
func (sm *SceneManager) Draw(screen *ebiten.Image) {
	if sm.currentScene != nil {
		sm.currentScene.Draw(screen)
	}
}
