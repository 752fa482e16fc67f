// Package app 提供游戏应用的核心包装器
//
// 该包将游戏初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"fmt"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"
	"github.com/rs/zerolog"

	"github.com/decker502/crashthatcar/pkg/config"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/logger"
	"github.com/decker502/crashthatcar/pkg/scenes"
	"github.com/decker502/crashthatcar/pkg/utils"
)

// Config 定义应用启动配置
// 非零字段覆盖 crashthatcar.yaml / 环境变量中的同名设置
type Config struct {
	// Verbose 启用 debug 级别日志
	Verbose bool
	// ConfigDir crashthatcar.yaml 所在目录，为空时只用默认值与环境变量
	ConfigDir string
	// RaceConfigPath 比赛调参文件
	RaceConfigPath string
	// Seed 障碍物布局的随机种子
	Seed int64
}

// App 是游戏应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	sceneManager *game.SceneManager
	settings     *game.SettingsManager
	window       config.AppConfig

	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数

	log zerolog.Logger
}

// NewApp 创建并初始化游戏应用
func NewApp(cfg Config) (*App, error) {
	appCfg, err := config.LoadAppConfig(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("启动配置加载失败: %w", err)
	}

	level := appCfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}
	logger.Setup(os.Stderr, level)
	log := logger.For("App")

	raceCfg, err := loadRaceConfig(cfg.RaceConfigPath, appCfg.RaceConfigPath)
	if err != nil {
		return nil, err
	}

	seed := appCfg.Seed
	if cfg.Seed != 0 {
		seed = cfg.Seed
	}

	settings := openSettings(appCfg.DataAppName)

	audioContext := audio.NewContext(game.SampleRate)
	audioManager := game.NewAudioManager(audioContext, settings)
	audioManager.PreloadSounds()
	log.Info().Msg("AudioManager initialized")

	sceneManager := game.NewSceneManager()
	sceneManager.SetSceneFactory(func() (game.Scene, error) {
		return scenes.NewRaceScene(scenes.RaceSceneDeps{
			Config:   raceCfg,
			Audio:    audioManager,
			Settings: settings,
			Seed:     seed,
		})
	})
	if err := sceneManager.Reload(); err != nil {
		return nil, fmt.Errorf("比赛场景初始化失败: %w", err)
	}

	log.Info().Int64("seed", seed).Msg("race scene ready")
	return &App{
		sceneManager: sceneManager,
		settings:     settings,
		window:       *appCfg,
		log:          log,
	}, nil
}

// loadRaceConfig 命令行路径优先，其次是启动配置，都为空时用内置配置
func loadRaceConfig(paths ...string) (*config.RaceConfig, error) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		cfg, err := config.LoadRaceConfig(p)
		if err != nil {
			return nil, fmt.Errorf("比赛配置加载失败 (%s): %w", p, err)
		}
		return cfg, nil
	}
	return config.DefaultRaceConfig(), nil
}

// openSettings 打开设置存储；存储不可用时降级为仅内存
func openSettings(appName string) *game.SettingsManager {
	log := logger.For("App")

	if err := utils.PrepareSaveDir(appName); err != nil {
		log.Warn().Err(err).Msg("save dir unavailable")
	}

	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Warn().Err(err).Msg("gdata unavailable, settings will not persist")
		manager = nil
	}

	settings := game.NewSettingsManager(manager)
	if err := settings.Load(); err != nil {
		log.Warn().Err(err).Msg("failed to load settings, using defaults")
	}
	return settings
}

// WindowConfig 窗口设置
func (a *App) WindowConfig() (width, height int, title string) {
	return a.window.Window.Width, a.window.Window.Height, a.window.Window.Title
}

// Update 更新游戏逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(a.window.Window.Width, a.window.Window.Height)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if !utils.IsMobile() && inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
			a.log.Debug().Msg("exit fullscreen, will reset window size in 3 frames")
		} else {
			ebiten.SetFullscreen(true)
		}
	}

	a.sceneManager.Update(1.0 / float64(ebiten.TPS()))
	return nil
}

// Draw 绘制游戏画面
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回游戏的逻辑屏幕尺寸
// 此尺寸独立于实际窗口大小，Ebitengine 会自动处理缩放
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return config.GameWindowWidth, config.GameWindowHeight
}

// SaveOnExit 程序退出或进入后台时保存
func (a *App) SaveOnExit() {
	if s, ok := a.sceneManager.GetCurrentScene().(game.Saveable); ok {
		if !s.SaveOnExit() {
			a.log.Warn().Msg("scene failed to save on exit")
		}
		return
	}
	if err := a.settings.Save(); err != nil {
		a.log.Warn().Err(err).Msg("failed to save settings on exit")
	}
}
