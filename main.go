package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/crashthatcar/pkg/app"
)

var (
	verbose    = flag.Bool("verbose", false, "显示详细调试日志")
	configDir  = flag.String("config", ".", "crashthatcar.yaml 所在目录")
	raceConfig = flag.String("race", "", "比赛调参 YAML 文件（为空使用内置配置）")
	seed       = flag.Int64("seed", 0, "障碍物布局随机种子（0 表示随机）")
)

func main() {
	flag.Parse()

	gameApp, err := app.NewApp(app.Config{
		Verbose:        *verbose,
		ConfigDir:      *configDir,
		RaceConfigPath: *raceConfig,
		Seed:           *seed,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "游戏初始化失败: %v\n", err)
		os.Exit(1)
	}

	width, height, title := gameApp.WindowConfig()
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	runErr := ebiten.RunGame(gameApp)
	gameApp.SaveOnExit()
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "游戏异常退出: %v\n", runErr)
		os.Exit(1)
	}
}
