package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/decker502/crashthatcar/pkg/types"
)

//go:embed default_race.yaml
var defaultRaceYAML []byte

// RaceConfig 一局比赛的全部调参项
type RaceConfig struct {
	Track     TrackConfig     `yaml:"track"`
	Cars      CarConfig       `yaml:"cars"`
	Obstacles ObstacleConfig  `yaml:"obstacles"`
	Countdown CountdownConfig `yaml:"countdown"`
	Intro     IntroConfig     `yaml:"intro"`
	GameOver  GameOverConfig  `yaml:"gameOver"`
	Camera    CameraConfig    `yaml:"camera"`
}

// TrackConfig 赛道尺寸
type TrackConfig struct {
	Length      float64 `yaml:"length"`
	Width       float64 `yaml:"width"`
	FinishLineX float64 `yaml:"finishLineX"`
	CarStartX   float64 `yaml:"carStartX"`
	CarLaneZ    float64 `yaml:"carLaneZ"`
}

// HalfWidth 返回单侧车道宽度
func (t TrackConfig) HalfWidth() float64 {
	return t.Width / 2
}

// CarConfig 车辆参数
type CarConfig struct {
	LaunchSpeed      float64    `yaml:"launchSpeed"`
	SpeedBoostFactor float64    `yaml:"speedBoostFactor"`
	BarrierOffset    types.Vec3 `yaml:"barrierOffset"`
}

// ObstacleConfig 障碍物生成参数
type ObstacleConfig struct {
	PerLane             int     `yaml:"perLane"`
	Spacing             float64 `yaml:"spacing"`
	Margin              float64 `yaml:"margin"`
	Height              float64 `yaml:"height"`
	LaunchSpeed         float64 `yaml:"launchSpeed"`
	SpawnDelay          float64 `yaml:"spawnDelay"`
	SpeedObstacleOffset float64 `yaml:"speedObstacleOffset"`
	PaletteSize         int     `yaml:"paletteSize"`
}

// CountdownStep 倒计时中的一个数字
type CountdownStep struct {
	Overlay string  `yaml:"overlay"` // 要弹出的覆盖层ID
	Delay   float64 `yaml:"delay"`   // 距下一步的间隔（秒）
}

// CountdownConfig 倒计时序列
type CountdownConfig struct {
	Steps []CountdownStep `yaml:"steps"`
}

// Total 倒计时总时长
func (c CountdownConfig) Total() float64 {
	total := 0.0
	for _, s := range c.Steps {
		total += s.Delay
	}
	return total
}

// CameraLeg 开场镜头路径中的一段
type CameraLeg struct {
	Position types.Vec3 `yaml:"position"`
	Duration float64    `yaml:"duration"`
}

// IntroConfig 开场镜头扫描
type IntroConfig struct {
	Legs []CameraLeg `yaml:"legs"`
}

// Total 开场镜头总时长
func (c IntroConfig) Total() float64 {
	total := 0.0
	for _, l := range c.Legs {
		total += l.Duration
	}
	return total
}

// GameOverConfig 结算界面弹出节奏
type GameOverConfig struct {
	PopInterval float64 `yaml:"popInterval"`
}

// CameraConfig 比赛中镜头跟随参数
type CameraConfig struct {
	TrackOffset float64 `yaml:"trackOffset"`
}

// DefaultRaceConfig 返回内置的默认配置
// 内置文件在构建期就已确定，解析失败属于编程错误
func DefaultRaceConfig() *RaceConfig {
	cfg, err := ParseRaceConfig(defaultRaceYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded race config is invalid: %v", err))
	}
	return cfg
}

// LoadRaceConfig 从 YAML 文件加载比赛配置
// 文件中缺省的字段沿用内置默认值
func LoadRaceConfig(filePath string) (*RaceConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read race config file: %w", err)
	}
	return ParseRaceConfig(data)
}

// ParseRaceConfig 解析 YAML 数据并校验
func ParseRaceConfig(data []byte) (*RaceConfig, error) {
	var cfg RaceConfig
	if err := yaml.Unmarshal(defaultRaceYAML, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse default race YAML: %w", err)
	}
	// 序列字段整体覆盖而不是逐项合并
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse race config YAML: %w", err)
	}

	if err := validateRaceConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid race config: %w", err)
	}
	return &cfg, nil
}

// validateRaceConfig 验证配置的有效性
func validateRaceConfig(cfg *RaceConfig) error {
	if cfg.Track.Width <= 0 {
		return fmt.Errorf("track.width must be > 0, got %v", cfg.Track.Width)
	}
	if cfg.Track.FinishLineX <= cfg.Track.CarStartX {
		return fmt.Errorf("track.finishLineX (%v) must be ahead of track.carStartX (%v)", cfg.Track.FinishLineX, cfg.Track.CarStartX)
	}
	if cfg.Track.CarLaneZ <= 0 || cfg.Track.CarLaneZ >= cfg.Track.HalfWidth() {
		return fmt.Errorf("track.carLaneZ must be within (0, %v), got %v", cfg.Track.HalfWidth(), cfg.Track.CarLaneZ)
	}

	if cfg.Cars.LaunchSpeed <= 0 {
		return fmt.Errorf("cars.launchSpeed must be > 0, got %v", cfg.Cars.LaunchSpeed)
	}
	if cfg.Cars.SpeedBoostFactor < 1 {
		return fmt.Errorf("cars.speedBoostFactor must be >= 1, got %v", cfg.Cars.SpeedBoostFactor)
	}

	o := cfg.Obstacles
	if o.PerLane < 0 {
		return fmt.Errorf("obstacles.perLane must be >= 0, got %d", o.PerLane)
	}
	if o.Spacing <= 0 {
		return fmt.Errorf("obstacles.spacing must be > 0, got %v", o.Spacing)
	}
	// 随机范围是 [1, halfWidth - margin)，至少要容纳一个单位
	if cfg.Track.HalfWidth()-o.Margin <= 1 {
		return fmt.Errorf("obstacles.margin %v leaves no room in half width %v", o.Margin, cfg.Track.HalfWidth())
	}
	if o.LaunchSpeed <= 0 {
		return fmt.Errorf("obstacles.launchSpeed must be > 0, got %v", o.LaunchSpeed)
	}
	if o.SpawnDelay < 0 {
		return fmt.Errorf("obstacles.spawnDelay must be >= 0, got %v", o.SpawnDelay)
	}
	if o.PaletteSize < 1 {
		return fmt.Errorf("obstacles.paletteSize must be >= 1, got %d", o.PaletteSize)
	}

	if len(cfg.Countdown.Steps) == 0 {
		return fmt.Errorf("countdown.steps cannot be empty")
	}
	for i, s := range cfg.Countdown.Steps {
		if s.Overlay == "" {
			return fmt.Errorf("countdown.steps[%d].overlay cannot be empty", i)
		}
		if s.Delay <= 0 {
			return fmt.Errorf("countdown.steps[%d].delay must be > 0, got %v", i, s.Delay)
		}
	}

	if len(cfg.Intro.Legs) == 0 {
		return fmt.Errorf("intro.legs cannot be empty")
	}
	for i, l := range cfg.Intro.Legs {
		if l.Duration <= 0 {
			return fmt.Errorf("intro.legs[%d].duration must be > 0, got %v", i, l.Duration)
		}
	}

	if cfg.GameOver.PopInterval < 0 {
		return fmt.Errorf("gameOver.popInterval must be >= 0, got %v", cfg.GameOver.PopInterval)
	}
	return nil
}
