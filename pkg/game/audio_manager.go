package game

import (
	"encoding/binary"
	"math"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/decker502/crashthatcar/pkg/logger"
)

// SampleRate 音频上下文采样率
const SampleRate = 44100

// toneSpec 合成音效参数
// 频率在 Duration 内从 StartHz 线性滑到 EndHz，Noise 为白噪声混合比例
type toneSpec struct {
	StartHz  float64
	EndHz    float64
	Duration float64 // 秒
	Noise    float64 // 0.0 ~ 1.0
}

// cueTones 每个音效ID对应的合成参数
var cueTones = map[SoundKey]toneSpec{
	SoundPop:       {StartHz: 660, EndHz: 990, Duration: 0.08},
	SoundCountdown: {StartHz: 520, EndHz: 520, Duration: 0.15},
	SoundGo:        {StartHz: 780, EndHz: 1040, Duration: 0.35},
	SoundExplosion: {StartHz: 180, EndHz: 40, Duration: 0.4, Noise: 0.7},
	SoundCrash:     {StartHz: 120, EndHz: 30, Duration: 0.8, Noise: 0.85},
	SoundBoost:     {StartHz: 300, EndHz: 900, Duration: 0.25},
	SoundShoot:     {StartHz: 900, EndHz: 300, Duration: 0.12, Noise: 0.2},
	SoundWin:       {StartHz: 520, EndHz: 1560, Duration: 0.6},
}

// AudioManager 音频管理器
// 职责：
//   - 统一管理比赛中所有音效的播放
//   - 从 SettingsManager 读取音量与开关
//   - 音效在首次播放时合成并缓存播放器
type AudioManager struct {
	context         *audio.Context
	settingsManager *SettingsManager // 可为 nil
	soundPlayers    map[SoundKey]*audio.Player
}

// NewAudioManager 创建音频管理器
// ctx 为 nil 时（无声模式，如无头模拟）所有播放调用直接返回 false
func NewAudioManager(ctx *audio.Context, sm *SettingsManager) *AudioManager {
	return &AudioManager{
		context:         ctx,
		settingsManager: sm,
		soundPlayers:    make(map[SoundKey]*audio.Player),
	}
}

// PlaySound 播放音效，单次播放
// 返回是否真正发声
func (am *AudioManager) PlaySound(key SoundKey) bool {
	if am.settingsManager != nil && !am.settingsManager.GetSettings().SoundEnabled {
		return false
	}

	player := am.getSoundPlayer(key)
	if player == nil {
		return false
	}

	player.SetVolume(am.getSoundVolume())

	if err := player.Rewind(); err != nil {
		log := logger.For("AudioManager")
		log.Warn().Err(err).Str("sound", string(key)).Msg("failed to rewind sound")
	}
	player.Play()
	return true
}

// SetSoundVolume 设置音效音量并应用到已缓存的播放器
func (am *AudioManager) SetSoundVolume(volume float64) {
	if am.settingsManager != nil {
		am.settingsManager.SetSoundVolume(volume)
	}
	for _, player := range am.soundPlayers {
		player.SetVolume(clampVolume(volume))
	}
}

// GetSoundVolume 获取当前音效音量
func (am *AudioManager) GetSoundVolume() float64 {
	return am.getSoundVolume()
}

// PreloadSounds 预先合成全部音效，避免首次播放卡顿
func (am *AudioManager) PreloadSounds() {
	for key := range cueTones {
		am.getSoundPlayer(key)
	}
	log := logger.For("AudioManager")
	log.Debug().Int("count", len(am.soundPlayers)).Msg("sounds preloaded")
}

func (am *AudioManager) getSoundPlayer(key SoundKey) *audio.Player {
	if am.context == nil {
		return nil
	}
	if player, ok := am.soundPlayers[key]; ok {
		return player
	}

	spec, ok := cueTones[key]
	if !ok {
		log := logger.For("AudioManager")
		log.Warn().Str("sound", string(key)).Msg("sound not found")
		return nil
	}

	player := am.context.NewPlayerFromBytes(synthesizeTone(spec, SampleRate))
	am.soundPlayers[key] = player
	return player
}

func (am *AudioManager) getSoundVolume() float64 {
	if am.settingsManager != nil {
		return am.settingsManager.GetSettings().SoundVolume
	}
	return 0.8
}

// synthesizeTone 生成 16 位小端双声道 PCM 数据
// 带线性淡出，避免结尾爆音；噪声用固定种子的线性同余序列，结果可复现
func synthesizeTone(spec toneSpec, sampleRate int) []byte {
	n := int(spec.Duration * float64(sampleRate))
	if n <= 0 {
		return nil
	}

	buf := make([]byte, n*4)
	phase := 0.0
	seed := uint32(0x2545F491)

	for i := 0; i < n; i++ {
		progress := float64(i) / float64(n)
		freq := spec.StartHz + (spec.EndHz-spec.StartHz)*progress
		phase += 2 * math.Pi * freq / float64(sampleRate)

		v := math.Sin(phase) * (1 - spec.Noise)
		if spec.Noise > 0 {
			seed = seed*1664525 + 1013904223
			v += (float64(seed)/float64(math.MaxUint32)*2 - 1) * spec.Noise
		}
		v *= 0.3 * (1 - progress)

		s := int16(v * math.MaxInt16)
		binary.LittleEndian.PutUint16(buf[i*4:], uint16(s))
		binary.LittleEndian.PutUint16(buf[i*4+2:], uint16(s))
	}

	return buf
}
