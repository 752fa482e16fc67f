package scenes

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/logger"
	"github.com/decker502/crashthatcar/pkg/systems"
	"github.com/decker502/crashthatcar/pkg/types"
)

// 拖尾粒子的发射间隔(秒)
const trailInterval = 0.03

// nodeSource 效果需要读取节点位置
type nodeSource interface {
	Position(h types.Handle) types.Vec3
	Exists(h types.Handle) bool
}

// SoundPlayer 音效播放，*game.AudioManager 实现了该接口
type SoundPlayer interface {
	PlaySound(key game.SoundKey) bool
}

// SceneEffects game.Effects 的实现
// 音效交给 AudioManager，粒子交给 ParticleSystem，附着效果由渲染层按句柄查询
type SceneEffects struct {
	sounds    SoundPlayer
	particles *systems.ParticleSystem
	nodes     nodeSource

	attached   map[types.Handle]map[game.EffectKey]bool
	trailTimer float64
	log        zerolog.Logger
}

var _ game.Effects = (*SceneEffects)(nil)

// NewSceneEffects 创建效果层，sounds 可为 nil（静音）
func NewSceneEffects(sounds SoundPlayer, particles *systems.ParticleSystem, nodes nodeSource) *SceneEffects {
	return &SceneEffects{
		sounds:    sounds,
		particles: particles,
		nodes:     nodes,
		attached:  make(map[types.Handle]map[game.EffectKey]bool),
		log:       logger.For("SceneEffects"),
	}
}

func (e *SceneEffects) PlaySound(key game.SoundKey) {
	if e.sounds == nil {
		return
	}
	if !e.sounds.PlaySound(key) {
		e.log.Debug().Str("sound", string(key)).Msg("sound not played")
	}
}

func (e *SceneEffects) PlayParticleEffect(key game.EffectKey, t types.Transform) {
	e.particles.Burst(key, t.Position)
}

func (e *SceneEffects) AttachEffect(h types.Handle, key game.EffectKey) {
	if e.attached[h] == nil {
		e.attached[h] = make(map[game.EffectKey]bool)
	}
	e.attached[h][key] = true
}

func (e *SceneEffects) DetachEffect(h types.Handle, key game.EffectKey) {
	delete(e.attached[h], key)
	if len(e.attached[h]) == 0 {
		delete(e.attached, h)
	}
}

// Has 节点是否附着了指定效果
func (e *SceneEffects) Has(h types.Handle, key game.EffectKey) bool {
	return e.attached[h][key]
}

// Update 丢弃已销毁节点上的附着效果，并为射出的障碍物发射拖尾
func (e *SceneEffects) Update(dt float64) {
	for h := range e.attached {
		if !e.nodes.Exists(h) {
			delete(e.attached, h)
		}
	}

	e.trailTimer += dt
	if e.trailTimer < trailInterval {
		return
	}
	e.trailTimer = 0

	handles := make([]types.Handle, 0, len(e.attached))
	for h, keys := range e.attached {
		if keys[game.EffectShotTrail] {
			handles = append(handles, h)
		}
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	for _, h := range handles {
		e.particles.Burst(game.EffectShotTrail, e.nodes.Position(h))
	}
}
