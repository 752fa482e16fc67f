package game

import (
	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/types"
)

// Body 一次接触事件中的一方
type Body struct {
	Handle   types.Handle
	Category components.PhysicsCategory
}

// ContactHandler 接触开始回调，每对物体每次接触只投递一次
type ContactHandler func(a, b Body)

// World 场景/物理世界协作者
// 比赛核心只通过它生成、移动、销毁节点，不关心刚体积分与碰撞检测的实现
type World interface {
	// Lookup 按名称查找场景中预置的节点
	Lookup(name string) (types.Handle, bool)
	// Spawn 以模板实例化一个新节点
	Spawn(template string, t types.Transform) (types.Handle, error)
	Destroy(h types.Handle)

	AttachCollider(h types.Handle, spec components.BodySpec)
	SetContactHandler(handler ContactHandler)

	ApplyImpulse(h types.Handle, v types.Vec3)
	SetVelocity(h types.Handle, v types.Vec3)
	Velocity(h types.Handle) types.Vec3
	Position(h types.Handle) types.Vec3
	SetPosition(h types.Handle, p types.Vec3)

	// HitTest 返回屏幕点下的节点，顺序由实现决定
	HitTest(p types.Point) []types.Handle
}

// SoundKey 音效资源ID
type SoundKey string

// 比赛中用到的音效
const (
	SoundPop       SoundKey = "pop"
	SoundCountdown SoundKey = "countdown"
	SoundGo        SoundKey = "go"
	SoundExplosion SoundKey = "explosion"
	SoundCrash     SoundKey = "crash"
	SoundBoost     SoundKey = "boost"
	SoundShoot     SoundKey = "shoot"
	SoundWin       SoundKey = "win"
)

// EffectKey 粒子/视觉提示资源ID
type EffectKey string

// 比赛中用到的粒子效果
const (
	EffectInBarrier      EffectKey = "inBarrier"
	EffectShotTrail      EffectKey = "shotTrail"
	EffectReadyToExplode EffectKey = "readyToExplode"
	EffectExplosion      EffectKey = "explosion"
	EffectBigExplosion   EffectKey = "bigExplosion"
	EffectSpeedBoost     EffectKey = "speedBoost"
)

// Effects 表现层效果，均为即发即忘
type Effects interface {
	PlaySound(key SoundKey)
	PlayParticleEffect(key EffectKey, t types.Transform)
	AttachEffect(h types.Handle, key EffectKey)
	DetachEffect(h types.Handle, key EffectKey)
}

// OverlayID HUD 覆盖层精灵ID
type OverlayID string

// 固定的覆盖层
const (
	OverlayTapToPlay  OverlayID = "tapToPlay"
	OverlayHelpButton OverlayID = "helpButton"
	OverlayHelpPanel  OverlayID = "helpPanel"
	OverlayGameOver   OverlayID = "gameOver"
	OverlayPlayer1Won OverlayID = "player1Won"
	OverlayPlayer2Won OverlayID = "player2Won"
	OverlayReplay     OverlayID = "replay"
)

// WinnerOverlay 返回胜者对应的横幅
func WinnerOverlay(p types.PlayerID) OverlayID {
	if p == types.PlayerSecond {
		return OverlayPlayer2Won
	}
	return OverlayPlayer1Won
}

// HUD 覆盖层协作者
type HUD interface {
	ShowOverlay(id OverlayID)
	HideOverlay(id OverlayID)
	// OverlayHit 屏幕点是否落在可见的覆盖层上
	OverlayHit(id OverlayID, p types.Point) bool
}

// Camera 镜头协作者
type Camera interface {
	// MoveCamera 沿路径依次移动，durations 与 path 一一对应
	MoveCamera(path []types.Vec3, durations []float64)
	// Track 比赛中横向跟随到 x
	Track(x float64)
}

// Services 比赛核心依赖的全部协作者
type Services struct {
	World   World
	Effects Effects
	HUD     HUD
	Camera  Camera
}
