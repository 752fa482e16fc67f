// Package gametest 提供比赛核心外部协作者的内存实现
// 只用于测试和无头模拟：记录所有调用，不做任何渲染
package gametest

import (
	"fmt"

	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/types"
)

// Node 假世界中的一个节点
type Node struct {
	Name      string
	Template  string
	Transform types.Transform
	Velocity  types.Vec3
	Body      *components.BodySpec
	Destroyed bool
}

// World game.World 的内存实现
type World struct {
	Nodes    map[types.Handle]*Node
	Impulses []Impulse
	// Hits HitTest 的返回值，由测试设置
	Hits []types.Handle
	// SpawnErr 非 nil 时 Spawn 失败
	SpawnErr error

	named   map[string]types.Handle
	next    types.Handle
	handler game.ContactHandler
}

// Impulse 一次 ApplyImpulse 调用
type Impulse struct {
	Handle   types.Handle
	Velocity types.Vec3
}

// NewWorld 创建空世界
func NewWorld() *World {
	return &World{
		Nodes: make(map[types.Handle]*Node),
		named: make(map[string]types.Handle),
	}
}

// NewTrackWorld 创建带齐全部必需节点的世界
func NewTrackWorld() *World {
	w := NewWorld()
	w.AddNode("player1Car", types.Vec3{X: -4, Z: -5})
	w.AddNode("player2Car", types.Vec3{X: -4, Z: 5})
	w.AddNode("player1Barrier", types.Vec3{X: -1.5, Z: -5})
	w.AddNode("player2Barrier", types.Vec3{X: -1.5, Z: 5})
	w.AddNode("finishLine", types.Vec3{X: 58})
	w.AddNode("borderLineLeft", types.Vec3{Z: -10})
	w.AddNode("borderLineRight", types.Vec3{Z: 10})
	w.AddNode("middleLine", types.Vec3{})
	return w
}

// AddNode 预置一个具名节点
func (w *World) AddNode(name string, pos types.Vec3) types.Handle {
	w.next++
	h := w.next
	w.Nodes[h] = &Node{Name: name, Transform: types.Transform{Position: pos}}
	w.named[name] = h
	return h
}

// RemoveNode 删除具名节点（模拟场景缺失节点）
func (w *World) RemoveNode(name string) {
	if h, ok := w.named[name]; ok {
		delete(w.Nodes, h)
		delete(w.named, name)
	}
}

func (w *World) Lookup(name string) (types.Handle, bool) {
	h, ok := w.named[name]
	return h, ok
}

func (w *World) Spawn(template string, t types.Transform) (types.Handle, error) {
	if w.SpawnErr != nil {
		return 0, w.SpawnErr
	}
	w.next++
	h := w.next
	w.Nodes[h] = &Node{Template: template, Transform: t}
	return h, nil
}

func (w *World) Destroy(h types.Handle) {
	if n, ok := w.Nodes[h]; ok {
		n.Destroyed = true
	}
}

func (w *World) AttachCollider(h types.Handle, spec components.BodySpec) {
	if n, ok := w.Nodes[h]; ok {
		s := spec
		n.Body = &s
	}
}

func (w *World) SetContactHandler(handler game.ContactHandler) {
	w.handler = handler
}

func (w *World) ApplyImpulse(h types.Handle, v types.Vec3) {
	w.Impulses = append(w.Impulses, Impulse{Handle: h, Velocity: v})
	if n, ok := w.Nodes[h]; ok {
		n.Velocity = n.Velocity.Add(v)
	}
}

func (w *World) SetVelocity(h types.Handle, v types.Vec3) {
	if n, ok := w.Nodes[h]; ok {
		n.Velocity = v
	}
}

func (w *World) Velocity(h types.Handle) types.Vec3 {
	if n, ok := w.Nodes[h]; ok {
		return n.Velocity
	}
	return types.Vec3{}
}

func (w *World) Position(h types.Handle) types.Vec3 {
	if n, ok := w.Nodes[h]; ok {
		return n.Transform.Position
	}
	return types.Vec3{}
}

func (w *World) SetPosition(h types.Handle, p types.Vec3) {
	if n, ok := w.Nodes[h]; ok {
		n.Transform.Position = p
	}
}

func (w *World) HitTest(p types.Point) []types.Handle {
	return w.Hits
}

// Contact 模拟一次接触开始，类别取自 AttachCollider 注册的碰撞体
func (w *World) Contact(a, b types.Handle) {
	if w.handler == nil {
		return
	}
	w.handler(w.body(a), w.body(b))
}

func (w *World) body(h types.Handle) game.Body {
	body := game.Body{Handle: h}
	if n, ok := w.Nodes[h]; ok && n.Body != nil {
		body.Category = n.Body.Category
	}
	return body
}

// Step 按速度积分位置
func (w *World) Step(dt float64) {
	for _, n := range w.Nodes {
		if n.Destroyed {
			continue
		}
		n.Transform.Position = n.Transform.Position.Add(n.Velocity.Scale(dt))
	}
}

// Live 返回指定模板下未销毁的节点句柄数
func (w *World) Live(template string) int {
	count := 0
	for _, n := range w.Nodes {
		if n.Template == template && !n.Destroyed {
			count++
		}
	}
	return count
}

// MustLookup 查找具名节点，不存在时 panic
func (w *World) MustLookup(name string) types.Handle {
	h, ok := w.named[name]
	if !ok {
		panic(fmt.Sprintf("gametest: no node named %q", name))
	}
	return h
}

// ParticleCall 一次 PlayParticleEffect 调用
type ParticleCall struct {
	Key       game.EffectKey
	Transform types.Transform
}

// Effects game.Effects 的记录实现
type Effects struct {
	Sounds    []game.SoundKey
	Particles []ParticleCall
	Attached  map[types.Handle]map[game.EffectKey]bool
}

// NewEffects 创建效果记录器
func NewEffects() *Effects {
	return &Effects{Attached: make(map[types.Handle]map[game.EffectKey]bool)}
}

func (e *Effects) PlaySound(key game.SoundKey) {
	e.Sounds = append(e.Sounds, key)
}

func (e *Effects) PlayParticleEffect(key game.EffectKey, t types.Transform) {
	e.Particles = append(e.Particles, ParticleCall{Key: key, Transform: t})
}

func (e *Effects) AttachEffect(h types.Handle, key game.EffectKey) {
	if e.Attached[h] == nil {
		e.Attached[h] = make(map[game.EffectKey]bool)
	}
	e.Attached[h][key] = true
}

func (e *Effects) DetachEffect(h types.Handle, key game.EffectKey) {
	delete(e.Attached[h], key)
}

// SoundCount 某个音效播放的次数
func (e *Effects) SoundCount(key game.SoundKey) int {
	n := 0
	for _, s := range e.Sounds {
		if s == key {
			n++
		}
	}
	return n
}

// ParticleCount 某个粒子效果播放的次数
func (e *Effects) ParticleCount(key game.EffectKey) int {
	n := 0
	for _, p := range e.Particles {
		if p.Key == key {
			n++
		}
	}
	return n
}

// Rect 屏幕矩形
type Rect struct {
	X, Y, W, H float64
}

// Contains 点是否在矩形内
func (r Rect) Contains(p types.Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// HUD game.HUD 的记录实现
// 只有设置了 Bounds 且可见的覆盖层才能被点中
type HUD struct {
	Visible map[game.OverlayID]bool
	Shown   []game.OverlayID
	Bounds  map[game.OverlayID]Rect
}

// NewHUD 创建 HUD 记录器
func NewHUD() *HUD {
	return &HUD{
		Visible: make(map[game.OverlayID]bool),
		Bounds:  make(map[game.OverlayID]Rect),
	}
}

func (h *HUD) ShowOverlay(id game.OverlayID) {
	h.Visible[id] = true
	h.Shown = append(h.Shown, id)
}

func (h *HUD) HideOverlay(id game.OverlayID) {
	delete(h.Visible, id)
}

func (h *HUD) OverlayHit(id game.OverlayID, p types.Point) bool {
	r, ok := h.Bounds[id]
	return ok && h.Visible[id] && r.Contains(p)
}

// VisibleCount 当前可见的覆盖层数量
func (h *HUD) VisibleCount() int {
	return len(h.Visible)
}

// Camera game.Camera 的记录实现
type Camera struct {
	Paths     [][]types.Vec3
	Durations [][]float64
	Tracks    []float64
}

// NewCamera 创建镜头记录器
func NewCamera() *Camera {
	return &Camera{}
}

func (c *Camera) MoveCamera(path []types.Vec3, durations []float64) {
	c.Paths = append(c.Paths, path)
	c.Durations = append(c.Durations, durations)
}

func (c *Camera) Track(x float64) {
	c.Tracks = append(c.Tracks, x)
}

// Services 把全部假协作者打包
func Services(w *World, e *Effects, h *HUD, c *Camera) game.Services {
	return game.Services{World: w, Effects: e, HUD: h, Camera: c}
}
