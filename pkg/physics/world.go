// Package physics 实现基于 resolv 的场景世界
//
// 世界只做比赛需要的最少模拟：位置按速度积分，resolv 空间做宽相位，
// 轴对齐包围盒做窄相位。接触在 Step 内排队，积分结束后按发现顺序
// 回调，回调里销毁节点是安全的。
package physics

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/solarlune/resolv"

	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/logger"
	"github.com/decker502/crashthatcar/pkg/types"
)

const (
	// spaceScale resolv 空间中每米对应的单位数
	spaceScale = 4.0
	// cellSize resolv 网格边长（空间单位）
	cellSize = 8
)

// Extent 节点在地面上的尺寸
type Extent struct {
	Length float64 // 沿 X
	Width  float64 // 沿 Z
}

// Bounds 世界范围（米），超出范围的节点不参与接触检测
type Bounds struct {
	MinX, MaxX float64
	MinZ, MaxZ float64
}

// Projector 屏幕坐标到地面坐标的转换
// *utils.Projection 实现了该接口
type Projector interface {
	ScreenToWorld(p types.Point) types.Vec3
}

// NodeView 渲染层读取的节点快照
type NodeView struct {
	Handle   types.Handle
	Name     string
	Template string
	Position types.Vec3
	Extent   Extent
	Category components.PhysicsCategory
}

type node struct {
	handle    types.Handle
	name      string
	template  string
	transform types.Transform
	velocity  types.Vec3
	extent    Extent
	spec      *components.BodySpec
	obj       *resolv.Object
}

type pairKey struct {
	a, b types.Handle
}

func makePair(a, b types.Handle) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// World game.World 的 resolv 实现
type World struct {
	bounds    Bounds
	space     *resolv.Space
	nodes     map[types.Handle]*node
	named     map[string]types.Handle
	templates map[string]Extent
	next      types.Handle

	handler  game.ContactHandler
	touching map[pairKey]bool
	pending  []pairKey

	projector   Projector
	touchRadius float64

	log zerolog.Logger
}

var _ game.World = (*World)(nil)

// NewWorld 创建空世界
func NewWorld(bounds Bounds) *World {
	w := int((bounds.MaxX - bounds.MinX) * spaceScale)
	h := int((bounds.MaxZ - bounds.MinZ) * spaceScale)
	return &World{
		bounds:      bounds,
		space:       resolv.NewSpace(w, h, cellSize, cellSize),
		nodes:       make(map[types.Handle]*node),
		named:       make(map[string]types.Handle),
		templates:   make(map[string]Extent),
		touching:    make(map[pairKey]bool),
		touchRadius: 0.6,
		log:         logger.For("PhysicsWorld"),
	}
}

// RegisterTemplate 注册可 Spawn 的模板尺寸
func (w *World) RegisterTemplate(name string, extent Extent) {
	w.templates[name] = extent
}

// SetProjector 设置命中测试使用的投影；为 nil 时 HitTest 总是返回空
func (w *World) SetProjector(p Projector) {
	w.projector = p
}

// SetTouchRadius 设置命中测试的触摸半径（米）
func (w *World) SetTouchRadius(r float64) {
	w.touchRadius = r
}

// AddNode 添加一个具名的场景节点
func (w *World) AddNode(name string, pos types.Vec3, extent Extent) types.Handle {
	n := w.add(types.Transform{Position: pos}, extent)
	n.name = name
	w.named[name] = n.handle
	return n.handle
}

func (w *World) add(t types.Transform, extent Extent) *node {
	w.next++
	n := &node{handle: w.next, transform: t, extent: extent}
	n.obj = resolv.NewObject(0, 0, extent.Length*spaceScale, extent.Width*spaceScale)
	n.obj.Data = n
	w.place(n)
	w.space.Add(n.obj)
	w.nodes[n.handle] = n
	return n
}

// place 把节点中心位置同步到 resolv 对象左上角
func (w *World) place(n *node) {
	p := n.transform.Position
	n.obj.X = (p.X-w.bounds.MinX)*spaceScale - n.obj.W/2
	n.obj.Y = (p.Z-w.bounds.MinZ)*spaceScale - n.obj.H/2
}

func (w *World) Lookup(name string) (types.Handle, bool) {
	h, ok := w.named[name]
	return h, ok
}

func (w *World) Spawn(template string, t types.Transform) (types.Handle, error) {
	extent, ok := w.templates[template]
	if !ok {
		return 0, fmt.Errorf("unknown template %q", template)
	}
	n := w.add(t, extent)
	n.template = template
	return n.handle, nil
}

// Destroy 移除节点，未知句柄忽略
func (w *World) Destroy(h types.Handle) {
	n, ok := w.nodes[h]
	if !ok {
		return
	}
	w.space.Remove(n.obj)
	delete(w.nodes, h)
	if n.name != "" {
		delete(w.named, n.name)
	}
	for key := range w.touching {
		if key.a == h || key.b == h {
			delete(w.touching, key)
		}
	}
}

func (w *World) AttachCollider(h types.Handle, spec components.BodySpec) {
	if n, ok := w.nodes[h]; ok {
		s := spec
		n.spec = &s
	}
}

func (w *World) SetContactHandler(handler game.ContactHandler) {
	w.handler = handler
}

// ApplyImpulse 单位质量下冲量等于速度增量
func (w *World) ApplyImpulse(h types.Handle, v types.Vec3) {
	if n, ok := w.nodes[h]; ok {
		n.velocity = n.velocity.Add(v)
	}
}

func (w *World) SetVelocity(h types.Handle, v types.Vec3) {
	if n, ok := w.nodes[h]; ok {
		n.velocity = v
	}
}

func (w *World) Velocity(h types.Handle) types.Vec3 {
	if n, ok := w.nodes[h]; ok {
		return n.velocity
	}
	return types.Vec3{}
}

func (w *World) Position(h types.Handle) types.Vec3 {
	if n, ok := w.nodes[h]; ok {
		return n.transform.Position
	}
	return types.Vec3{}
}

func (w *World) SetPosition(h types.Handle, p types.Vec3) {
	n, ok := w.nodes[h]
	if !ok {
		return
	}
	n.transform.Position = p
	w.place(n)
	n.obj.Update()
}

// HitTest 返回触摸点附近的节点，按句柄排序
func (w *World) HitTest(p types.Point) []types.Handle {
	if w.projector == nil {
		return nil
	}
	ground := w.projector.ScreenToWorld(p)
	size := w.touchRadius * 2
	probe := &node{
		transform: types.Transform{Position: ground},
		extent:    Extent{Length: size, Width: size},
		obj:       resolv.NewObject(0, 0, size*spaceScale, size*spaceScale),
	}
	w.place(probe)
	w.space.Add(probe.obj)
	defer w.space.Remove(probe.obj)

	collision := probe.obj.Check(0, 0)
	if collision == nil {
		return nil
	}

	var hits []types.Handle
	for _, o := range collision.Objects {
		n, ok := o.Data.(*node)
		if !ok || !overlaps(probe, n) {
			continue
		}
		hits = append(hits, n.handle)
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i] < hits[j] })
	return hits
}

// Step 推进 dt 秒：积分位置，检测新接触，然后依次回调
func (w *World) Step(dt float64) {
	for _, h := range w.sortedHandles() {
		n := w.nodes[h]
		if n.velocity == (types.Vec3{}) {
			continue
		}
		n.transform.Position = n.transform.Position.Add(n.velocity.Scale(dt))
		w.place(n)
		n.obj.Update()
	}

	w.detectContacts()
	w.deliver()
}

// detectContacts 找出本步开始接触的碰撞体对
func (w *World) detectContacts() {
	current := make(map[pairKey]bool, len(w.touching))
	for _, h := range w.sortedHandles() {
		n := w.nodes[h]
		if n.spec == nil {
			continue
		}
		collision := n.obj.Check(0, 0)
		if collision == nil {
			continue
		}

		others := make([]*node, 0, len(collision.Objects))
		for _, o := range collision.Objects {
			if other, ok := o.Data.(*node); ok && other.spec != nil && other.handle > n.handle {
				others = append(others, other)
			}
		}
		sort.Slice(others, func(i, j int) bool { return others[i].handle < others[j].handle })

		for _, other := range others {
			if !reportsContact(*n.spec, *other.spec) || !overlaps(n, other) {
				continue
			}
			key := makePair(n.handle, other.handle)
			current[key] = true
			if !w.touching[key] {
				w.pending = append(w.pending, key)
			}
		}
	}
	w.touching = current
}

func (w *World) deliver() {
	pending := w.pending
	w.pending = nil
	for _, key := range pending {
		a, okA := w.nodes[key.a]
		b, okB := w.nodes[key.b]
		if !okA || !okB {
			// 同批次中更早的回调已经销毁了其中一方
			continue
		}
		w.log.Debug().
			Uint64("a", uint64(a.handle)).
			Uint64("b", uint64(b.handle)).
			Str("categories", (a.spec.Category | b.spec.Category).String()).
			Msg("contact begin")
		if w.handler != nil {
			w.handler(
				game.Body{Handle: a.handle, Category: a.spec.Category},
				game.Body{Handle: b.handle, Category: b.spec.Category},
			)
		}
	}
}

// Nodes 返回所有节点的快照，按句柄排序
func (w *World) Nodes() []NodeView {
	views := make([]NodeView, 0, len(w.nodes))
	for _, h := range w.sortedHandles() {
		n := w.nodes[h]
		v := NodeView{
			Handle:   n.handle,
			Name:     n.name,
			Template: n.template,
			Position: n.transform.Position,
			Extent:   n.extent,
		}
		if n.spec != nil {
			v.Category = n.spec.Category
		}
		views = append(views, v)
	}
	return views
}

func (w *World) sortedHandles() []types.Handle {
	handles := make([]types.Handle, 0, len(w.nodes))
	for h := range w.nodes {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}

// reportsContact 任一方的 ContactTest 包含另一方类别时上报
func reportsContact(a, b components.BodySpec) bool {
	return a.ContactTest&b.Category != 0 || b.ContactTest&a.Category != 0
}

// overlaps 中心对齐的轴对齐包围盒相交检测
func overlaps(a, b *node) bool {
	pa, pb := a.transform.Position, b.transform.Position
	left1, right1 := pa.X-a.extent.Length/2, pa.X+a.extent.Length/2
	top1, bottom1 := pa.Z-a.extent.Width/2, pa.Z+a.extent.Width/2
	left2, right2 := pb.X-b.extent.Length/2, pb.X+b.extent.Length/2
	top2, bottom2 := pb.Z-b.extent.Width/2, pb.Z+b.extent.Width/2

	return right1 >= left2 &&
		left1 <= right2 &&
		bottom1 >= top2 &&
		top1 <= bottom2
}

// Exists 句柄是否仍在世界中
func (w *World) Exists(h types.Handle) bool {
	_, ok := w.nodes[h]
	return ok
}
