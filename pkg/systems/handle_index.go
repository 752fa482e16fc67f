package systems

import (
	"github.com/decker502/crashthatcar/pkg/ecs"
	"github.com/decker502/crashthatcar/pkg/types"
)

// HandleIndex 世界句柄到实体ID的映射
// 接触回调和点击测试只给出句柄，需要通过它找回实体
type HandleIndex struct {
	entities map[types.Handle]ecs.EntityID
}

// NewHandleIndex 创建空索引
func NewHandleIndex() *HandleIndex {
	return &HandleIndex{entities: make(map[types.Handle]ecs.EntityID)}
}

// Bind 记录句柄对应的实体，零句柄被忽略
func (hi *HandleIndex) Bind(h types.Handle, id ecs.EntityID) {
	if h == 0 {
		return
	}
	hi.entities[h] = id
}

// Unbind 移除句柄
func (hi *HandleIndex) Unbind(h types.Handle) {
	delete(hi.entities, h)
}

// Lookup 查找句柄对应的实体
func (hi *HandleIndex) Lookup(h types.Handle) (ecs.EntityID, bool) {
	id, ok := hi.entities[h]
	return id, ok
}

// Len 已登记的句柄数
func (hi *HandleIndex) Len() int {
	return len(hi.entities)
}
