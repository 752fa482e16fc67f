package game

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTransition 状态转移不在转移表中
var ErrInvalidTransition = errors.New("invalid race state transition")

// LoadError 场景加载失败：缺少必需节点或无法实例化
// 在启动阶段返回，不会进入游戏逻辑
type LoadError struct {
	Missing []string // 缺少的节点名
	Err     error    // 其他底层错误
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("scene load failed")
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing nodes [%s]", strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

var errSceneFactoryMissing = errors.New("scene factory not set")
