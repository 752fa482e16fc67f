//go:build !mobile

package utils

import "os"

// IsMobile 是否以移动端模式运行
// 桌面端可设置 CRASHTHATCAR_MOBILE_EMULATE=1 模拟移动端（隐藏窗口相关设置）
func IsMobile() bool {
	return os.Getenv("CRASHTHATCAR_MOBILE_EMULATE") == "1"
}
