package config

// 窗口与俯视投影的布局常量
// 世界坐标 (x, z) 经过镜头平移与缩放后映射到屏幕 (x, y)
const (
	// GameWindowWidth 逻辑屏幕宽度
	GameWindowWidth = 960
	// GameWindowHeight 逻辑屏幕高度
	GameWindowHeight = 540

	// PixelsPerUnit 一个世界单位对应的像素数
	PixelsPerUnit = 20.0

	// CameraScreenAnchorX 镜头跟随点在屏幕上的横向位置
	// 跟随点放在偏左处，领先的车辆仍留在画面内
	CameraScreenAnchorX = 240.0
)
