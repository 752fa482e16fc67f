package scenes

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/decker502/crashthatcar/pkg/components"
	"github.com/decker502/crashthatcar/pkg/ecs"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/physics"
	"github.com/decker502/crashthatcar/pkg/race"
	"github.com/decker502/crashthatcar/pkg/systems"
	"github.com/decker502/crashthatcar/pkg/types"
)

// 场景配色
var (
	colorGrass      = color.RGBA{R: 58, G: 110, B: 60, A: 255}
	colorAsphalt    = color.RGBA{R: 52, G: 54, B: 60, A: 255}
	colorLaneMark   = color.RGBA{R: 235, G: 235, B: 220, A: 255}
	colorBorder     = color.RGBA{R: 200, G: 60, B: 50, A: 255}
	colorBarrier    = color.RGBA{R: 70, G: 70, B: 70, A: 70}
	colorInBarrier  = color.RGBA{R: 255, G: 240, B: 120, A: 255}
	colorReady      = color.RGBA{R: 255, G: 40, B: 40, A: 255}
	colorSpeedUp    = color.RGBA{R: 80, G: 220, B: 255, A: 255}
	colorPlayerCars = [2]color.RGBA{{R: 255, G: 140, B: 60, A: 255}, {R: 90, G: 170, B: 255, A: 255}}
	obstaclePalette = []color.RGBA{
		{R: 240, G: 200, B: 70, A: 255},
		{R: 190, G: 110, B: 220, A: 255},
		{R: 120, G: 210, B: 110, A: 255},
		{R: 240, G: 120, B: 150, A: 255},
	}
)

// drawTrack 绘制赛道、车道线与终点线
func (s *RaceScene) drawTrack(screen *ebiten.Image) {
	screen.Fill(colorGrass)

	track := s.cfg.Track
	half := track.HalfWidth()
	s.fillWorldRect(screen, types.Vec3{X: track.Length / 2, Z: 0}, track.Length+60, track.Width, colorAsphalt)

	// 中线虚线
	for x := math.Floor(track.CarStartX - 30); x < track.Length+30; x += 3 {
		s.fillWorldRect(screen, types.Vec3{X: x, Z: 0}, 1.5, 0.15, colorLaneMark)
	}

	// 终点线棋盘格
	const cell = 0.5
	for row := 0; float64(row)*cell < track.Width; row++ {
		for col := 0; col < 2; col++ {
			if (row+col)%2 != 0 {
				continue
			}
			pos := types.Vec3{
				X: track.FinishLineX + (float64(col)-0.5)*cell,
				Z: -half + (float64(row)+0.5)*cell,
			}
			s.fillWorldRect(screen, pos, cell, cell, colorLaneMark)
		}
	}
}

// drawNodes 绘制边界、护栏、车辆和障碍物
func (s *RaceScene) drawNodes(screen *ebiten.Image) {
	obstacles := s.obstacleViews()

	for _, n := range s.world.Nodes() {
		switch {
		case n.Name == race.NodeBorderLineLeft || n.Name == race.NodeBorderLineRight:
			s.fillWorldRect(screen, n.Position, n.Extent.Length, n.Extent.Width, colorBorder)
		case n.Name == race.NodePlayer1Barrier || n.Name == race.NodePlayer2Barrier:
			s.fillWorldRect(screen, n.Position, n.Extent.Length, n.Extent.Width, colorBarrier)
		case n.Name == race.NodePlayer1Car:
			s.drawCar(screen, n, colorPlayerCars[0])
		case n.Name == race.NodePlayer2Car:
			s.drawCar(screen, n, colorPlayerCars[1])
		case n.Template == systems.ObstacleTemplate || n.Template == systems.SpeedObstacleTemplate:
			s.drawObstacle(screen, n, obstacles[n.Handle])
		}
	}
}

func (s *RaceScene) drawCar(screen *ebiten.Image, n physics.NodeView, body color.RGBA) {
	s.fillWorldRect(screen, n.Position, n.Extent.Length, n.Extent.Width, body)
	// 车窗
	windshield := n.Position.Add(types.Vec3{X: n.Extent.Length * 0.15})
	s.fillWorldRect(screen, windshield, n.Extent.Length*0.25, n.Extent.Width*0.7, color.RGBA{R: 30, G: 40, B: 60, A: 255})
}

func (s *RaceScene) drawObstacle(screen *ebiten.Image, n physics.NodeView, o *components.ObstacleComponent) {
	fill := obstaclePalette[0]
	if o != nil {
		fill = obstaclePalette[o.Palette%len(obstaclePalette)]
		if o.SpeedUp {
			fill = colorSpeedUp
		}
	}
	s.fillWorldRect(screen, n.Position, n.Extent.Length, n.Extent.Width, fill)

	center := s.projection.WorldToScreen(n.Position)
	radius := float32(n.Extent.Length * s.projection.Scale() * 0.9)
	switch {
	case s.effects.Has(n.Handle, game.EffectReadyToExplode):
		pulse := 0.5 + 0.5*math.Sin(s.clock*12)
		vector.StrokeCircle(screen, float32(center.X), float32(center.Y), radius*float32(1+0.25*pulse), 3, colorReady, true)
	case s.effects.Has(n.Handle, game.EffectInBarrier):
		vector.StrokeCircle(screen, float32(center.X), float32(center.Y), radius, 2, colorInBarrier, true)
	}
}

// obstacleViews 按句柄索引当前已插入的障碍物
func (s *RaceScene) obstacleViews() map[types.Handle]*components.ObstacleComponent {
	em := s.controller.Entities()
	views := make(map[types.Handle]*components.ObstacleComponent)
	for _, id := range ecs.GetEntitiesWith1[*components.ObstacleComponent](em) {
		o, _ := ecs.GetComponent[*components.ObstacleComponent](em, id)
		if o.Inserted() && em.Alive(id) {
			views[o.Handle] = o
		}
	}
	return views
}

// drawParticles 普通粒子直接绘制，叠加粒子先画到发光层再以 Lighter 混合
func (s *RaceScene) drawParticles(screen *ebiten.Image) {
	s.glow.Clear()
	for _, id := range ecs.GetEntitiesWith2[*components.ParticleComponent, *components.LifetimeComponent](s.fx) {
		p, _ := ecs.GetComponent[*components.ParticleComponent](s.fx, id)
		life, _ := ecs.GetComponent[*components.LifetimeComponent](s.fx, id)

		size := systems.CurrentSize(p, life)
		if size <= 0 || p.Alpha <= 0 {
			continue
		}
		dst := screen
		if p.Additive {
			dst = s.glow
		}
		s.fillWorldRect(dst, p.Position, size, size, fade(p.Color, p.Alpha))
	}
	op := &ebiten.DrawImageOptions{Blend: ebiten.BlendLighter}
	screen.DrawImage(s.glow, op)
}

// fillWorldRect 以世界坐标中心和尺寸填充矩形
func (s *RaceScene) fillWorldRect(dst *ebiten.Image, center types.Vec3, length, width float64, c color.Color) {
	p := s.projection.WorldToScreen(center)
	scale := s.projection.Scale()
	w, h := length*scale, width*scale
	vector.DrawFilledRect(dst, float32(p.X-w/2), float32(p.Y-h/2), float32(w), float32(h), c, false)
}

// fade 按透明度缩放预乘颜色
func fade(c color.RGBA, alpha float64) color.RGBA {
	a := math.Max(0, math.Min(1, alpha))
	return color.RGBA{
		R: uint8(float64(c.R) * a),
		G: uint8(float64(c.G) * a),
		B: uint8(float64(c.B) * a),
		A: uint8(float64(c.A) * a),
	}
}
