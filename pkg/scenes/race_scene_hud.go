package scenes

import (
	"image/color"
	"strings"

	"github.com/hajimehoshi/bitmapfont/v4"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/decker502/crashthatcar/pkg/config"
	"github.com/decker502/crashthatcar/pkg/game"
	"github.com/decker502/crashthatcar/pkg/types"
	"github.com/decker502/crashthatcar/pkg/utils"
)

// 覆盖层弹出动画时长(秒)
const overlayPopDuration = 0.25

type overlayStyle int

const (
	styleBanner overlayStyle = iota
	styleButton
	stylePanel
	styleBig
)

type hudRect struct {
	X, Y, W, H float64
}

func (r hudRect) contains(p types.Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

func (r hudRect) center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

type overlay struct {
	label   string
	style   overlayStyle
	rect    hudRect
	scale   float64 // 文字缩放
	tint    color.RGBA
	visible bool
	age     float64
}

// RaceHUD game.HUD 的 ebiten 实现
// 文字使用 bitmapfont 点阵字体，按钮与面板用 vector 绘制
type RaceHUD struct {
	overlays map[game.OverlayID]*overlay
	order    []game.OverlayID
	face     text.Face
}

var _ game.HUD = (*RaceHUD)(nil)

// 帮助面板内容
var helpLines = []string{
	"HOW TO PLAY",
	"",
	"Your barrier catches obstacles in your lane.",
	"Tap a caught obstacle and flick it",
	"towards the other lane.",
	"Tap it again once it hits the rival barrier",
	"to blow it up.",
	"",
	"Hit an obstacle and you lose.",
	"Blue obstacles give a speed boost.",
	"First across the finish line wins!",
	"",
	"Tap anywhere to close.",
}

// NewRaceHUD 创建 HUD，倒计时覆盖层按配置注册
func NewRaceHUD(countdown config.CountdownConfig) *RaceHUD {
	w, h := float64(config.GameWindowWidth), float64(config.GameWindowHeight)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	hud := &RaceHUD{
		overlays: make(map[game.OverlayID]*overlay),
		face:     text.NewGoXFace(bitmapfont.Face),
	}

	hud.register(game.OverlayTapToPlay, &overlay{
		label: "TAP TO PLAY", style: styleBanner, scale: 3, tint: white,
		rect: hudRect{X: w/2 - 200, Y: h*0.72 - 30, W: 400, H: 60},
	})
	hud.register(game.OverlayHelpButton, &overlay{
		label: "?", style: styleButton, scale: 3, tint: white,
		rect: hudRect{X: w - 64, Y: 16, W: 48, H: 48},
	})
	hud.register(game.OverlayHelpPanel, &overlay{
		label: strings.Join(helpLines, "\n"), style: stylePanel, scale: 1.5, tint: white,
		rect: hudRect{X: w/2 - 300, Y: h/2 - 180, W: 600, H: 360},
	})
	for _, step := range countdown.Steps {
		hud.register(game.OverlayID(step.Overlay), &overlay{
			label: countdownLabel(step.Overlay), style: styleBig, scale: 10,
			tint: color.RGBA{R: 255, G: 220, B: 60, A: 255},
			rect: hudRect{X: w/2 - 80, Y: h/2 - 80, W: 160, H: 160},
		})
	}
	hud.register(game.OverlayGameOver, &overlay{
		label: "GAME OVER", style: styleBanner, scale: 5, tint: color.RGBA{R: 255, G: 90, B: 70, A: 255},
		rect: hudRect{X: w/2 - 260, Y: h*0.25 - 45, W: 520, H: 90},
	})
	hud.register(game.OverlayPlayer1Won, &overlay{
		label: "PLAYER 1 WINS", style: styleBanner, scale: 3, tint: color.RGBA{R: 255, G: 140, B: 60, A: 255},
		rect: hudRect{X: w/2 - 220, Y: h*0.45 - 30, W: 440, H: 60},
	})
	hud.register(game.OverlayPlayer2Won, &overlay{
		label: "PLAYER 2 WINS", style: styleBanner, scale: 3, tint: color.RGBA{R: 90, G: 170, B: 255, A: 255},
		rect: hudRect{X: w/2 - 220, Y: h*0.45 - 30, W: 440, H: 60},
	})
	hud.register(game.OverlayReplay, &overlay{
		label: "REPLAY", style: styleButton, scale: 3, tint: white,
		rect: hudRect{X: w/2 - 110, Y: h*0.68 - 32, W: 220, H: 64},
	})

	return hud
}

// countdownLabel countdown3 -> 3
func countdownLabel(id string) string {
	if n := strings.TrimPrefix(id, "countdown"); n != "" && n != id {
		return n
	}
	return strings.ToUpper(id)
}

func (h *RaceHUD) register(id game.OverlayID, o *overlay) {
	if _, exists := h.overlays[id]; !exists {
		h.order = append(h.order, id)
	}
	h.overlays[id] = o
}

// ShowOverlay 显示覆盖层，未注册的ID以横幅形式显示其名字
func (h *RaceHUD) ShowOverlay(id game.OverlayID) {
	o, ok := h.overlays[id]
	if !ok {
		w, hh := float64(config.GameWindowWidth), float64(config.GameWindowHeight)
		o = &overlay{
			label: strings.ToUpper(string(id)), style: styleBanner, scale: 3,
			tint: color.RGBA{R: 255, G: 255, B: 255, A: 255},
			rect: hudRect{X: w/2 - 200, Y: hh/2 - 30, W: 400, H: 60},
		}
		h.register(id, o)
	}
	o.visible = true
	o.age = 0
}

func (h *RaceHUD) HideOverlay(id game.OverlayID) {
	if o, ok := h.overlays[id]; ok {
		o.visible = false
	}
}

func (h *RaceHUD) OverlayHit(id game.OverlayID, p types.Point) bool {
	o, ok := h.overlays[id]
	return ok && o.visible && o.rect.contains(p)
}

// Visible 覆盖层是否可见
func (h *RaceHUD) Visible(id game.OverlayID) bool {
	o, ok := h.overlays[id]
	return ok && o.visible
}

// Update 推进弹出动画
func (h *RaceHUD) Update(dt float64) {
	for _, o := range h.overlays {
		if o.visible {
			o.age += dt
		}
	}
}

// Draw 按注册顺序绘制可见的覆盖层
func (h *RaceHUD) Draw(screen *ebiten.Image) {
	for _, id := range h.order {
		o := h.overlays[id]
		if !o.visible {
			continue
		}
		pop := utils.EaseOutBack(utils.Clamp01(o.age / overlayPopDuration))
		h.drawOverlay(screen, o, pop)
	}
}

func (h *RaceHUD) drawOverlay(screen *ebiten.Image, o *overlay, pop float64) {
	r := o.rect
	switch o.style {
	case styleButton:
		vector.DrawFilledRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), color.RGBA{R: 30, G: 30, B: 40, A: 220}, true)
		vector.StrokeRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), 3, o.tint, true)
	case stylePanel:
		vector.DrawFilledRect(screen, 0, 0, config.GameWindowWidth, config.GameWindowHeight, color.RGBA{A: 140}, false)
		vector.DrawFilledRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), color.RGBA{R: 20, G: 24, B: 36, A: 240}, true)
		vector.StrokeRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), 2, o.tint, true)
	}

	cx, cy := r.center()
	op := &text.DrawOptions{}
	op.LayoutOptions.PrimaryAlign = text.AlignCenter
	op.LayoutOptions.SecondaryAlign = text.AlignCenter
	op.LayoutOptions.LineSpacing = h.face.Metrics().HLineGap + h.face.Metrics().HAscent + h.face.Metrics().HDescent
	op.GeoM.Scale(o.scale*pop, o.scale*pop)
	op.GeoM.Translate(cx, cy)
	op.ColorScale.ScaleWithColor(o.tint)
	text.Draw(screen, o.label, h.face, op)
}
