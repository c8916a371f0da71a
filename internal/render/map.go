// Package render draws a top-down map of the universe.
package render

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/environment"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/spatial"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

const (
	DefaultMapSize = 800
	MinMapSize     = 64
	MaxMapSize     = 4096

	mapMargin    = 16.0
	minMarkerPx  = 2.0
	sectorPx     = 3.0
	occupiedPx   = 5.0
	shipPx       = 4.0
	labelOffsetY = 12.0
)

// Palette
var (
	colorBackground = color.RGBA{8, 8, 20, 255}
	colorBoundary   = color.RGBA{90, 90, 140, 255}
	colorSector     = color.RGBA{50, 60, 90, 255}
	colorOccupied   = color.RGBA{80, 220, 255, 255}
	colorShip       = color.RGBA{255, 255, 255, 255}
	colorLabel      = color.RGBA{200, 200, 220, 255}

	hazardColors = map[environment.HazardType]color.RGBA{
		environment.HazardRadiation:     {60, 255, 90, 70},
		environment.HazardAsteroidField: {170, 120, 70, 90},
		environment.HazardSolarFlare:    {255, 140, 30, 80},
	}
	celestialColors = map[environment.CelestialType]color.RGBA{
		environment.CelestialStar:     {255, 220, 80, 255},
		environment.CelestialPlanet:   {70, 130, 255, 255},
		environment.CelestialAsteroid: {140, 140, 140, 255},
	}
)

// ShipMarker is a ship to plot.
type ShipMarker struct {
	Name     string
	Position vector.Vector3D
}

// Scene is everything drawn on one map.
type Scene struct {
	Boundary   environment.UniverseBoundary
	Sectors    []spatial.Sector
	Hazards    []environment.Hazard
	Celestials []environment.CelestialObject
	Ships      []ShipMarker
}

// MapRenderer projects the universe onto the XY plane, looking down -Z.
// The boundary circle fills the square image minus a margin.
type MapRenderer struct {
	size   int
	labels bool
}

// NewMapRenderer creates a renderer for size x size images. Out of range
// sizes are clamped.
func NewMapRenderer(size int, labels bool) *MapRenderer {
	if size <= 0 {
		size = DefaultMapSize
	}
	size = min(max(size, MinMapSize), MaxMapSize)
	return &MapRenderer{size: size, labels: labels}
}

// Size returns the image edge length in pixels.
func (r *MapRenderer) Size() int {
	return r.size
}

func (r *MapRenderer) scale(radius float64) float64 {
	if !(radius > 0) {
		return 0
	}
	return (float64(r.size)/2 - mapMargin) / radius
}

// Project maps a world position to pixel coordinates for a universe of the
// given boundary radius. +Y points up on the image.
func (r *MapRenderer) Project(p vector.Vector3D, radius float64) (float64, float64) {
	c := float64(r.size) / 2
	s := r.scale(radius)
	return c + p.X*s, c - p.Y*s
}

// Render draws the scene. Layers from bottom: boundary, sectors, hazards,
// celestials, ships.
func (r *MapRenderer) Render(scene Scene) image.Image {
	dc := gg.NewContext(r.size, r.size)

	dc.SetColor(colorBackground)
	dc.DrawRectangle(0, 0, float64(r.size), float64(r.size))
	dc.Fill()

	radius := scene.Boundary.Radius
	s := r.scale(radius)
	c := float64(r.size) / 2

	if s > 0 {
		dc.SetColor(colorBoundary)
		dc.SetLineWidth(2)
		dc.DrawCircle(c, c, radius*s)
		dc.Stroke()
	}

	// occupied sectors go on top of their neighbours
	dc.SetColor(colorSector)
	for _, sec := range scene.Sectors {
		if len(sec.ActiveObjects) == 0 {
			x, y := r.Project(sec.Position, radius)
			dc.DrawCircle(x, y, sectorPx)
			dc.Fill()
		}
	}
	dc.SetColor(colorOccupied)
	for _, sec := range scene.Sectors {
		if len(sec.ActiveObjects) > 0 {
			x, y := r.Project(sec.Position, radius)
			dc.DrawCircle(x, y, occupiedPx)
			dc.Fill()
		}
	}

	for _, h := range scene.Hazards {
		col, ok := hazardColors[h.Type]
		if !ok {
			continue
		}
		x, y := r.Project(h.Position, radius)
		dc.SetColor(col)
		dc.DrawCircle(x, y, markerRadius(h.Radius, s))
		dc.Fill()
	}

	for _, o := range scene.Celestials {
		col, ok := celestialColors[o.Type]
		if !ok {
			continue
		}
		x, y := r.Project(o.Position, radius)
		pr := markerRadius(o.Radius, s)
		dc.SetColor(col)
		dc.DrawCircle(x, y, pr)
		dc.Fill()

		// spin indicator
		if pr > 6 {
			dc.SetColor(colorBackground)
			dc.SetLineWidth(1)
			cos, sin := math.Cos(o.Rotation), math.Sin(o.Rotation)
			dc.DrawLine(x+0.5*pr*cos, y-0.5*pr*sin, x+pr*cos, y-pr*sin)
			dc.Stroke()
		}
	}

	if r.labels {
		dc.SetFontFace(basicfont.Face7x13)
	}
	for _, sh := range scene.Ships {
		x, y := r.Project(sh.Position, radius)
		dc.SetColor(colorShip)
		dc.DrawRegularPolygon(3, x, y, shipPx, 0)
		dc.Fill()

		if r.labels && sh.Name != "" {
			dc.SetColor(colorLabel)
			dc.DrawStringAnchored(sh.Name, x, y-labelOffsetY, 0.5, 0.5)
		}
	}

	return dc.Image()
}

// WritePNG renders the scene and encodes it to w.
func (r *MapRenderer) WritePNG(w io.Writer, scene Scene) error {
	return png.Encode(w, r.Render(scene))
}

func markerRadius(worldRadius, scale float64) float64 {
	return math.Max(worldRadius*scale, minMarkerPx)
}
