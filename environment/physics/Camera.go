package physics

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is a free camera looking at a point. Angles are in degrees,
// a negative elevation looks down on the scene.
type Camera struct {
	LookAt    r3.Vec
	Distance  float64
	Elevation float64
	Azimuth   float64
	FovY      float64
}

// forward returns the unit viewing direction
func (c Camera) forward() r3.Vec {
	el := c.Elevation * math.Pi / 180
	az := c.Azimuth * math.Pi / 180
	return r3.Vec{
		X: math.Cos(el) * math.Cos(az),
		Y: math.Cos(el) * math.Sin(az),
		Z: math.Sin(el),
	}
}

// Eye returns the position of the camera
func (c Camera) Eye() r3.Vec {
	return r3.Sub(c.LookAt, r3.Scale(c.Distance, c.forward()))
}

// Project projects a point in the world onto an image of the given
// size. The returned bool is false if the point is behind the camera.
func (c Camera) Project(p r3.Vec, width, height int) (float64, float64, bool) {
	f := c.forward()
	right := r3.Unit(r3.Cross(f, r3.Vec{Z: 1}))
	up := r3.Cross(right, f)

	d := r3.Sub(p, c.Eye())
	depth := r3.Dot(d, f)
	if depth <= 1e-6 {
		return 0, 0, false
	}

	fovy := c.FovY
	if fovy <= 0 {
		fovy = 45
	}
	focal := float64(height) / 2 / math.Tan(fovy*math.Pi/360)

	x := float64(width)/2 + focal*r3.Dot(d, right)/depth
	y := float64(height)/2 - focal*r3.Dot(d, up)/depth
	return x, y, true
}

// boxEdges are the corner index pairs forming the edges of a box
var boxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Render draws a wireframe image of the scene simulated by e as seen
// from cam. Named geoms are drawn as boxes and named sites as points.
func Render(e Engine, cam Camera, width, height int) (image.Image, error) {
	m := e.Model()
	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetLineWidth(1.5)

	for _, body := range m.Bodies {
		for _, g := range body.Geoms {
			if g.Name == "" {
				continue
			}
			centre, err := e.GeomXPos(g.Name)
			if err != nil {
				return nil, err
			}
			setColor(dc, g.RGBA)
			drawBox(dc, cam, centre, g.HalfExtents(), width, height)
		}
	}

	for _, body := range m.Bodies {
		for _, s := range body.Sites {
			if s.Name == "" {
				continue
			}
			pos, err := e.SiteXPos(s.Name)
			if err != nil {
				return nil, err
			}
			x, y, ok := cam.Project(pos, width, height)
			if !ok {
				continue
			}
			setColor(dc, s.RGBA)
			dc.DrawCircle(x, y, 3)
			dc.Fill()
		}
	}

	return dc.Image(), nil
}

// SavePNG renders the scene and writes it to path
func SavePNG(e Engine, cam Camera, width, height int, path string) error {
	img, err := Render(e, cam, width, height)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}

func setColor(dc *gg.Context, rgba [4]float64) {
	alpha := rgba[3]
	if alpha < 0.3 {
		alpha = 0.3
	}
	dc.SetRGBA(rgba[0], rgba[1], rgba[2], alpha)
}

func drawBox(dc *gg.Context, cam Camera, centre, half r3.Vec, width,
	height int) {
	var corners [8][2]float64
	var visible [8]bool
	for i := 0; i < 8; i++ {
		offset := r3.Vec{X: -half.X, Y: -half.Y, Z: -half.Z}
		if i&1 != 0 {
			offset.X = half.X
		}
		if i&2 != 0 {
			offset.Y = half.Y
		}
		if i&4 != 0 {
			offset.Z = half.Z
		}
		x, y, ok := cam.Project(r3.Add(centre, offset), width, height)
		corners[i] = [2]float64{x, y}
		visible[i] = ok
	}

	for _, edge := range boxEdges {
		a, b := edge[0], edge[1]
		if !visible[a] || !visible[b] {
			continue
		}
		dc.DrawLine(corners[a][0], corners[a][1], corners[b][0], corners[b][1])
	}
	dc.Stroke()
}
