// Package snapshot renders and stores the summary image produced after each
// successful refresh, and serves the most recent one back.
package snapshot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Canvas size of the summary image.
const (
	Width  = 900
	Height = 520
)

// TopN is how many countries the summary lists.
const TopN = 5

// Entry is one ranked country in the summary.
type Entry struct {
	Name string
	GDP  float64
}

// Summary is everything the image shows.
type Summary struct {
	Total       int64
	Top         []Entry
	RefreshedAt time.Time
}

var (
	colBackground = color.RGBA{245, 247, 250, 255}
	colHeading    = color.RGBA{20, 20, 20, 255}
	colBody       = color.RGBA{40, 40, 40, 255}
	colMuted      = color.RGBA{80, 80, 80, 255}
	colFooter     = color.RGBA{100, 100, 100, 255}
)

// Render draws s onto a fresh canvas and returns the PNG encoding.
func Render(s Summary) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: colBackground}, image.Point{}, draw.Src)

	d := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	text := func(x, y int, c color.Color, s string) {
		d.Src = image.NewUniform(c)
		d.Dot = fixed.P(x, y)
		d.DrawString(s)
	}

	text(30, 40, colHeading, "Country Cache Summary")
	text(30, 80, colHeading, "Total Countries: "+strconv.FormatInt(s.Total, 10))

	y := 130
	text(30, y, colHeading, fmt.Sprintf("Top %d by estimated GDP:", TopN))
	y += 30
	top := s.Top
	if len(top) > TopN {
		top = top[:TopN]
	}
	if len(top) == 0 {
		text(50, y, colMuted, "No data")
	}
	for i, e := range top {
		text(50, y, colBody, fmt.Sprintf("%d. %s - %s", i+1, e.Name, FormatAmount(e.GDP)))
		y += 24
	}

	text(30, Height-40, colFooter, "Last refresh: "+s.RefreshedAt.UTC().Format("2006-01-02T15:04:05Z"))

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatAmount renders v with two decimals and comma thousands separators,
// e.g. 1234567.891 → "1,234,567.89".
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if v < 0 && s != "0.00" {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
