//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"gocv.io/x/gocv"

	"github.com/roadwatch/damage-service/internal/domain"
)

// Annotator renders a human-review overlay of detections onto the source
// image: one box per instance with its confidence, plus a damage banner.
type Annotator struct {
	BoxThickness int
	JPEGQuality  int
}

// NewAnnotator builds an annotator with default rendering settings.
func NewAnnotator() *Annotator {
	return &Annotator{BoxThickness: 2, JPEGQuality: 90}
}

// Render draws the overlay and returns the result as JPEG bytes.
func (a *Annotator) Render(imageData []byte, set *domain.DetectionSet, damage domain.DamageAssessment) ([]byte, error) {
	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	if set != nil {
		for _, det := range set.Detections {
			rect := image.Rect(det.Box.X, det.Box.Y, det.Box.X+det.Box.Width, det.Box.Y+det.Box.Height)
			gocv.Rectangle(&mat, rect, boxColor(), a.BoxThickness)
			label := fmt.Sprintf("damage %.2f", det.Confidence)
			gocv.PutText(&mat, label, image.Pt(det.Box.X, det.Box.Y-6),
				gocv.FontHersheySimplex, 0.5, boxColor(), 1)
		}
	}

	a.drawBanner(&mat, damage.PercentageDamage)

	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: a.JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drawBanner paints the damage percentage on a filled background so it
// stays readable over any road surface.
func (a *Annotator) drawBanner(mat *gocv.Mat, percentage float64) {
	text := fmt.Sprintf("Road Damage: %.2f%%", percentage)
	origin := image.Pt(40, 80)
	size := gocv.GetTextSize(text, gocv.FontHersheySimplex, 1, 2)

	background := image.Rect(origin.X-10, origin.Y-size.Y-10, origin.X+size.X+10, origin.Y+10)
	gocv.Rectangle(mat, background, bannerColor(), -1)
	gocv.PutText(mat, text, origin, gocv.FontHersheySimplex, 1, white(), 2)
}

func white() color.RGBA {
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

func boxColor() color.RGBA {
	return color.RGBA{G: 255, A: 255}
}

func bannerColor() color.RGBA {
	return color.RGBA{R: 255, A: 255}
}
