//go:build gocv
// +build gocv

package vision

import (
	"context"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/roadwatch/damage-service/internal/domain"
)

// GoCVDetector segments damaged surface regions in road images and emits
// per-instance masks, boxes and confidences. The underlying OpenCV state
// is not reentrant, so all invocations are serialized on a mutex.
type GoCVDetector struct {
	mu sync.Mutex

	MinAreaRatio float64
	MaxSide      int
	CannyLow     float32
	CannyHigh    float32
}

// NewGoCVDetector builds a detector with default thresholds.
func NewGoCVDetector() *GoCVDetector {
	return &GoCVDetector{
		MinAreaRatio: 0.001,
		MaxSide:      1024,
		CannyLow:     50,
		CannyHigh:    150,
	}
}

// Ready reports whether the detector can run inference.
func (d *GoCVDetector) Ready() bool {
	return d != nil
}

// Detect runs segmentation on the image and returns every instance whose
// confidence is at least the given threshold, in contour-discovery order.
func (d *GoCVDetector) Detect(ctx context.Context, imageData []byte, confidence float64) (*domain.DetectionSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	// Normalize large inputs so the area thresholds stay stable.
	if mat.Cols() > d.MaxSide || mat.Rows() > d.MaxSide {
		scale := float64(d.MaxSide) / float64(maxInt(mat.Cols(), mat.Rows()))
		newW := int(float64(mat.Cols()) * scale)
		newH := int(float64(mat.Rows()) * scale)
		resized := gocv.NewMat()
		gocv.Resize(mat, &resized, image.Pt(newW, newH), 0, 0, gocv.InterpolationArea)
		mat.Close()
		mat = resized
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(gray, &blur, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blur, &edges, d.CannyLow, d.CannyHigh)

	// Close gaps so cracked regions form connected instances.
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(7, 7))
	defer kernel.Close()
	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(edges, &closed, gocv.MorphClose, kernel)

	contours := gocv.FindContours(closed, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	width := mat.Cols()
	height := mat.Rows()
	imageArea := float64(width * height)
	minArea := imageArea * d.MinAreaRatio

	set := &domain.DetectionSet{ImageWidth: width, ImageHeight: height}
	for i := 0; i < contours.Size(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c := contours.At(i)
		area := gocv.ContourArea(c)
		if area < minArea {
			continue
		}
		rect := gocv.BoundingRect(c)
		boxArea := float64(rect.Dx() * rect.Dy())
		if boxArea <= 0 {
			continue
		}

		conf := area / boxArea
		if conf > 1 {
			conf = 1
		}
		if conf < confidence {
			continue
		}

		mask := gocv.Zeros(height, width, gocv.MatTypeCV8U)
		gocv.DrawContours(&mask, contours, i, white(), -1)
		pixels := mask.ToBytes()
		mask.Close()

		set.Detections = append(set.Detections, domain.Detection{
			ClassID:    0,
			Confidence: conf,
			Box: domain.Box{
				X:      rect.Min.X,
				Y:      rect.Min.Y,
				Width:  rect.Dx(),
				Height: rect.Dy(),
			},
			Mask: &domain.Mask{Width: width, Height: height, Pixels: pixels},
		})
	}

	return set, nil
}

// FirstContourArea binarizes the mask and measures the area of the first
// contour in the extraction hierarchy. The tree retrieval mode orders
// contours by hierarchy, not by size, and the first entry is kept for
// compatibility with historical assessments.
func (d *GoCVDetector) FirstContourArea(mask *domain.Mask) (float64, bool, error) {
	if mask == nil || len(mask.Pixels) == 0 {
		return 0, false, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	mat, err := gocv.NewMatFromBytes(mask.Height, mask.Width, gocv.MatTypeCV8U, mask.Pixels)
	if err != nil {
		return 0, false, err
	}
	defer mat.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(mat, &binary, 0, 255, gocv.ThresholdBinary)

	contours := gocv.FindContours(binary, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return 0, false, nil
	}
	return gocv.ContourArea(contours.At(0)), true, nil
}

func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), ErrDecodeImage
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
