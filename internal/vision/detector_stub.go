//go:build !gocv
// +build !gocv

package vision

import (
	"context"

	"github.com/roadwatch/damage-service/internal/domain"
)

// GoCVDetector is the no-op build of the detector, used when the service
// is compiled without the gocv build tag.
type GoCVDetector struct {
	MinAreaRatio float64
	MaxSide      int
	CannyLow     float32
	CannyHigh    float32
}

// NewGoCVDetector builds a detector stub.
func NewGoCVDetector() *GoCVDetector {
	return &GoCVDetector{
		MinAreaRatio: 0.001,
		MaxSide:      1024,
		CannyLow:     50,
		CannyHigh:    150,
	}
}

// Ready reports that no detector is available in this build.
func (d *GoCVDetector) Ready() bool {
	return false
}

// Detect always fails without OpenCV support.
func (d *GoCVDetector) Detect(ctx context.Context, imageData []byte, confidence float64) (*domain.DetectionSet, error) {
	_ = ctx
	_ = imageData
	_ = confidence
	return nil, ErrDetectorUnavailable
}

// FirstContourArea always fails without OpenCV support.
func (d *GoCVDetector) FirstContourArea(mask *domain.Mask) (float64, bool, error) {
	_ = mask
	return 0, false, ErrDetectorUnavailable
}
