//go:build !gocv
// +build !gocv

package vision

import (
	"github.com/roadwatch/damage-service/internal/domain"
)

// Annotator is the no-op build of the overlay renderer.
type Annotator struct {
	BoxThickness int
	JPEGQuality  int
}

// NewAnnotator builds an annotator stub.
func NewAnnotator() *Annotator {
	return &Annotator{BoxThickness: 2, JPEGQuality: 90}
}

// Render always fails without OpenCV support.
func (a *Annotator) Render(imageData []byte, set *domain.DetectionSet, damage domain.DamageAssessment) ([]byte, error) {
	_ = imageData
	_ = set
	_ = damage
	return nil, ErrDetectorUnavailable
}
