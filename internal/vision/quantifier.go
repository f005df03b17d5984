package vision

import (
	"math"

	"github.com/roadwatch/damage-service/internal/domain"
)

// MaskMeasurer measures the pixel area of one instance mask. The mask is
// binarized (a pixel is "on" iff strictly greater than zero) and the area
// of the first boundary contour returned by the extraction routine is
// taken. Hierarchy order of the contour routine decides which contour is
// first; this is not guaranteed to be the largest one. The behavior is
// kept for compatibility with previously issued assessments even though
// picking the largest contour would likely be more correct.
type MaskMeasurer interface {
	FirstContourArea(mask *domain.Mask) (area float64, found bool, err error)
}

// Quantifier turns a DetectionSet into per-instance and aggregate damage
// metrics.
type Quantifier struct {
	measurer MaskMeasurer
}

// NewQuantifier builds a quantifier on top of a mask measurer.
func NewQuantifier(measurer MaskMeasurer) *Quantifier {
	return &Quantifier{measurer: measurer}
}

// Quantify computes the damage assessment for one inference result.
// Percentages are rounded to two decimals and deliberately not clamped:
// overlapping masks can push the value above 100, and that reading is
// reported as-is rather than silently capped.
func (q *Quantifier) Quantify(set *domain.DetectionSet, imageWidth, imageHeight int) (domain.DamageAssessment, error) {
	assessment := domain.DamageAssessment{IndividualAreasPx: []int64{}}
	if set == nil {
		return assessment, nil
	}

	var masks []*domain.Mask
	for _, det := range set.Detections {
		if det.Mask != nil {
			masks = append(masks, det.Mask)
		}
	}
	if len(masks) == 0 {
		return assessment, nil
	}

	var totalArea int64
	for _, mask := range masks {
		area, found, err := q.measurer.FirstContourArea(mask)
		if err != nil {
			return domain.DamageAssessment{IndividualAreasPx: []int64{}}, err
		}
		if !found {
			continue
		}
		px := int64(area)
		assessment.IndividualAreasPx = append(assessment.IndividualAreasPx, px)
		totalArea += px
	}

	assessment.TotalDetections = len(masks)
	assessment.TotalDamagedAreaPx = totalArea

	imageArea := imageWidth * imageHeight
	if imageArea > 0 {
		pct := float64(totalArea) / float64(imageArea) * 100
		assessment.PercentageDamage = math.Round(pct*100) / 100
	}
	return assessment, nil
}
