package vision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roadwatch/damage-service/internal/domain"
)

// fullAreaMeasurer counts every on-pixel of the mask as its area.
type fullAreaMeasurer struct{}

func (fullAreaMeasurer) FirstContourArea(mask *domain.Mask) (float64, bool, error) {
	var on int
	for _, px := range mask.Pixels {
		if px > 0 {
			on++
		}
	}
	if on == 0 {
		return 0, false, nil
	}
	return float64(on), true, nil
}

func fullMask(w, h int) *domain.Mask {
	pixels := make([]uint8, w*h)
	for i := range pixels {
		pixels[i] = 255
	}
	return &domain.Mask{Width: w, Height: h, Pixels: pixels}
}

func detectionWithMask(m *domain.Mask) domain.Detection {
	return domain.Detection{ClassID: 0, Confidence: 0.9, Mask: m}
}

func TestQuantifyNoMasks(t *testing.T) {
	q := NewQuantifier(fullAreaMeasurer{})

	set := &domain.DetectionSet{
		Detections:  []domain.Detection{{ClassID: 1, Confidence: 0.5}},
		ImageWidth:  640,
		ImageHeight: 480,
	}
	assessment, err := q.Quantify(set, 640, 480)
	require.NoError(t, err)
	require.Equal(t, 0, assessment.TotalDetections)
	require.Equal(t, int64(0), assessment.TotalDamagedAreaPx)
	require.Equal(t, 0.0, assessment.PercentageDamage)
	require.Empty(t, assessment.IndividualAreasPx)
}

func TestQuantifyNilSet(t *testing.T) {
	q := NewQuantifier(fullAreaMeasurer{})
	assessment, err := q.Quantify(nil, 100, 100)
	require.NoError(t, err)
	require.Equal(t, 0, assessment.TotalDetections)
	require.Empty(t, assessment.IndividualAreasPx)
}

func TestQuantifyOverlappingMasksExceedHundredPercent(t *testing.T) {
	q := NewQuantifier(fullAreaMeasurer{})

	set := &domain.DetectionSet{
		Detections: []domain.Detection{
			detectionWithMask(fullMask(100, 100)),
			detectionWithMask(fullMask(100, 100)),
		},
		ImageWidth:  100,
		ImageHeight: 100,
	}
	assessment, err := q.Quantify(set, 100, 100)
	require.NoError(t, err)
	require.Equal(t, 2, assessment.TotalDetections)
	require.Equal(t, int64(20000), assessment.TotalDamagedAreaPx)
	// Overlap is not clamped; the reading above 100 is reported as-is.
	require.Equal(t, 200.0, assessment.PercentageDamage)
	require.Equal(t, []int64{10000, 10000}, assessment.IndividualAreasPx)
}

func TestQuantifyRoundsToTwoDecimals(t *testing.T) {
	q := NewQuantifier(fullAreaMeasurer{})

	mask := &domain.Mask{Width: 30, Height: 30, Pixels: make([]uint8, 900)}
	for i := 0; i < 100; i++ {
		mask.Pixels[i] = 1
	}
	set := &domain.DetectionSet{
		Detections:  []domain.Detection{detectionWithMask(mask)},
		ImageWidth:  30,
		ImageHeight: 30,
	}
	// 100 / 900 * 100 = 11.111... -> 11.11
	assessment, err := q.Quantify(set, 30, 30)
	require.NoError(t, err)
	require.Equal(t, 11.11, assessment.PercentageDamage)
}

func TestQuantifySkipsMasksWithoutContours(t *testing.T) {
	q := NewQuantifier(fullAreaMeasurer{})

	empty := &domain.Mask{Width: 10, Height: 10, Pixels: make([]uint8, 100)}
	set := &domain.DetectionSet{
		Detections: []domain.Detection{
			detectionWithMask(fullMask(10, 10)),
			detectionWithMask(empty),
		},
		ImageWidth:  10,
		ImageHeight: 10,
	}
	assessment, err := q.Quantify(set, 10, 10)
	require.NoError(t, err)
	// Both masks count as detections, but only one contributes an area.
	require.Equal(t, 2, assessment.TotalDetections)
	require.Equal(t, []int64{100}, assessment.IndividualAreasPx)
	require.Equal(t, int64(100), assessment.TotalDamagedAreaPx)
}
