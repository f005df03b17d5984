package domain

// DamageAssessment holds the quantitative result of analyzing one image.
// It is derived once from a DetectionSet and the source image dimensions
// and never mutated afterwards.
type DamageAssessment struct {
	TotalDetections    int     `json:"total_detections"`
	TotalDamagedAreaPx int64   `json:"total_damaged_area"`
	PercentageDamage   float64 `json:"percentage_damage"`
	IndividualAreasPx  []int64 `json:"individual_areas"`
}

// Detection is one model output instance: class id, confidence, bounding
// box and an optional pixel mask at source-image resolution.
type Detection struct {
	ClassID    int
	Confidence float64
	Box        Box
	Mask       *Mask
}

// DetectionSet is the ordered output of a single inference call.
// It is transient and immutable after creation.
type DetectionSet struct {
	Detections  []Detection
	ImageWidth  int
	ImageHeight int
}

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Mask is a per-pixel membership map for one detected instance, stored
// row-major at the same resolution as the source image. A pixel belongs
// to the instance iff its intensity is strictly greater than zero.
type Mask struct {
	Width  int
	Height int
	Pixels []uint8
}
