package dto

import "github.com/roadwatch/damage-service/internal/domain"

// ImageDimensions reports the size of the analyzed frame.
type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// PredictResponse is the result of a standalone analysis call.
type PredictResponse struct {
	AnnotatedImageURL string                  `json:"annotated_image_url"`
	ImageDimensions   ImageDimensions         `json:"image_dimensions"`
	Damage            domain.DamageAssessment `json:"damage"`
}

// PredictFrameRequest carries one base64-encoded camera frame. A data-URL
// prefix is tolerated and stripped.
type PredictFrameRequest struct {
	Frame string `json:"frame"`
}

// PredictFrameResponse returns the annotated frame inline.
type PredictFrameResponse struct {
	Frame            string  `json:"frame"`
	TotalDetections  int     `json:"total_detections"`
	PercentageDamage float64 `json:"percentage_damage"`
}

// ModelInfoResponse reports detector status.
type ModelInfoResponse struct {
	Loaded              bool    `json:"loaded"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}
