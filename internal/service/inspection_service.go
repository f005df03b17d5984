package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/roadwatch/damage-service/internal/config"
	"github.com/roadwatch/damage-service/internal/domain"
	"github.com/roadwatch/damage-service/internal/media"
	"github.com/roadwatch/damage-service/internal/observability"
	"github.com/roadwatch/damage-service/internal/vision"
	apperrors "github.com/roadwatch/damage-service/pkg/util"
)

// Detector is the opaque vision model consumed by the pipeline.
type Detector interface {
	Detect(ctx context.Context, imageData []byte, confidence float64) (*domain.DetectionSet, error)
	Ready() bool
}

// OverlayRenderer produces the human-review artifact for a detection set.
type OverlayRenderer interface {
	Render(imageData []byte, set *domain.DetectionSet, damage domain.DamageAssessment) ([]byte, error)
}

// InspectionService runs the detection, quantification and annotation
// pipeline for one image. Detector serialization lives inside the vision
// package; this layer adds the inference timeout and artifact handling.
type InspectionService struct {
	detector   Detector
	quantifier *vision.Quantifier
	annotator  OverlayRenderer
	mediaStore *media.Store
	metrics    *observability.Metrics
	logger     *zap.Logger

	defaultConfidence float64
	inferenceTimeout  time.Duration
}

// InspectionDependencies bundles collaborators for the pipeline.
type InspectionDependencies struct {
	Detector   Detector
	Quantifier *vision.Quantifier
	Annotator  OverlayRenderer
	MediaStore *media.Store
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// InspectionResult is the outcome of one pipeline run.
type InspectionResult struct {
	Damage             domain.DamageAssessment
	AnnotatedImageName string
	ImagePath          string
	ImageWidth         int
	ImageHeight        int
}

// NewInspectionService builds the service.
func NewInspectionService(cfg config.VisionConfig, deps InspectionDependencies) *InspectionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InspectionService{
		detector:          deps.Detector,
		quantifier:        deps.Quantifier,
		annotator:         deps.Annotator,
		mediaStore:        deps.MediaStore,
		metrics:           deps.Metrics,
		logger:            logger,
		defaultConfidence: cfg.DefaultConfidence,
		inferenceTimeout:  cfg.InferenceTimeout(),
	}
}

// DefaultConfidence is the process-wide confidence threshold applied when
// callers leave it unspecified.
func (s *InspectionService) DefaultConfidence() float64 {
	return s.defaultConfidence
}

// ModelReady reports whether the detector can serve inference.
func (s *InspectionService) ModelReady() bool {
	return s.detector != nil && s.detector.Ready()
}

// Analyze runs the full pipeline on an uploaded image: detection,
// quantification, annotation, plus persisting both the source image and
// the annotated artifact.
func (s *InspectionService) Analyze(ctx context.Context, imageData []byte, originalName string, confidence *float64) (*InspectionResult, error) {
	set, damage, err := s.detectAndQuantify(ctx, imageData, confidence)
	if err != nil {
		return nil, err
	}

	imagePath, err := s.mediaStore.SaveUpload(imageData, originalName)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	annotated, err := s.annotator.Render(imageData, set, damage)
	if err != nil {
		return nil, s.mapVisionError(err)
	}
	outputName, err := s.mediaStore.SaveOutput(annotated)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("image analyzed",
		zap.Int("detections", damage.TotalDetections),
		zap.Float64("percentage_damage", damage.PercentageDamage),
		zap.String("output", outputName),
	)
	return &InspectionResult{
		Damage:             damage,
		AnnotatedImageName: outputName,
		ImagePath:          imagePath,
		ImageWidth:         set.ImageWidth,
		ImageHeight:        set.ImageHeight,
	}, nil
}

// AnalyzeFrame runs detection on a single camera frame and returns the
// annotated image bytes directly, persisting nothing.
func (s *InspectionService) AnalyzeFrame(ctx context.Context, frame []byte) ([]byte, domain.DamageAssessment, error) {
	set, damage, err := s.detectAndQuantify(ctx, frame, nil)
	if err != nil {
		return nil, domain.DamageAssessment{}, err
	}
	annotated, err := s.annotator.Render(frame, set, damage)
	if err != nil {
		return nil, domain.DamageAssessment{}, s.mapVisionError(err)
	}
	return annotated, damage, nil
}

func (s *InspectionService) detectAndQuantify(ctx context.Context, imageData []byte, confidence *float64) (*domain.DetectionSet, domain.DamageAssessment, error) {
	if !s.ModelReady() {
		return nil, domain.DamageAssessment{}, apperrors.NewModelUnavailable("damage detector not initialized")
	}

	conf := s.defaultConfidence
	if confidence != nil {
		conf = *confidence
	}

	detectCtx, cancel := context.WithTimeout(ctx, s.inferenceTimeout)
	defer cancel()

	start := time.Now()
	set, err := s.detector.Detect(detectCtx, imageData, conf)
	s.metrics.RecordInference(time.Since(start))
	if err != nil {
		return nil, domain.DamageAssessment{}, s.mapVisionError(err)
	}

	damage, err := s.quantifier.Quantify(set, set.ImageWidth, set.ImageHeight)
	if err != nil {
		return nil, domain.DamageAssessment{}, s.mapVisionError(err)
	}
	return set, damage, nil
}

func (s *InspectionService) mapVisionError(err error) error {
	switch {
	case errors.Is(err, vision.ErrDetectorUnavailable):
		return apperrors.NewModelUnavailable("damage detector not initialized")
	case errors.Is(err, vision.ErrDecodeImage):
		return apperrors.NewValidationError("unreadable image data", nil)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewInternalError(err)
	default:
		return apperrors.NewInternalError(err)
	}
}
