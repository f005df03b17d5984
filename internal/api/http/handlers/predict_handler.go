package handlers

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/roadwatch/damage-service/internal/api/dto"
	"github.com/roadwatch/damage-service/internal/media"
	"github.com/roadwatch/damage-service/internal/service"
	apperrors "github.com/roadwatch/damage-service/pkg/util"
)

// PredictHandler exposes the standalone analysis endpoints that do not
// create tickets.
type PredictHandler struct {
	inspection *service.InspectionService
	mediaStore *media.Store
}

// NewPredictHandler constructs handler.
func NewPredictHandler(inspection *service.InspectionService, mediaStore *media.Store) *PredictHandler {
	return &PredictHandler{inspection: inspection, mediaStore: mediaStore}
}

// Predict handles POST /predict. Accepts a multipart image upload, runs
// the analysis pipeline and returns the damage summary plus a URL for
// the annotated artifact.
func (h *PredictHandler) Predict(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil || file == nil {
		return apperrors.NewValidationError("image file required", nil)
	}
	data, name, err := readUpload(file)
	if err != nil {
		return apperrors.NewValidationError("unreadable image upload", nil)
	}

	var confidence *float64
	if conf := c.FormValue("confidence"); conf != "" {
		parsed, err := strconv.ParseFloat(conf, 64)
		if err != nil {
			return apperrors.NewValidationError("invalid confidence", nil)
		}
		confidence = &parsed
	}

	result, err := h.inspection.Analyze(c.UserContext(), data, name, confidence)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.PredictResponse{
		AnnotatedImageURL: "/outputs/" + result.AnnotatedImageName,
		ImageDimensions:   dto.ImageDimensions{Width: result.ImageWidth, Height: result.ImageHeight},
		Damage:            result.Damage,
	}})
}

// PredictFrame handles POST /predict_frame. The frame arrives either as
// a multipart image file or as a base64 JSON field; the annotated frame
// is returned inline without touching storage.
func (h *PredictHandler) PredictFrame(c *fiber.Ctx) error {
	frame, err := frameFromRequest(c)
	if err != nil {
		return err
	}

	annotated, damage, err := h.inspection.AnalyzeFrame(c.UserContext(), frame)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.PredictFrameResponse{
		Frame:            base64.StdEncoding.EncodeToString(annotated),
		TotalDetections:  damage.TotalDetections,
		PercentageDamage: damage.PercentageDamage,
	}})
}

// frameFromRequest reads the camera frame from a multipart image field
// when one is present, otherwise from the base64 JSON payload. A data-URL
// prefix on the base64 form is tolerated and stripped.
func frameFromRequest(c *fiber.Ctx) ([]byte, error) {
	if file, err := c.FormFile("image"); err == nil && file != nil {
		data, _, err := readUpload(file)
		if err != nil {
			return nil, apperrors.NewValidationError("unreadable image upload", nil)
		}
		return data, nil
	}

	var req dto.PredictFrameRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Frame == "" {
		return nil, apperrors.NewValidationError("frame required", nil)
	}

	raw := req.Frame
	if idx := strings.Index(raw, ","); idx >= 0 && strings.HasPrefix(raw, "data:") {
		raw = raw[idx+1:]
	}
	frame, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, apperrors.NewValidationError("frame is not valid base64", nil)
	}
	return frame, nil
}

// Output handles GET /outputs/:name, serving a stored annotated image.
func (h *PredictHandler) Output(c *fiber.Ctx) error {
	path, ok := h.mediaStore.OutputPath(c.Params("name"))
	if !ok {
		return apperrors.NewNotFound("annotated image", nil)
	}
	return c.SendFile(path)
}

// ModelInfo handles GET /models/info.
func (h *PredictHandler) ModelInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.ModelInfoResponse{
		Loaded:              h.inspection.ModelReady(),
		ConfidenceThreshold: h.inspection.DefaultConfidence(),
	}})
}
