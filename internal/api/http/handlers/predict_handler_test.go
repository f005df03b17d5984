package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/roadwatch/damage-service/internal/api/dto"
	"github.com/roadwatch/damage-service/internal/config"
	"github.com/roadwatch/damage-service/internal/domain"
	"github.com/roadwatch/damage-service/internal/media"
	"github.com/roadwatch/damage-service/internal/service"
	"github.com/roadwatch/damage-service/internal/vision"
)

// stubDetector returns a canned detection set regardless of input.
type stubDetector struct {
	set *domain.DetectionSet
}

func (d *stubDetector) Detect(context.Context, []byte, float64) (*domain.DetectionSet, error) {
	return d.set, nil
}

func (d *stubDetector) Ready() bool { return true }

type onPixelMeasurer struct{}

func (onPixelMeasurer) FirstContourArea(mask *domain.Mask) (float64, bool, error) {
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

// echoRenderer returns the source bytes so tests can assert the frame
// travels through the pipeline unmodified.
type echoRenderer struct{}

func (echoRenderer) Render(imageData []byte, _ *domain.DetectionSet, _ domain.DamageAssessment) ([]byte, error) {
	return imageData, nil
}

func newPredictTestApp(t *testing.T) *fiber.App {
	t.Helper()

	store, err := media.NewStore(config.MediaConfig{
		UploadDir: t.TempDir(),
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)

	mask := &domain.Mask{Width: 10, Height: 10, Pixels: make([]uint8, 100)}
	for i := range mask.Pixels {
		mask.Pixels[i] = 255
	}
	detector := &stubDetector{set: &domain.DetectionSet{
		Detections:  []domain.Detection{{ClassID: 0, Confidence: 0.9, Mask: mask}},
		ImageWidth:  64,
		ImageHeight: 48,
	}}

	inspection := service.NewInspectionService(config.VisionConfig{
		DefaultConfidence:       0.15,
		InferenceTimeoutSeconds: 5,
	}, service.InspectionDependencies{
		Detector:   detector,
		Quantifier: vision.NewQuantifier(onPixelMeasurer{}),
		Annotator:  echoRenderer{},
		MediaStore: store,
	})

	handler := NewPredictHandler(inspection, store)
	app := fiber.New()
	app.Post("/predict", handler.Predict)
	app.Post("/predict_frame", handler.PredictFrame)
	app.Get("/outputs/:name", handler.Output)
	return app
}

func multipartImage(t *testing.T, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "frame.jpg")
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestPredictReportsImageDimensions(t *testing.T) {
	app := newPredictTestApp(t)

	body, contentType := multipartImage(t, []byte("raw image bytes"))
	req := httptest.NewRequest("POST", "/predict", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var payload struct {
		Data dto.PredictResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, 64, payload.Data.ImageDimensions.Width)
	require.Equal(t, 48, payload.Data.ImageDimensions.Height)
	require.Contains(t, payload.Data.AnnotatedImageURL, "/outputs/pred_")
	require.Equal(t, 1, payload.Data.Damage.TotalDetections)
}

func TestPredictFrameAcceptsMultipart(t *testing.T) {
	app := newPredictTestApp(t)

	body, contentType := multipartImage(t, []byte("raw frame bytes"))
	req := httptest.NewRequest("POST", "/predict_frame", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var payload struct {
		Data dto.PredictFrameResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	decoded, err := base64.StdEncoding.DecodeString(payload.Data.Frame)
	require.NoError(t, err)
	require.Equal(t, []byte("raw frame bytes"), decoded)
	require.Equal(t, 1, payload.Data.TotalDetections)
}

func TestPredictFrameAcceptsBase64JSON(t *testing.T) {
	app := newPredictTestApp(t)

	frame := base64.StdEncoding.EncodeToString([]byte("raw frame bytes"))
	reqBody, err := json.Marshal(dto.PredictFrameRequest{
		Frame: "data:image/jpeg;base64," + frame,
	})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/predict_frame", bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var payload struct {
		Data dto.PredictFrameResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	decoded, err := base64.StdEncoding.DecodeString(payload.Data.Frame)
	require.NoError(t, err)
	require.Equal(t, []byte("raw frame bytes"), decoded)
}
