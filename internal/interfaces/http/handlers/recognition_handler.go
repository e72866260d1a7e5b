package handlers

import (
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/FigureLens/internal/application/recognition"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FigureLens/pkg/errors"
)

// maxImageBytes bounds uploads; reference photos are small.
const maxImageBytes = 16 << 20

// RecognitionHandler exposes the recognition pipeline over HTTP.
type RecognitionHandler struct {
	orchestrator *recognition.Orchestrator
	logger       logging.Logger
}

// NewRecognitionHandler builds the recognition handler.
func NewRecognitionHandler(o *recognition.Orchestrator, log logging.Logger) *RecognitionHandler {
	return &RecognitionHandler{orchestrator: o, logger: log.Named("http.recognition")}
}

// textRequest is the body of a text-only recognition call.
type textRequest struct {
	Description string `json:"description" binding:"required"`
}

// RecognizeImage handles POST /api/v1/recognitions/image.  The image arrives
// as the multipart field "image" or as the raw request body.
func (h *RecognitionHandler) RecognizeImage(c *gin.Context) {
	data, err := h.readImage(c)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.orchestrator.Recognize(c.Request.Context(), data, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// RecognizeText handles POST /api/v1/recognitions/text.
func (h *RecognitionHandler) RecognizeText(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "description is required"))
		return
	}
	result, err := h.orchestrator.RecognizeFromDescription(c.Request.Context(), req.Description, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// RecognizeMultiModal handles POST /api/v1/recognitions/multimodal: a
// multipart form with an "image" file and a "description" field.  Either
// side may fail as long as the other produces a match.
func (h *RecognitionHandler) RecognizeMultiModal(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "multipart image field is required"))
		return
	}
	data, err := readFormFile(file)
	if err != nil {
		respondError(c, err)
		return
	}
	description := c.PostForm("description")
	if description == "" {
		respondError(c, errors.New(errors.ErrCodeBadRequest, "description form field is required"))
		return
	}

	result, err := h.orchestrator.RecognizeMultiModal(c.Request.Context(), data, description, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// readImage pulls the image bytes from a multipart field or the raw body.
func (h *RecognitionHandler) readImage(c *gin.Context) ([]byte, error) {
	if file, err := c.FormFile("image"); err == nil {
		return readFormFile(file)
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImageBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read request body")
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeBadRequest, "image payload is required")
	}
	if len(data) > maxImageBytes {
		return nil, errors.New(errors.ErrCodeBadRequest, "image payload too large")
	}
	return data, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxImageBytes {
		return nil, errors.New(errors.ErrCodeBadRequest, "image payload too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to open uploaded image")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read uploaded image")
	}
	return data, nil
}
