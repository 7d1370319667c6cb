package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/kiesman99/scrollstitch/internal/api"
	"github.com/kiesman99/scrollstitch/internal/stitch"
	"github.com/kiesman99/scrollstitch/internal/stitcher"
	"github.com/kiesman99/scrollstitch/pkg/tile"
)

var validate = validator.New()

// Server implements the ServerInterface from the generated API
type Server struct {
	startTime time.Time
	version   string
	defaults  stitch.Options
}

// NewServer creates a new server instance. defaults supplies the engine
// options a request does not override; nil uses the engine defaults.
func NewServer(version string, defaults *stitch.Options) *Server {
	if defaults == nil {
		defaults = stitch.DefaultOptions()
	}
	return &Server{
		startTime: time.Now(),
		version:   version,
		defaults:  *defaults,
	}
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())

	response := api.HealthResponse{
		Status:    api.Healthy,
		Timestamp: time.Now(),
		Uptime:    &uptime,
		Version:   &s.version,
	}

	s.writeJSON(w, http.StatusOK, response)
}

// stitchInput carries the checked fields of a StitchRequest.
type stitchInput struct {
	Tiles     [][]byte `validate:"required,min=1,dive,min=1"`
	Overlap   *int     `validate:"omitempty,gte=0"`
	MinRun    *int     `validate:"omitempty,gte=1"`
	Threshold *int     `validate:"omitempty,gte=0,lte=255"`
	Ratio     *float32 `validate:"omitempty,gt=0,lte=1"`
}

// CreateStitchedImage implements the main stitching endpoint
func (s *Server) CreateStitchedImage(w http.ResponseWriter, r *http.Request, params api.CreateStitchedImageParams) {
	requestID := requestIDFrom(r)

	var req api.StitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON",
			"Invalid JSON in request body", &requestID, nil)
		return
	}

	format := tile.FormatPNG
	if params.Format != nil {
		switch *params.Format {
		case api.Png:
		case api.Bmp:
			format = tile.FormatBMP
		default:
			s.writeValidationErrorResponse(w, "format", "format must be png or bmp", nil, &requestID)
			return
		}
	}

	in := stitchInput{Tiles: req.Tiles, Overlap: req.Overlap, MinRun: req.MinRun}
	if req.Trim != nil {
		in.Threshold = req.Trim.Threshold
		in.Ratio = req.Trim.Ratio
	}
	if err := validate.Struct(in); err != nil {
		s.writeStructValidationError(w, err, &requestID)
		return
	}

	opts := &stitcher.Options{
		Tiles:        req.Tiles,
		Engine:       s.engineOptions(&req),
		OutputFormat: format,
	}

	result, err := stitcher.New().Stitch(r.Context(), opts)
	if err != nil {
		s.handleStitchingError(w, err, &requestID)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Request-ID", requestID)
	w.Header().Set("X-Overlap", strconv.Itoa(result.Overlap))
	w.Header().Set("X-Tile-Count", strconv.Itoa(result.Tiles))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.ImageData)))

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.ImageData); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// engineOptions overlays the request fields on the server defaults.
func (s *Server) engineOptions(req *api.StitchRequest) *stitch.Options {
	opts := s.defaults
	if req.Overlap != nil {
		opts.Overlap = *req.Overlap
	}
	if req.MinRun != nil {
		opts.MinRun = *req.MinRun
	}
	if req.Strict != nil {
		opts.Strict = *req.Strict
	}
	if req.Trim != nil {
		if req.Trim.Threshold != nil {
			opts.Threshold = uint8(*req.Trim.Threshold)
		}
		if req.Trim.Ratio != nil {
			opts.Ratio = float64(*req.Trim.Ratio)
		}
	}
	return &opts
}

// DetectOverlap reports the overlap between two tiles
func (s *Server) DetectOverlap(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req api.OverlapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON",
			"Invalid JSON in request body", &requestID, nil)
		return
	}

	in := struct {
		Top    []byte `validate:"min=1"`
		Bottom []byte `validate:"min=1"`
		MinRun *int   `validate:"omitempty,gte=1"`
	}{req.Top, req.Bottom, req.MinRun}
	if err := validate.Struct(in); err != nil {
		s.writeStructValidationError(w, err, &requestID)
		return
	}

	minRun := s.defaults.MinRun
	if req.MinRun != nil {
		minRun = *req.MinRun
	}

	overlap, err := stitcher.New().Overlap(r.Context(), req.Top, req.Bottom, minRun)
	if err != nil {
		s.handleStitchingError(w, err, &requestID)
		return
	}

	w.Header().Set("X-Request-ID", requestID)
	s.writeJSON(w, http.StatusOK, api.OverlapResponse{Overlap: overlap})
}

// CheckTermination reports whether the current capture adds no content
func (s *Server) CheckTermination(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req api.TerminationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON",
			"Invalid JSON in request body", &requestID, nil)
		return
	}

	in := struct {
		Previous   []byte `validate:"min=1"`
		Current    []byte `validate:"min=1"`
		BandHeight *int   `validate:"omitempty,gte=1"`
	}{req.Previous, req.Current, req.BandHeight}
	if err := validate.Struct(in); err != nil {
		s.writeStructValidationError(w, err, &requestID)
		return
	}

	policy := s.defaults.Termination
	if req.Policy != nil {
		p, err := stitch.ParsePolicy(string(*req.Policy))
		if err != nil {
			s.writeValidationErrorResponse(w, "policy", err.Error(), nil, &requestID)
			return
		}
		policy = p
	}
	band := s.defaults.BandHeight
	if req.BandHeight != nil {
		band = *req.BandHeight
	}

	done, err := stitcher.New().Terminated(r.Context(), req.Previous, req.Current, policy, band)
	if err != nil {
		s.handleStitchingError(w, err, &requestID)
		return
	}

	w.Header().Set("X-Request-ID", requestID)
	s.writeJSON(w, http.StatusOK, api.TerminationResponse{Terminated: done})
}

// ParamErrorHandler reports malformed query parameters as validation errors.
func (s *Server) ParamErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	requestID := requestIDFrom(r)
	field := "request"
	var pe *api.InvalidParamFormatError
	if errors.As(err, &pe) {
		field = pe.ParamName
	}
	s.writeValidationErrorResponse(w, field, err.Error(), nil, &requestID)
}

// handleStitchingError handles errors from the stitching process
func (s *Server) handleStitchingError(w http.ResponseWriter, err error, requestID *string) {
	var tileErr *stitcher.TileError
	if errors.As(err, &tileErr) {
		response := api.TileErrorResponse{
			Error:        "TILE_DECODE_ERROR",
			Message:      tileErr.Message,
			DecodedTiles: tileErr.DecodedTiles,
			TotalTiles:   tileErr.TotalTiles,
			RequestId:    requestID,
		}
		for _, ft := range tileErr.FailedTiles {
			response.FailedTiles = append(response.FailedTiles, struct {
				Error string `json:"error"`
				Index int    `json:"index"`
			}{
				Error: ft.Error,
				Index: ft.Index,
			})
		}

		s.writeJSON(w, http.StatusUnprocessableEntity, response)
		return
	}

	switch {
	case errors.Is(err, stitch.ErrEmptySequence),
		errors.Is(err, stitch.ErrWidthMismatch),
		errors.Is(err, stitch.ErrInvalidOverlap),
		errors.Is(err, stitch.ErrOverlapDrift):
		s.writeErrorResponse(w, http.StatusUnprocessableEntity, "STITCH_ERROR",
			err.Error(), requestID, nil)
		return
	case errors.Is(err, context.DeadlineExceeded):
		s.writeErrorResponse(w, http.StatusGatewayTimeout, "TIMEOUT",
			"Stitching timed out", requestID, nil)
		return
	}

	log.Printf("Stitching failed: %v", err)
	s.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR",
		"Internal server error", requestID, nil)
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string, requestID *string, details map[string]interface{}) {
	response := api.ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestId: requestID,
	}

	if details != nil {
		response.Details = &details
	}

	s.writeJSON(w, statusCode, response)
}

// writeStructValidationError lists every failed field of a validated struct.
func (s *Server) writeStructValidationError(w http.ResponseWriter, err error, requestID *string) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		s.writeValidationErrorResponse(w, "request", err.Error(), nil, requestID)
		return
	}

	response := api.ValidationErrorResponse{
		Error:     api.VALIDATIONERROR,
		Message:   fmt.Sprintf("%d invalid field(s)", len(verrs)),
		RequestId: requestID,
	}
	for _, fe := range verrs {
		code := fe.Tag()
		response.ValidationErrors = append(response.ValidationErrors, struct {
			Code    *string `json:"code,omitempty"`
			Field   string  `json:"field"`
			Message string  `json:"message"`
		}{
			Code:    &code,
			Field:   fe.Field(),
			Message: fe.Error(),
		})
	}

	s.writeJSON(w, http.StatusBadRequest, response)
}

// writeValidationErrorResponse writes a validation error response
func (s *Server) writeValidationErrorResponse(w http.ResponseWriter, field, message string, code *string, requestID *string) {
	response := api.ValidationErrorResponse{
		Error:     api.VALIDATIONERROR,
		Message:   message,
		RequestId: requestID,
		ValidationErrors: []struct {
			Code    *string `json:"code,omitempty"`
			Field   string  `json:"field"`
			Message string  `json:"message"`
		}{
			{
				Code:    code,
				Field:   field,
				Message: message,
			},
		},
	}

	s.writeJSON(w, http.StatusBadRequest, response)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// requestIDFrom returns the id assigned by the RequestID middleware, or a
// fresh one when the middleware is not installed.
func requestIDFrom(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return fmt.Sprintf("req_%d", time.Now().UnixNano())
}
