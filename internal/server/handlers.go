package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/formscan/internal/imageio"
	"github.com/MeKo-Tech/formscan/internal/layout"
	"github.com/MeKo-Tech/formscan/internal/pipeline"
	"github.com/MeKo-Tech/formscan/internal/structure"
	"github.com/MeKo-Tech/formscan/internal/tokens"
	"github.com/MeKo-Tech/formscan/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error encoding health response", "error", err)
	}
}

// structureHandler accepts a multipart upload with a "tokens" part and an optional "image"
// part and answers with the structured form.
func (s *Server) structureHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	in, err := s.parseStructureRequest(w, r)
	if err != nil {
		structureRequestsTotal.WithLabelValues("http", "error").Inc()
		return // error already written
	}

	proc, release, err := s.processorFor(formOrQuery(r, "threshold"))
	if err != nil {
		structureRequestsTotal.WithLabelValues("http", "error").Inc()
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer release()

	ctx, cancel := s.requestContext(r.Context())
	defer cancel()

	start := time.Now()
	res, err := proc.Process(ctx, in)
	duration := time.Since(start)
	if err != nil {
		structureRequestsTotal.WithLabelValues("http", "error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Structuring failed: %v", err), http.StatusInternalServerError)
		return
	}

	structureRequestsTotal.WithLabelValues("http", "success").Inc()
	structureProcessingDuration.WithLabelValues("http").Observe(duration.Seconds())
	fieldsExtracted.WithLabelValues("http").Observe(float64(res.Form.FieldCount()))

	s.writeStructureResponse(w, formOrQuery(r, "format"), res)
}

func (s *Server) parseStructureRequest(w http.ResponseWriter, r *http.Request) (pipeline.Input, error) {
	limit := s.uploadLimit()
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return pipeline.Input{}, err
	}

	in := pipeline.Input{Source: "upload"}
	haveTokens := false

	data, header, err := readPart(r, "tokens")
	switch {
	case err == nil:
		uploadSizeBytes.WithLabelValues("tokens").Observe(float64(len(data)))
		toks, perr := tokens.Parse(data, tokens.FormatFromPath(header.Filename))
		if perr != nil {
			s.writeErrorResponse(w, fmt.Sprintf("Invalid tokens: %v", perr), http.StatusBadRequest)
			return in, perr
		}
		in.Tokens = toks
		in.Source = header.Filename
		haveTokens = true
	case !errors.Is(err, http.ErrMissingFile):
		s.writeErrorResponse(w, "Failed to read tokens", http.StatusBadRequest)
		return in, err
	}

	data, _, err = readPart(r, "image")
	switch {
	case err == nil:
		uploadSizeBytes.WithLabelValues("image").Observe(float64(len(data)))
		img, derr := imageio.Decode(bytes.NewReader(data))
		if derr != nil {
			s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
			return in, derr
		}
		in.Image = img
	case !errors.Is(err, http.ErrMissingFile):
		s.writeErrorResponse(w, "Failed to read image", http.StatusBadRequest)
		return in, err
	}

	if !haveTokens && in.Image == nil {
		s.writeErrorResponse(w, "No tokens or image provided", http.StatusBadRequest)
		return in, errors.New("empty request")
	}
	return in, nil
}

// uploadLimit returns the maximum accepted upload in bytes.
func (s *Server) uploadLimit() int64 {
	if s.maxUploadMB <= 0 {
		return 50 * 1024 * 1024
	}
	return s.maxUploadMB * 1024 * 1024
}

func readPart(r *http.Request, name string) ([]byte, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(name)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = file.Close() }()
	data, err := io.ReadAll(file)
	return data, header, err
}

// processorFor returns the shared pipeline, or a one-off pipeline when the request
// overrides the fuzzy threshold.
func (s *Server) processorFor(threshold string) (processor, func(), error) {
	if threshold == "" {
		return s.pipeline, func() {}, nil
	}
	th, err := strconv.ParseFloat(threshold, 64)
	if err != nil || th <= 0 || th > 1 {
		return nil, nil, fmt.Errorf("invalid threshold: %q", threshold)
	}
	pl, err := pipeline.NewBuilderWithConfig(s.pipelineConfig).WithThreshold(th).Build()
	if err != nil {
		return nil, nil, err
	}
	return pl, func() { _ = pl.Close() }, nil
}

func (s *Server) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.timeoutSec > 0 {
		return context.WithTimeout(parent, time.Duration(s.timeoutSec)*time.Second)
	}
	return context.WithCancel(parent)
}

// writeStructureResponse renders json (default), yaml or text.
func (s *Server) writeStructureResponse(w http.ResponseWriter, format string, res *pipeline.Result) {
	switch strings.ToLower(format) {
	case structure.FormatText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := structure.Render(w, res.Form, structure.FormatText); err != nil {
			slog.Error("Error rendering text response", "error", err)
		}
	case structure.FormatYAML:
		w.Header().Set("Content-Type", "application/yaml")
		if err := structure.Render(w, res.Form, structure.FormatYAML); err != nil {
			slog.Error("Error rendering yaml response", "error", err)
		}
	case "", structure.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(StructureResponse{Success: true, Result: res}); err != nil {
			slog.Error("Error encoding structure response", "error", err)
		}
	default:
		s.writeErrorResponse(w, "Unsupported format: "+format, http.StatusBadRequest)
	}
}

// writeErrorResponse writes a JSON error body.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(StructureResponse{Success: false, Error: message}); err != nil {
		slog.Error("Error encoding error response", "error", err)
	}
}

func formOrQuery(r *http.Request, key string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return r.URL.Query().Get(key)
}

// decodeRequestImage decodes raw image bytes sent by clients.
func decodeRequestImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return imageio.Decode(bytes.NewReader(data))
}

// decodeRequestTokens parses a token payload that is either inline JSON or a string
// holding JSON or hOCR.
func decodeRequestTokens(raw json.RawMessage) ([]layout.Token, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return tokens.Parse([]byte(text), tokens.FormatAuto)
	}
	return tokens.Parse(raw, tokens.FormatJSON)
}
