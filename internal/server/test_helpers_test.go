package server

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/MeKo-Tech/formscan/internal/pipeline"
	"github.com/MeKo-Tech/formscan/internal/structure"
)

const sampleTokens = `{"tokens":[
 {"text":"PATIENT DETAILS","polygon":[[10,10],[200,10],[200,40],[10,40]],"confidence":0.95},
 {"text":"Name:","polygon":[[20,60],[80,60],[80,80],[20,80]],"confidence":0.9},
 {"text":"Jane Brown","polygon":[[100,60],[200,60],[200,80],[100,80]],"confidence":0.9}
]}`

// mockProcessor records inputs and returns a fixed document.
type mockProcessor struct {
	mu     sync.Mutex
	inputs []pipeline.Input
	err    error
}

func (m *mockProcessor) Process(_ context.Context, in pipeline.Input) (*pipeline.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	return &pipeline.Result{Form: structure.Document{Sections: []structure.SectionOutput{{
		Name:   "Form Data",
		Fields: []structure.QA{{Question: "name", Answer: structure.TextAnswer("Jane")}},
	}}}}, nil
}

func (m *mockProcessor) Close() error { return nil }

func (m *mockProcessor) lastInput() pipeline.Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inputs[len(m.inputs)-1]
}

var errMockFailure = errors.New("mock failure")

func newMockServer(proc *mockProcessor) *Server {
	return &Server{pipeline: proc, corsOrigin: "*", maxUploadMB: 1, timeoutSec: 5}
}

// createMultipartRequest builds a POST /structure request with the given parts.
func createMultipartRequest(parts map[string][]byte, query string) *http.Request {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	names := map[string]string{"tokens": "form.json", "image": "form.png"}
	for field, data := range parts {
		part, _ := writer.CreateFormFile(field, names[field])
		_, _ = part.Write(data)
	}
	_ = writer.Close()

	target := "/structure"
	if query != "" {
		target += "?" + query
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
