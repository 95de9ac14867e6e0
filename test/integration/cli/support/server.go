package support

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/formscan/internal/pipeline"
	"github.com/MeKo-Tech/formscan/internal/server"
)

// HTTPTestServerWrapper wraps httptest.Server around a real form server.
type HTTPTestServerWrapper struct {
	Server     *httptest.Server
	TestServer *server.Server
}

// RegisterServerSteps registers the HTTP API steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a running formscan server$`, testCtx.aRunningServer)
	sc.Step(`^a running formscan server limited to (\d+) requests?$`, testCtx.aRunningServerWithBurst)
	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)"$`, testCtx.iUploadTo)
	sc.Step(`^I POST an empty form to "([^"]*)"$`, testCtx.iPOSTAnEmptyForm)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
}

func (testCtx *TestContext) startTestHTTPServer(cfg server.Config) error {
	cfg.PipelineConfig = pipeline.DefaultConfig()
	cfg.PipelineConfig.EnableVision = false
	cfg.MaxUploadMB = 5
	cfg.TimeoutSec = 10

	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	testCtx.HTTPTestServer = &HTTPTestServerWrapper{
		Server:     httptest.NewServer(mux),
		TestServer: srv,
	}
	return nil
}

func (testCtx *TestContext) stopTestHTTPServer() error {
	w := testCtx.HTTPTestServer
	testCtx.HTTPTestServer = nil
	w.Server.Close()
	return w.TestServer.Close()
}

func (testCtx *TestContext) aRunningServer() error {
	return testCtx.startTestHTTPServer(server.Config{})
}

func (testCtx *TestContext) aRunningServerWithBurst(burst int) error {
	return testCtx.startTestHTTPServer(server.Config{
		RateLimit: server.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: burst},
	})
}

func (testCtx *TestContext) url(path string) (string, error) {
	if testCtx.HTTPTestServer == nil {
		return "", errors.New("no server running")
	}
	return testCtx.HTTPTestServer.Server.URL + path, nil
}

func (testCtx *TestContext) iGET(path string) error {
	u, err := testCtx.url(path)
	if err != nil {
		return err
	}
	resp, err := http.Get(u) //nolint:gosec,noctx // test server URL
	if err != nil {
		return err
	}
	return testCtx.recordResponse(resp)
}

// iUploadTo posts name as the "tokens" part, or as the "image" part when it is a PNG.
func (testCtx *TestContext) iUploadTo(name, path string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return err
	}
	field := "tokens"
	if strings.EqualFold(filepath.Ext(name), ".png") {
		field = "image"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filepath.Base(name))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return testCtx.post(path, writer.FormDataContentType(), &body)
}

func (testCtx *TestContext) iPOSTAnEmptyForm(path string) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("format", "json"); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return testCtx.post(path, writer.FormDataContentType(), &body)
}

func (testCtx *TestContext) post(path, contentType string, body io.Reader) error {
	u, err := testCtx.url(path)
	if err != nil {
		return err
	}
	resp, err := http.Post(u, contentType, body) //nolint:gosec,noctx // test server URL
	if err != nil {
		return err
	}
	return testCtx.recordResponse(resp)
}

func (testCtx *TestContext) recordResponse(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(data)
	testCtx.LastHTTPHeaders = map[string]string{}
	for k := range resp.Header {
		testCtx.LastHTTPHeaders[k] = resp.Header.Get(k)
	}
	return nil
}

func (testCtx *TestContext) theResponseStatusShouldBe(code int) error {
	if testCtx.LastHTTPStatusCode != code {
		return fmt.Errorf("expected status %d, got %d: %s", code, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain %q: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, value string) error {
	if got := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]; got != value {
		return fmt.Errorf("header %s is %q, want %q", name, got, value)
	}
	return nil
}
