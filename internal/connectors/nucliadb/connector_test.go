package nucliadb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuclia/sync-agent/internal/core/domain"
)

type recordedRequest struct {
	method   string
	path     string
	filename string
	body     []byte
	apiKey   string
}

func fakeBackend(t *testing.T, requests *[]recordedRequest) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/kbs", func(w http.ResponseWriter, r *http.Request) {
		*requests = append(*requests, recordedRequest{method: r.Method, path: r.URL.Path})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"kbs": []map[string]string{
				{"uuid": "kb-1", "slug": "docs", "title": "Documentation"},
				{"uuid": "kb-2", "slug": "support"},
			},
		})
	})
	mux.HandleFunc("/v1/kb/kb-1", func(w http.ResponseWriter, r *http.Request) {
		*requests = append(*requests, recordedRequest{method: r.Method, path: r.URL.Path})
		_ = json.NewEncoder(w).Encode(map[string]string{"uuid": "kb-1"})
	})
	mux.HandleFunc("/v1/kb/kb-1/upload", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*requests = append(*requests, recordedRequest{
			method:   r.Method,
			path:     r.URL.Path,
			filename: r.Header.Get("X-Filename"),
			body:     body,
			apiKey:   r.Header.Get("X-Nuclia-Serviceaccount"),
		})
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"uuid": "res-upload"})
	})
	mux.HandleFunc("/v1/kb/kb-1/resources", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*requests = append(*requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			body:   body,
		})
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"uuid": "res-link"})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestInitResolvesKnowledgeBox(t *testing.T) {
	var requests []recordedRequest
	server := fakeBackend(t, &requests)

	c := New()
	err := c.Init(context.Background(), domain.ConnectorParameters{
		"backend": server.URL,
		"kb":      "kb-1",
	})
	require.NoError(t, err)

	t.Run("unknown knowledge box", func(t *testing.T) {
		c := New()
		err := c.Init(context.Background(), domain.ConnectorParameters{
			"backend": server.URL,
			"kb":      "missing",
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing settings", func(t *testing.T) {
		err := New().Init(context.Background(), domain.ConnectorParameters{})
		assert.ErrorIs(t, err, domain.ErrMissingParameter)
	})
}

func TestParametersEnumerateKnowledgeBoxes(t *testing.T) {
	var requests []recordedRequest
	server := fakeBackend(t, &requests)

	c := New()
	require.NoError(t, c.Init(context.Background(), domain.ConnectorParameters{
		"backend": server.URL,
		"kb":      "kb-1",
	}))

	fields, err := c.Parameters(context.Background())
	require.NoError(t, err)
	require.Len(t, fields, 3)

	kbField := fields[2]
	assert.Equal(t, "kb", kbField.ID)
	assert.Equal(t, domain.FieldSelect, kbField.Type)
	require.Len(t, kbField.Options, 2)
	assert.Equal(t, "Documentation", kbField.Options[0].Label)
	assert.Equal(t, "kb-1", kbField.Options[0].Value)
	// Falls back to the slug when a kb has no title
	assert.Equal(t, "support", kbField.Options[1].Label)
}

func TestUpload(t *testing.T) {
	var requests []recordedRequest
	server := fakeBackend(t, &requests)

	c := New()
	require.NoError(t, c.Init(context.Background(), domain.ConnectorParameters{
		"backend": server.URL,
		"kb":      "kb-1",
		"api_key": "secret",
	}))

	uuid, err := c.Upload(context.Background(), "report.pdf", strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	assert.Equal(t, "res-upload", uuid)

	last := requests[len(requests)-1]
	assert.Equal(t, "/v1/kb/kb-1/upload", last.path)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("report.pdf")), last.filename)
	assert.Equal(t, "pdf bytes", string(last.body))
	assert.Equal(t, "Bearer secret", last.apiKey)
}

func TestUploadRequiresInit(t *testing.T) {
	_, err := New().Upload(context.Background(), "report.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUploadLink(t *testing.T) {
	var requests []recordedRequest
	server := fakeBackend(t, &requests)

	c := New()
	require.NoError(t, c.Init(context.Background(), domain.ConnectorParameters{
		"backend": server.URL,
		"kb":      "kb-1",
	}))

	uuid, err := c.UploadLink(context.Background(), "page", domain.Link{
		URI:          "https://example.com/page",
		ExtraHeaders: map[string]string{"Authorization": "Bearer tok"},
	})
	require.NoError(t, err)
	assert.Equal(t, "res-link", uuid)

	last := requests[len(requests)-1]
	assert.Equal(t, "/v1/kb/kb-1/resources", last.path)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(last.body, &payload))
	assert.Equal(t, "page", payload["title"])
	links := payload["links"].(map[string]any)
	link := links["link"].(map[string]any)
	assert.Equal(t, "https://example.com/page", link["uri"])
}

func TestAuthenticate(t *testing.T) {
	var requests []recordedRequest
	server := fakeBackend(t, &requests)

	c := New()
	c.params["backend"] = server.URL

	ok, err := c.Authenticate(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}
