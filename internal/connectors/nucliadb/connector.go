// Package nucliadb writes synced content into a NucliaDB knowledge box
// through its HTTP API. Blob content goes through the upload endpoint;
// link-only items are created as link resources so NucliaDB fetches them
// itself.
package nucliadb

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
	"github.com/nuclia/sync-agent/internal/core/services"
)

// Connector uploads into one resolved knowledge box.
type Connector struct {
	params domain.ConnectorParameters
	client *http.Client

	// kbPath is the resolved API base of the target knowledge box,
	// e.g. "https://host/api/v1/kb/<id>". Set by Init.
	kbPath string
}

var (
	_ driven.DestinationConnector = (*Connector)(nil)
	_ driven.LinkUploader         = (*Connector)(nil)
)

// New returns an unconfigured NucliaDB destination.
func New() *Connector {
	return &Connector{
		params: domain.ConnectorParameters{},
		client: http.DefaultClient,
	}
}

// Definition describes the NucliaDB destination for registration.
func Definition() services.DestinationDefinition {
	return services.DestinationDefinition{
		ConnectorDefinition: domain.ConnectorDefinition{
			ID:          "nucliadb",
			Title:       "NucliaDB",
			Description: "Store content in a NucliaDB knowledge box",
			Logo:        "nucliadb.svg",
		},
		Factory: func(ctx context.Context) (driven.DestinationConnector, error) {
			return New(), nil
		},
	}
}

// knowledgeBox is the subset of the kb resource the connector reads.
type knowledgeBox struct {
	ID    string `json:"uuid"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type kbList struct {
	KBs []knowledgeBox `json:"kbs"`
}

// Init implements driven.DestinationConnector. The chosen knowledge box is
// resolved against the backend so a stale selection fails here rather than
// mid-transfer.
func (c *Connector) Init(ctx context.Context, settings domain.ConnectorParameters) error {
	backend := settings["backend"]
	if backend == "" {
		backend = c.params["backend"]
	}
	kb := settings["kb"]
	if backend == "" || kb == "" {
		return fmt.Errorf("%w: backend, kb", domain.ErrMissingParameter)
	}
	for k, v := range settings {
		c.params[k] = v
	}

	path := fmt.Sprintf("%s/v1/kb/%s", backend, kb)
	resp, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		c.kbPath = path
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%w: knowledge box %s", domain.ErrNotFound, kb)
	default:
		return fmt.Errorf("resolve knowledge box %s: status %d", kb, resp.StatusCode)
	}
}

// Parameters implements driven.DestinationConnector. The knowledge box field
// is populated live from the backend when it is reachable.
func (c *Connector) Parameters(ctx context.Context) ([]domain.Field, error) {
	kbField := domain.Field{
		ID:       "kb",
		Label:    "Knowledge box",
		Type:     domain.FieldSelect,
		Required: true,
	}
	if backend := c.params["backend"]; backend != "" {
		kbs, err := c.listKnowledgeBoxes(ctx, backend)
		if err != nil {
			return nil, err
		}
		for _, kb := range kbs {
			label := kb.Title
			if label == "" {
				label = kb.Slug
			}
			kbField.Options = append(kbField.Options, domain.Option{Label: label, Value: kb.ID})
		}
	}

	return []domain.Field{
		{
			ID:          "backend",
			Label:       "NucliaDB API",
			Type:        domain.FieldText,
			Required:    true,
			Placeholder: "http://localhost:8080/api",
		},
		{ID: "api_key", Label: "Service account key", Type: domain.FieldText},
		kbField,
	}, nil
}

func (c *Connector) listKnowledgeBoxes(ctx context.Context, backend string) ([]knowledgeBox, error) {
	resp, err := c.get(ctx, backend+"/v1/kbs")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list knowledge boxes: status %d", resp.StatusCode)
	}
	var list kbList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode knowledge box list: %w", err)
	}
	return list.KBs, nil
}

// Authenticate implements driven.DestinationConnector by probing the
// backend's kb listing with the stored credentials.
func (c *Connector) Authenticate(ctx context.Context) (bool, error) {
	backend := c.params["backend"]
	if backend == "" {
		return false, fmt.Errorf("%w: backend", domain.ErrMissingParameter)
	}
	resp, err := c.get(ctx, backend+"/v1/kbs")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

// createdResource is the subset of the creation response the connector
// reads back.
type createdResource struct {
	UUID string `json:"uuid"`
}

// Upload implements driven.DestinationConnector. The filename travels
// base64-encoded in a header, as the upload endpoint expects; the response
// carries the uuid NucliaDB assigned to the new resource.
func (c *Connector) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	if c.kbPath == "" {
		return "", fmt.Errorf("%w: destination not initialized", domain.ErrInvalidInput)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.kbPath+"/upload", content)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("X-Filename", base64.StdEncoding.EncodeToString([]byte(filename)))
	req.Header.Set("Content-Type", "application/octet-stream")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload %s: status %d", filename, resp.StatusCode)
	}
	return createdUUID(resp.Body), nil
}

// UploadLink implements driven.LinkUploader: a link resource is created and
// NucliaDB fetches the content itself, replaying any extra headers.
func (c *Connector) UploadLink(ctx context.Context, filename string, link domain.Link) (string, error) {
	if c.kbPath == "" {
		return "", fmt.Errorf("%w: destination not initialized", domain.ErrInvalidInput)
	}

	payload := map[string]any{
		"title": filename,
		"links": map[string]any{
			"link": map[string]any{
				"uri":     link.URI,
				"headers": link.ExtraHeaders,
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal link resource: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.kbPath+"/resources", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create link request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload link %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload link %s: status %d", filename, resp.StatusCode)
	}
	return createdUUID(resp.Body), nil
}

// createdUUID extracts the assigned resource uuid from a creation response.
// A body the decoder cannot read yields an empty uuid rather than failing
// an upload that already succeeded.
func createdUUID(body io.Reader) string {
	var created createdResource
	if err := json.NewDecoder(body).Decode(&created); err != nil {
		return ""
	}
	return created.UUID
}

func (c *Connector) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nucliadb request: %w", err)
	}
	return resp, nil
}

func (c *Connector) authorize(req *http.Request) {
	if key := c.params["api_key"]; key != "" {
		req.Header.Set("X-Nuclia-Serviceaccount", "Bearer "+key)
	}
}
