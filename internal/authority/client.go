// Package authority implements the HTTP client for the external SRI
// authorization service.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/lifecycle"
)

const defaultTimeout = 30 * time.Second

// Config holds authority client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the external authorization service. All calls are
// blocking with a bounded timeout; transport errors surface to the
// lifecycle, which records them as document state.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an authority client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Submit sends a document for authorization
func (c *Client) Submit(ctx context.Context, payload map[string]interface{}) (*lifecycle.AuthorityResult, error) {
	return c.post(ctx, "/api/factura/create", payload)
}

// Verify asks for the current status of a previously submitted document
func (c *Client) Verify(ctx context.Context, req lifecycle.VerifyRequest) (*lifecycle.AuthorityResult, error) {
	// The endpoint spelling is the authority's wire contract
	return c.post(ctx, "/api/verififacion-documento", map[string]interface{}{
		"claveAcceso": req.ClaveAcceso,
		"ruc":         req.RUC,
		"documento":   req.Documento,
		"ambiente":    req.Ambiente,
		"fecha":       req.FechaEmision,
	})
}

// UploadCertificate registers a company signing certificate with the
// authorization service
func (c *Client) UploadCertificate(ctx context.Context, ruc, password, certBase64 string) (*lifecycle.AuthorityResult, error) {
	return c.post(ctx, "/api/subir-certificado", map[string]interface{}{
		"ruc":                  ruc,
		"certificado_password": password,
		"certificado_base64":   certBase64,
	})
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (*lifecycle.AuthorityResult, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authority request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	result := &lifecycle.AuthorityResult{
		HTTPStatus: resp.StatusCode,
		Raw:        string(raw),
	}
	// Non-JSON bodies still carry the raw text for persistence
	_ = json.Unmarshal(raw, &result.Body)

	return result, nil
}
