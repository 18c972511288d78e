package authority_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/authority"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/lifecycle"
)

func TestClient_Submit(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"estado":"AUTORIZADO"}}`))
	}))
	defer srv.Close()

	client := authority.NewClient(authority.Config{BaseURL: srv.URL})

	result, err := client.Submit(context.Background(), map[string]interface{}{
		"infoTributaria": map[string]interface{}{"ruc": "1790012345001"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/factura/create", gotPath)
	assert.Equal(t, "1790012345001", gotBody["infoTributaria"].(map[string]interface{})["ruc"])
	assert.Equal(t, http.StatusOK, result.HTTPStatus)
	assert.Equal(t, "AUTORIZADO", result.Estado())
	assert.Equal(t, `{"data":{"estado":"AUTORIZADO"}}`, result.Raw)
}

func TestClient_Verify(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"data":{"estado":"EN PROCESO"}}`))
	}))
	defer srv.Close()

	client := authority.NewClient(authority.Config{BaseURL: srv.URL})

	result, err := client.Verify(context.Background(), lifecycle.VerifyRequest{
		ClaveAcceso:  "1807202601179001234500110010010000001231234567815",
		RUC:          "1790012345001",
		Documento:    "001-001-000000123",
		Ambiente:     "1",
		FechaEmision: "18/07/2026",
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/verififacion-documento", gotPath)
	assert.Equal(t, "001-001-000000123", gotBody["documento"])
	assert.Equal(t, "EN PROCESO", result.Estado())
}

func TestClient_UploadCertificate(t *testing.T) {
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"data":{"respuesta":"OK"}}`))
	}))
	defer srv.Close()

	client := authority.NewClient(authority.Config{BaseURL: srv.URL})

	result, err := client.UploadCertificate(context.Background(), "1790012345001", "secret", "QkFTRTY0")
	require.NoError(t, err)

	assert.Equal(t, "1790012345001", gotBody["ruc"])
	assert.Equal(t, "secret", gotBody["certificado_password"])
	assert.Equal(t, "OK", result.Estado())
}

func TestClient_NonJSONBodyKeptRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	client := authority.NewClient(authority.Config{BaseURL: srv.URL})

	result, err := client.Submit(context.Background(), map[string]interface{}{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadGateway, result.HTTPStatus)
	assert.Equal(t, "upstream unavailable", result.Raw)
	assert.Empty(t, result.Estado())
}

func TestClient_TransportError(t *testing.T) {
	client := authority.NewClient(authority.Config{
		BaseURL: "http://127.0.0.1:1",
		Timeout: 500 * time.Millisecond,
	})

	_, err := client.Submit(context.Background(), map[string]interface{}{})
	assert.Error(t, err)
}

func TestClient_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := authority.NewClient(authority.Config{BaseURL: srv.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Submit(ctx, map[string]interface{}{})
	assert.Error(t, err)
}
