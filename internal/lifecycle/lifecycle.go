// Package lifecycle orchestrates the authorization state machine for
// electronic documents: lookup, re-verification against the authority,
// submission with a freshly minted access key, and persistence intent.
//
// The package never retries and never logs; transport failures become
// recorded document state so the caller decides what to do next.
package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/clave"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/model"
)

// AuthorityResult is the outcome of a call to the external authority
type AuthorityResult struct {
	HTTPStatus int
	Body       map[string]interface{}
	Raw        string
}

// Estado extracts the authority-level status from the response body.
// The authority reports it under data.estado, older deployments under
// data.respuesta. Empty when neither is present.
func (r *AuthorityResult) Estado() string {
	if r == nil || r.Body == nil {
		return ""
	}
	data, ok := r.Body["data"].(map[string]interface{})
	if !ok {
		return ""
	}
	if estado, ok := data["estado"].(string); ok && estado != "" {
		return estado
	}
	if respuesta, ok := data["respuesta"].(string); ok && respuesta != "" {
		return respuesta
	}
	return ""
}

// VerifyRequest identifies a previously submitted document at the authority
type VerifyRequest struct {
	ClaveAcceso  string
	RUC          string
	Documento    string // estab-ptoEmi-secuencial
	Ambiente     string
	FechaEmision string
}

// AuthorityClient is the external authorization service
type AuthorityClient interface {
	Submit(ctx context.Context, payload map[string]interface{}) (*AuthorityResult, error)
	Verify(ctx context.Context, req VerifyRequest) (*AuthorityResult, error)
}

// RecordStore persists electronic documents. Find returns (nil, nil)
// when no record exists. Implementations must serialize Find/Upsert
// sequences per identity; calls for different identities may run in
// parallel.
type RecordStore interface {
	Find(ctx context.Context, identity model.DocumentIdentity) (*model.ElectronicDocument, error)
	Upsert(ctx context.Context, doc *model.ElectronicDocument) error
}

// SubmitRequest carries one submission attempt for a document identity
type SubmitRequest struct {
	Identity     model.DocumentIdentity
	RUC          string
	Ambiente     string
	FechaEmision string // d/m/Y
	TipoEmision  string
	Payload      map[string]interface{}
}

// Service drives the document authorization lifecycle
type Service struct {
	store     RecordStore
	authority AuthorityClient
}

// NewService creates a lifecycle service over the given collaborators
func NewService(store RecordStore, authority AuthorityClient) *Service {
	return &Service{
		store:     store,
		authority: authority,
	}
}

// SubmitOrRefresh loads the record for the request identity and decides
// whether to return it unchanged, refresh its status with the authority,
// or submit it with a freshly minted access key. Exactly one record
// exists per identity after any number of calls, and the outbound
// payload of an AUTORIZADO record is never overwritten.
func (s *Service) SubmitOrRefresh(ctx context.Context, req SubmitRequest) (*model.ElectronicDocument, error) {
	existing, err := s.store.Find(ctx, req.Identity)
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}

	// Terminal state: no network call, no re-mint
	if existing != nil && existing.Estado.IsAuthorized() {
		return existing, nil
	}

	if existing != nil && existing.ClaveAcceso != "" {
		if !clave.Validate(existing.ClaveAcceso) {
			return nil, model.NewKeyIntegrityError(existing.ClaveAcceso)
		}

		refreshed, err := s.refresh(ctx, existing, req)
		if err != nil {
			return nil, err
		}
		if refreshed != nil {
			return refreshed, nil
		}
		// A failed verification must not block a fresh submission
	}

	return s.submit(ctx, existing, req)
}

// refresh asks the authority for the current status of an already
// submitted document. Returns (nil, nil) on any verification outcome
// other than a confirmed authorization, including transport failure.
// A persistence failure after a confirmed authorization is an error:
// the document must never be resubmitted once the authority has
// authorized it.
func (s *Service) refresh(ctx context.Context, existing *model.ElectronicDocument, req SubmitRequest) (*model.ElectronicDocument, error) {
	result, err := s.authority.Verify(ctx, VerifyRequest{
		ClaveAcceso:  existing.ClaveAcceso,
		RUC:          req.RUC,
		Documento:    req.Identity.Numero(),
		Ambiente:     req.Ambiente,
		FechaEmision: req.FechaEmision,
	})
	if err != nil || result.Estado() != string(model.StatusAutorizado) {
		return nil, nil
	}

	existing.Estado = model.StatusAutorizado
	existing.JSONRespuesta = result.Raw
	existing.SyncedWithAuthority = true

	if err := s.store.Upsert(ctx, existing); err != nil {
		return nil, fmt.Errorf("upsert document: %w", err)
	}
	return existing, nil
}

// submit mints a fresh access key, injects it into the payload, and
// sends the document to the authority. The outcome is recorded, never
// thrown: transport failures become ERROR_CONEXION state.
func (s *Service) submit(ctx context.Context, existing *model.ElectronicDocument, req SubmitRequest) (*model.ElectronicDocument, error) {
	tipoEmision := req.TipoEmision
	if tipoEmision == "" {
		tipoEmision = "1"
	}

	key, err := clave.Mint(model.AccessKeyFields{
		FechaEmision: req.FechaEmision,
		CodDoc:       model.CodeFactura,
		RUC:          req.RUC,
		Ambiente:     req.Ambiente,
		Estab:        req.Identity.Estab,
		PtoEmi:       req.Identity.PtoEmi,
		Secuencial:   req.Identity.Secuencial,
		NumericCode:  clave.NumericCode(),
		TipoEmision:  tipoEmision,
	})
	if err != nil {
		return nil, err
	}

	payload := injectClave(req.Payload, key)

	envio, err := json.Marshal(payload)
	if err != nil {
		return nil, model.NewFieldError("payload", nil, "payload is not serializable")
	}

	estado := model.StatusError
	synced := false
	var respuesta string

	result, submitErr := s.authority.Submit(ctx, payload)
	if submitErr != nil {
		estado = model.StatusErrorConexion
		respuesta = fmt.Sprintf(`{"error":%q}`, submitErr.Error())
	} else {
		if e := result.Estado(); e != "" {
			estado = model.DocumentStatus(e)
		}
		synced = result.HTTPStatus >= 200 && result.HTTPStatus < 300
		respuesta = result.Raw
	}

	doc := existing
	if doc == nil {
		doc = &model.ElectronicDocument{Identity: req.Identity}
	}
	doc.ClaveAcceso = key
	doc.JSONEnvio = string(envio)
	doc.JSONRespuesta = respuesta
	doc.Estado = estado
	doc.SyncedWithAuthority = synced

	if err := s.store.Upsert(ctx, doc); err != nil {
		return nil, fmt.Errorf("upsert document: %w", err)
	}
	return doc, nil
}

// injectClave sets infoTributaria.claveAcceso on a copy of the payload
func injectClave(payload map[string]interface{}, key string) map[string]interface{} {
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		out[k] = v
	}

	info, ok := out["infoTributaria"].(map[string]interface{})
	if !ok {
		info = map[string]interface{}{}
	} else {
		copied := make(map[string]interface{}, len(info))
		for k, v := range info {
			copied[k] = v
		}
		info = copied
	}
	info["claveAcceso"] = key
	out["infoTributaria"] = info

	return out
}
