// Package server exposes the facturación middleware HTTP API.
package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/barcode"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/lifecycle"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/mail"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/model"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/ride"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/storage"
)

// Config holds server configuration
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
}

// Store is the persistence surface the API needs
type Store interface {
	lifecycle.RecordStore
	Lock(identity model.DocumentIdentity) func()
	FindByClaveAcceso(ctx context.Context, clave string) (*model.ElectronicDocument, error)
	FindCompanyByRUC(ctx context.Context, ruc string) (*model.Company, error)
	FindCompanyByID(ctx context.Context, companyID int64) (*model.Company, error)
	UpsertCompany(ctx context.Context, company *model.Company) error
	UpsertEmail(ctx context.Context, record *model.EmailRecord) error
}

// CertificateUploader forwards signing certificates to the authority
type CertificateUploader interface {
	UploadCertificate(ctx context.Context, ruc, password, certBase64 string) (*lifecycle.AuthorityResult, error)
}

// PageRenderer converts HTML to PDF bytes
type PageRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// MailSender delivers notification emails
type MailSender interface {
	Send(settings mail.SMTPSettings, notification mail.Notification) error
}

// Deps are the collaborators wired into the server
type Deps struct {
	Store     Store
	Lifecycle *lifecycle.Service
	Uploader  CertificateUploader
	Files     *storage.FileStore
	Renderer  PageRenderer
	Mailer    MailSender
	Logger    *zap.Logger
}

// Server is the HTTP API server
type Server struct {
	config  *Config
	router  *gin.Engine
	deps    Deps
	encoder ride.BarcodeEncoder
	logger  *zap.Logger
}

// NewServer creates the API server
func NewServer(config *Config, deps Deps) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config:  config,
		router:  router,
		deps:    deps,
		encoder: barcode.NewCode128Encoder(),
		logger:  logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.POST("/company", s.handleCompany)

		factura := api.Group("/factura")
		{
			factura.POST("/envio", s.handleEnvio)
			factura.POST("/consulta-ride", s.handleConsultaRide)
			factura.POST("/notificacion-correo", s.handleNotificacion)
		}
	}
}

// shutdownGrace bounds how long in-flight requests may run after a
// shutdown is requested
const shutdownGrace = 10 * time.Second

// Run starts the HTTP server and blocks until it fails
func (s *Server) Run() error {
	return s.RunContext(context.Background())
}

// RunContext starts the HTTP server and serves until ctx is cancelled,
// then drains in-flight requests before returning so deferred cleanup
// in the caller still runs.
func (s *Server) RunContext(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleCompany registers or updates an issuing company. When a signing
// certificate is supplied it is stored locally and forwarded to the
// authority.
func (s *Server) handleCompany(c *gin.Context) {
	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.RUC) != 13 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ruc must have 13 digits"})
		return
	}

	ctx := c.Request.Context()

	company, err := s.deps.Store.FindCompanyByRUC(ctx, req.RUC)
	if err != nil {
		s.fail(c, "find company", err)
		return
	}
	if company == nil {
		company = &model.Company{RUC: req.RUC}
	}
	company.CompanyID = req.CompanyID
	if req.RazonSocial != "" {
		company.RazonSocial = req.RazonSocial
	}
	if req.Settings != "" {
		company.Settings = req.Settings
	}

	if req.LogoBase64 != "" {
		logo, err := base64.StdEncoding.DecodeString(req.LogoBase64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "logo_base64 is not valid base64"})
			return
		}
		path, err := s.deps.Files.SaveLogo(req.RUC, logo)
		if err != nil {
			s.fail(c, "save logo", err)
			return
		}
		company.Logo = path
	}

	if req.CertificadoBase64 != "" {
		cert, err := base64.StdEncoding.DecodeString(req.CertificadoBase64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "certificado_base64 is not valid base64"})
			return
		}
		name := req.CertificadoNombre
		if name == "" {
			name = "firma.p12"
		}
		path, err := s.deps.Files.SaveCertificate(req.RUC, name, cert)
		if err != nil {
			s.fail(c, "save certificate", err)
			return
		}
		company.CertificadoNombre = name
		company.CertificadoPath = path
		company.CertificadoPassword = req.CertificadoPassword

		if s.deps.Uploader != nil {
			result, err := s.deps.Uploader.UploadCertificate(ctx, req.RUC, req.CertificadoPassword, req.CertificadoBase64)
			if err != nil {
				company.SyncedWithAuthority = false
				company.ResponseAPI = fmt.Sprintf(`{"error":%q}`, err.Error())
			} else {
				company.SyncedWithAuthority = result.HTTPStatus >= 200 && result.HTTPStatus < 300
				company.ResponseAPI = result.Raw
			}
		}
	}

	if err := s.deps.Store.UpsertCompany(ctx, company); err != nil {
		s.fail(c, "upsert company", err)
		return
	}

	s.logger.Info("company registered",
		zap.String("ruc", company.RUC),
		zap.Bool("sync_api", company.SyncedWithAuthority))

	c.JSON(http.StatusOK, CompanyResponse{
		ID:          company.ID,
		CompanyID:   company.CompanyID,
		RUC:         company.RUC,
		RazonSocial: company.RazonSocial,
		Synced:      company.SyncedWithAuthority,
		ResponseAPI: company.ResponseAPI,
	})
}

// handleEnvio submits a document or refreshes the state of an already
// submitted one. The store lock serializes concurrent calls for the
// same document identity.
func (s *Server) handleEnvio(c *gin.Context) {
	var req EnvioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	company, err := s.deps.Store.FindCompanyByRUC(ctx, req.RUC)
	if err != nil {
		s.fail(c, "find company", err)
		return
	}
	if company == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "company is not registered"})
		return
	}

	identity := model.DocumentIdentity{
		CompanyID:    company.CompanyID,
		DocumentType: model.DocumentTypeFactura,
		Estab:        req.Estab,
		PtoEmi:       req.PtoEmi,
		Secuencial:   req.Secuencial,
	}

	unlock := s.deps.Store.Lock(identity)
	defer unlock()

	doc, err := s.deps.Lifecycle.SubmitOrRefresh(ctx, lifecycle.SubmitRequest{
		Identity:     identity,
		RUC:          req.RUC,
		Ambiente:     req.Ambiente,
		FechaEmision: req.FechaEmision,
		TipoEmision:  req.TipoEmision,
		Payload:      req.Factura,
	})
	if err != nil {
		var fieldErr *model.FieldError
		var keyErr *model.KeyIntegrityError
		switch {
		case errors.As(err, &fieldErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.As(err, &keyErr):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			s.fail(c, "submit document", err)
		}
		return
	}

	// Persist the authorized XML alongside the record, best effort
	if doc.Estado.IsAuthorized() {
		if xmlText, err := ride.ComprobanteXML(doc.JSONRespuesta); err == nil {
			if _, err := s.deps.Files.SaveXML(req.RUC, doc.ClaveAcceso, []byte(xmlText)); err != nil {
				s.logger.Warn("save xml artifact failed",
					zap.String("clave_acceso", doc.ClaveAcceso), zap.Error(err))
			}
		}
	}

	s.logger.Info("document processed",
		zap.String("numero", identity.Numero()),
		zap.String("clave_acceso", doc.ClaveAcceso),
		zap.String("estado", string(doc.Estado)))

	c.JSON(http.StatusOK, DocumentResponse{
		ID:          doc.ID,
		Numero:      identity.Numero(),
		ClaveAcceso: doc.ClaveAcceso,
		Estado:      doc.Estado,
		Synced:      doc.SyncedWithAuthority,
	})
}

// handleConsultaRide builds the printable representation of an
// authorized document
func (s *Server) handleConsultaRide(c *gin.Context) {
	var req RideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	doc, company, ok := s.loadAuthorized(c, req.ClaveAcceso)
	if !ok {
		return
	}

	rideDoc, err := ride.FromStoredResponse(doc.JSONRespuesta)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	printable, err := ride.Render(rideDoc, s.encoder)
	if err != nil {
		s.fail(c, "render document", err)
		return
	}

	resp := RideResponse{
		Numero:      doc.Identity.Numero(),
		ClaveAcceso: doc.ClaveAcceso,
		Document:    printable,
	}

	if s.deps.Renderer != nil {
		path, err := s.ensureRidePDF(ctx, company.RUC, doc.ClaveAcceso, printable)
		if err != nil {
			s.logger.Warn("ride pdf generation failed",
				zap.String("clave_acceso", doc.ClaveAcceso), zap.Error(err))
		} else {
			resp.RidePath = path
		}
	}

	c.JSON(http.StatusOK, resp)
}

// handleNotificacion emails the authorized XML and its printable PDF
// to the given recipient
func (s *Server) handleNotificacion(c *gin.Context) {
	var req NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	doc, company, ok := s.loadAuthorized(c, req.ClaveAcceso)
	if !ok {
		return
	}

	settings, err := mail.SettingsFromCompany(company)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	xmlPath, err := s.ensureXML(company.RUC, doc)
	if err != nil {
		s.fail(c, "prepare xml attachment", err)
		return
	}

	var pdfPath string
	if s.deps.Renderer != nil {
		rideDoc, err := ride.FromStoredResponse(doc.JSONRespuesta)
		if err == nil {
			if printable, err := ride.Render(rideDoc, s.encoder); err == nil {
				pdfPath, err = s.ensureRidePDF(ctx, company.RUC, doc.ClaveAcceso, printable)
				if err != nil {
					s.logger.Warn("ride pdf generation failed",
						zap.String("clave_acceso", doc.ClaveAcceso), zap.Error(err))
				}
			}
		}
	}

	record := &model.EmailRecord{
		ElectronicDocumentID: doc.ID,
		ClaveAcceso:          doc.ClaveAcceso,
		Correo:               req.Correo,
		Estado:               "ENVIADO",
	}

	sendErr := s.deps.Mailer.Send(settings, mail.Notification{
		To:          req.Correo,
		RazonSocial: company.RazonSocial,
		Numero:      doc.Identity.Numero(),
		ClaveAcceso: doc.ClaveAcceso,
		XMLPath:     xmlPath,
		PDFPath:     pdfPath,
	})
	if sendErr != nil {
		record.Estado = "ERROR"
	}

	if err := s.deps.Store.UpsertEmail(ctx, record); err != nil {
		s.fail(c, "record notification", err)
		return
	}

	if sendErr != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": sendErr.Error(), "estado": record.Estado})
		return
	}

	c.JSON(http.StatusOK, NotificationResponse{
		ClaveAcceso: doc.ClaveAcceso,
		Correo:      req.Correo,
		Estado:      record.Estado,
	})
}

// loadAuthorized resolves a clave de acceso to its authorized document
// and issuing company, writing the error response on failure
func (s *Server) loadAuthorized(c *gin.Context, claveAcceso string) (*model.ElectronicDocument, *model.Company, bool) {
	ctx := c.Request.Context()

	doc, err := s.deps.Store.FindByClaveAcceso(ctx, claveAcceso)
	if err != nil {
		s.fail(c, "find document", err)
		return nil, nil, false
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return nil, nil, false
	}
	if !doc.Estado.IsAuthorized() {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "document is not authorized",
			"estado": doc.Estado,
		})
		return nil, nil, false
	}

	company, err := s.deps.Store.FindCompanyByID(ctx, doc.Identity.CompanyID)
	if err != nil {
		s.fail(c, "find company", err)
		return nil, nil, false
	}
	if company == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "issuing company is not registered"})
		return nil, nil, false
	}
	return doc, company, true
}

// ensureXML writes the authorized comprobante XML artifact if missing
// and returns its absolute path
func (s *Server) ensureXML(ruc string, doc *model.ElectronicDocument) (string, error) {
	rel := storage.XMLPath(ruc, doc.ClaveAcceso)
	if s.deps.Files.Exists(rel) {
		return s.deps.Files.FullPath(rel)
	}
	xmlText, err := ride.ComprobanteXML(doc.JSONRespuesta)
	if err != nil {
		return "", err
	}
	return s.deps.Files.SaveXML(ruc, doc.ClaveAcceso, []byte(xmlText))
}

// ensureRidePDF renders and stores the printable PDF if missing and
// returns its absolute path
func (s *Server) ensureRidePDF(ctx context.Context, ruc, claveAcceso string, printable *ride.Document) (string, error) {
	rel := storage.RidePath(ruc, claveAcceso)
	if s.deps.Files.Exists(rel) {
		return s.deps.Files.FullPath(rel)
	}
	html, err := ride.HTML(printable)
	if err != nil {
		return "", err
	}
	pdfBytes, err := s.deps.Renderer.Render(ctx, html)
	if err != nil {
		return "", err
	}
	return s.deps.Files.SaveRide(ruc, claveAcceso, pdfBytes)
}

func (s *Server) fail(c *gin.Context, action string, err error) {
	s.logger.Error(action+" failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
