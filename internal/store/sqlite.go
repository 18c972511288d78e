// Package store persists companies, electronic documents and email
// notifications. The document store honors the lifecycle contract:
// read-then-write atomicity per document identity via Lock.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS company (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	company_id INTEGER NOT NULL,
	ruc TEXT NOT NULL UNIQUE,
	razon_social TEXT NOT NULL DEFAULT '',
	certificado_nombre TEXT NOT NULL DEFAULT '',
	certificado_path TEXT NOT NULL DEFAULT '',
	certificado_password TEXT NOT NULL DEFAULT '',
	logo TEXT NOT NULL DEFAULT '',
	sync_api INTEGER NOT NULL DEFAULT 0,
	response_api TEXT NOT NULL DEFAULT '',
	settings TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS electronic_document (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	company_id INTEGER NOT NULL,
	tipo_documento TEXT NOT NULL,
	estab TEXT NOT NULL,
	pto_emi TEXT NOT NULL,
	secuencial TEXT NOT NULL,
	clave_acceso TEXT NOT NULL DEFAULT '',
	estado TEXT NOT NULL DEFAULT '',
	json_envio TEXT NOT NULL DEFAULT '',
	json_respuesta TEXT NOT NULL DEFAULT '',
	sync_api INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE(company_id, tipo_documento, estab, pto_emi, secuencial)
);

CREATE TABLE IF NOT EXISTS email (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	electronic_document_id INTEGER NOT NULL,
	clave_acceso TEXT NOT NULL UNIQUE,
	correo TEXT NOT NULL,
	settings TEXT NOT NULL DEFAULT '',
	estado TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// SQLiteStore is the sqlite-backed store
type SQLiteStore struct {
	db    *sql.DB
	locks *identityLocks
}

// OpenSQLite opens (and migrates) a sqlite database at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db, locks: newIdentityLocks()}, nil
}

// Close releases the underlying database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Lock serializes access to one document identity
func (s *SQLiteStore) Lock(identity model.DocumentIdentity) func() {
	return s.locks.Lock(identity)
}

// Find loads the document for an identity, or (nil, nil) when absent
func (s *SQLiteStore) Find(ctx context.Context, identity model.DocumentIdentity) (*model.ElectronicDocument, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, clave_acceso, estado, json_envio, json_respuesta, sync_api, created_at, updated_at
		FROM electronic_document
		WHERE company_id = ? AND tipo_documento = ? AND estab = ? AND pto_emi = ? AND secuencial = ?`,
		identity.CompanyID, identity.DocumentType, identity.Estab, identity.PtoEmi, identity.Secuencial)

	doc := &model.ElectronicDocument{Identity: identity}
	var sync int
	err := row.Scan(&doc.ID, &doc.ClaveAcceso, &doc.Estado, &doc.JSONEnvio,
		&doc.JSONRespuesta, &sync, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	doc.SyncedWithAuthority = sync == 1
	return doc, nil
}

// Upsert inserts the document or updates the existing row for its
// identity, preserving the one-record-per-identity invariant
func (s *SQLiteStore) Upsert(ctx context.Context, doc *model.ElectronicDocument) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO electronic_document
			(company_id, tipo_documento, estab, pto_emi, secuencial,
			 clave_acceso, estado, json_envio, json_respuesta, sync_api, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, tipo_documento, estab, pto_emi, secuencial) DO UPDATE SET
			clave_acceso = excluded.clave_acceso,
			estado = excluded.estado,
			json_envio = excluded.json_envio,
			json_respuesta = excluded.json_respuesta,
			sync_api = excluded.sync_api,
			updated_at = excluded.updated_at`,
		doc.Identity.CompanyID, doc.Identity.DocumentType, doc.Identity.Estab,
		doc.Identity.PtoEmi, doc.Identity.Secuencial,
		doc.ClaveAcceso, doc.Estado, doc.JSONEnvio, doc.JSONRespuesta,
		boolToInt(doc.SyncedWithAuthority), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	if doc.ID == 0 {
		if id, err := res.LastInsertId(); err == nil && id > 0 {
			doc.ID = id
		}
	}
	return nil
}

// FindByClaveAcceso loads a document by its access key
func (s *SQLiteStore) FindByClaveAcceso(ctx context.Context, clave string) (*model.ElectronicDocument, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, tipo_documento, estab, pto_emi, secuencial,
		       clave_acceso, estado, json_envio, json_respuesta, sync_api, created_at, updated_at
		FROM electronic_document WHERE clave_acceso = ?`, clave)

	doc := &model.ElectronicDocument{}
	var sync int
	err := row.Scan(&doc.ID, &doc.Identity.CompanyID, &doc.Identity.DocumentType,
		&doc.Identity.Estab, &doc.Identity.PtoEmi, &doc.Identity.Secuencial,
		&doc.ClaveAcceso, &doc.Estado, &doc.JSONEnvio, &doc.JSONRespuesta,
		&sync, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find document by clave: %w", err)
	}
	doc.SyncedWithAuthority = sync == 1
	return doc, nil
}

// FindCompanyByRUC loads a company by its tax id, or (nil, nil)
func (s *SQLiteStore) FindCompanyByRUC(ctx context.Context, ruc string) (*model.Company, error) {
	return s.scanCompany(s.db.QueryRowContext(ctx, companySelect+` WHERE ruc = ?`, ruc))
}

// FindCompanyByID loads a company by its external company id, or (nil, nil)
func (s *SQLiteStore) FindCompanyByID(ctx context.Context, companyID int64) (*model.Company, error) {
	return s.scanCompany(s.db.QueryRowContext(ctx, companySelect+` WHERE company_id = ?`, companyID))
}

const companySelect = `
	SELECT id, company_id, ruc, razon_social, certificado_nombre, certificado_path,
	       certificado_password, logo, sync_api, response_api, settings, created_at, updated_at
	FROM company`

func (s *SQLiteStore) scanCompany(row *sql.Row) (*model.Company, error) {
	company := &model.Company{}
	var sync int
	err := row.Scan(&company.ID, &company.CompanyID, &company.RUC, &company.RazonSocial,
		&company.CertificadoNombre, &company.CertificadoPath, &company.CertificadoPassword,
		&company.Logo, &sync, &company.ResponseAPI, &company.Settings,
		&company.CreatedAt, &company.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find company: %w", err)
	}
	company.SyncedWithAuthority = sync == 1
	return company, nil
}

// UpsertCompany inserts or updates the company registered for its RUC
func (s *SQLiteStore) UpsertCompany(ctx context.Context, company *model.Company) error {
	now := time.Now().UTC()
	if company.CreatedAt.IsZero() {
		company.CreatedAt = now
	}
	company.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO company
			(company_id, ruc, razon_social, certificado_nombre, certificado_path,
			 certificado_password, logo, sync_api, response_api, settings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ruc) DO UPDATE SET
			company_id = excluded.company_id,
			razon_social = excluded.razon_social,
			certificado_nombre = excluded.certificado_nombre,
			certificado_path = excluded.certificado_path,
			certificado_password = excluded.certificado_password,
			logo = excluded.logo,
			sync_api = excluded.sync_api,
			response_api = excluded.response_api,
			settings = excluded.settings,
			updated_at = excluded.updated_at`,
		company.CompanyID, company.RUC, company.RazonSocial, company.CertificadoNombre,
		company.CertificadoPath, company.CertificadoPassword, company.Logo,
		boolToInt(company.SyncedWithAuthority), company.ResponseAPI, company.Settings,
		company.CreatedAt, company.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}

	if company.ID == 0 {
		if id, err := res.LastInsertId(); err == nil && id > 0 {
			company.ID = id
		}
	}
	return nil
}

// UpsertEmail records a notification keyed by access key
func (s *SQLiteStore) UpsertEmail(ctx context.Context, record *model.EmailRecord) error {
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email
			(electronic_document_id, clave_acceso, correo, settings, estado, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(clave_acceso) DO UPDATE SET
			electronic_document_id = excluded.electronic_document_id,
			correo = excluded.correo,
			settings = excluded.settings,
			estado = excluded.estado,
			updated_at = excluded.updated_at`,
		record.ElectronicDocumentID, record.ClaveAcceso, record.Correo,
		record.Settings, record.Estado, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert email: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
