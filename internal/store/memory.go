package store

import (
	"context"
	"sync"
	"time"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/model"
)

// MemoryStore keeps everything in process memory. Used by tests and by
// the CLI tools that do not need persistence.
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	documents map[model.DocumentIdentity]model.ElectronicDocument
	companies map[string]model.Company
	emails    map[string]model.EmailRecord
	locks     *identityLocks
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:    1,
		documents: map[model.DocumentIdentity]model.ElectronicDocument{},
		companies: map[string]model.Company{},
		emails:    map[string]model.EmailRecord{},
		locks:     newIdentityLocks(),
	}
}

// Lock serializes access to one document identity
func (s *MemoryStore) Lock(identity model.DocumentIdentity) func() {
	return s.locks.Lock(identity)
}

// Find loads the document for an identity, or (nil, nil) when absent
func (s *MemoryStore) Find(_ context.Context, identity model.DocumentIdentity) (*model.ElectronicDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[identity]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

// Upsert stores the document under its identity
func (s *MemoryStore) Upsert(_ context.Context, doc *model.ElectronicDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.documents[doc.Identity]; ok {
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
	} else {
		doc.ID = s.nextID
		s.nextID++
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	s.documents[doc.Identity] = *doc
	return nil
}

// FindByClaveAcceso loads a document by its access key
func (s *MemoryStore) FindByClaveAcceso(_ context.Context, clave string) (*model.ElectronicDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.documents {
		if doc.ClaveAcceso == clave {
			found := doc
			return &found, nil
		}
	}
	return nil, nil
}

// FindCompanyByRUC loads a company by its tax id, or (nil, nil)
func (s *MemoryStore) FindCompanyByRUC(_ context.Context, ruc string) (*model.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	company, ok := s.companies[ruc]
	if !ok {
		return nil, nil
	}
	return &company, nil
}

// FindCompanyByID loads a company by its external company id, or (nil, nil)
func (s *MemoryStore) FindCompanyByID(_ context.Context, companyID int64) (*model.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, company := range s.companies {
		if company.CompanyID == companyID {
			found := company
			return &found, nil
		}
	}
	return nil, nil
}

// UpsertCompany stores the company under its RUC
func (s *MemoryStore) UpsertCompany(_ context.Context, company *model.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.companies[company.RUC]; ok {
		company.ID = existing.ID
		company.CreatedAt = existing.CreatedAt
	} else {
		company.ID = s.nextID
		s.nextID++
		company.CreatedAt = now
	}
	company.UpdatedAt = now
	s.companies[company.RUC] = *company
	return nil
}

// UpsertEmail records a notification keyed by access key
func (s *MemoryStore) UpsertEmail(_ context.Context, record *model.EmailRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.emails[record.ClaveAcceso]; ok {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	} else {
		record.ID = s.nextID
		s.nextID++
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	s.emails[record.ClaveAcceso] = *record
	return nil
}
