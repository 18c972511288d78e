package store_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/model"
	"github.com/dfalconiUTC/api-midd-facturacion/internal/store"
)

// documentStore is the surface shared by both store implementations
type documentStore interface {
	Lock(model.DocumentIdentity) func()
	Find(context.Context, model.DocumentIdentity) (*model.ElectronicDocument, error)
	Upsert(context.Context, *model.ElectronicDocument) error
	FindByClaveAcceso(context.Context, string) (*model.ElectronicDocument, error)
	FindCompanyByRUC(context.Context, string) (*model.Company, error)
	FindCompanyByID(context.Context, int64) (*model.Company, error)
	UpsertCompany(context.Context, *model.Company) error
	UpsertEmail(context.Context, *model.EmailRecord) error
}

func openStores(t *testing.T) map[string]documentStore {
	t.Helper()

	sqlite, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]documentStore{
		"memory": store.NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func sampleIdentity() model.DocumentIdentity {
	return model.DocumentIdentity{
		CompanyID:    7,
		DocumentType: model.DocumentTypeFactura,
		Estab:        "001",
		PtoEmi:       "001",
		Secuencial:   "000000123",
	}
}

func TestStore_FindAbsentReturnsNil(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			doc, err := s.Find(context.Background(), sampleIdentity())
			require.NoError(t, err)
			assert.Nil(t, doc)
		})
	}
}

func TestStore_UpsertInsertsThenUpdates(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			identity := sampleIdentity()

			doc := &model.ElectronicDocument{
				Identity:    identity,
				ClaveAcceso: "1807202601179001234500110010010000001231234567815",
				Estado:      model.StatusEnviado,
				JSONEnvio:   `{"infoTributaria":{}}`,
			}
			require.NoError(t, s.Upsert(ctx, doc))
			require.NotZero(t, doc.ID)
			firstID := doc.ID

			doc.Estado = model.StatusAutorizado
			doc.SyncedWithAuthority = true
			require.NoError(t, s.Upsert(ctx, doc))

			loaded, err := s.Find(ctx, identity)
			require.NoError(t, err)
			require.NotNil(t, loaded)

			assert.Equal(t, firstID, loaded.ID)
			assert.Equal(t, model.StatusAutorizado, loaded.Estado)
			assert.True(t, loaded.SyncedWithAuthority)
			assert.Equal(t, doc.ClaveAcceso, loaded.ClaveAcceso)
			assert.Equal(t, `{"infoTributaria":{}}`, loaded.JSONEnvio)
		})
	}
}

func TestStore_OneRecordPerIdentity(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			identity := sampleIdentity()

			for i := 0; i < 3; i++ {
				require.NoError(t, s.Upsert(ctx, &model.ElectronicDocument{
					Identity: identity,
					Estado:   model.StatusEnviado,
				}))
			}

			other := identity
			other.Secuencial = "000000124"
			require.NoError(t, s.Upsert(ctx, &model.ElectronicDocument{
				Identity: other,
				Estado:   model.StatusEnviado,
			}))

			first, err := s.Find(ctx, identity)
			require.NoError(t, err)
			second, err := s.Find(ctx, other)
			require.NoError(t, err)

			require.NotNil(t, first)
			require.NotNil(t, second)
			assert.NotEqual(t, first.ID, second.ID)
		})
	}
}

func TestStore_FindByClaveAcceso(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clave := "1807202601179001234500110010010000001231234567815"

			require.NoError(t, s.Upsert(ctx, &model.ElectronicDocument{
				Identity:    sampleIdentity(),
				ClaveAcceso: clave,
				Estado:      model.StatusAutorizado,
			}))

			doc, err := s.FindByClaveAcceso(ctx, clave)
			require.NoError(t, err)
			require.NotNil(t, doc)
			assert.Equal(t, sampleIdentity(), doc.Identity)

			missing, err := s.FindByClaveAcceso(ctx, "0000000000000000000000000000000000000000000000000")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

func TestStore_CompanyRoundTrip(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			company := &model.Company{
				CompanyID:   42,
				RUC:         "1790012345001",
				RazonSocial: "Andina Cia Ltda",
				Settings:    `{"smtp_user":"facturas@andina.ec"}`,
			}
			require.NoError(t, s.UpsertCompany(ctx, company))

			company.RazonSocial = "Andina Cia Ltda (actualizada)"
			company.SyncedWithAuthority = true
			require.NoError(t, s.UpsertCompany(ctx, company))

			byRUC, err := s.FindCompanyByRUC(ctx, "1790012345001")
			require.NoError(t, err)
			require.NotNil(t, byRUC)
			assert.Equal(t, "Andina Cia Ltda (actualizada)", byRUC.RazonSocial)
			assert.True(t, byRUC.SyncedWithAuthority)

			byID, err := s.FindCompanyByID(ctx, 42)
			require.NoError(t, err)
			require.NotNil(t, byID)
			assert.Equal(t, byRUC.ID, byID.ID)

			missing, err := s.FindCompanyByRUC(ctx, "9999999999001")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

func TestStore_UpsertEmail(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clave := "1807202601179001234500110010010000001231234567815"

			record := &model.EmailRecord{
				ElectronicDocumentID: 1,
				ClaveAcceso:          clave,
				Correo:               "cliente@example.com",
				Estado:               "ENVIADO",
			}
			require.NoError(t, s.UpsertEmail(ctx, record))

			record.Correo = "otro@example.com"
			require.NoError(t, s.UpsertEmail(ctx, record))
		})
	}
}

func TestStore_LockSerializesSameIdentity(t *testing.T) {
	s := store.NewMemoryStore()
	identity := sampleIdentity()

	var inCritical int
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.Lock(identity)
			defer unlock()

			inCritical++
			assert.Equal(t, 1, inCritical)
			inCritical--
		}()
	}
	wg.Wait()
}
