package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/storage"
)

const testClave = "1807202601179001234500110010010000001231234567815"

func TestFileStore_Layout(t *testing.T) {
	assert.Equal(t,
		filepath.Join("public", "xml", "1790012345001", testClave+".xml"),
		storage.XMLPath("1790012345001", testClave))
	assert.Equal(t,
		filepath.Join("public", "ride", "1790012345001", testClave+".pdf"),
		storage.RidePath("1790012345001", testClave))
	assert.Equal(t,
		filepath.Join("public", "logo", "1790012345001", "logo.png"),
		storage.LogoPath("1790012345001"))
}

func TestFileStore_SaveAndRead(t *testing.T) {
	s := storage.NewFileStore(t.TempDir(), nil)

	full, err := s.SaveXML("1790012345001", testClave, []byte("<factura/>"))
	require.NoError(t, err)

	written, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "<factura/>", string(written))

	content, err := s.Read(storage.XMLPath("1790012345001", testClave))
	require.NoError(t, err)
	assert.Equal(t, "<factura/>", string(content))

	assert.True(t, s.Exists(storage.XMLPath("1790012345001", testClave)))
	assert.False(t, s.Exists(storage.RidePath("1790012345001", testClave)))
}

func TestFileStore_RejectsEscapingPaths(t *testing.T) {
	s := storage.NewFileStore(t.TempDir(), nil)

	_, err := s.Read(filepath.Join("..", "..", "etc", "passwd"))
	assert.Error(t, err)
}
