package pdf_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/pdf"
)

func TestRenderer_EmptyHTML(t *testing.T) {
	r := pdf.NewRenderer(pdf.Config{Timeout: time.Second})
	defer r.Close()

	_, err := r.Render(context.Background(), "   \n")
	assert.Error(t, err)
}

func TestValidatePDF_RejectsGarbage(t *testing.T) {
	_, err := pdf.ValidatePDF([]byte("not a pdf"))
	assert.Error(t, err)

	_, err = pdf.ValidatePDF(nil)
	assert.Error(t, err)
}
