package barcode_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/barcode"
)

func TestCode128Encoder_Encode(t *testing.T) {
	enc := barcode.NewCode128Encoder()

	data, err := enc.Encode("1807202601179001234500110010010000001231234567815")
	require.NoError(t, err)
	require.NotEmpty(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, enc.Width, img.Bounds().Dx())
	assert.Equal(t, enc.Height, img.Bounds().Dy())
}

func TestCode128Encoder_EmptyInput(t *testing.T) {
	enc := barcode.NewCode128Encoder()
	_, err := enc.Encode("")
	assert.Error(t, err)
}

func TestCode128Encoder_Deterministic(t *testing.T) {
	enc := barcode.NewCode128Encoder()

	first, err := enc.Encode("0550080774001")
	require.NoError(t, err)
	second, err := enc.Encode("0550080774001")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
