//go:build amd64 || arm64

package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntToUint32(t *testing.T) {
	tests := []struct {
		name    string
		in      int
		want    uint32
		wantErr bool
	}{
		{"zero", 0, 0, false},
		{"positive", 123, 123, false},
		{"max uint32", math.MaxUint32, math.MaxUint32, false},
		{"negative", -1, 0, true},
		{"too large", math.MaxUint32 + 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IntToUint32(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUint32ToInt(t *testing.T) {
	got, err := Uint32ToInt(math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, math.MaxUint32, got)
}

func TestMul(t *testing.T) {
	got, err := Mul(2, 3, 4, 8)
	require.NoError(t, err)
	assert.Equal(t, 192, got)

	got, err = Mul()
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = Mul(0, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	_, err = Mul(2, math.MaxUint32, math.MaxUint32, 8)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Mul(-1, 2)
	assert.ErrorIs(t, err, ErrOverflow)
}
