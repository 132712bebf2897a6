package room

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seastrike/seastrike-backend/internal/apperr"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "test1", want: "TEST1", ok: true},
		{in: "  friend42 ", want: "FRIEND42", ok: true},
		{in: "ABCDEFGH12", want: "ABCDEFGH12", ok: true},
		{in: "abc", ok: false},
		{in: "ABCDEFGHIJK", ok: false},
		{in: "ROOM-1", ok: false},
		{in: "", ok: false},
	}
	for _, test := range tests {
		got, err := NormalizeCode(test.in)
		if test.ok {
			require.NoError(t, err, test.in)
			require.Equal(t, test.want, got)
		} else {
			require.True(t, apperr.Is(err, apperr.KindValidation), test.in)
		}
	}
}

func TestGeneratedCodesAreValid(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		code := GenerateCode(rng)
		normalized, err := NormalizeCode(code)
		require.NoError(t, err)
		require.Equal(t, code, normalized)
	}
}
