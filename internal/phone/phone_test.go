package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer("254")

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"leading zero", "0712345678", "254712345678"},
		{"already international", "+254712345678", "254712345678"},
		{"bare subscriber number", "712345678", "254712345678"},
		{"spaces and dashes", "0712-345 678", "254712345678"},
		{"country code without plus", "254712345678", "254712345678"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := n.Normalize(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeRejectsShortNumbers(t *testing.T) {
	n := NewNormalizer("254")

	for _, in := range []string{"", "07123", "12", "---"} {
		_, err := n.Normalize(in)
		assert.Error(t, err, "input %q", in)
	}
}
