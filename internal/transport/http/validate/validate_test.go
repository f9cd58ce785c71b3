package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidISBN(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"978-0141439587", true},
		{"9780141439587", true},
		{"0-306-40615-2", true},
		{"080442957X", true},
		{"9780141439588", false},
		{"0306406153", false},
		{"12345", false},
		{"97801414395AB", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, ValidISBN(tc.in))
		})
	}
}
