package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newJWTer() *JWTer {
	return &JWTer{Secret: []byte("test-secret"), Issuer: "library-test", TTL: time.Minute, RefreshTTL: time.Hour}
}

func TestIssueAndParse(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue("u1", "LIBRARIAN")
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, "u1", c.UID)
	require.Equal(t, "LIBRARIAN", c.Role)
	require.Equal(t, KindAccess, c.Kind)
}

func TestPairKindsAreNotInterchangeable(t *testing.T) {
	j := newJWTer()
	p, err := j.IssuePair("u1", "MEMBER")
	require.NoError(t, err)

	_, err = j.Parse(p.RefreshToken)
	require.ErrorIs(t, err, ErrWrongKind)
	_, err = j.ParseRefresh(p.AccessToken)
	require.ErrorIs(t, err, ErrWrongKind)

	c, err := j.ParseRefresh(p.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "u1", c.UID)

	p2, err := j.IssuePair("u1", "MEMBER")
	require.NoError(t, err)
	require.NotEqual(t, p.RefreshToken, p2.RefreshToken)
}

func TestParse_Rejects(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue("u1", "MEMBER")
	require.NoError(t, err)

	other := newJWTer()
	other.Secret = []byte("another")
	_, err = other.Parse(tok)
	require.Error(t, err)

	other = newJWTer()
	other.Issuer = "someone-else"
	_, err = other.Parse(tok)
	require.Error(t, err)

	expired := newJWTer()
	expired.TTL = -2 * time.Minute
	tok, err = expired.Issue("u1", "MEMBER")
	require.NoError(t, err)
	_, err = j.Parse(tok)
	require.Error(t, err)
}
