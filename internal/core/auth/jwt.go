package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var ErrWrongKind = errors.New("wrong token kind")

type Claims struct {
	UID  string `json:"uid"`
	Role string `json:"role"` // MEMBER / LIBRARIAN / ADMIN
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

type JWTer struct {
	Secret     []byte
	Issuer     string
	TTL        time.Duration
	RefreshTTL time.Duration
}

type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (j *JWTer) Issue(uid, role string) (string, error) {
	return j.sign(uid, role, KindAccess, j.TTL)
}

// IssuePair signs an access token and a refresh token. The refresh token carries a
// unique id so that every rotation yields a distinct value.
func (j *JWTer) IssuePair(uid, role string) (Pair, error) {
	access, err := j.sign(uid, role, KindAccess, j.TTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := j.sign(uid, role, KindRefresh, j.RefreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (j *JWTer) sign(uid, role, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:  uid,
		Role: role,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.Issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// Parse validates an access token.
func (j *JWTer) Parse(tokenStr string) (*Claims, error) { return j.parse(tokenStr, KindAccess) }

func (j *JWTer) ParseRefresh(tokenStr string) (*Claims, error) {
	return j.parse(tokenStr, KindRefresh)
}

func (j *JWTer) parse(tokenStr, kind string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithLeeway(60*time.Second))

	if err != nil {
		return nil, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, errors.New("invalid token")
	}
	if c.Kind != kind {
		return nil, ErrWrongKind
	}
	return c, nil
}
