package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"savingscircle/internal/domain"
)

// tokenIssuer is the iss claim every circle token carries.
const tokenIssuer = "savingscircle"

// clockSkew tolerated between the issuing and verifying hosts.
const clockSkew = 5 * time.Second

type actorClaims struct {
	jwt.RegisteredClaims
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

type hmacKey []byte

func (k hmacKey) keyFunc(*jwt.Token) (any, error) { return []byte(k), nil }

type jwtIssuer struct {
	key hmacKey
	now func() time.Time
}

// NewJWTIssuer signs actor tokens with HS256.
func NewJWTIssuer(secret string) domain.TokenIssuer {
	return &jwtIssuer{key: hmacKey(secret), now: time.Now}
}

func (i *jwtIssuer) Issue(userID, email string, roles []string, expiry time.Duration) (string, error) {
	now := i.now()
	claims := actorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Email: email,
		Roles: roles,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.key))
	if err != nil {
		return "", fmt.Errorf("sign actor token: %w", err)
	}
	return signed, nil
}

type jwtVerifier struct {
	key    hmacKey
	parser *jwt.Parser
}

// NewJWTVerifier accepts HS256 tokens signed with secret by NewJWTIssuer.
func NewJWTVerifier(secret string) domain.TokenVerifier {
	return &jwtVerifier{
		key: hmacKey(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

func (v *jwtVerifier) Verify(raw string) (domain.Actor, error) {
	var claims actorClaims
	if _, err := v.parser.ParseWithClaims(raw, &claims, v.key.keyFunc); err != nil {
		return domain.Actor{}, fmt.Errorf("verify actor token: %w", err)
	}
	if claims.Subject == "" {
		return domain.Actor{}, errors.New("verify actor token: missing subject")
	}
	return domain.Actor{UserID: claims.Subject, Email: claims.Email, Roles: claims.Roles}, nil
}
