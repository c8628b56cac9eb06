package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Erebuzzz/tea-tracker/models"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const verifierLeeway = 30 * time.Second

// IdentityVerifier validates ID tokens issued by the external identity
// provider against its JWKS endpoint. Authentication itself is entirely the
// provider's business; the app only ever sees a signed token.
type IdentityVerifier struct {
	issuer   string
	audience string
	keyfunc  keyfunc.Keyfunc
	parser   *jwt.Parser
}

// IdentityClaims is the subset of provider claims the app cares about.
type IdentityClaims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// NewIdentityVerifier builds a verifier from the configured issuer and
// audience, defaulting the JWKS URL to the provider's well-known location.
func NewIdentityVerifier(config *models.Config) (*IdentityVerifier, error) {
	issuer := strings.TrimSpace(config.IdPIssuer)
	if issuer == "" {
		return nil, errors.New("identity provider issuer must be set")
	}
	if !strings.HasSuffix(issuer, "/") {
		issuer += "/"
	}
	if config.IdPAudience == "" {
		return nil, errors.New("identity provider audience must be set")
	}
	jwksURL := config.IdPJwksURL
	if jwksURL == "" {
		jwksURL = issuer + ".well-known/jwks.json"
	}

	keyProvider, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to init JWKS keyfunc: %w", err)
	}

	parser := jwt.NewParser(
		jwt.WithIssuer(issuer),
		jwt.WithAudience(config.IdPAudience),
		jwt.WithLeeway(verifierLeeway),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name, jwt.SigningMethodRS384.Name, jwt.SigningMethodRS512.Name}),
	)

	return &IdentityVerifier{
		issuer:   issuer,
		audience: config.IdPAudience,
		keyfunc:  keyProvider,
		parser:   parser,
	}, nil
}

// Verify parses and validates an ID token, returning the extracted claims.
func (v *IdentityVerifier) Verify(tokenString string) (*IdentityClaims, error) {
	token, err := v.parser.Parse(tokenString, v.keyfunc.Keyfunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	claims := &IdentityClaims{
		Subject: readString(mapClaims, "sub"),
		Email:   readString(mapClaims, "email"),
		Name:    readString(mapClaims, "name"),
		Picture: readString(mapClaims, "picture"),
	}
	if claims.Email == "" {
		return nil, errors.New("token missing email")
	}
	return claims, nil
}

func readString(claims jwt.MapClaims, key string) string {
	if s, ok := claims[key].(string); ok {
		return s
	}
	return ""
}
