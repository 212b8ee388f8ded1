// Package token signs and verifies the expiring claim sets that carry
// session and verification credentials. Signing is asymmetric (RS256) so
// that only the process holding the private key can mint tokens.
package token

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coffeeapi/backend/internal/apperr"
)

type Codec struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

// Load reads the RS256 key pair from PEM files. Failure here is fatal
// startup-time configuration error, not part of the request error taxonomy.
func Load(privateKeyPath, publicKeyPath string) (*Codec, error) {
	privatePEM, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key %s: %w", privateKeyPath, err)
	}

	publicPEM, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key %s: %w", publicKeyPath, err)
	}

	return New(privatePEM, publicPEM)
}

func New(privatePEM, publicPEM []byte) (*Codec, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return &Codec{privateKey: privateKey, publicKey: publicKey}, nil
}

func (c *Codec) Sign(claims Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and the embedded expiry. Expired tokens map
// to the token_expired kind; every other failure, wrong algorithm included,
// maps to token_invalid.
func (c *Codec) Verify(tokenString string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return c.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, apperr.TokenExpired()
		}
		return Claims{}, apperr.TokenInvalid("")
	}

	return claims, nil
}
