package managers

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"whisperbox/internal/schemas"
	"whisperbox/internal/utils"
)

const (
	issuer          = "whisperbox"
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
	bearerPrefix    = "Bearer "
)

// JWTMgr handles JWT generation, validation and the authentication middleware.
type JWTMgr interface {
	GenerateJWT(userId, username string, isRefreshToken bool) (string, error)
	ValidateJWT(tokenString string) (jwt.Claims, error)
	JWTMiddleware() gin.HandlerFunc
}

// JWTManager signs and validates tokens with a single Ed25519 key pair.
type JWTManager struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

// NewJWTManager creates a new JWTManager with the given key pair.
func NewJWTManager(privateKey ed25519.PrivateKey, publicKey ed25519.PublicKey) JWTMgr {
	return &JWTManager{
		privateKey: privateKey,
		publicKey:  publicKey,
	}
}

// NewJWTManagerFromFile loads the key pair from the given path, generating
// and persisting a fresh pair on first startup.
func NewJWTManagerFromFile(path string) (JWTMgr, error) {
	privateKey, publicKey, err := loadKeyPair(path)
	if err != nil {
		privateKey, publicKey, err = generateKeyPair(path)
		if err != nil {
			return nil, err
		}
	}

	return NewJWTManager(privateKey, publicKey), nil
}

// GenerateJWT generates a signed token for the given user.
// Refresh tokens carry a longer expiry and a refresh marker claim.
func (jm *JWTManager) GenerateJWT(userId, username string, isRefreshToken bool) (string, error) {
	ttl := accessTokenTTL
	refresh := "false"
	if isRefreshToken {
		ttl = refreshTokenTTL
		refresh = "true"
	}

	claims := jwt.MapClaims{
		"iss":      issuer,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(ttl).Unix(),
		"sub":      userId,
		"username": username,
		"refresh":  refresh,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(jm.privateKey)
}

// ValidateJWT validates the given JWT and returns the claims if valid.
func (jm *JWTManager) ValidateJWT(tokenString string) (jwt.Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodEdDSA.Alg() {
			return nil, fmt.Errorf("invalid signing method")
		}
		return jm.publicKey, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	return token.Claims, nil
}

// JWTMiddleware resolves the current principal from the Authorization header
// and stores its claims in the request context. Refresh tokens are rejected
// here, they are only good for the refresh endpoint.
func (jm *JWTManager) JWTMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			utils.AbortWithError(c, schemas.Unauthorized, http.StatusUnauthorized, fmt.Errorf("missing bearer token"))
			return
		}

		claims, err := jm.ValidateJWT(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			utils.AbortWithError(c, schemas.Unauthorized, http.StatusUnauthorized, err)
			return
		}

		mapClaims := claims.(jwt.MapClaims)
		if refresh, _ := mapClaims["refresh"].(string); refresh == "true" {
			utils.AbortWithError(c, schemas.Unauthorized, http.StatusUnauthorized, fmt.Errorf("refresh token used for access"))
			return
		}

		c.Set(utils.ClaimsKey.String(), mapClaims)
		c.Next()
	}
}

// generateKeyPair generates a new key pair and saves it to a file.
func generateKeyPair(path string) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	if err = saveKeyPair(privateKey, publicKey, path); err != nil {
		return nil, nil, err
	}

	return privateKey, publicKey, nil
}

// saveKeyPair saves the key pair to the specified file.
func saveKeyPair(privateKey ed25519.PrivateKey, publicKey ed25519.PublicKey, path string) error {
	keyPairBytes := append(privateKey, publicKey...)
	return os.WriteFile(path, keyPairBytes, 0600)
}

// loadKeyPair loads the key pair from the specified file.
func loadKeyPair(path string) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	keyPairBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	// The key pair is the concatenation of private and public keys
	if len(keyPairBytes) != ed25519.PrivateKeySize+ed25519.PublicKeySize {
		return nil, nil, fmt.Errorf("invalid key pair format")
	}

	return keyPairBytes[:ed25519.PrivateKeySize], keyPairBytes[ed25519.PrivateKeySize:], nil
}
