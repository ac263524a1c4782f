package auth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Issuer is the iss claim of user tokens minted by the host platform proxy.
const Issuer = "urn:whopcom:exp-proxy"

// maxCacheTTL bounds how long a verified token is kept even when its exp
// is further out.
const maxCacheTTL = 10 * time.Minute

var (
	ErrNoToken      = errors.New("auth: no user token")
	ErrInvalidToken = errors.New("auth: invalid user token")
)

// Identity is the verified caller. Anonymous identities carry no user id
// from a token.
type Identity struct {
	UserID    string
	AppID     string
	ExpiresAt time.Time
	Anonymous bool
}

// AnonymousIdentity is attached when verification is optional and fails.
var AnonymousIdentity = Identity{UserID: "anonymous", Anonymous: true}

// Verifier checks ES256 user tokens against the platform public key and
// caches successful results until the token expires.
type Verifier struct {
	key    *ecdsa.PublicKey
	appID  string
	cache  *expirable.LRU[string, Identity]
	now    func() time.Time
	parser *jwt.Parser
}

// NewVerifier parses the PEM public key. An empty appID skips the
// audience check.
func NewVerifier(publicKeyPEM, appID string, cacheSize int) (*Verifier, error) {
	key, err := jwt.ParseECPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse token public key: %w", err)
	}
	if cacheSize < 1 {
		cacheSize = 1
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5 * time.Second),
	}
	if appID != "" {
		opts = append(opts, jwt.WithAudience(appID))
	}
	return &Verifier{
		key:    key,
		appID:  appID,
		cache:  expirable.NewLRU[string, Identity](cacheSize, nil, maxCacheTTL),
		now:    time.Now,
		parser: jwt.NewParser(opts...),
	}, nil
}

// Verify validates token and returns the identity it carries.
func (v *Verifier) Verify(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrNoToken
	}
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	if id, ok := v.cache.Get(token); ok && v.now().Before(id.ExpiresAt) {
		return id, nil
	}

	claims := &jwt.RegisteredClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}

	id := Identity{UserID: claims.Subject, AppID: v.appID, ExpiresAt: claims.ExpiresAt.Time}
	v.cache.Add(token, id)
	return id, nil
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity attached by Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
