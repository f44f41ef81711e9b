// Package identity adapts the external identity/role provider. Tokens assert
// who the actor is and which roles the provider granted them; caseflow never
// stores credentials.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/requestcontext"
)

// Provider maps an actor to their granted role set. Services consult it for
// authority decisions so "which buttons are enabled" never becomes the
// authorization boundary.
type Provider interface {
	RolesFor(ctx context.Context, actorID string) ([]domain.Role, error)
}

// Claims are the JWT claims issued by the identity provider.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService validates provider-issued access tokens and serves as the
// role provider for actors authenticated in the current request.
type TokenService struct {
	signingKey []byte
	issuer     string
}

// NewTokenService constructs a TokenService for HS256 tokens.
func NewTokenService(signingKey, issuer string) *TokenService {
	return &TokenService{signingKey: []byte(signingKey), issuer: issuer}
}

// ValidateToken parses and verifies a bearer token, returning the asserted
// actor.
func (s *TokenService) ValidateToken(tokenString string) (domain.Actor, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Subject == "" {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "token missing subject")
	}

	actor := domain.Actor{ID: claims.Subject}
	for _, r := range claims.Roles {
		role, err := domain.ParseRole(r)
		if err != nil {
			// Unknown roles are dropped, not fatal: the provider may grant
			// roles for other systems.
			continue
		}
		actor.Roles = append(actor.Roles, role)
	}
	return actor, nil
}

// GenerateToken mints a token for the given actor. Used by tests and local
// development; production tokens come from the real identity provider.
func (s *TokenService) GenerateToken(actor domain.Actor, expiresIn time.Duration) (string, error) {
	roles := make([]string, len(actor.Roles))
	for i, r := range actor.Roles {
		roles[i] = r.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ContextProvider resolves roles from the actor the auth middleware placed in
// the request context. The token is the provider's assertion, so no second
// round trip is needed.
type ContextProvider struct{}

func (ContextProvider) RolesFor(ctx context.Context, actorID string) ([]domain.Role, error) {
	actor, ok := requestcontext.Actor(ctx)
	if !ok || actor.ID != actorID {
		return nil, nil
	}
	return actor.Roles, nil
}

// StaticProvider is a fixed actor→roles map for tests and local development.
type StaticProvider struct {
	roles map[string][]domain.Role
}

// NewStaticProvider copies the given role map.
func NewStaticProvider(roles map[string][]domain.Role) *StaticProvider {
	m := make(map[string][]domain.Role, len(roles))
	for actor, rs := range roles {
		m[actor] = append([]domain.Role(nil), rs...)
	}
	return &StaticProvider{roles: m}
}

func (p *StaticProvider) RolesFor(_ context.Context, actorID string) ([]domain.Role, error) {
	return p.roles[actorID], nil
}
