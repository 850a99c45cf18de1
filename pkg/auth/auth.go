// Package auth verifies identity tokens issued by the external identity
// module and carries the resulting actor through request contexts.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleClient    Role = "client"
	RoleSuperuser Role = "superuser"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Actor is the authenticated caller of a request.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsSuperuser() bool {
	return a.Role == RoleSuperuser
}

// CanManage reports whether the actor may modify a resource owned by ownerID.
func (a Actor) CanManage(ownerID string) bool {
	return a.IsSuperuser() || (a.ID != "" && a.ID == ownerID)
}

type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Issue signs an HS256 token for subject. It exists for tooling and tests;
// production tokens come from the identity module sharing the session secret.
func (v *Verifier) Issue(subject string, role Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

func (v *Verifier) Verify(tokenString string) (Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Actor{}, ErrExpiredToken
		}
		return Actor{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return Actor{}, ErrInvalidToken
	}

	role := claims.Role
	switch role {
	case RoleUser, RoleClient, RoleSuperuser:
	case "":
		role = RoleUser
	default:
		return Actor{}, ErrInvalidToken
	}

	return Actor{ID: claims.Subject, Role: role}, nil
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by the auth middleware. ok is
// false for anonymous requests.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok && actor.ID != ""
}
