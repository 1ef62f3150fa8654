package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	errTokenExpired = errors.New("token expired")
	errTokenInvalid = errors.New("token is not valid")
)

type JWTClaims struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(secret string, ttl time.Duration) *tokenIssuer {
	return &tokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for a stored account (id set) or for the configured
// admin credentials (id empty, email set).
func (t *tokenIssuer) Issue(id, email, role string) (string, error) {
	now := t.now()
	claims := JWTClaims{
		ID:    id,
		Email: email,
		Role:  role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(t.ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *tokenIssuer) Parse(tokenStr string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, errTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", errTokenInvalid, err)
	}
	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errTokenInvalid
	}
	return claims, nil
}

// Principal is what the auth middleware attaches to the request.
type Principal struct {
	UserID primitive.ObjectID
	Email  string
	Role   string
}

func (p Principal) HasUser() bool {
	return !p.UserID.IsZero()
}

// EditorID is the id recorded as createdBy / lastEditedBy, nil for the
// configured admin which has no account.
func (p Principal) EditorID() *primitive.ObjectID {
	if !p.HasUser() {
		return nil
	}
	id := p.UserID
	return &id
}

const principalKey = "principal"

func principalFrom(c *gin.Context) Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(Principal); ok {
			return p
		}
	}
	return Principal{}
}

// bearerToken prefers "Authorization: Bearer <token>" and falls back to the
// legacy raw "token" header.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("token"))
}

func (a *App) authenticate(c *gin.Context, tag string) (*JWTClaims, bool) {
	tokenStr := bearerToken(c.Request)
	if tokenStr == "" {
		abortJSON(c, http.StatusUnauthorized, "Not authorized. Token missing.")
		return nil, false
	}
	claims, err := a.tokens.Parse(tokenStr)
	if errors.Is(err, errTokenExpired) {
		log.Printf("[%s] token expired", tag)
		abortJSON(c, http.StatusUnauthorized, "Token expired")
		return nil, false
	}
	if err != nil {
		log.Printf("[%s] %v", tag, err)
		abortJSON(c, http.StatusUnauthorized, "Token is not valid")
		return nil, false
	}
	return claims, true
}

// AuthUser validates the token and reloads the account so disabled users are
// turned away even while their token is still valid.
func (a *App) AuthUser(c *gin.Context) {
	claims, ok := a.authenticate(c, "auth")
	if !ok {
		return
	}
	p := Principal{Email: claims.Email, Role: claims.Role}
	if claims.ID != "" {
		id, err := primitive.ObjectIDFromHex(claims.ID)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "Token is not valid")
			return
		}
		user, err := a.store.GetUserByID(c.Request.Context(), id)
		if errors.Is(err, ErrNotFound) {
			abortJSON(c, http.StatusUnauthorized, "User not found")
			return
		}
		if err != nil {
			log.Printf("[auth] load user %s: %v", claims.ID, err)
			abortJSON(c, http.StatusInternalServerError, "Server error")
			return
		}
		if !user.IsActive {
			abortJSON(c, http.StatusForbidden, "Account is disabled")
			return
		}
		p = Principal{UserID: user.ID, Email: user.Email, Role: user.Role}
	}
	c.Set(principalKey, p)
	c.Next()
}

// AdminAuth trusts the token claims and only checks the role.
func (a *App) AdminAuth(c *gin.Context) {
	claims, ok := a.authenticate(c, "adminAuth")
	if !ok {
		return
	}
	if claims.Role != RoleAdmin && claims.Role != RoleSuperAdmin {
		abortJSON(c, http.StatusForbidden, "Access denied")
		return
	}
	p := Principal{Email: claims.Email, Role: claims.Role}
	if id, err := primitive.ObjectIDFromHex(claims.ID); err == nil {
		p.UserID = id
	}
	c.Set(principalKey, p)
	c.Next()
}

// RequireSuperAdmin must run after AuthUser.
func RequireSuperAdmin(c *gin.Context) {
	p, ok := c.Get(principalKey)
	if !ok {
		abortJSON(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if p.(Principal).Role != RoleSuperAdmin {
		abortJSON(c, http.StatusForbidden, "Access denied. Super admin only.")
		return
	}
	c.Next()
}
