package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"jobboard_back_end_go/apperrors"
	"jobboard_back_end_go/config"
	"jobboard_back_end_go/models"
	"jobboard_back_end_go/repository"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const sessionKey = "session"

// Session is the signed-in user. Login creates it, Logout ends it and
// Rehydrate restores it from a token the client kept.
type Session struct {
	Token     string         `json:"token"`
	Profile   models.Profile `json:"profile"`
	ExpiresAt time.Time      `json:"expires_at"`

	tokenID string
}

func (s *Session) UserID() string { return s.Profile.ID }

type Authenticator struct {
	secret   []byte
	ttl      time.Duration
	profiles repository.ProfileStore
	now      func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewAuthenticator(cfg config.JWT, profiles repository.ProfileStore) *Authenticator {
	return &Authenticator{
		secret:   []byte(cfg.Secret),
		ttl:      cfg.TTL,
		profiles: profiles,
		now:      time.Now,
		revoked:  make(map[string]time.Time),
	}
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (a *Authenticator) Login(ctx context.Context, email, password string) (*Session, error) {
	profile, err := a.profiles.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if profile.PasswordHash == "" {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, claims, err := GenerateToken(a.secret, *profile, a.now(), a.ttl)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to issue session", err)
	}
	return &Session{
		Token:     token,
		Profile:   *profile,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
		tokenID:   claims.Id,
	}, nil
}

// Rehydrate rebuilds the session a token stands for. Expired, revoked or
// tampered tokens and tokens for removed profiles all fail the same way.
func (a *Authenticator) Rehydrate(ctx context.Context, token string) (*Session, error) {
	claims, err := ParseToken(a.secret, token)
	if err != nil {
		return nil, apperrors.ErrSessionExpired
	}

	a.mu.Lock()
	_, revoked := a.revoked[claims.Id]
	a.mu.Unlock()
	if revoked {
		return nil, apperrors.ErrSessionExpired
	}

	profile, err := a.profiles.GetProfile(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrSessionExpired
	}
	return &Session{
		Token:     token,
		Profile:   *profile,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
		tokenID:   claims.Id,
	}, nil
}

// Logout revokes the session's token until it would have expired anyway.
func (a *Authenticator) Logout(s *Session) {
	if s == nil || s.tokenID == "" {
		return
	}
	now := a.now()

	a.mu.Lock()
	defer a.mu.Unlock()
	for id, exp := range a.revoked {
		if exp.Before(now) {
			delete(a.revoked, id)
		}
	}
	a.revoked[s.tokenID] = s.ExpiresAt
}

// Middleware requires a valid session. Browsers cannot set headers on a
// websocket handshake, so the token is also accepted as ?token=.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			abort(c, apperrors.Unauthorized("missing session token"))
			return
		}

		session, err := a.Rehydrate(c.Request.Context(), token)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

func SessionFromContext(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": err.Error(),
		"code":  apperrors.CodeOf(err),
	})
}
