package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/elliewren/caption-gallery/backend/internal/config"
	"github.com/elliewren/caption-gallery/backend/internal/middleware"
	"github.com/elliewren/caption-gallery/backend/internal/session"
	"github.com/elliewren/caption-gallery/backend/internal/store"
)

const (
	stateCookie = "oauth_state"
	stateMaxAge = 300

	// Redirect targets after the callback: the protected gallery on
	// success, the public landing page otherwise.
	protectedRoute = "/gallery"
	landingRoute   = "/"
)

type AuthHandler struct {
	sessions *session.Manager
	users    store.UserStore
	secure   bool
}

func NewAuthHandler(cfg config.Config, sessions *session.Manager, users store.UserStore) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		users:    users,
		secure:   strings.HasPrefix(cfg.PublicOrigin, "https://"),
	}
}

// BeginGoogleLogin starts the redirect-based handshake. The state value is
// round-tripped through a short-lived cookie and checked on the callback.
func (h *AuthHandler) BeginGoogleLogin(c *gin.Context) {
	state := uuid.NewString()
	c.SetCookie(stateCookie, state, stateMaxAge, "/", "", h.secure, true)
	c.Redirect(http.StatusFound, h.sessions.AuthCodeURL(state))
}

// Callback completes the OAuth code exchange. Missing code, state mismatch,
// or a failed exchange all land on the public route with nothing surfaced;
// success sets the session cookie and lands on the gallery. Safe to retry.
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, landingRoute)
		return
	}

	saved, err := c.Cookie(stateCookie)
	if err != nil || saved == "" || saved != c.Query("state") {
		log.Printf("oauth callback: state mismatch")
		c.Redirect(http.StatusFound, landingRoute)
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", h.secure, true)

	_, token, err := h.sessions.Exchange(c.Request.Context(), code)
	if err != nil {
		log.Printf("oauth callback: exchange failed: %v", err)
		c.Redirect(http.StatusFound, landingRoute)
		return
	}

	c.SetCookie(session.CookieName, token, int(h.sessions.TTL().Seconds()), "/", "", h.secure, true)
	c.Redirect(http.StatusFound, protectedRoute)
}

// Logout clears the session cookie and emits the signed-out transition. A
// request without a valid session still clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(session.CookieName); err == nil && token != "" {
		if ident, err := h.sessions.Verify(token); err == nil {
			h.sessions.SignOut(ident)
		}
	}

	c.SetCookie(session.CookieName, "", -1, "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// GetMe returns the current authenticated user.
func (h *AuthHandler) GetMe(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), ident.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"name":       user.Name,
		"avatar_url": user.AvatarURL,
		"created_at": user.CreatedAt,
	})
}
