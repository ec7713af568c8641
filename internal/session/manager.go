// Package session establishes and tracks the authenticated identity. The
// Manager owns the Google OAuth configuration and the session token format;
// everything downstream consumes Identity values and transition events.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/elliewren/caption-gallery/backend/internal/models"
	"github.com/elliewren/caption-gallery/backend/internal/store"
)

// CookieName carries the session token between requests.
const CookieName = "gallery_session"

var ErrInvalidSession = errors.New("session: invalid or expired token")

// Identity is the authenticated principal derived from a session token.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type EventType int

const (
	SignedIn EventType = iota
	SignedOut
)

// Event describes a session state transition.
type Event struct {
	Type     EventType
	Identity Identity
}

type Handler func(Event)

// oauthFlow is the slice of *oauth2.Config the manager uses, narrowed so
// tests can substitute a fake provider.
type oauthFlow interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
	Client(ctx context.Context, t *oauth2.Token) *http.Client
}

type Manager struct {
	oauth  oauthFlow
	users  store.UserStore
	secret []byte
	ttl    time.Duration

	mu        sync.Mutex
	listeners map[int]Handler
	nextID    int
}

// NewManager wires the Google OAuth config against the fixed callback address
// <origin>/auth/callback. The redirect target must exactly match the value
// registered with Google or the handshake fails.
func NewManager(clientID, clientSecret, origin string, users store.UserStore, secret []byte, ttl time.Duration) *Manager {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  origin + "/auth/callback",
		Scopes:       []string{"openid", "email", "profile"},
	}
	return &Manager{
		oauth:     cfg,
		users:     users,
		secret:    secret,
		ttl:       ttl,
		listeners: make(map[int]Handler),
	}
}

// AuthCodeURL begins the redirect-based handshake.
func (m *Manager) AuthCodeURL(state string) string {
	return m.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// TTL is the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// googleUserInfo is the shape returned by Google's userinfo endpoint.
type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchange completes the authorization-code handshake: code -> provider
// token -> Google userinfo -> local user -> signed session token. A SignedIn
// event is emitted before returning.
func (m *Manager) Exchange(ctx context.Context, code string) (*models.User, string, error) {
	token, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("token exchange failed: %w", err)
	}

	info, err := m.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch user info: %w", err)
	}

	user, err := m.users.FindOrCreateFromGoogle(ctx, info.Sub, info.Email, info.Name, info.Picture)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve user: %w", err)
	}

	signed, err := m.mintToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign session token: %w", err)
	}

	m.notify(Event{Type: SignedIn, Identity: Identity{UserID: user.ID, Email: user.Email}})
	return user, signed, nil
}

func (m *Manager) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := m.oauth.Client(ctx, token)

	resp, err := client.Get("https://www.googleapis.com/oauth2/v3/userinfo")
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}

	if !info.EmailVerified {
		return nil, errors.New("google account email not verified")
	}
	return &info, nil
}

// SignOut emits the SignedOut transition. Token invalidation is the cookie
// clear on the handler side; listeners clear identity-scoped state here.
func (m *Manager) SignOut(ident Identity) {
	m.notify(Event{Type: SignedOut, Identity: ident})
}

// Subscribe registers a listener for session transitions. The returned
// function releases the registration and must be called when the owner is
// torn down, so handlers never fire after disposal.
func (m *Manager) Subscribe(h Handler) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = h
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// notify invokes listeners synchronously on the goroutine that triggered the
// transition, outside the registry lock.
func (m *Manager) notify(ev Event) {
	m.mu.Lock()
	handlers := make([]Handler, 0, len(m.listeners))
	for _, h := range m.listeners {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}
