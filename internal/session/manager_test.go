package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/elliewren/caption-gallery/backend/internal/models"
)

type stubUsers struct {
	user *models.User
	err  error
}

func (s *stubUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.user, s.err
}

func (s *stubUsers) FindOrCreateFromGoogle(ctx context.Context, googleID, email, name, avatarURL string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.User{ID: "u1", Email: email, Name: name, GoogleID: googleID}, nil
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// fakeFlow serves a canned token and userinfo payload in place of Google.
type fakeFlow struct {
	exchangeErr error
	userInfo    googleUserInfo
	infoStatus  int
}

func (f *fakeFlow) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeFlow) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &oauth2.Token{AccessToken: "provider-token"}, nil
}

func (f *fakeFlow) Client(ctx context.Context, t *oauth2.Token) *http.Client {
	return &http.Client{
		Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			status := f.infoStatus
			if status == 0 {
				status = http.StatusOK
			}
			body, _ := json.Marshal(f.userInfo)
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(bytes.NewReader(body)),
				Header:     make(http.Header),
			}, nil
		}),
	}
}

func newTestManager(flow oauthFlow) *Manager {
	m := NewManager("client-id", "client-secret", "http://localhost:8080", &stubUsers{}, []byte("test-secret"), time.Hour)
	if flow != nil {
		m.oauth = flow
	}
	return m
}

func TestExchangeMintsVerifiableToken(t *testing.T) {
	flow := &fakeFlow{userInfo: googleUserInfo{
		Sub: "google-sub", Email: "a@example.com", EmailVerified: true, Name: "A",
	}}
	m := newTestManager(flow)

	user, token, err := m.Exchange(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "a@example.com", user.Email)

	ident, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", Email: "a@example.com"}, ident)
}

func TestExchangeEmitsSignedIn(t *testing.T) {
	flow := &fakeFlow{userInfo: googleUserInfo{
		Sub: "google-sub", Email: "a@example.com", EmailVerified: true,
	}}
	m := newTestManager(flow)

	var events []Event
	unsubscribe := m.Subscribe(func(ev Event) { events = append(events, ev) })
	defer unsubscribe()

	_, _, err := m.Exchange(context.Background(), "auth-code")
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, SignedIn, events[0].Type)
	assert.Equal(t, "u1", events[0].Identity.UserID)
}

func TestExchangeFailurePropagates(t *testing.T) {
	m := newTestManager(&fakeFlow{exchangeErr: errors.New("invalid_grant")})

	_, _, err := m.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestExchangeRejectsUnverifiedEmail(t *testing.T) {
	flow := &fakeFlow{userInfo: googleUserInfo{
		Sub: "google-sub", Email: "a@example.com", EmailVerified: false,
	}}
	m := newTestManager(flow)

	_, _, err := m.Exchange(context.Background(), "auth-code")
	assert.Error(t, err)
}

func TestExchangeFailsOnUserInfoStatus(t *testing.T) {
	flow := &fakeFlow{infoStatus: http.StatusForbidden}
	m := newTestManager(flow)

	_, _, err := m.Exchange(context.Background(), "auth-code")
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := newTestManager(nil)

	_, err := m.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewManager("id", "secret", "http://localhost:8080", &stubUsers{}, []byte("test-secret"), -time.Minute)

	token, err := m.mintToken(&models.User{ID: "u1", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	minter := NewManager("id", "secret", "http://localhost:8080", &stubUsers{}, []byte("one-secret"), time.Hour)
	verifier := NewManager("id", "secret", "http://localhost:8080", &stubUsers{}, []byte("another-secret"), time.Hour)

	token, err := minter.mintToken(&models.User{ID: "u1"})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSignOutNotifiesListeners(t *testing.T) {
	m := newTestManager(nil)

	var got *Event
	unsubscribe := m.Subscribe(func(ev Event) { got = &ev })
	defer unsubscribe()

	m.SignOut(Identity{UserID: "u1"})
	require.NotNil(t, got)
	assert.Equal(t, SignedOut, got.Type)
	assert.Equal(t, "u1", got.Identity.UserID)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	m := newTestManager(nil)

	calls := 0
	unsubscribe := m.Subscribe(func(Event) { calls++ })
	m.SignOut(Identity{UserID: "u1"})
	unsubscribe()
	m.SignOut(Identity{UserID: "u1"})

	assert.Equal(t, 1, calls)
}

func TestAuthCodeURLCarriesState(t *testing.T) {
	m := newTestManager(&fakeFlow{})
	assert.Contains(t, m.AuthCodeURL("xyzzy"), "state=xyzzy")
}
