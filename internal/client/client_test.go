package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piyush1222p/Samadhan-Kendra/internal/client"
	"github.com/piyush1222p/Samadhan-Kendra/internal/identity/dto"
)

// stubServer fakes the identity service wire contract for client tests.
type stubServer struct {
	t *testing.T

	mu           sync.Mutex
	validAccess  string
	refreshCalls atomic.Int64
	refreshOK    bool
	refreshDelay time.Duration
	meCalls      atomic.Int64
	loginCalls   atomic.Int64

	srv *httptest.Server
}

func newStubServer(t *testing.T) *stubServer {
	t.Helper()

	s := &stubServer{t: t, validAccess: "good-access", refreshOK: true}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/me", s.handleMe)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(dto.HealthResponse{OK: true, Time: time.Now().UTC().Format(time.RFC3339)})
	})

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)

	return s
}

func (s *stubServer) URL() string { return s.srv.URL }

func (s *stubServer) setValidAccess(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validAccess = token
}

func (s *stubServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	if s.refreshDelay > 0 {
		time.Sleep(s.refreshDelay)
	}

	var input dto.RefreshInput
	_ = json.NewDecoder(r.Body).Decode(&input)

	s.mu.Lock()
	ok := s.refreshOK && input.RefreshToken == "good-refresh"
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
		return
	}

	s.setValidAccess("refreshed-access")
	_ = json.NewEncoder(w).Encode(dto.TokenResponse{
		AccessToken:  "refreshed-access",
		RefreshToken: "rotated-refresh",
	})
}

func (s *stubServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.loginCalls.Add(1)

	// The endpoint is unauthenticated; the client must not attach a bearer.
	assert.Empty(s.t, r.Header.Get("Authorization"))

	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
}

func (s *stubServer) handleMe(w http.ResponseWriter, r *http.Request) {
	s.meCalls.Add(1)

	s.mu.Lock()
	valid := "Bearer " + s.validAccess
	s.mu.Unlock()

	if r.Header.Get("Authorization") != valid {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
		return
	}

	_ = json.NewEncoder(w).Encode(dto.UserOutput{ID: "user-123", Email: "alice@example.com", Points: 5})
}

func TestClient_SetTokens_RoundTrip(t *testing.T) {
	store := client.NewMemoryStore()
	c := client.New("http://localhost:0", client.WithTokenStore(store))

	c.SetTokens("access-1", "refresh-1")

	access, refresh := c.Tokens()
	assert.Equal(t, "access-1", access)
	assert.Equal(t, "refresh-1", refresh)

	storedAccess, storedRefresh, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "access-1", storedAccess)
	assert.Equal(t, "refresh-1", storedRefresh)

	c.SetTokens("", "")

	storedAccess, storedRefresh, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, storedAccess)
	assert.Empty(t, storedRefresh)
}

func TestClient_SeedsTokensFromStore(t *testing.T) {
	store := client.NewMemoryStore()
	require.NoError(t, store.Save("persisted-access", "persisted-refresh"))

	c := client.New("http://localhost:0", client.WithTokenStore(store))

	access, refresh := c.Tokens()
	assert.Equal(t, "persisted-access", access)
	assert.Equal(t, "persisted-refresh", refresh)
}

func TestClient_Health(t *testing.T) {
	s := newStubServer(t)
	c := client.New(s.URL())

	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, health.OK)
	assert.NotEmpty(t, health.Time)
}

func TestClient_RetriesOnceAfterRefresh(t *testing.T) {
	s := newStubServer(t)
	c := client.New(s.URL())
	c.SetTokens("expired-access", "good-refresh")

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-123", me.ID)

	// one failed call, one refresh, one retried call
	assert.Equal(t, int64(2), s.meCalls.Load())
	assert.Equal(t, int64(1), s.refreshCalls.Load())

	access, refresh := c.Tokens()
	assert.Equal(t, "refreshed-access", access)
	assert.Equal(t, "rotated-refresh", refresh)
}

func TestClient_NoRetryWithoutRefreshToken(t *testing.T) {
	s := newStubServer(t)
	c := client.New(s.URL())
	c.SetTokens("expired-access", "")

	_, err := c.Me(context.Background())
	require.Error(t, err)

	apiErr, ok := client.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	assert.Equal(t, int64(1), s.meCalls.Load())
	assert.Equal(t, int64(0), s.refreshCalls.Load())
}

func TestClient_FailedRefreshClearsTokensAndSurfacesOriginalError(t *testing.T) {
	s := newStubServer(t)
	c := client.New(s.URL())
	c.SetTokens("expired-access", "bad-refresh")

	_, err := c.Me(context.Background())
	require.Error(t, err)

	apiErr, ok := client.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid token", apiErr.Message)

	// Exactly one refresh attempt, no second retry of the original call.
	assert.Equal(t, int64(1), s.refreshCalls.Load())
	assert.Equal(t, int64(1), s.meCalls.Load())

	access, refresh := c.Tokens()
	assert.Empty(t, access)
	assert.Empty(t, refresh)

	// A subsequent call carries no credentials and is not retried.
	_, err = c.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(1), s.refreshCalls.Load())
	assert.Equal(t, int64(2), s.meCalls.Load())
}

// A rejected login must surface its 401 directly; holding a stale pair must
// not trigger a refresh or a retry of the login.
func TestClient_LoginRejectionSkipsRefresh(t *testing.T) {
	s := newStubServer(t)
	c := client.New(s.URL())
	c.SetTokens("stale-access", "good-refresh")

	_, err := c.Login(context.Background(), dto.LoginInput{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	require.Error(t, err)

	apiErr, ok := client.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid credentials", apiErr.Message)

	assert.Equal(t, int64(1), s.loginCalls.Load())
	assert.Equal(t, int64(0), s.refreshCalls.Load())

	// The held pair is untouched; only a successful login replaces it.
	access, refresh := c.Tokens()
	assert.Equal(t, "stale-access", access)
	assert.Equal(t, "good-refresh", refresh)
}

// N concurrent Refresh calls while none is in flight must produce exactly
// one network refresh, with every caller observing the shared outcome.
func TestClient_ConcurrentRefreshSingleFlight(t *testing.T) {
	s := newStubServer(t)
	s.refreshDelay = 50 * time.Millisecond

	c := client.New(s.URL())
	c.SetTokens("expired-access", "good-refresh")

	const callers = 10

	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), s.refreshCalls.Load())
	for _, err := range errs {
		assert.NoError(t, err)
	}

	access, _ := c.Tokens()
	assert.Equal(t, "refreshed-access", access)
}

func TestClient_ConcurrentRefreshSharesFailure(t *testing.T) {
	s := newStubServer(t)
	s.refreshDelay = 50 * time.Millisecond

	c := client.New(s.URL())
	c.SetTokens("expired-access", "bad-refresh")

	const callers = 8

	var wg sync.WaitGroup
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), s.refreshCalls.Load())
	for _, err := range errs {
		assert.Error(t, err)
	}

	// A failed refresh releases the guard: the next attempt reports the
	// missing refresh token instead of hanging.
	err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, client.ErrNoRefreshToken)
}

func TestClient_RefreshWithoutTokenFails(t *testing.T) {
	s := newStubServer(t)
	c := client.New(s.URL())

	err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, client.ErrNoRefreshToken)
	assert.Equal(t, int64(0), s.refreshCalls.Load())
}

func TestClient_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(slow.Close)

	c := client.New(slow.URL, client.WithTimeout(20*time.Millisecond))

	_, err := c.Health(context.Background())
	require.Error(t, err)
	_, isAPIErr := client.AsAPIError(err)
	assert.False(t, isAPIErr)
}

func TestAPIError_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	t.Cleanup(srv.Close)

	c := client.New(srv.URL)

	_, err := c.Health(context.Background())
	require.Error(t, err)

	apiErr, ok := client.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream exploded", apiErr.Message)
	assert.Nil(t, apiErr.Body)
}
