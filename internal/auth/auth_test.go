package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore() *Store {
	hashKey := make([]byte, 32)
	blockKey := make([]byte, 32)
	return NewStore(nil, hashKey, blockKey)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hash)

	assert.True(t, CheckPassword(hash, "s3cret-password"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not a hash", "s3cret-password"))
}

func TestSessionCookieRoundTrip(t *testing.T) {
	s := testStore()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	require.NoError(t, s.SetSession(rec, req, "taro@example.com"))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req2.AddCookie(c)
	}
	sess, ok := s.GetSession(req2)
	require.True(t, ok)
	assert.Equal(t, "taro@example.com", sess.Email)
}

func TestGetSessionRejectsMissingOrForgedCookie(t *testing.T) {
	s := testStore()

	_, ok := s.GetSession(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "salonbook_session", Value: "forged"})
	_, ok = s.GetSession(req)
	assert.False(t, ok)
}

func TestRequireAuth(t *testing.T) {
	s := testStore()

	var gotEmail string
	h := s.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail, _ = EmailFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// no cookie: bounced to login
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	// valid cookie: email lands in the context
	setRec := httptest.NewRecorder()
	require.NoError(t, s.SetSession(setRec, httptest.NewRequest(http.MethodPost, "/login", nil), "taro@example.com"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range setRec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "taro@example.com", gotEmail)
}
