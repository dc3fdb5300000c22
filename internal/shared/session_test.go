package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-hub/campus-hub/internal/shared"
)

func newSessionManager(t *testing.T) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func loadWithCookie(t *testing.T, sm *shared.SessionManager, id string) *shared.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: id})
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	return sess
}

func TestFlashSurvivesRedirect(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	// First request queues a flash before redirecting.
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Вы успешно вошли."})
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), req, sess))
	require.NotEmpty(t, sess.ID)

	// The follow-up request must still see the flash.
	followUp := loadWithCookie(t, sm, sess.ID)
	flash := followUp.PopFlash()
	require.NotNil(t, flash, "flash must survive until the follow-up request consumes it")
	assert.Equal(t, "success", flash.Kind)
	assert.Equal(t, "Вы успешно вошли.", flash.Message)
	assert.Nil(t, followUp.PopFlash())

	// Committing the consuming request persists the emptied list.
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), req, followUp))
	third := loadWithCookie(t, sm, sess.ID)
	assert.Nil(t, third.PopFlash())
}

func TestCommitPersistsValuesAndUser(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.Set("csrf_token", "token")
	sess.SetUser(42)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), req, sess))

	reloaded := loadWithCookie(t, sm, sess.ID)
	assert.Equal(t, "token", reloaded.Get("csrf_token"))
	assert.Equal(t, int64(42), reloaded.User())
}

func TestDestroyRemovesSession(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser(7)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), req, sess))

	sm.Destroy(sess)
	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))

	reloaded := loadWithCookie(t, sm, sess.ID)
	assert.Zero(t, reloaded.User())

	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Negative(t, cookies[0].MaxAge)
}
