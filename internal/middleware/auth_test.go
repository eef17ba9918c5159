package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sharklearning_backend/internal/config"
	"sharklearning_backend/internal/model"
	"sharklearning_backend/internal/util"
	"sharklearning_backend/pkg/logger"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "unit-test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: testSecret, ExpireTime: time.Hour},
	}
}

func issueToken(t *testing.T, userID uint, role model.UserRole) string {
	t.Helper()
	user := &model.User{
		BaseModel: model.BaseModel{ID: userID},
		Name:      "alice",
		Email:     "alice@example.com",
		Role:      role,
	}
	token, err := util.GenerateJWT(user, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

// newProtectedRouter 把处理器挂在给定中间件链后面，记录是否真正执行到
func newProtectedRouter(reached *bool, handlers ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.GET("/protected", append(handlers, func(c *gin.Context) {
		*reached = true
		claims := util.GetUserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"userId": claims.UserID})
	})...)
	return router
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	reached := false
	router := newProtectedRouter(&reached, AuthMiddleware(testConfig()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached, "handler must not run without a token")
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	reached := false
	router := newProtectedRouter(&reached, AuthMiddleware(testConfig()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	reached := false
	router := newProtectedRouter(&reached, AuthMiddleware(testConfig()))

	user := &model.User{BaseModel: model.BaseModel{ID: 7}, Role: model.Student}
	forged, err := util.GenerateJWT(user, "some-other-secret", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestAuthMiddlewareAcceptsBearerToken(t *testing.T) {
	reached := false
	router := newProtectedRouter(&reached, AuthMiddleware(testConfig()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, 42, model.Student))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, reached)
	assert.Contains(t, w.Body.String(), `"userId":42`)
}

func TestAuthMiddlewareAcceptsQueryToken(t *testing.T) {
	reached := false
	router := newProtectedRouter(&reached, AuthMiddleware(testConfig()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected?token="+issueToken(t, 42, model.Student), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, reached)
}

func TestRoleMiddlewareForbidsStudent(t *testing.T) {
	reached := false
	router := newProtectedRouter(&reached,
		AuthMiddleware(testConfig()),
		RoleMiddleware(model.Teacher, model.Admin),
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, 42, model.Student))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, reached)
}

func TestRoleMiddlewareAdminPassesAll(t *testing.T) {
	reached := false
	router := newProtectedRouter(&reached,
		AuthMiddleware(testConfig()),
		RoleMiddleware(model.Teacher),
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, 1, model.Admin))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, reached)
}

type fakeActivityRepo struct {
	touched chan uint
	err     error
}

func (f *fakeActivityRepo) UpdateLastSeen(userID uint) error {
	f.touched <- userID
	return f.err
}

func TestActivityMiddlewareTouchesLastSeen(t *testing.T) {
	repo := &fakeActivityRepo{touched: make(chan uint, 1)}
	reached := false
	router := newProtectedRouter(&reached,
		AuthMiddleware(testConfig()),
		ActivityMiddleware(repo),
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, 42, model.Student))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	select {
	case userID := <-repo.touched:
		assert.EqualValues(t, 42, userID)
	case <-time.After(time.Second):
		t.Fatal("expected an async last-seen update")
	}
}

func TestActivityMiddlewareUpdateFailureDoesNotAffectResponse(t *testing.T) {
	repo := &fakeActivityRepo{touched: make(chan uint, 1), err: errors.New("db down")}
	reached := false
	router := newProtectedRouter(&reached,
		AuthMiddleware(testConfig()),
		ActivityMiddleware(repo),
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, 42, model.Student))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	<-repo.touched
}
