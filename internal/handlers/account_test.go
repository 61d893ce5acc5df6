package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"sonore/internal/middleware"
	"sonore/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func withTestUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", user.ID)
		c.Set("current_user", user)
		c.Next()
	}
}

func TestGetAccount(t *testing.T) {
	username := "demo_user"
	user := &models.User{
		ID:        55,
		Username:  &username,
		Email:     "user@example.com",
		CreatedAt: time.Now(),
	}

	router := gin.New()
	router.GET("/api/account", withTestUser(user), GetAccount)

	req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	expectHTTP200(t, resp.Code)

	if bytes.Contains(resp.Body.Bytes(), []byte("password")) {
		t.Error("account payload must not mention the password")
	}
}

func putJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestUpdateAccountPartial(t *testing.T) {
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(regexp.QuoteMeta(`UPDATE users SET username = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 RETURNING name, username, email`)).
		WithArgs("new_name", 55).
		WillReturnRows(
			sqlmock.NewRows([]string{"name", "username", "email"}).
				AddRow(nil, "new_name", "user@example.com"),
		)

	router := gin.New()
	router.PUT("/api/account", withTestUserID(55), UpdateAccount)

	resp := putJSON(t, router, "/api/account", map[string]string{"username": "new_name"})
	expectHTTP200(t, resp.Code)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestUpdateAccountDuplicateUsername(t *testing.T) {
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectQuery(regexp.QuoteMeta(`UPDATE users SET username = $1`)).
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "users_username_key"`))

	router := gin.New()
	router.PUT("/api/account", withTestUserID(55), UpdateAccount)

	resp := putJSON(t, router, "/api/account", map[string]string{"username": "taken"})
	mustStatus(t, resp.Code, http.StatusBadRequest)
}

func TestUpdateAccountNoFields(t *testing.T) {
	_, _, cleanup := setupMockDB(t)
	defer cleanup()

	router := gin.New()
	router.PUT("/api/account", withTestUserID(55), UpdateAccount)

	resp := putJSON(t, router, "/api/account", map[string]string{})
	mustStatus(t, resp.Code, http.StatusBadRequest)
}

func TestDeleteAccountClearsCookie(t *testing.T) {
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.
		ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(55).
		WillReturnResult(sqlmock.NewResult(0, 1))

	router := gin.New()
	router.DELETE("/api/account", withTestUserID(55), DeleteAccount)

	req := httptest.NewRequest(http.MethodDelete, "/api/account", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	expectHTTP200(t, resp.Code)

	var cleared bool
	for _, cookie := range resp.Result().Cookies() {
		if cookie.Name == middleware.AuthCookieName && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("deleting the account must expire the session cookie")
	}
}
