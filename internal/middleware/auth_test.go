package middleware

import (
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const testSecret = "middleware-secret"

func newRouter(roles ...model.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(testSecret), RoleMiddleware(roles...), func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		c.String(http.StatusOK, claims.Email)
	})
	return r
}

func tokenFor(t *testing.T, role model.UserRole) string {
	t.Helper()
	token, err := util.GenerateJWT(&model.User{BaseModel: model.BaseModel{ID: 1}, Email: string(role) + "@example.com", Role: role}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func request(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(model.Grader)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"malformed token", "Bearer not.a.token", http.StatusUnauthorized},
		{"valid grader", "Bearer " + tokenFor(t, model.Grader), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := request(r, tt.header); w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	adminOnly := newRouter(model.Admin)

	if w := request(adminOnly, "Bearer "+tokenFor(t, model.Grader)); w.Code != http.StatusForbidden {
		t.Fatalf("grader on admin route: expected 403, got %d", w.Code)
	}
	w := request(adminOnly, "Bearer "+tokenFor(t, model.Admin))
	if w.Code != http.StatusOK || w.Body.String() != "admin@example.com" {
		t.Fatalf("admin: expected 200, got %d %s", w.Code, w.Body.String())
	}

	// 管理员可以访问阅卷人路由
	graderRoute := newRouter(model.Grader)
	if w := request(graderRoute, "Bearer "+tokenFor(t, model.Admin)); w.Code != http.StatusOK {
		t.Fatalf("admin on grader route: expected 200, got %d", w.Code)
	}
}
