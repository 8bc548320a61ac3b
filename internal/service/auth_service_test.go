package service

import (
	"context"
	"errors"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/testutil"
	"exam_portal_backend/internal/util"
	"testing"
	"time"
)

func TestAuthLogin(t *testing.T) {
	db := testutil.NewDB(t)
	auth := NewAuthService(repository.NewUserRepository(db), "secret", time.Hour)
	ctx := context.Background()

	user, err := auth.CreateUser(ctx, "Grace", " Grace@Example.com ", "pa55word", model.Grader)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Email != "grace@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}

	token, got, err := auth.Login(ctx, "GRACE@example.com", "pa55word")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, got.ID)
	}

	claims, err := util.ParseJWT(token, "secret")
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != model.Grader {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	me, err := auth.CurrentUser(ctx, claims)
	if err != nil || me.Email != "grace@example.com" {
		t.Fatalf("current user: %v %+v", err, me)
	}

	if _, _, err := auth.Login(ctx, "grace@example.com", "wrong"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, _, err := auth.Login(ctx, "nobody@example.com", "pa55word"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	if err := db.Model(&model.User{}).Where("id = ?", user.ID).Update("disabled", true).Error; err != nil {
		t.Fatalf("disable user: %v", err)
	}
	if _, _, err := auth.Login(ctx, "grace@example.com", "pa55word"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for disabled user, got %v", err)
	}

	if _, err := auth.CurrentUser(ctx, &util.Claims{UserID: 999}); !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := auth.CreateUser(ctx, "X", "x@example.com", "pw", model.UserRole("student")); err == nil {
		t.Fatal("expected error for unknown role")
	}
}
