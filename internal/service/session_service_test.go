package service

import (
	"errors"
	"testing"
	"time"

	"mnemosyne-server/internal/cache"
	"mnemosyne-server/internal/domain"
	"mnemosyne-server/internal/repository"
	"mnemosyne-server/pkg/jwt"
)

type mockUserRemote struct {
	*mockRemote
	user *domain.GitHubUser
	err  error
}

func (m *mockUserRemote) CurrentUser() (*domain.GitHubUser, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func newTestSessionService(remote *mockUserRemote) *SessionService {
	newRemote := func(token string) UserRemote {
		return remote
	}
	newStorage := func(login string, r repository.RemoteRepository) *StorageService {
		store := newMockSnapshotStore()
		items := cache.NewItemCache(store, "items:"+login, 30*time.Minute)
		assets := cache.NewAssetCache(store, "assets:"+login, 24*time.Hour)
		return NewStorageService(r, items, assets, "mnemosyne-db")
	}
	return NewSessionService(newRemote, newStorage, "test-secret-32-characters-long!", time.Hour)
}

func TestSessionService_Login(t *testing.T) {
	remote := &mockUserRemote{
		mockRemote: newMockRemote(),
		user:       &domain.GitHubUser{Login: "octocat"},
	}
	s := newTestSessionService(remote)

	resp, err := s.Login(&domain.LoginRequest{Token: "gh-token"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if resp.User.Login != "octocat" {
		t.Errorf("unexpected user: %+v", resp.User)
	}

	claims, err := jwt.ValidateToken(resp.AccessToken, "test-secret-32-characters-long!")
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.UserID != "octocat" {
		t.Errorf("token carries wrong login: %s", claims.UserID)
	}

	if len(remote.ensureCalls) != 1 || remote.ensureCalls[0] != "mnemosyne-db" {
		t.Errorf("login must prepare the backing repository, got %v", remote.ensureCalls)
	}

	session, err := s.Get("octocat")
	if err != nil {
		t.Fatalf("expected live session, got %v", err)
	}
	if session.Storage == nil {
		t.Error("session has no storage coordinator")
	}
}

func TestSessionService_LoginInvalidToken(t *testing.T) {
	remote := &mockUserRemote{
		mockRemote: newMockRemote(),
		err:        errors.New("status 401"),
	}
	s := newTestSessionService(remote)

	if _, err := s.Login(&domain.LoginRequest{Token: "bad"}); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSessionService_Logout(t *testing.T) {
	remote := &mockUserRemote{
		mockRemote: newMockRemote(),
		user:       &domain.GitHubUser{Login: "octocat"},
	}
	s := newTestSessionService(remote)

	if _, err := s.Login(&domain.LoginRequest{Token: "gh-token"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	s.Logout("octocat")

	if _, err := s.Get("octocat"); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound after logout, got %v", err)
	}

	// Logging out twice is harmless.
	s.Logout("octocat")
}
