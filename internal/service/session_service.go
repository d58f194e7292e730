package service

import (
	"fmt"
	"sync"
	"time"

	"mnemosyne-server/internal/domain"
	"mnemosyne-server/internal/repository"
	"mnemosyne-server/pkg/jwt"
)

// UserRemote is a remote repository adapter that can also identify
// the user owning the presented credential.
type UserRemote interface {
	repository.RemoteRepository
	CurrentUser() (*domain.GitHubUser, error)
}

// RemoteFactory builds an adapter bound to one GitHub token.
type RemoteFactory func(token string) UserRemote

// StorageFactory builds a per-session storage coordinator, with its
// own caches, for the given login.
type StorageFactory func(login string, remote repository.RemoteRepository) *StorageService

// Session is the unit of cache ownership: one logged-in user, one
// coordinator, one set of caches. Sessions die on logout.
type Session struct {
	User    *domain.GitHubUser
	Storage *StorageService
}

// SessionService exchanges GitHub tokens for server sessions and
// tracks the live sessions by login.
type SessionService struct {
	newRemote     RemoteFactory
	newStorage    StorageFactory
	jwtSecret     string
	jwtExpiration time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionService(newRemote RemoteFactory, newStorage StorageFactory, jwtSecret string, jwtExpiration time.Duration) *SessionService {
	return &SessionService{
		newRemote:     newRemote,
		newStorage:    newStorage,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		sessions:      make(map[string]*Session),
	}
}

// Login validates the GitHub token, prepares the backing repository
// and returns a session token. Calling it again for the same user
// replaces the session.
func (s *SessionService) Login(req *domain.LoginRequest) (*domain.LoginResponse, error) {
	remote := s.newRemote(req.Token)

	user, err := remote.CurrentUser()
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	storage := s.newStorage(user.Login, remote)
	if err := storage.Init(); err != nil {
		return nil, fmt.Errorf("failed to prepare repository: %w", err)
	}

	token, err := jwt.GenerateToken(user.Login, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	s.mu.Lock()
	s.sessions[user.Login] = &Session{User: user, Storage: storage}
	s.mu.Unlock()

	return &domain.LoginResponse{
		User:        user,
		AccessToken: token,
		ExpiresIn:   int64(s.jwtExpiration.Seconds()),
	}, nil
}

// Get resolves a login to its live session.
func (s *SessionService) Get(login string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[login]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Logout drops the session and its cached state.
func (s *SessionService) Logout(login string) {
	s.mu.Lock()
	session, ok := s.sessions[login]
	delete(s.sessions, login)
	s.mu.Unlock()

	if ok {
		session.Storage.Reset()
	}
}
