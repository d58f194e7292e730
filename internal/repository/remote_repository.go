package repository

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mnemosyne-server/internal/domain"
)

// RemoteEntry is one listing entry of a remote directory.
type RemoteEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// RemoteRepository is the adapter over the git-backed object store
// that holds all items and assets. Not-found is a normal outcome on
// every read: ReadFile and ReadFileRaw report it (and any fetch
// failure) as ok=false, ListDirectory as an empty slice.
type RemoteRepository interface {
	EnsureRepository(name string) error
	WriteFile(path, content, message string, isBinary bool) error
	ReadFile(path string) (string, bool)
	ReadFileRaw(path string) (string, bool)
	ListDirectory(path string) ([]RemoteEntry, error)
}

// GitHubRepository implements RemoteRepository on the GitHub REST v3
// contents API. The owner login is resolved lazily from the token.
type GitHubRepository struct {
	apiURL string
	token  string
	owner  string
	repo   string
	client *http.Client
}

func NewGitHubRepository(apiURL, token string) *GitHubRepository {
	return &GitHubRepository{
		apiURL: strings.TrimSuffix(apiURL, "/"),
		token:  token,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *GitHubRepository) do(method, path string, body interface{}) (*http.Response, error) {
	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		buf = bytes.NewBuffer(data)
	} else {
		buf = &bytes.Buffer{}
	}

	req, err := http.NewRequest(method, r.apiURL+path, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return r.client.Do(req)
}

// CurrentUser fetches the authenticated user and records the login as
// the repository owner for all subsequent path operations.
func (r *GitHubRepository) CurrentUser() (*domain.GitHubUser, error) {
	resp, err := r.do(http.MethodGet, "/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch authenticated user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch authenticated user: status %d", resp.StatusCode)
	}

	var user domain.GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}

	r.owner = user.Login
	return &user, nil
}

func (r *GitHubRepository) resolveOwner() error {
	if r.owner != "" {
		return nil
	}
	_, err := r.CurrentUser()
	return err
}

// EnsureRepository creates the backing repository if it does not
// exist. A missing repository is a normal outcome, not an error.
func (r *GitHubRepository) EnsureRepository(name string) error {
	if err := r.resolveOwner(); err != nil {
		return err
	}

	resp, err := r.do(http.MethodGet, fmt.Sprintf("/repos/%s/%s", r.owner, name), nil)
	if err != nil {
		return fmt.Errorf("failed to check repository: %w", err)
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		r.repo = name
		return nil
	case resp.StatusCode != http.StatusNotFound:
		return fmt.Errorf("failed to check repository: status %d", resp.StatusCode)
	}

	createResp, err := r.do(http.MethodPost, "/user/repos", map[string]interface{}{
		"name":        name,
		"private":     true,
		"auto_init":   true,
		"description": "Mnemosyne memory storage",
	})
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer createResp.Body.Close()

	if createResp.StatusCode != http.StatusCreated && createResp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to create repository: status %d", createResp.StatusCode)
	}

	r.repo = name
	return nil
}

func (r *GitHubRepository) contentsPath(path string) string {
	return fmt.Sprintf("/repos/%s/%s/contents/%s", r.owner, r.repo, path)
}

type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

// WriteFile creates or updates a file. Plain content is base64-encoded
// here; binary content must already be base64-encoded by the caller.
func (r *GitHubRepository) WriteFile(path, content, message string, isBinary bool) error {
	if err := r.resolveOwner(); err != nil {
		return err
	}

	encoded := content
	if !isBinary {
		encoded = base64.StdEncoding.EncodeToString([]byte(content))
	}

	body := map[string]interface{}{
		"message": message,
		"content": encoded,
	}

	// The contents API rejects updates without the current blob SHA.
	if existing, ok := r.fetchContents(path); ok && existing.SHA != "" {
		body["sha"] = existing.SHA
	}

	resp, err := r.do(http.MethodPut, r.contentsPath(path), body)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to write %s: status %d", path, resp.StatusCode)
	}

	return nil
}

func (r *GitHubRepository) fetchContents(path string) (*contentsResponse, bool) {
	if err := r.resolveOwner(); err != nil {
		return nil, false
	}

	resp, err := r.do(http.MethodGet, r.contentsPath(path), nil)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false
	}

	var contents contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&contents); err != nil {
		return nil, false
	}

	return &contents, true
}

// ReadFile returns the decoded text content of a file, or ok=false on
// not-found or any fetch failure.
func (r *GitHubRepository) ReadFile(path string) (string, bool) {
	raw, ok := r.ReadFileRaw(path)
	if !ok {
		return "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", false
	}

	return string(decoded), true
}

// ReadFileRaw returns the base64 content of a file without decoding,
// for binary assets. ok=false on not-found or any fetch failure.
func (r *GitHubRepository) ReadFileRaw(path string) (string, bool) {
	contents, ok := r.fetchContents(path)
	if !ok {
		return "", false
	}

	// The API wraps base64 bodies at 60 columns.
	return strings.ReplaceAll(contents.Content, "\n", ""), true
}

// ListDirectory lists a remote directory. A missing directory yields
// an empty slice, not an error.
func (r *GitHubRepository) ListDirectory(path string) ([]RemoteEntry, error) {
	if err := r.resolveOwner(); err != nil {
		return nil, err
	}

	resp, err := r.do(http.MethodGet, r.contentsPath(path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []RemoteEntry{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list %s: status %d", path, resp.StatusCode)
	}

	var entries []RemoteEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode listing of %s: %w", path, err)
	}

	return entries, nil
}
