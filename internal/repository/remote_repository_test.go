package repository

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeGitHub is a minimal in-memory stand-in for the GitHub contents
// API, covering the endpoints the adapter uses.
type fakeGitHub struct {
	login string
	repos map[string]bool
	files map[string]string // path -> base64 content
	puts  []map[string]interface{}
}

func newFakeGitHub(login string) *fakeGitHub {
	return &fakeGitHub{
		login: login,
		repos: make(map[string]bool),
		files: make(map[string]string),
	}
}

func (f *fakeGitHub) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer bad-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"login": f.login})
	})

	mux.HandleFunc("/user/repos", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		name, _ := body["name"].(string)
		f.repos[name] = true
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(body)
	})

	mux.HandleFunc("/repos/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/repos/"+f.login+"/")

		// Repository existence check: /repos/{owner}/{name}
		if !strings.Contains(rest, "/") {
			if f.repos[rest] {
				json.NewEncoder(w).Encode(map[string]string{"name": rest})
			} else {
				w.WriteHeader(http.StatusNotFound)
			}
			return
		}

		// Contents: /repos/{owner}/{repo}/contents/{path}
		idx := strings.Index(rest, "/contents/")
		if idx < 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		path := rest[idx+len("/contents/"):]

		switch r.Method {
		case http.MethodGet:
			if content, ok := f.files[path]; ok {
				json.NewEncoder(w).Encode(map[string]string{
					"content": content,
					"sha":     "sha-" + path,
				})
				return
			}

			// Directory listing.
			var entries []map[string]string
			for p := range f.files {
				if strings.HasPrefix(p, path+"/") {
					entries = append(entries, map[string]string{
						"name": strings.TrimPrefix(p, path+"/"),
						"path": p,
					})
				}
			}
			if len(entries) == 0 {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(entries)

		case http.MethodPut:
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			f.puts = append(f.puts, body)
			content, _ := body["content"].(string)
			f.files[path] = content
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"path": path})

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	return mux
}

func newTestAdapter(t *testing.T, fake *fakeGitHub) *GitHubRepository {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return NewGitHubRepository(srv.URL, "good-token")
}

func TestGitHubRepository_CurrentUser(t *testing.T) {
	fake := newFakeGitHub("octocat")
	r := newTestAdapter(t, fake)

	user, err := r.CurrentUser()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Login != "octocat" {
		t.Errorf("unexpected login: %s", user.Login)
	}
}

func TestGitHubRepository_CurrentUserBadToken(t *testing.T) {
	fake := newFakeGitHub("octocat")
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	r := NewGitHubRepository(srv.URL, "bad-token")
	if _, err := r.CurrentUser(); err == nil {
		t.Error("expected error for rejected token")
	}
}

func TestGitHubRepository_EnsureRepositoryCreates(t *testing.T) {
	fake := newFakeGitHub("octocat")
	r := newTestAdapter(t, fake)

	if err := r.EnsureRepository("mnemosyne-db"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !fake.repos["mnemosyne-db"] {
		t.Error("expected repository to be created")
	}

	// Second call must be a no-op.
	if err := r.EnsureRepository("mnemosyne-db"); err != nil {
		t.Fatalf("expected no error on second ensure, got %v", err)
	}
	if len(fake.repos) != 1 {
		t.Errorf("expected a single repository, got %v", fake.repos)
	}
}

func TestGitHubRepository_WriteFileEncodesText(t *testing.T) {
	fake := newFakeGitHub("octocat")
	fake.repos["mnemosyne-db"] = true

	r := newTestAdapter(t, fake)
	if err := r.EnsureRepository("mnemosyne-db"); err != nil {
		t.Fatal(err)
	}

	if err := r.WriteFile("data/x.json", `{"id":"x"}`, "Save note: x", false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	stored := fake.files["data/x.json"]
	decoded, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		t.Fatalf("stored content is not base64: %v", err)
	}
	if string(decoded) != `{"id":"x"}` {
		t.Errorf("unexpected stored content: %s", decoded)
	}

	if msg := fake.puts[0]["message"]; msg != "Save note: x" {
		t.Errorf("unexpected commit message: %v", msg)
	}
}

func TestGitHubRepository_WriteFileUpdateCarriesSHA(t *testing.T) {
	fake := newFakeGitHub("octocat")
	fake.repos["mnemosyne-db"] = true
	fake.files["data/x.json"] = base64.StdEncoding.EncodeToString([]byte("old"))

	r := newTestAdapter(t, fake)
	if err := r.EnsureRepository("mnemosyne-db"); err != nil {
		t.Fatal(err)
	}

	if err := r.WriteFile("data/x.json", "new", "update", false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if sha := fake.puts[0]["sha"]; sha != "sha-data/x.json" {
		t.Errorf("update must carry the existing blob sha, got %v", sha)
	}
}

func TestGitHubRepository_WriteFileBinaryPassthrough(t *testing.T) {
	fake := newFakeGitHub("octocat")
	fake.repos["mnemosyne-db"] = true

	r := newTestAdapter(t, fake)
	if err := r.EnsureRepository("mnemosyne-db"); err != nil {
		t.Fatal(err)
	}

	encoded := base64.StdEncoding.EncodeToString([]byte{0, 1, 2})
	if err := r.WriteFile("assets/a.bin", encoded, "Upload asset: a.bin", true); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if fake.files["assets/a.bin"] != encoded {
		t.Error("binary content must be stored without re-encoding")
	}
}

func TestGitHubRepository_ReadFile(t *testing.T) {
	fake := newFakeGitHub("octocat")
	fake.repos["mnemosyne-db"] = true
	// The contents API wraps base64 bodies in newlines.
	encoded := base64.StdEncoding.EncodeToString([]byte("hello world"))
	fake.files["data/x.json"] = encoded[:8] + "\n" + encoded[8:]

	r := newTestAdapter(t, fake)
	if err := r.EnsureRepository("mnemosyne-db"); err != nil {
		t.Fatal(err)
	}

	content, ok := r.ReadFile("data/x.json")
	if !ok {
		t.Fatal("expected file to be found")
	}
	if content != "hello world" {
		t.Errorf("unexpected content: %q", content)
	}

	if _, ok := r.ReadFile("data/missing.json"); ok {
		t.Error("expected miss for unknown path")
	}
}

func TestGitHubRepository_ReadFileRaw(t *testing.T) {
	fake := newFakeGitHub("octocat")
	fake.repos["mnemosyne-db"] = true
	encoded := base64.StdEncoding.EncodeToString([]byte{0xde, 0xad, 0xbe, 0xef})
	fake.files["assets/a.bin"] = encoded[:4] + "\n" + encoded[4:]

	r := newTestAdapter(t, fake)
	if err := r.EnsureRepository("mnemosyne-db"); err != nil {
		t.Fatal(err)
	}

	raw, ok := r.ReadFileRaw("assets/a.bin")
	if !ok {
		t.Fatal("expected asset to be found")
	}
	if raw != encoded {
		t.Errorf("expected newline-stripped base64, got %q", raw)
	}
}

func TestGitHubRepository_ListDirectory(t *testing.T) {
	fake := newFakeGitHub("octocat")
	fake.repos["mnemosyne-db"] = true
	fake.files["data/a.json"] = "eA=="
	fake.files["data/b.json"] = "eA=="

	r := newTestAdapter(t, fake)
	if err := r.EnsureRepository("mnemosyne-db"); err != nil {
		t.Fatal(err)
	}

	entries, err := r.ListDirectory("data")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	missing, err := r.ListDirectory("nope")
	if err != nil {
		t.Fatalf("missing directory must not error, got %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("expected empty listing, got %v", missing)
	}
}
