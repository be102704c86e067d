// Package hubtest provides an in-memory Hub for tests.
package hubtest

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Server fakes the dataset endpoints the hub client uses.
type Server struct {
	*httptest.Server

	// FailCommit makes every commit answer 500.
	FailCommit bool
	// Token, when set, is required as a bearer token.
	Token string

	mu       sync.Mutex
	repos    map[string]map[string][]byte
	Created  []string
	Commits  int
	Requests int
}

// New starts a fake Hub. Close it when done.
func New() *Server {
	s := &Server{repos: make(map[string]map[string][]byte)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Seed creates repo with the given files.
func (s *Server) Seed(repo string, files map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string][]byte, len(files))
	for k, v := range files {
		m[k] = []byte(v)
	}
	s.repos[repo] = m
}

// File returns a stored file.
func (s *Server) File(repo, path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, ok := s.repos[repo]
	if !ok {
		return "", false
	}
	data, ok := files[path]
	return string(data), ok
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests++

	if s.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.Token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	p := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(p, "/api/datasets/"):
		if _, ok := s.repos[strings.TrimPrefix(p, "/api/datasets/")]; !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{}`)

	case r.Method == http.MethodPost && p == "/api/repos/create":
		var body struct {
			Name         string `json:"name"`
			Organization string `json:"organization"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		repo := body.Name
		if body.Organization != "" {
			repo = body.Organization + "/" + body.Name
		}
		s.repos[repo] = map[string][]byte{}
		s.Created = append(s.Created, repo)
		_, _ = io.WriteString(w, `{}`)

	case r.Method == http.MethodGet && strings.HasPrefix(p, "/datasets/"):
		repo, file, ok := splitResolve(strings.TrimPrefix(p, "/datasets/"))
		data, found := s.repos[repo][file]
		if !ok || !found {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)

	case r.Method == http.MethodPost && strings.HasPrefix(p, "/api/datasets/") && strings.Contains(p, "/commit/"):
		if s.FailCommit {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		repo, _, _ := strings.Cut(strings.TrimPrefix(p, "/api/datasets/"), "/commit/")
		files, ok := s.repos[repo]
		if !ok {
			http.NotFound(w, r)
			return
		}
		sc := bufio.NewScanner(r.Body)
		sc.Buffer(make([]byte, 0, 64<<10), 16<<20)
		for sc.Scan() {
			var line struct {
				Key   string            `json:"key"`
				Value map[string]string `json:"value"`
			}
			if err := json.Unmarshal(sc.Bytes(), &line); err != nil || line.Key != "file" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(line.Value["content"])
			if err != nil {
				http.Error(w, "bad content", http.StatusBadRequest)
				return
			}
			files[line.Value["path"]] = data
		}
		s.Commits++
		_, _ = io.WriteString(w, `{"commitOid":"abc"}`)

	default:
		http.NotFound(w, r)
	}
}

// splitResolve splits "owner/name/resolve/main/path" into repo and path.
func splitResolve(rest string) (string, string, bool) {
	repo, tail, ok := strings.Cut(rest, "/resolve/")
	if !ok {
		return "", "", false
	}
	_, file, ok := strings.Cut(tail, "/")
	return repo, file, ok
}
