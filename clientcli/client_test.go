package clientcli_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/fragments/clientcli"
)

const (
	testUser = "user1@email.com"
	testPass = "password1"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *clientcli.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := clientcli.New(&clientcli.Config{
		Endpoint: server.URL,
		Username: testUser,
		Password: testPass,
	})
	require.NoError(t, err)
	return client
}

func writeFragment(t *testing.T, w http.ResponseWriter, code int, f clientcli.FragmentInfo) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"status": "ok", "fragment": f}))
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "error",
		"error":  map[string]any{"code": code, "message": message},
	})
}

func assertAuth(t *testing.T, r *http.Request) {
	t.Helper()
	user, pass, ok := r.BasicAuth()
	assert.True(t, ok, "basic auth missing")
	assert.Equal(t, testUser, user)
	assert.Equal(t, testPass, pass)
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		client, err := clientcli.New(&clientcli.Config{
			Endpoint: "http://localhost:8080",
			Username: testUser,
			Password: testPass,
		})
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("empty endpoint uses default", func(t *testing.T) {
		client, err := clientcli.New(&clientcli.Config{})
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := clientcli.New(nil)
		assert.ErrorIs(t, err, clientcli.ErrConfigRequired)
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		_, err := clientcli.New(&clientcli.Config{Endpoint: "not a url"})
		assert.Error(t, err)
	})
}

func TestClient_Health(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ok","version":"1.2.3"}`))
	})

	version, err := client.Health(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", version)
}

func TestClient_Upload(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("successful upload", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/fragments", r.URL.Path)
			assert.Equal(t, "text/markdown", r.Header.Get("Content-Type"))
			assertAuth(t, r)

			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			assert.Equal(t, "# Title", string(body))

			w.Header().Set("Location", "http://example.com/v1/fragments/abc")
			writeFragment(t, w, http.StatusCreated, clientcli.FragmentInfo{
				ID: "abc", OwnerID: "owner", Type: "text/markdown", Size: 7, Created: now, Updated: now,
			})
		})

		results, err := client.Upload(t.Context(), clientcli.UploadOptions{
			LocalPath: writeTempFile(t, "notes.md", "# Title"),
		})
		require.NoError(t, err)
		require.Len(t, results, 1)

		assert.NoError(t, results[0].Err)
		assert.Equal(t, "abc", results[0].Fragment.ID)
		assert.Equal(t, int64(7), results[0].Fragment.Size)
		assert.True(t, now.Equal(results[0].Fragment.Created))
		assert.Equal(t, "http://example.com/v1/fragments/abc", results[0].Location)
	})

	t.Run("explicit content type", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
			writeFragment(t, w, http.StatusCreated, clientcli.FragmentInfo{ID: "x"})
		})

		_, err := client.Upload(t.Context(), clientcli.UploadOptions{
			LocalPath:   writeTempFile(t, "notes.md", "plain"),
			ContentType: "text/plain",
		})
		require.NoError(t, err)
	})

	t.Run("sniffed content type", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "text/plain; charset=utf-8", r.Header.Get("Content-Type"))
			writeFragment(t, w, http.StatusCreated, clientcli.FragmentInfo{ID: "x"})
		})

		_, err := client.Upload(t.Context(), clientcli.UploadOptions{
			LocalPath: writeTempFile(t, "README", "just text"),
		})
		require.NoError(t, err)
	})

	t.Run("unsupported type", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusUnsupportedMediaType, "unsupported media type")
		})

		_, err := client.Upload(t.Context(), clientcli.UploadOptions{
			LocalPath: writeTempFile(t, "a.txt", "x"),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, clientcli.ErrUnsupportedType)
		assert.Contains(t, err.Error(), "unsupported media type")
	})

	t.Run("recursive upload reports each file", func(t *testing.T) {
		calls := 0
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if r.Header.Get("Content-Type") == "application/json" {
				writeError(w, http.StatusBadRequest, "bad json")
				return
			}
			writeFragment(t, w, http.StatusCreated, clientcli.FragmentInfo{ID: "ok"})
		})

		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.json"), []byte("{}"), 0o600))

		results, err := client.Upload(t.Context(), clientcli.UploadOptions{LocalPath: dir, Recursive: true})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, 2, calls)

		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		assert.Equal(t, 1, failed)
	})

	t.Run("empty path", func(t *testing.T) {
		client, err := clientcli.New(&clientcli.Config{})
		require.NoError(t, err)

		_, err = client.Upload(t.Context(), clientcli.UploadOptions{})
		assert.ErrorIs(t, err, clientcli.ErrEmptyPath)
	})

	t.Run("missing file", func(t *testing.T) {
		client, err := clientcli.New(&clientcli.Config{})
		require.NoError(t, err)

		_, err = client.Upload(t.Context(), clientcli.UploadOptions{LocalPath: "/nonexistent/file.txt"})
		assert.Error(t, err)
	})
}

func TestClient_Update(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v1/fragments/abc", r.URL.Path)
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		assertAuth(t, r)
		writeFragment(t, w, http.StatusOK, clientcli.FragmentInfo{ID: "abc", Type: "text/plain", Size: 3})
	})

	info, err := client.Update(t.Context(), clientcli.UpdateOptions{
		ID:        "abc",
		LocalPath: writeTempFile(t, "new.txt", "new"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)

	_, err = client.Update(t.Context(), clientcli.UpdateOptions{LocalPath: "x"})
	assert.ErrorIs(t, err, clientcli.ErrEmptyID)
}

func TestClient_Info(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/fragments/abc/info", r.URL.Path)
			writeFragment(t, w, http.StatusOK, clientcli.FragmentInfo{ID: "abc", Type: "text/html"})
		})

		info, err := client.Info(t.Context(), "abc")
		require.NoError(t, err)
		assert.Equal(t, "text/html", info.Type)
	})

	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "fragment not found")
		})

		_, err := client.Info(t.Context(), "abc")
		require.Error(t, err)
		assert.ErrorIs(t, err, clientcli.ErrNotFound)

		var apiErr *clientcli.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsNotFound())
		assert.Equal(t, "fragment not found", apiErr.Message)
	})
}

func TestClient_Get(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		switch r.URL.Path {
		case "/v1/fragments/abc":
			w.Header().Set("Content-Type", "text/markdown")
			_, _ = w.Write([]byte("# Title"))
		case "/v1/fragments/abc.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<h1>Title</h1>\n"))
		default:
			writeError(w, http.StatusNotFound, "fragment not found")
		}
	}

	t.Run("to file", func(t *testing.T) {
		client := newTestClient(t, handler)
		localPath := filepath.Join(t.TempDir(), "out", "notes.md")

		result, body, err := client.Get(t.Context(), clientcli.GetOptions{ID: "abc", LocalPath: localPath})
		require.NoError(t, err)
		assert.Nil(t, body)
		assert.Equal(t, int64(7), result.Size)
		assert.Equal(t, "text/markdown", result.ContentType)

		data, err := os.ReadFile(localPath)
		require.NoError(t, err)
		assert.Equal(t, "# Title", string(data))
	})

	t.Run("converted to stdout", func(t *testing.T) {
		client := newTestClient(t, handler)

		result, body, err := client.Get(t.Context(), clientcli.GetOptions{ID: "abc.html", LocalPath: "-"})
		require.NoError(t, err)
		require.NotNil(t, body)
		defer func() { _ = body.Close() }()

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "<h1>Title</h1>\n", string(data))
		assert.Equal(t, "-", result.LocalPath)
		assert.Equal(t, "text/html", result.ContentType)
	})

	t.Run("default local path is the id", func(t *testing.T) {
		client := newTestClient(t, handler)
		t.Chdir(t.TempDir())

		result, _, err := client.Get(t.Context(), clientcli.GetOptions{ID: "abc.html"})
		require.NoError(t, err)
		assert.Equal(t, "abc.html", result.LocalPath)
		assert.FileExists(t, "abc.html")
	})

	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, handler)

		_, _, err := client.Get(t.Context(), clientcli.GetOptions{ID: "missing", LocalPath: "-"})
		assert.ErrorIs(t, err, clientcli.ErrNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		client := newTestClient(t, handler)

		_, _, err := client.Get(t.Context(), clientcli.GetOptions{})
		assert.ErrorIs(t, err, clientcli.ErrEmptyID)
	})
}

func TestClient_Delete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		if r.URL.Path == "/v1/fragments/gone" {
			writeError(w, http.StatusNotFound, "fragment not found")
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	t.Run("continues past errors", func(t *testing.T) {
		results, err := client.Delete(t.Context(), clientcli.DeleteOptions{IDs: []string{"a", "gone", "b"}})
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.True(t, results[0].Deleted)
		assert.False(t, results[1].Deleted)
		assert.ErrorIs(t, results[1].Err, clientcli.ErrNotFound)
		assert.True(t, results[2].Deleted)
		assert.True(t, clientcli.HasDeleteErrors(results))
	})

	t.Run("no ids", func(t *testing.T) {
		_, err := client.Delete(t.Context(), clientcli.DeleteOptions{})
		assert.ErrorIs(t, err, clientcli.ErrNoIDs)
	})
}

func TestClient_List(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/fragments", r.URL.Path)
		assertAuth(t, r)

		if r.URL.Query().Get("expand") == "1" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": "ok",
				"fragments": []clientcli.FragmentInfo{
					{ID: "a", Type: "text/plain", Size: 10, Created: now, Updated: now},
					{ID: "b", Type: "image/png", Size: 20, Created: now, Updated: now},
				},
			})
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","fragments":["a","b"]}`))
	})

	t.Run("ids", func(t *testing.T) {
		result, err := client.List(t.Context(), clientcli.ListOptions{})
		require.NoError(t, err)
		assert.False(t, result.Expanded)
		assert.Equal(t, []string{"a", "b"}, result.IDs)
		assert.Equal(t, 2, result.Len())
	})

	t.Run("expanded", func(t *testing.T) {
		result, err := client.List(t.Context(), clientcli.ListOptions{Expand: true})
		require.NoError(t, err)
		assert.True(t, result.Expanded)
		require.Len(t, result.Fragments, 2)
		assert.Equal(t, "image/png", result.Fragments[1].Type)
		assert.Equal(t, int64(30), result.TotalSize())
	})

	t.Run("unauthorized", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
		})

		_, err := client.List(t.Context(), clientcli.ListOptions{})
		assert.ErrorIs(t, err, clientcli.ErrUnauthorized)
	})
}

func TestAPIError(t *testing.T) {
	err := &clientcli.APIError{StatusCode: http.StatusNotFound, Message: "fragment not found"}

	assert.Equal(t, "server error: 404 - fragment not found", err.Error())
	assert.ErrorIs(t, err, clientcli.ErrNotFound)
	assert.NotErrorIs(t, err, clientcli.ErrUnauthorized)
}

func TestHasDeleteErrors(t *testing.T) {
	assert.False(t, clientcli.HasDeleteErrors(nil))
	assert.False(t, clientcli.HasDeleteErrors([]clientcli.DeleteResult{{ID: "a", Deleted: true}}))
	assert.True(t, clientcli.HasDeleteErrors([]clientcli.DeleteResult{{ID: "a", Err: clientcli.ErrNotFound}}))
}
