package catalog

import (
	"crafthost/internal/domain"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaperIndex(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/projects/paper", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"project_id":"paper","versions":["1.19.4","1.20.4","1.20.6","1.21.1"]}`)
	})
	mux.HandleFunc("/projects/paper/versions/1.20.4", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"version":"1.20.4","builds":[401,455,499]}`)
	})
	mux.HandleFunc("/projects/paper/versions/1.21.1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"version":"1.21.1","builds":[]}`)
	})
	mux.HandleFunc("/projects/paper/versions/1.20.4/builds/499/downloads/paper-1.20.4-499.jar", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jar-bytes"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestListVersions(t *testing.T) {
	srv := newPaperIndex(t)
	c := NewClient(srv.URL, "paper", nil)

	res := c.ListVersions()
	require.NoError(t, res.Err)
	assert.True(t, res.Available())
	assert.Equal(t, []string{"1.19.4", "1.20.4", "1.20.6", "1.21.1"}, res.Versions)
}

func TestListVersionsFailureIsEmpty(t *testing.T) {
	t.Run("ServerError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		res := NewClient(srv.URL, "paper", nil).ListVersions()
		assert.Empty(t, res.Versions)
		assert.False(t, res.Available())
		assert.True(t, errors.Is(res.Err, domain.ErrCatalog))
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"versions":`)
		}))
		defer srv.Close()

		res := NewClient(srv.URL, "paper", nil).ListVersions()
		assert.NotNil(t, res.Versions)
		assert.Empty(t, res.Versions)
		assert.Error(t, res.Err)
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		res := NewClient(url, "paper", nil).ListVersions()
		assert.Empty(t, res.Versions)
		assert.True(t, errors.Is(res.Err, domain.ErrCatalog))
	})
}

func TestResolveLatestBuild(t *testing.T) {
	srv := newPaperIndex(t)
	c := NewClient(srv.URL, "paper", nil)

	build, err := c.ResolveLatestBuild("1.20.4")
	require.NoError(t, err)
	assert.Equal(t, 499, build)

	_, err = c.ResolveLatestBuild("9.9.9")
	assert.True(t, errors.Is(err, domain.ErrCatalog))

	_, err = c.ResolveLatestBuild("1.21.1")
	assert.True(t, errors.Is(err, domain.ErrCatalog), "empty build list is a catalog error")

	_, err = c.ResolveLatestBuild("")
	assert.True(t, errors.Is(err, domain.ErrCatalog))
}

func TestArtifactURLIsDeterministic(t *testing.T) {
	c := NewClient("https://api.papermc.io/v2/", "paper", nil)

	first := c.ArtifactURL("1.20.4", 499)
	second := c.ArtifactURL("1.20.4", 499)

	assert.Equal(t, first, second)
	assert.Equal(t, "https://api.papermc.io/v2/projects/paper/versions/1.20.4/builds/499/downloads/paper-1.20.4-499.jar", first)
}

func TestDownload(t *testing.T) {
	srv := newPaperIndex(t)
	c := NewClient(srv.URL, "paper", nil)
	dir := filepath.Join(t.TempDir(), "server")

	progress := make(chan domain.ProgressEvent, 64)
	path, err := c.Download(dir, "1.20.4", progress)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "server.jar"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jar-bytes", string(data))

	close(progress)
	var last domain.ProgressEvent
	for ev := range progress {
		last = ev
	}
	assert.Equal(t, float64(100), last.Progress)
}

func TestDownloadOverwritesExistingArtifact(t *testing.T) {
	srv := newPaperIndex(t)
	c := NewClient(srv.URL, "paper", nil)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "server.jar"), []byte("old artifact contents"), 0644))

	path, err := c.Download(dir, "1.20.4", nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jar-bytes", string(data))
}

func TestDownloadErrors(t *testing.T) {
	t.Run("UnknownVersion", func(t *testing.T) {
		srv := newPaperIndex(t)
		dir := t.TempDir()
		_, err := NewClient(srv.URL, "paper", nil).Download(dir, "0.0.1", nil)
		assert.True(t, errors.Is(err, domain.ErrCatalog))
		assert.NoFileExists(t, filepath.Join(dir, "server.jar"))
	})

	t.Run("ArtifactMissing", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/projects/paper/versions/1.20.4", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"builds":[1,2]}`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		_, err := NewClient(srv.URL, "paper", nil).Download(t.TempDir(), "1.20.4", nil)
		assert.True(t, errors.Is(err, domain.ErrDownload))
		assert.False(t, errors.Is(err, domain.ErrCatalog))
	})
}

func TestSortNewestFirst(t *testing.T) {
	in := []string{"1.8.8", "1.20.4", "1.20", "1.21.1", "1.9"}
	out := SortNewestFirst(in)

	assert.Equal(t, []string{"1.21.1", "1.20.4", "1.20", "1.9", "1.8.8"}, out)
	assert.Equal(t, "1.8.8", in[0], "input is left untouched")
}

func TestSortNewestFirstRanksPreReleasesBelowRelease(t *testing.T) {
	out := SortNewestFirst([]string{"1.13-pre7", "1.12.2", "1.13", "1.13-pre10", "1.13.1"})
	assert.Equal(t, []string{"1.13.1", "1.13", "1.13-pre10", "1.13-pre7", "1.12.2"}, out)
}

func TestStableVersions(t *testing.T) {
	in := []string{"1.13-pre7", "1.13", "1.14-rc1", "1.14"}
	assert.Equal(t, []string{"1.13", "1.14"}, StableVersions(in))
	assert.Empty(t, StableVersions([]string{"1.21-pre1"}))
}

func TestNewestStable(t *testing.T) {
	v, ok := NewestStable([]string{"1.20.4", "1.21-pre1", "1.20.6", "1.21-rc1"})
	assert.True(t, ok)
	assert.Equal(t, "1.20.6", v)

	_, ok = NewestStable([]string{"1.21-pre1"})
	assert.False(t, ok)
}
