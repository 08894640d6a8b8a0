package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavel-fokin/fileshare/internal/config"
	"github.com/pavel-fokin/fileshare/internal/fileshare"
	"github.com/pavel-fokin/fileshare/internal/fs"
	"github.com/pavel-fokin/fileshare/internal/sqlite"
)

const (
	adminToken = "test-token"
	userID     = 12345
	host       = "fileshare.test"
)

func setupTestServer(t *testing.T) (*http.Server, string) {
	dataDir := t.TempDir()

	cfg := &config.Config{
		AdminToken: adminToken,
		UserID:     userID,
		Host:       host,
		DataDir:    dataDir,
		DBPath:     filepath.Join(dataDir, "test.db"),
		Addr:       ":0",
		MaxSize:    1024,
	}
	require.NoError(t, config.Validate(cfg))

	repo, err := sqlite.NewRepository(cfg.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	svc := fileshare.NewService(
		fs.NewStorage(cfg.DataDir),
		fileshare.NewResolver(cfg.Host, cfg.UserID),
		repo,
	)

	return New(cfg, svc), dataDir
}

func doRequest(t *testing.T, method, url string, body []byte, authorized bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if authorized {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestIntegration(t *testing.T) {
	srv, dataDir := setupTestServer(t)

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	var created createResponse
	content := []byte("recorded film")

	// 1. Create a record
	t.Run("Create", func(t *testing.T) {
		body := []byte(`{"category": 1, "name": "final round", "authorName": "player", "authorXuid": 99}`)

		resp := doRequest(t, "POST", ts.URL+"/v1/fileshare", body, false)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp = doRequest(t, "POST", ts.URL+"/v1/fileshare", body, true)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

		require.NotZero(t, created.FileID)
		assert.Equal(t, strconv.FormatUint(created.FileID, 10)+".demo", created.FileName)
		assert.Equal(t, fileshare.StatusUnknown, created.Status)
	})

	recordURL := ts.URL + "/v1/fileshare/" + strconv.FormatUint(created.FileID, 10)

	// 2. Describe before upload is rejected
	t.Run("Describe too early", func(t *testing.T) {
		resp := doRequest(t, "PUT", recordURL+"/metadata", []byte(`{"tags": {}, "metadata": "AQI="}`), true)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	// 3. Upload the asset
	t.Run("Upload", func(t *testing.T) {
		resp := doRequest(t, "PUT", recordURL+"/content", content, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var uploaded createResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
		assert.Equal(t, fileshare.StatusUploaded, uploaded.Status)

		onDisk, err := os.ReadFile(filepath.Join(dataDir, "players", "fileshare-12345", created.FileName))
		require.NoError(t, err)
		assert.Equal(t, content, onDisk)
	})

	// 4. Upload over the size limit
	t.Run("Upload too large", func(t *testing.T) {
		resp := doRequest(t, "PUT", recordURL+"/content", bytes.Repeat([]byte("x"), 2048), true)
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	})

	// 5. Describe the record
	t.Run("Describe", func(t *testing.T) {
		resp := doRequest(t, "PUT", recordURL+"/metadata", []byte(`{"tags": {"3": 30}, "metadata": "AQI="}`), true)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result fileshare.Result
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, fileshare.Tags{3: 30}, result.Tags)
		assert.Equal(t, []byte{1, 2}, result.MetaData)
		assert.Empty(t, result.URL)
	})

	// 6. Listing carries tags
	t.Run("List", func(t *testing.T) {
		for _, url := range []string{ts.URL + "/v1/fileshare", ts.URL + "/v1/fileshare?category=1"} {
			resp := doRequest(t, "GET", url, nil, false)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var results []fileshare.Result
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
			require.Len(t, results, 1, url)
			assert.Equal(t, created.FileID, results[0].FileID)
			assert.Equal(t, fileshare.Tags{3: 30}, results[0].Tags)
			assert.Empty(t, results[0].URL)
		}

		resp := doRequest(t, "GET", ts.URL+"/v1/fileshare?category=2", nil, false)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(body))
	})

	// 7. Download projection carries the URL
	var downloadURL string
	t.Run("Get for download", func(t *testing.T) {
		resp := doRequest(t, "GET", recordURL+"?download=true", nil, false)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result fileshare.Result
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, "http://"+host+"/"+created.FileName, result.URL)
		assert.Nil(t, result.Tags)
		assert.Equal(t, "final round", result.FileName)
		assert.Equal(t, uint64(len(content)), result.FileSize)
		downloadURL = result.URL
	})

	// 8. The download URL path serves the asset
	t.Run("Download", func(t *testing.T) {
		require.NotEmpty(t, downloadURL)
		path := downloadURL[len("http://"+host):]

		resp := doRequest(t, "GET", ts.URL+path, nil, false)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "attachment; filename="+created.FileName, resp.Header.Get("Content-Disposition"))

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, content, body)
	})

	// 9. Sidecars and unknown records are not served
	t.Run("Not found", func(t *testing.T) {
		sidecar := strconv.FormatUint(created.FileID, 10) + ".metadata"
		resp := doRequest(t, "GET", ts.URL+"/"+sidecar, nil, false)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = doRequest(t, "GET", ts.URL+"/v1/fileshare/1", nil, false)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = doRequest(t, "GET", ts.URL+"/v1/fileshare/abc", nil, false)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestIntegrationAssetAccess(t *testing.T) {
	srv, _ := setupTestServer(t)

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	create := func(t *testing.T, category int) createResponse {
		t.Helper()
		body := []byte(`{"category": ` + strconv.Itoa(category) + `, "name": "shot"}`)
		resp := doRequest(t, "POST", ts.URL+"/v1/fileshare", body, true)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var created createResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
		return created
	}

	t.Run("unknown category", func(t *testing.T) {
		for _, body := range []string{`{"category": 7, "name": "x"}`, `{"category": 0, "name": "x"}`} {
			resp := doRequest(t, "POST", ts.URL+"/v1/fileshare", []byte(body), true)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, body)
		}
	})

	t.Run("empty upload", func(t *testing.T) {
		created := create(t, 1)
		recordURL := ts.URL + "/v1/fileshare/" + strconv.FormatUint(created.FileID, 10)

		resp := doRequest(t, "PUT", recordURL+"/content", nil, true)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		resp = doRequest(t, "GET", ts.URL+"/"+created.FileName, nil, false)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("private screenshot", func(t *testing.T) {
		created := create(t, 2)
		recordURL := ts.URL + "/v1/fileshare/" + strconv.FormatUint(created.FileID, 10)
		assetURL := ts.URL + "/" + created.FileName

		resp := doRequest(t, "PUT", recordURL+"/content", []byte("jpeg bytes"), true)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		// uploaded but not described
		resp = doRequest(t, "GET", assetURL, nil, true)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = doRequest(t, "PUT", recordURL+"/metadata", []byte(`{"tags": {}, "metadata": "AQI="}`), true)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doRequest(t, "GET", assetURL, nil, false)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp = doRequest(t, "GET", assetURL, nil, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, []byte("jpeg bytes"), body)
	})
}
