package app

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	u "dmlabels/internal/utils"
)

func uploadRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func TestSetupApp_Upload(t *testing.T) {
	app := SetupApp(u.DefaultConfig(), nil)

	resp, err := app.Test(uploadRequest(t, map[string]string{"serials": "ABC123\nXYZ999", "size": "medium"}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	body := decodeBody(t, resp)
	for _, key := range []string{"img_src", "img_base64", "pdf_b64"} {
		assert.NotEmpty(t, body[key], key)
	}
	assert.EqualValues(t, 1, body["pages"])
	assert.EqualValues(t, 2, body["symbols"])
}

func TestSetupApp_ErrorsAreJSON(t *testing.T) {
	app := SetupApp(u.DefaultConfig(), nil)

	resp, err := app.Test(uploadRequest(t, map[string]string{"serials": ""}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "no serials")
	assert.EqualValues(t, fiber.StatusBadRequest, body["code"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Not Found", body["error"])
}

func TestSetupApp_OpsEndpoints(t *testing.T) {
	app := SetupApp(u.DefaultConfig(), nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/livez", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/sizes", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "medium", body["default"])
	assert.Len(t, body["sizes"], 3)
}

func TestSetupApp_AuthRequired(t *testing.T) {
	t.Cleanup(u.Tokens.Reset)
	u.Tokens.Replace(map[string]int{"secret": 0})

	cfg := u.DefaultConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.Required = true
	app := SetupApp(cfg, nil)

	resp, err := app.Test(uploadRequest(t, map[string]string{"serials": "A"}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, decodeBody(t, resp)["error"])

	req := uploadRequest(t, map[string]string{"serials": "A"})
	req.Header.Set("X-API-Key", "secret")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
