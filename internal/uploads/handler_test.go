package uploads

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billboard-mafia/backend/pkg/storage"
)

// stubPinner records calls and returns a fixed result.
type stubPinner struct {
	calls    int
	filename string
	ctype    string
	size     int64
}

func (p *stubPinner) PinFile(_ context.Context, filename, contentType string, body io.Reader, size int64) (storage.Result, error) {
	p.calls++
	p.filename = filename
	p.ctype = contentType
	p.size = size
	_, _ = io.Copy(io.Discard, body)
	return storage.Result{
		CID:        "QmTestHash",
		URI:        "ipfs://QmTestHash",
		GatewayURL: "https://gateway.pinata.cloud/ipfs/QmTestHash",
	}, nil
}

func newTestRouter(pinner storage.Pinner, maxBytes int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(pinner, maxBytes, nil)
	r := gin.New()
	r.POST("/upload", h.Upload)
	return r
}

// multipartFile builds a multipart body with an explicit part Content-Type,
// which CreateFormFile cannot set.
func multipartFile(t *testing.T, filename, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func postUpload(t *testing.T, r *gin.Engine, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadNoFile(t *testing.T) {
	pinner := &stubPinner{}
	r := newTestRouter(pinner, 5<<20)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.Close())
	resp := postUpload(t, r, &buf, w.FormDataContentType())

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "No file provided")
	assert.Zero(t, pinner.calls)
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	pinner := &stubPinner{}
	r := newTestRouter(pinner, 5<<20)

	buf, ctype := multipartFile(t, "payload.pdf", "application/pdf", []byte("%PDF-1.4"))
	resp := postUpload(t, r, buf, ctype)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "Invalid file type. Allowed:")
	assert.Contains(t, resp.Body.String(), "image/png")
	assert.Zero(t, pinner.calls, "rejected types must never reach the provider")
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	pinner := &stubPinner{}
	r := newTestRouter(pinner, 64) // tiny cap for the test

	buf, ctype := multipartFile(t, "big.png", "image/png", bytes.Repeat([]byte{0xAB}, 128))
	resp := postUpload(t, r, buf, ctype)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "File too large")
	assert.Zero(t, pinner.calls)
}

func TestUploadWithoutConfiguredStorage(t *testing.T) {
	r := newTestRouter(nil, 5<<20)

	buf, ctype := multipartFile(t, "ad.png", "image/png", []byte{0x89, 'P', 'N', 'G'})
	resp := postUpload(t, r, buf, ctype)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "IPFS upload not configured")
}

func TestUploadSuccess(t *testing.T) {
	pinner := &stubPinner{}
	r := newTestRouter(pinner, 5<<20)

	payload := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A}
	buf, ctype := multipartFile(t, "ad.png", "image/png", payload)
	resp := postUpload(t, r, buf, ctype)

	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, `"success":true`)
	assert.Contains(t, body, `"ipfsHash":"QmTestHash"`)
	assert.Contains(t, body, `"ipfsUrl":"ipfs://QmTestHash"`)
	assert.Contains(t, body, `"gatewayUrl":"https://gateway.pinata.cloud/ipfs/QmTestHash"`)

	assert.Equal(t, 1, pinner.calls)
	assert.Equal(t, "ad.png", pinner.filename)
	assert.Equal(t, "image/png", pinner.ctype)
	assert.Equal(t, int64(len(payload)), pinner.size)
}
