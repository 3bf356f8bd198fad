package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultPinataEndpoint is Pinata's pinFileToIPFS REST endpoint.
const DefaultPinataEndpoint = "https://api.pinata.cloud/pinning/pinFileToIPFS"

// Pinata pins files to public IPFS through Pinata's REST API. There is no
// official Go SDK, so the multipart call is made directly.
type Pinata struct {
	jwt        string
	endpoint   string
	gatewayURL string // base, e.g. https://gateway.pinata.cloud/ipfs
	http       *http.Client
	logger     *zap.Logger
}

// NewPinata creates a Pinata pinner. endpoint may be empty for the default.
func NewPinata(jwt, endpoint, gatewayURL string, logger *zap.Logger) *Pinata {
	if endpoint == "" {
		endpoint = DefaultPinataEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pinata{
		jwt:        jwt,
		endpoint:   endpoint,
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		http:       &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

type pinataResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// PinFile uploads one file and returns its CID. Single attempt.
func (p *Pinata) PinFile(ctx context.Context, filename, contentType string, body io.Reader, size int64) (Result, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Result{}, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return Result{}, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Result{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, &buf)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.jwt)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("pinata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		p.logger.Error("pinata upload failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", detail),
		)
		return Result{}, fmt.Errorf("pinata: status %d", resp.StatusCode)
	}

	var parsed pinataResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("pinata: decode response: %w", err)
	}
	if parsed.IpfsHash == "" {
		return Result{}, fmt.Errorf("pinata: empty cid in response")
	}
	return Result{
		CID:        parsed.IpfsHash,
		URI:        "ipfs://" + parsed.IpfsHash,
		GatewayURL: p.gatewayURL + "/" + parsed.IpfsHash,
	}, nil
}
