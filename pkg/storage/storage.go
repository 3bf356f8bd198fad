// Package storage pins ad images to content-addressed storage. The primary
// backend is Pinata (public IPFS); the s3 backend serves deployments that
// self-host the gateway, keying objects by content digest so references stay
// content-addressed either way.
package storage

import (
	"context"
	"io"
)

// Result identifies a pinned file.
type Result struct {
	CID        string // content identifier (IPFS CID or content digest)
	URI        string // canonical reference stored with the bid (ipfs://… or s3://…)
	GatewayURL string // HTTP URL the billboard renders
}

// Pinner uploads a file once, no retries; errors surface to the caller.
type Pinner interface {
	PinFile(ctx context.Context, filename, contentType string, body io.Reader, size int64) (Result, error)
}

// Allowed MIME types for billboard images. Checked before any upload call.
var AllowedImageTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

// AllowedTypesList returns the allow-list for error messages, in a stable order.
func AllowedTypesList() []string {
	return []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/svg+xml"}
}
