// Package receipts wraps the Cloudinary client used for receipt storage.
package receipts

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const uploadFolder = "expense-receipts"

type Client struct {
	cld *cloudinary.Cloudinary
}

// New returns nil when credentials are missing: uploads are disabled but the
// rest of the server works.
func New(cloudName, apiKey, apiSecret string) (*Client, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, nil
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &Client{cld: cld}, nil
}

// Upload stores a receipt and returns its URL and storage public id.
func (c *Client) Upload(ctx context.Context, file io.Reader, userID int64) (url, publicID string, err error) {
	resp, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:   uploadFolder,
		PublicID: fmt.Sprintf("expense-%d-%d", userID, time.Now().UnixMilli()),
	})
	if err != nil {
		return "", "", fmt.Errorf("upload receipt: %w", err)
	}
	if resp.SecureURL == "" || resp.PublicID == "" {
		return "", "", fmt.Errorf("upload receipt: incomplete response")
	}
	return resp.SecureURL, resp.PublicID, nil
}

// Release deletes a stored receipt. Callers treat failures as best-effort:
// the database mutation that triggered the release has already succeeded.
func (c *Client) Release(ctx context.Context, publicID string) error {
	_, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("release receipt %s: %w", publicID, err)
	}
	return nil
}
