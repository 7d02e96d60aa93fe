// Package blob provides image stores keyed by name.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary implements ports.BlobStore on a Cloudinary media library.
// Blob names map to public IDs inside Folder with the extension removed.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary creates a Cloudinary store from account credentials.
func NewCloudinary(cloudName, apiKey, apiSecret, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld, folder: strings.Trim(folder, "/")}, nil
}

func (c *Cloudinary) publicID(name string) string {
	id := strings.TrimSuffix(name, path.Ext(name))
	if c.folder == "" {
		return id
	}
	return c.folder + "/" + id
}

func (c *Cloudinary) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	resp, err := c.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     c.publicID(name),
		Overwrite:    api.Bool(true),
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload %s: %w", name, err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload %s: %s", name, resp.Error.Message)
	}
	return resp.SecureURL, nil
}

func (c *Cloudinary) Delete(ctx context.Context, name string) error {
	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: c.publicID(name)})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", name, err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %s: %s", name, resp.Error.Message)
	}
	if resp.Result != "ok" {
		return fmt.Errorf("cloudinary destroy %s: result %q", name, resp.Result)
	}
	return nil
}

func (c *Cloudinary) Exists(ctx context.Context, name string) (bool, error) {
	resp, err := c.cld.Admin.Asset(ctx, admin.AssetParams{PublicID: c.publicID(name)})
	if err != nil {
		return false, fmt.Errorf("cloudinary asset %s: %w", name, err)
	}
	if resp.Error.Message != "" {
		if strings.Contains(strings.ToLower(resp.Error.Message), "not found") {
			return false, nil
		}
		return false, fmt.Errorf("cloudinary asset %s: %s", name, resp.Error.Message)
	}
	return resp.PublicID != "", nil
}
