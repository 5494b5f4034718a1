package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phambaophuc/sign-recognition/pkg/utils"
	storage_go "github.com/supabase-community/storage-go"
)

// Upload stores the buffer under a unique key derived from filename and
// returns its public URL.
func (s *StorageService) Upload(ctx context.Context, buffer *bytes.Buffer, filename, contentType string) (string, error) {
	if s.sbClient == nil {
		return "", ErrStorageDisabled
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := utils.GenerateStorageKey(filename)

	_, err := s.sbClient.UploadFile(s.bucket, key, bytes.NewReader(buffer.Bytes()), storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	publicURL := s.sbClient.GetPublicUrl(s.bucket, key)
	return publicURL.SignedURL, nil
}
