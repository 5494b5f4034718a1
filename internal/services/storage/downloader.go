package storage

import "context"

func (s *StorageService) Download(ctx context.Context, path string) ([]byte, error) {
	if s.sbClient == nil {
		return nil, ErrStorageDisabled
	}
	return s.sbClient.DownloadFile(s.bucket, path)
}
