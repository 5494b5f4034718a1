package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/phambaophuc/sign-recognition/internal/models"
)

const uploadWorkers = 5

// UploadMultiple uploads files concurrently. On partial failure it returns
// the URLs that did upload along with an error listing the rest.
func (s *StorageService) UploadMultiple(ctx context.Context, files []models.UploadFile) ([]string, error) {
	if len(files) == 0 {
		return []string{}, nil
	}

	urls := make([]string, len(files))
	errs := make([]error, len(files))

	jobs := make(chan int, len(files))
	var wg sync.WaitGroup

	for w := 0; w < min(uploadWorkers, len(files)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				urls[i], errs[i] = s.Upload(ctx, bytes.NewBuffer(files[i].Data), files[i].Filename, files[i].ContentType)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var failed []string
	uploaded := make([]string, 0, len(files))
	for i, err := range errs {
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", files[i].Filename, err))
		} else {
			uploaded = append(uploaded, urls[i])
		}
	}

	if len(failed) > 0 {
		return uploaded, fmt.Errorf("failed to upload %d files: %s", len(failed), strings.Join(failed, "; "))
	}
	return uploaded, nil
}
