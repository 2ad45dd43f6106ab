package ports

import "context"

// MediaUploader stores an encoded image and returns its public URL.
type MediaUploader interface {
	Upload(ctx context.Context, folder, payload string) (string, error)
}
