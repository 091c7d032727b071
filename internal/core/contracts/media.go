package contracts

import "context"

// MediaStore uploads avatar/image/audio blobs and returns a stable URL.
// The message log stores these URLs verbatim and never inspects bytes.
type MediaStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}
