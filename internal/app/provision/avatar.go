package provision

import (
	"fmt"
	"io"
	"net/http"

	"socialfeed/internal/pkg/errs"
	"socialfeed/internal/pkg/randx"
)

// MaxAvatarSize is the largest avatar accepted, in bytes.
const MaxAvatarSize int64 = 5 << 20

var allowedAvatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Avatar is an image selected on the registration or profile form.
type Avatar struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Validate checks the avatar's name, size and content type.
func (a *Avatar) Validate() error {
	if randx.BaseName(a.Filename) == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if a.Size > MaxAvatarSize {
		return errs.NewError(errs.ErrAvatarTooLarge)
	}
	if !allowedAvatarTypes[a.ContentType] {
		return errs.NewError(errs.ErrAvatarTypeInvalid)
	}
	return nil
}

// AvatarFromUpload builds an Avatar from an uploaded file. The content type is sniffed
// from the first bytes of the file rather than taken from the client.
func AvatarFromUpload(file io.ReadSeeker, filename string, size int64) (*Avatar, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind avatar: %w", err)
	}

	return &Avatar{
		Filename:    randx.BaseName(filename),
		ContentType: http.DetectContentType(head[:n]),
		Size:        size,
		Body:        io.LimitReader(file, MaxAvatarSize+1),
	}, nil
}

