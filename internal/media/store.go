// Package media turns uploaded images into the opaque references kept in a
// post's media list, and resolves those references back into bytes.
package media

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"

	"post-board/internal/utils"

	"github.com/gabriel-vasile/mimetype"
)

// Object is a resolved media reference.
type Object struct {
	Data        []byte
	ContentType string
	Extension   string
}

// Store uploads image bytes and resolves references produced by Upload.
// Accept checks a reference supplied by a client and returns the form to keep.
type Store interface {
	Upload(ctx context.Context, data []byte) (string, error)
	Accept(ctx context.Context, ref string) (string, error)
	Fetch(ctx context.Context, ref string) (*Object, error)
}

// ExternalURL reports whether ref points at an http(s) location rather than
// stored bytes. Clients are redirected to such references.
func ExternalURL(ref string) (string, bool) {
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return "", false
	}
	return u.String(), true
}

// InlineStore keeps images inside the post document as base64 text.
type InlineStore struct {
	MaxBytes int64
}

func NewInlineStore(maxBytes int64) *InlineStore {
	return &InlineStore{MaxBytes: maxBytes}
}

func (s *InlineStore) Upload(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", utils.NewValidationError("Image is empty")
	}
	if s.MaxBytes > 0 && int64(len(data)) > s.MaxBytes {
		return "", utils.NewValidationError("Image exceeds the maximum upload size")
	}

	if mtype := mimetype.Detect(data); !isImage(mtype) {
		return "", utils.NewValidationError("Unsupported media type: " + mtype.String())
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Accept keeps http(s) links as they are. Anything else must be a base64
// image that Upload would also take.
func (s *InlineStore) Accept(ctx context.Context, ref string) (string, error) {
	if target, ok := ExternalURL(ref); ok {
		return target, nil
	}

	if s.MaxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(ref))) > s.MaxBytes+2 {
		return "", utils.NewValidationError("Image exceeds the maximum upload size")
	}
	data, err := base64.StdEncoding.DecodeString(ref)
	if err != nil {
		return "", utils.NewValidationError("Media must be an http(s) URL or a base64 image")
	}
	return s.Upload(ctx, data)
}

func (s *InlineStore) Fetch(ctx context.Context, ref string) (*Object, error) {
	if ref == "" {
		return nil, utils.NewAppError(utils.ErrNotFound, "Image not found", nil)
	}

	data, err := base64.StdEncoding.DecodeString(ref)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrNotFound, "Image not found", err)
	}

	// only images are ever served back
	mtype := mimetype.Detect(data)
	if !isImage(mtype) {
		return nil, utils.NewAppError(utils.ErrNotFound, "Image not found", nil)
	}
	return &Object{
		Data:        data,
		ContentType: mtype.String(),
		Extension:   mtype.Extension(),
	}, nil
}

func isImage(mtype *mimetype.MIME) bool {
	return strings.HasPrefix(mtype.String(), "image/")
}

var _ Store = (*InlineStore)(nil)
