// Package blob stores uploaded media and returns the public URL it is served from.
package blob

import (
	"context"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Folders media is filed under.
const (
	FolderImages        = "images"
	FolderAvatars       = "avatars"
	FolderCategoryIcons = "category_icons"
)

// Store persists a blob and returns its public URL.
type Store interface {
	Put(ctx context.Context, folder string, data []byte, contentType string) (string, error)
}

// objectName builds a unique object path inside folder, keeping an extension
// that matches contentType when one is known.
func objectName(folder, contentType string) string {
	name := uuid.NewString()
	if m := mimetype.Lookup(contentType); m != nil {
		name += m.Extension()
	}
	return path.Join(folder, name)
}
