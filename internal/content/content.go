// Package content turns the three kinds of post body into the HTML fragment
// stored on a post.
package content

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/emilythestrangee/aurora/backend/internal/models"
)

// YouTubeEmbedPrefix is the only accepted prefix for video posts.
const YouTubeEmbedPrefix = "https://www.youtube.com/embed/"

// AllowedImageTypes are the MIME types accepted for image posts and uploads.
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// IsAllowedImageType reports whether mime is an accepted image type.
func IsAllowedImageType(mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	for _, t := range AllowedImageTypes {
		if t == mime {
			return true
		}
	}
	return false
}

// Upload is a file received in a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Body is the content of a new post. It is one of Text, Image or Video.
type Body interface {
	Type() models.PostType
	// Raw is the user-supplied content field, used for length validation.
	Raw() string
}

// Text is HTML written by the author, sanitised before storage.
type Text struct {
	HTML string
}

// Image is either an uploaded file or a remote URL to fetch.
type Image struct {
	Upload *Upload
	URL    string
}

// Video is a provider embed URL.
type Video struct {
	EmbedURL string
}

func (Text) Type() models.PostType  { return models.PostText }
func (Image) Type() models.PostType { return models.PostImage }
func (Video) Type() models.PostType { return models.PostVideo }

func (b Text) Raw() string  { return b.HTML }
func (b Image) Raw() string { return b.URL }
func (b Video) Raw() string { return b.EmbedURL }

// NewBody builds the Body for a post type from the request fields.
func NewBody(t models.PostType, raw string, upload *Upload) (Body, error) {
	switch t {
	case models.PostText:
		return Text{HTML: raw}, nil
	case models.PostImage:
		return Image{Upload: upload, URL: strings.TrimSpace(raw)}, nil
	case models.PostVideo:
		return Video{EmbedURL: strings.TrimSpace(raw)}, nil
	}
	return nil, fmt.Errorf("unknown post type %q", t)
}

var policy = bluemonday.UGCPolicy()

// Sanitize strips scripts, event handlers and other unsafe markup while
// keeping basic formatting.
func Sanitize(s string) string {
	return policy.Sanitize(s)
}

// IsEmbeddableVideo reports whether url is a YouTube embed link.
func IsEmbeddableVideo(url string) bool {
	return strings.HasPrefix(url, YouTubeEmbedPrefix)
}

// ImageTag renders the stored content of an image post.
func ImageTag(src, title string) string {
	return fmt.Sprintf(`<img class="post-image" src="%s" alt="Image for the %s post"/>`,
		html.EscapeString(src), html.EscapeString(title))
}

// VideoTag renders the stored content of a video post.
func VideoTag(src, title string) string {
	return fmt.Sprintf(`<iframe class="yt-video-player" src="%s" title="YouTube video player for the %s post" `+
		`frameborder="0" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture; web-share" `+
		`referrerpolicy="strict-origin-when-cross-origin" allowfullscreen=""/>`,
		html.EscapeString(src), html.EscapeString(title))
}
