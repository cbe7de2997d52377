package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/aurora/backend/internal/models"
)

func TestSanitize(t *testing.T) {
	out := Sanitize(`<p onclick="steal()">Hello <b>world</b></p><script>alert(1)</script>`)

	assert.Contains(t, out, "<b>world</b>")
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "onclick")
}

func TestIsAllowedImageType(t *testing.T) {
	for _, mime := range []string{"image/jpeg", "image/png", "image/gif", "image/webp", "IMAGE/PNG", "image/png; charset=binary"} {
		assert.True(t, IsAllowedImageType(mime), mime)
	}
	for _, mime := range []string{"image/svg+xml", "text/html", "application/pdf", ""} {
		assert.False(t, IsAllowedImageType(mime), mime)
	}
}

func TestIsEmbeddableVideo(t *testing.T) {
	assert.True(t, IsEmbeddableVideo("https://www.youtube.com/embed/dQw4w9WgXcQ"))
	assert.False(t, IsEmbeddableVideo("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.False(t, IsEmbeddableVideo("http://www.youtube.com/embed/dQw4w9WgXcQ"))
}

func TestImageTag(t *testing.T) {
	assert.Equal(t,
		`<img class="post-image" src="https://cdn.test/images/a.png" alt="Image for the Cats &amp; Dogs post"/>`,
		ImageTag("https://cdn.test/images/a.png", "Cats & Dogs"),
	)
}

func TestVideoTag(t *testing.T) {
	tag := VideoTag("https://www.youtube.com/embed/abc", "Funny")

	assert.Contains(t, tag, `<iframe class="yt-video-player" src="https://www.youtube.com/embed/abc"`)
	assert.Contains(t, tag, `title="YouTube video player for the Funny post"`)
}

func TestNewBody(t *testing.T) {
	b, err := NewBody(models.PostText, "<b>hi</b>", nil)
	require.NoError(t, err)
	assert.Equal(t, Text{HTML: "<b>hi</b>"}, b)

	up := &Upload{Filename: "a.png", Data: []byte{1}}
	b, err = NewBody(models.PostImage, "", up)
	require.NoError(t, err)
	assert.Equal(t, models.PostImage, b.Type())
	assert.Same(t, up, b.(Image).Upload)

	b, err = NewBody(models.PostVideo, " https://www.youtube.com/embed/x ", nil)
	require.NoError(t, err)
	assert.Equal(t, Video{EmbedURL: "https://www.youtube.com/embed/x"}, b)

	_, err = NewBody("gif", "", nil)
	assert.Error(t, err)
}
