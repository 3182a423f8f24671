package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
}

func TestDetectFileType(t *testing.T) {
	contentType, ext, err := DetectFileType(pngHeader, AllowImage...)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, ".png", ext)

	_, _, err = DetectFileType([]byte("just some text"), AllowImage...)
	assert.ErrorIs(t, err, ErrFileTypeNotAllowed)

	_, _, err = DetectFileType(nil, AllowImage...)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestPublicLinkRoundTrip(t *testing.T) {
	aws := &awsS3{bucket: "foodgram", region: "eu-central-1"}
	link := aws.GetPublicLinkKey("recipes/abc.png")
	assert.Equal(t, "https://foodgram.s3.eu-central-1.amazonaws.com/recipes/abc.png", link)
	assert.Equal(t, "recipes/abc.png", aws.GetObjectKeyFromLink(link))
	assert.Empty(t, aws.GetObjectKeyFromLink("https://elsewhere.example/recipes/abc.png"))

	minio := &awsS3{bucket: "foodgram", endpoint: "http://localhost:9000"}
	link = minio.GetPublicLinkKey("recipes/abc.png")
	assert.Equal(t, "http://localhost:9000/foodgram/recipes/abc.png", link)
	assert.Equal(t, "recipes/abc.png", minio.GetObjectKeyFromLink(link))
}
