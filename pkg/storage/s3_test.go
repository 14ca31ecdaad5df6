package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateVideoFileType(t *testing.T) {
	tests := []struct {
		contentType string
		filename    string
		want        bool
	}{
		{"video/mp4", "clip.bin", true},
		{"video/mp4; codecs=avc1", "", true},
		{"", "clip.MOV", true},
		{"application/octet-stream", "clip.webm", true},
		{"image/png", "clip.png", false},
		{"", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateVideoFileType(tt.contentType, tt.filename), "%s %s", tt.contentType, tt.filename)
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "uploads/u1/clip.mp4", UploadKey("u1", "../../clip.mp4"))
	assert.Equal(t, "uploads/u1/clip.mp4", UploadKey("u1", `C:\tmp\clip.mp4`))
	assert.Equal(t, "uploads/u1/video.mp4", UploadKey("u1", ""))
	assert.Equal(t, "videos/a/b.mp4", VideoKey("a", "b"))
	assert.Equal(t, "speech/demo/x.mp3", SpeechKey("", "x"))
	assert.Equal(t, "video/quicktime", ContentTypeForFilename("a.mov"))
	assert.Equal(t, "application/octet-stream", ContentTypeForFilename("a.txt"))
}
