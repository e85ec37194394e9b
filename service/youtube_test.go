/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidYouTubeURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.youtube.com/watch?v=QTK_bC00ilg", true},
		{"https://www.youtube.com/watch?v=QTK_bC00ilg/asdsadasdgarbage", true},
		{"https://www.youtube.com/shorts/cVoSbbWtZMc", true},
		{"https://www.youtube.com/shorts/cVoSbbWtZMc/asdasdasdgargbage", true},
		{"https://youtube.com/watch?v=QTK_bC00ilg&t=42", true},
		{"https://youtu.be/ILMHmEADlwY", false},
		{"https://www.youtube.com/embed/ILMHmEADlwY", false},
		{"https://www.youtube.com/watch", false},
		{"https://www.youtube.com/shorts/", false},
		{"some garbage", false},
		{"https://www.vimeo.comnot/garbage", false},
		{"https://www.notyoutube.com/watch?v=QTK_bC00ilg", false},
		{"https://www.youtube.comnot/watch?v=QTK_bC00ilg", false},
		{"ftp://www.youtube.com/watch?v=QTK_bC00ilg", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidYouTubeURL(tt.url))
		})
	}
}

func TestEmbedURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube-nocookie.com/embed/QTK_bC00ilg",
		EmbedURL("https://www.youtube.com/watch?v=QTK_bC00ilg/asdsadasdgarbage"))
	assert.Equal(t, "https://www.youtube-nocookie.com/embed/cVoSbbWtZMc",
		EmbedURL("https://www.youtube.com/shorts/cVoSbbWtZMc"))
	assert.Empty(t, EmbedURL("https://youtu.be/ILMHmEADlwY"))
}
