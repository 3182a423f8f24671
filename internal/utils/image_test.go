package utils

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBase64Image(t *testing.T) {
	raw := []byte("\x89PNG\r\n\x1a\nrest-of-images")
	encoded := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{name: "data uri", input: "data:image/png;base64," + encoded, want: raw},
		{name: "bare payload", input: encoded, want: raw},
		{name: "unpadded payload", input: base64.RawStdEncoding.EncodeToString(raw), want: raw},
		{name: "data uri without base64 marker", input: "data:image/png," + encoded, wantErr: true},
		{name: "garbage", input: "!!not base64!!", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBase64Image(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBase64Image)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
