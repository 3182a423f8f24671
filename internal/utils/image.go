package utils

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidBase64Image = errors.New("invalid base64 image")

// DecodeBase64Image accepts either a data URI ("data:image/png;base64,...")
// or a bare base64 payload.
func DecodeBase64Image(value string) ([]byte, error) {
	payload := strings.TrimSpace(value)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ";base64,")
		if idx < 0 {
			return nil, ErrInvalidBase64Image
		}
		payload = payload[idx+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, ErrInvalidBase64Image
		}
	}
	if len(data) == 0 {
		return nil, ErrInvalidBase64Image
	}
	return data, nil
}
