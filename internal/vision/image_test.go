package vision

import (
	"errors"
	"testing"
)

func TestNormalizeImage(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"empty", "", "", false},
		{"data url", "data:image/png;base64,aGVsbG8=", "data:image/png;base64,aGVsbG8=", false},
		{"bare base64", "aGVsbG8=", "data:image/jpeg;base64,aGVsbG8=", false},
		{"https url", "https://example.com/a.jpg", "https://example.com/a.jpg", false},
		{"non image data url", "data:text/plain;base64,aGVsbG8=", "", true},
		{"data url without base64", "data:image/png,raw", "", true},
		{"broken payload", "data:image/png;base64,***", "", true},
		{"garbage", "not an image!", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeImage(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidImage) {
					t.Fatalf("expected ErrInvalidImage, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
