package models

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MaxWeedImageSize is the largest image accepted for upload.
const MaxWeedImageSize = 10 * 1024 * 1024

// WeedDetectionResult is the annotated image and the number of weeds found.
type WeedDetectionResult struct {
	ResultImage string `json:"result_image"`
	Detections  int    `json:"detections"`
	Message     string `json:"message,omitempty"`
}

// DecodeImage returns the annotated JPEG bytes.
func (r *WeedDetectionResult) DecodeImage() ([]byte, error) {
	return decodeBase64Image(r.ResultImage)
}

// WeedScanImage is one frame captured by the field camera.
type WeedScanImage struct {
	Image     string `json:"image"`
	WeedCount int    `json:"weed_count"`
}

// DecodeImage returns the JPEG bytes of the frame.
func (i *WeedScanImage) DecodeImage() ([]byte, error) {
	return decodeBase64Image(i.Image)
}

// WeedScanResults is the set of frames received so far for a camera scan.
type WeedScanResults struct {
	Count   int             `json:"count"`
	Results []WeedScanImage `json:"results"`
}

// TotalWeeds sums the weed count over all frames.
func (r WeedScanResults) TotalWeeds() int {
	total := 0
	for _, img := range r.Results {
		total += img.WeedCount
	}
	return total
}

// ValidateWeedImage checks an image before it is uploaded for detection.
func ValidateWeedImage(name string, data []byte) error {
	if len(data) == 0 {
		return &ValidationError{Field: "image", Message: "file is empty"}
	}
	if len(data) > MaxWeedImageSize {
		return &ValidationError{Field: "image", Message: fmt.Sprintf("%s exceeds the %d MB limit", name, MaxWeedImageSize/(1024*1024))}
	}
	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
		return &ValidationError{Field: "image", Message: fmt.Sprintf("%s is not an image (%s)", name, ct)}
	}
	return nil
}

func decodeBase64Image(s string) ([]byte, error) {
	if s == "" {
		return nil, errors.New("no image data")
	}
	// Tolerate data URLs.
	if i := strings.Index(s, ","); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return data, nil
}
