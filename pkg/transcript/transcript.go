package transcript

import (
	"context"
	"fmt"
	"strings"
)

// Submission is one transcript processing request. Exactly one of Text, VTT,
// or S3Key carries the transcript; when several are set the first in that
// order wins.
type Submission struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
	Text    string `json:"text,omitempty"`
	VTT     string `json:"vtt,omitempty"`
	S3Key   string `json:"s3_key,omitempty"`
}

// FetchFunc retrieves an object's bytes by storage key.
type FetchFunc func(ctx context.Context, key string) ([]byte, error)

// Resolve returns the raw transcript text for a submission. Inline text is
// passed through, VTT payloads are parsed, and S3 keys are fetched (keys
// ending in .vtt are parsed as subtitles, anything else is taken as plain
// text).
func Resolve(ctx context.Context, fetch FetchFunc, sub Submission) (string, error) {
	switch {
	case sub.Text != "":
		return sub.Text, nil
	case sub.VTT != "":
		return ParseVTT(sub.VTT), nil
	case sub.S3Key != "":
		if fetch == nil {
			return "", fmt.Errorf("submission references %s but no fetcher is configured", sub.S3Key)
		}
		data, err := fetch(ctx, sub.S3Key)
		if err != nil {
			return "", fmt.Errorf("fetch transcript %s: %w", sub.S3Key, err)
		}
		if strings.HasSuffix(strings.ToLower(sub.S3Key), ".vtt") {
			return ParseVTT(string(data)), nil
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("submission has no transcript content")
	}
}
