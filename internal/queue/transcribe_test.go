package queue

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/isEarth/earth-api/pkg/transcript"
)

func TestTranscriptRunMsgWireShape(t *testing.T) {
	// The shape published by the submit handler. Workers of older builds must
	// keep parsing it, so the keys are pinned here.
	payload := `{
		"run_id": "r_8f2k1",
		"submission": {
			"video_id": "yt_abc123",
			"title": "금리 전망",
			"s3_key": "uploads/yt_abc123.vtt"
		}
	}`

	var msg TranscriptRunMsg
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		t.Fatalf("failed to parse payload: %v", err)
	}
	if msg.RunID != "r_8f2k1" {
		t.Fatalf("unexpected run id: %q", msg.RunID)
	}
	if msg.Submission.VideoID != "yt_abc123" {
		t.Fatalf("unexpected video id: %q", msg.Submission.VideoID)
	}
	if msg.Submission.S3Key != "uploads/yt_abc123.vtt" {
		t.Fatalf("unexpected s3 key: %q", msg.Submission.S3Key)
	}
	if msg.Submission.Text != "" || msg.Submission.VTT != "" {
		t.Fatal("absent submission fields should stay empty")
	}

	out, err := json.Marshal(TranscriptRunMsg{
		RunID:      "r_8f2k1",
		Submission: transcript.Submission{VideoID: "yt_abc123", Text: "국내 증시가 상승했습니다."},
	})
	if err != nil {
		t.Fatalf("failed to marshal message: %v", err)
	}
	for _, key := range []string{`"run_id"`, `"video_id"`, `"text"`} {
		if !strings.Contains(string(out), key) {
			t.Fatalf("marshaled payload missing %s: %s", key, out)
		}
	}
	for _, key := range []string{`"vtt"`, `"s3_key"`} {
		if strings.Contains(string(out), key) {
			t.Fatalf("empty field %s should be omitted: %s", key, out)
		}
	}
}

func TestProcessTranscriptRejectsMalformedMessage(t *testing.T) {
	err := ProcessTranscript(context.Background(), nil, nil, nil, nil, "{not json")
	if err == nil {
		t.Fatal("expected a parse error")
	}
}
