package twofactor

import (
	"testing"
	"time"
)

func TestDecodeRejectsMalformed(t *testing.T) {
	good, err := encodeChallenge(Challenge{
		AttemptID: "6f1c2b1e-0c55-4d7e-9a57-3bb1f05a7a10",
		Code:      "123456",
		IssuedAt:  time.Unix(1, 0),
		ExpiresAt: time.Unix(301, 0),
	})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	got, err := decodeChallenge(good)
	if err != nil || got.Code != "123456" || got.AttemptID != "6f1c2b1e-0c55-4d7e-9a57-3bb1f05a7a10" || got.ExpiresAt.Unix() != 301 {
		t.Fatalf("unexpected decode result: %+v err=%v", got, err)
	}

	for name, data := range map[string][]byte{
		"empty":     {},
		"version 1": append([]byte{1}, good[1:]...),
		"version 3": append([]byte{3}, good[1:]...),
		"truncated": good[:len(good)-1],
		"trailing":  append(append([]byte{}, good...), 0),
	} {
		if _, err := decodeChallenge(data); err == nil {
			t.Fatalf("%s: expected decode error", name)
		}
	}
}
