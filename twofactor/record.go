package twofactor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

// Version 1 records carried no attempt id and now decode as malformed.
const challengeRecordVersion2 = 2

var errMalformedRecord = errors.New("malformed two-factor record")

// Challenge is a pending second-factor code bound to one login attempt.
type Challenge struct {
	AttemptID string
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func encodeChallenge(c Challenge) ([]byte, error) {
	if len(c.Code) > 255 {
		return nil, errors.New("two-factor code too long")
	}
	if len(c.AttemptID) > 255 {
		return nil, errors.New("login attempt id too long")
	}

	var buf bytes.Buffer
	buf.WriteByte(challengeRecordVersion2)
	if err := binary.Write(&buf, binary.BigEndian, c.IssuedAt.UnixNano()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, c.ExpiresAt.UnixNano()); err != nil {
		return nil, err
	}
	writeShortString(&buf, c.AttemptID)
	writeShortString(&buf, c.Code)
	return buf.Bytes(), nil
}

func decodeChallenge(data []byte) (Challenge, error) {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil || version != challengeRecordVersion2 {
		return Challenge{}, errMalformedRecord
	}

	var issued, expires int64
	if err := binary.Read(r, binary.BigEndian, &issued); err != nil {
		return Challenge{}, errMalformedRecord
	}
	if err := binary.Read(r, binary.BigEndian, &expires); err != nil {
		return Challenge{}, errMalformedRecord
	}

	attemptID, err := readShortString(r)
	if err != nil {
		return Challenge{}, err
	}
	code, err := readShortString(r)
	if err != nil {
		return Challenge{}, err
	}
	if r.Len() != 0 {
		return Challenge{}, errMalformedRecord
	}

	return Challenge{
		AttemptID: attemptID,
		Code:      code,
		IssuedAt:  time.Unix(0, issued).UTC(),
		ExpiresAt: time.Unix(0, expires).UTC(),
	}, nil
}

// writeShortString writes a one-byte length prefix followed by s.
func writeShortString(buf *bytes.Buffer, s string) {
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
}

func readShortString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", errMalformedRecord
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return "", errMalformedRecord
	}
	return string(out), nil
}
