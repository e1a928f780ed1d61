package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"time"
)

const snapshotFormatVersion = 1

var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

const (
	flagConfirmed byte = 1 << iota
	flagHasCreatedAt
)

// Encode serializes s. Layout (v1): version byte, int64 id, three
// uint16-length-prefixed strings (email, display name, avatar), flag byte,
// int64 created-at in unix microseconds.
func Encode(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(1 + 8 + 6 + len(s.Email) + len(s.DisplayName) + len(s.Avatar) + 1 + 8)

	buf.WriteByte(snapshotFormatVersion)

	if err := binary.Write(&buf, binary.BigEndian, s.ID); err != nil {
		return nil, err
	}
	for _, field := range []string{s.Email, s.DisplayName, s.Avatar} {
		if err := writeString(&buf, field); err != nil {
			return nil, err
		}
	}

	var flags byte
	if s.Confirmed {
		flags |= flagConfirmed
	}
	if !s.CreatedAt.IsZero() {
		flags |= flagHasCreatedAt
	}
	buf.WriteByte(flags)

	var created int64
	if !s.CreatedAt.IsZero() {
		created = s.CreatedAt.UnixMicro()
	}
	if err := binary.Write(&buf, binary.BigEndian, created); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) (Snapshot, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return Snapshot{}, err
	}
	if version != snapshotFormatVersion {
		return Snapshot{}, ErrUnsupportedVersion
	}

	var s Snapshot
	if err := binary.Read(reader, binary.BigEndian, &s.ID); err != nil {
		return Snapshot{}, err
	}
	if s.Email, err = readString(reader); err != nil {
		return Snapshot{}, err
	}
	if s.DisplayName, err = readString(reader); err != nil {
		return Snapshot{}, err
	}
	if s.Avatar, err = readString(reader); err != nil {
		return Snapshot{}, err
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return Snapshot{}, err
	}
	s.Confirmed = flags&flagConfirmed != 0

	var created int64
	if err := binary.Read(reader, binary.BigEndian, &created); err != nil {
		return Snapshot{}, err
	}
	if flags&flagHasCreatedAt != 0 {
		s.CreatedAt = time.UnixMicro(created).UTC()
	}

	if reader.Len() != 0 {
		return Snapshot{}, errors.New("trailing bytes in snapshot")
	}

	return s, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > math.MaxUint16 {
		return errors.New("snapshot field too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	if int(n) > r.Len() {
		return "", io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
