package redisstore

import (
	"fmt"
	"time"

	"golang.org/x/crypto/cryptobyte"

	"github.com/hasbyte1/go-passlib/credential"
)

const recordVersionV1 = 1

// encodeRecord lays out a record as
//
//	version(1) ‖ u8-prefixed id ‖ u16-prefixed subject ‖ u16-prefixed token ‖
//	created_at(8) ‖ updated_at(8)
//
// with timestamps in Unix nanoseconds.
func encodeRecord(rec *credential.Record) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint8(recordVersionV1)
	b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes([]byte(rec.ID))
	})
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes([]byte(rec.Subject))
	})
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(rec.Token)
	})
	b.AddUint64(uint64(rec.CreatedAt.UnixNano()))
	b.AddUint64(uint64(rec.UpdatedAt.UnixNano()))

	data, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("credential/redisstore: encode record %s: %w", rec.ID, err)
	}
	return data, nil
}

func decodeRecord(data []byte) (*credential.Record, error) {
	s := cryptobyte.String(data)

	var (
		version              uint8
		id, subject, token   cryptobyte.String
		createdAt, updatedAt uint64
	)
	if !s.ReadUint8(&version) {
		return nil, fmt.Errorf("%w: empty value", ErrCorruptRecord)
	}
	if version != recordVersionV1 {
		return nil, fmt.Errorf("%w: unknown record version %d", ErrCorruptRecord, version)
	}
	if !s.ReadUint8LengthPrefixed(&id) ||
		!s.ReadUint16LengthPrefixed(&subject) ||
		!s.ReadUint16LengthPrefixed(&token) ||
		!s.ReadUint64(&createdAt) ||
		!s.ReadUint64(&updatedAt) ||
		!s.Empty() {
		return nil, fmt.Errorf("%w: bad layout", ErrCorruptRecord)
	}

	return &credential.Record{
		ID:        string(id),
		Subject:   string(subject),
		Token:     append([]byte(nil), token...),
		CreatedAt: time.Unix(0, int64(createdAt)),
		UpdatedAt: time.Unix(0, int64(updatedAt)),
	}, nil
}
