package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
)

// CurrentSchemaVersion is written as the first byte of every record.
const CurrentSchemaVersion = 1

var (
	// ErrUnsupportedSchema is returned for blobs written by an unknown encoder version.
	ErrUnsupportedSchema = errors.New("unsupported session schema version")
	// ErrCorruptRecord is returned for blobs that cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt session record")
)

// EncodeSession serializes r as
//
//	[version][personLen u8][personID][expiresAt i64 BE][attributes]
func EncodeSession(r *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(CurrentSchemaVersion)

	if len(r.PersonID) == 0 || len(r.PersonID) > 255 {
		return nil, errors.New("personID length must be between 1 and 255")
	}
	buf.WriteByte(byte(len(r.PersonID)))
	buf.WriteString(r.PersonID)

	if err := binary.Write(&buf, binary.BigEndian, r.ExpiresAt); err != nil {
		return nil, err
	}

	if err := writeAttributes(&buf, r.Attributes); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecodeSession is the inverse of EncodeSession.
func DecodeSession(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	if err := readVersion(reader); err != nil {
		return nil, err
	}

	personLen, err := reader.ReadByte()
	if err != nil {
		return nil, corrupt(err)
	}
	personID := make([]byte, personLen)
	if _, err := io.ReadFull(reader, personID); err != nil {
		return nil, corrupt(err)
	}

	r := &Record{PersonID: string(personID)}
	if err := binary.Read(reader, binary.BigEndian, &r.ExpiresAt); err != nil {
		return nil, corrupt(err)
	}

	attrs, err := readAttributes(reader)
	if err != nil {
		return nil, err
	}
	r.Attributes = attrs

	return r, nil
}

// EncodePerson serializes p as [version][attributes].
func EncodePerson(p *PersonRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(CurrentSchemaVersion)
	if err := writeAttributes(&buf, p.Attributes); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodePerson is the inverse of EncodePerson.
func DecodePerson(data []byte) (*PersonRecord, error) {
	reader := bytes.NewReader(data)

	if err := readVersion(reader); err != nil {
		return nil, err
	}

	attrs, err := readAttributes(reader)
	if err != nil {
		return nil, err
	}
	return &PersonRecord{Attributes: attrs}, nil
}

func readVersion(reader *bytes.Reader) error {
	version, err := reader.ReadByte()
	if err != nil {
		return corrupt(err)
	}
	if version != CurrentSchemaVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedSchema, version)
	}
	return nil
}

// Attributes are written as [count u16] followed by count pairs of
// [len u16][bytes]. Keys are sorted so equal maps encode identically.
func writeAttributes(buf *bytes.Buffer, attrs map[string]string) error {
	if len(attrs) > math.MaxUint16 {
		return errors.New("too many attributes")
	}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	_ = binary.Write(buf, binary.BigEndian, uint16(len(keys)))
	for _, k := range keys {
		if err := writeString16(buf, k); err != nil {
			return err
		}
		if err := writeString16(buf, attrs[k]); err != nil {
			return err
		}
	}
	return nil
}

func readAttributes(reader *bytes.Reader) (map[string]string, error) {
	var count uint16
	if err := binary.Read(reader, binary.BigEndian, &count); err != nil {
		return nil, corrupt(err)
	}
	if count == 0 {
		if reader.Len() != 0 {
			return nil, corrupt(errors.New("trailing bytes"))
		}
		return nil, nil
	}

	attrs := make(map[string]string, count)
	for i := 0; i < int(count); i++ {
		k, err := readString16(reader)
		if err != nil {
			return nil, err
		}
		v, err := readString16(reader)
		if err != nil {
			return nil, err
		}
		attrs[k] = v
	}
	if reader.Len() != 0 {
		return nil, corrupt(errors.New("trailing bytes"))
	}
	return attrs, nil
}

func writeString16(buf *bytes.Buffer, s string) error {
	if len(s) > math.MaxUint16 {
		return errors.New("attribute too long")
	}
	_ = binary.Write(buf, binary.BigEndian, uint16(len(s)))
	buf.WriteString(s)
	return nil
}

func readString16(reader *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
		return "", corrupt(err)
	}
	if int(n) > reader.Len() {
		return "", corrupt(io.ErrUnexpectedEOF)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(reader, b); err != nil {
		return "", corrupt(err)
	}
	return string(b), nil
}

func corrupt(err error) error {
	return fmt.Errorf("%w: %w", ErrCorruptRecord, err)
}
