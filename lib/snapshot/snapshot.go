// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

// Package snapshot stores resolved tables on disk for auditing and for
// loading into an authority without re-resolving.
//
// A snapshot is a fixed header followed by the payload:
//
//	offset  size  field
//	0       4     magic "ACLS"
//	4       1     format version (1)
//	5       1     compression (see Compression)
//	6       32    BLAKE3 table digest of the uncompressed CBOR
//	38      4     uncompressed length, big-endian
//	42      4     payload length, big-endian
//	46      n     payload
//
// The digest is resolve.TableDigest of the canonical encoding, so the
// hex form of a snapshot's digest equals the table's Fingerprint.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tauri-apps/tauri-sub008/lib/resolve"
	"github.com/tauri-apps/tauri-sub008/lib/version"
)

const (
	magic         = "ACLS"
	formatVersion = version.TableFormat
	headerSize    = 4 + 1 + 1 + 32 + 4 + 4

	// maxTableSize bounds the uncompressed table and the payload. A
	// header claiming more is rejected before anything is allocated.
	maxTableSize = 64 << 20
)

// ErrDigestMismatch means the decoded payload does not hash to the
// digest in the header.
var ErrDigestMismatch = errors.New("snapshot: digest mismatch")

// Header describes a snapshot without its payload.
type Header struct {
	Version     uint8
	Compression Compression
	Digest      resolve.Digest
	Size        uint32
	PayloadSize uint32
}

// Fingerprint returns the hex digest, equal to the table's Fingerprint.
func (h Header) Fingerprint() string {
	return hex.EncodeToString(h.Digest[:])
}

// Write encodes table and writes it as a snapshot. When compression
// does not shrink the payload the snapshot is stored uncompressed; the
// returned header records what was actually written.
func Write(w io.Writer, table *resolve.Table, compression Compression) (Header, error) {
	data, err := table.Encode()
	if err != nil {
		return Header{}, fmt.Errorf("snapshot: encoding table: %w", err)
	}
	if len(data) > maxTableSize {
		return Header{}, fmt.Errorf("snapshot: encoded table is %d bytes, limit %d", len(data), maxTableSize)
	}

	payload, err := compress(data, compression)
	if errors.Is(err, errIncompressible) {
		compression, payload = CompressionNone, data
	} else if err != nil {
		return Header{}, fmt.Errorf("snapshot: %w", err)
	}

	header := Header{
		Version:     formatVersion,
		Compression: compression,
		Digest:      resolve.TableDigest(data),
		Size:        uint32(len(data)),
		PayloadSize: uint32(len(payload)),
	}

	var buffer [headerSize]byte
	copy(buffer[0:4], magic)
	buffer[4] = header.Version
	buffer[5] = byte(header.Compression)
	copy(buffer[6:38], header.Digest[:])
	binary.BigEndian.PutUint32(buffer[38:42], header.Size)
	binary.BigEndian.PutUint32(buffer[42:46], header.PayloadSize)

	if _, err := w.Write(buffer[:]); err != nil {
		return Header{}, fmt.Errorf("snapshot: writing header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return Header{}, fmt.Errorf("snapshot: writing payload: %w", err)
	}
	return header, nil
}

// ReadHeader reads and checks the fixed header.
func ReadHeader(r io.Reader) (Header, error) {
	var buffer [headerSize]byte
	if _, err := io.ReadFull(r, buffer[:]); err != nil {
		return Header{}, fmt.Errorf("snapshot: reading header: %w", err)
	}
	if string(buffer[0:4]) != magic {
		return Header{}, fmt.Errorf("snapshot: bad magic %q", buffer[0:4])
	}

	var header Header
	header.Version = buffer[4]
	if header.Version != formatVersion {
		return Header{}, fmt.Errorf("snapshot: unsupported format version %d", header.Version)
	}
	header.Compression = Compression(buffer[5])
	if header.Compression > CompressionZstd {
		return Header{}, fmt.Errorf("snapshot: unsupported compression %s", header.Compression)
	}
	copy(header.Digest[:], buffer[6:38])
	header.Size = binary.BigEndian.Uint32(buffer[38:42])
	header.PayloadSize = binary.BigEndian.Uint32(buffer[42:46])
	if header.Size > maxTableSize || header.PayloadSize > maxTableSize {
		return Header{}, fmt.Errorf("snapshot: header claims %d/%d bytes, limit %d", header.Size, header.PayloadSize, maxTableSize)
	}
	return header, nil
}

// Read reads a snapshot, verifies its digest, and decodes the table.
// The decoded table has passed resolve.Table.Validate.
func Read(r io.Reader) (*resolve.Table, Header, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return nil, Header{}, err
	}

	payload := make([]byte, header.PayloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, Header{}, fmt.Errorf("snapshot: reading payload: %w", err)
	}
	data, err := decompress(payload, header.Compression, int(header.Size))
	if err != nil {
		return nil, Header{}, fmt.Errorf("snapshot: %w", err)
	}
	if resolve.TableDigest(data) != header.Digest {
		return nil, Header{}, ErrDigestMismatch
	}

	table, err := resolve.Decode(data)
	if err != nil {
		return nil, Header{}, fmt.Errorf("snapshot: %w", err)
	}
	return table, header, nil
}

// WriteFile writes a snapshot to path atomically: the data goes to a
// temporary file in the same directory, which is renamed over path.
func WriteFile(path string, table *resolve.Table, compression Compression) (Header, error) {
	var buffer bytes.Buffer
	header, err := Write(&buffer, table, compression)
	if err != nil {
		return Header{}, err
	}

	temporary, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return Header{}, fmt.Errorf("snapshot: %w", err)
	}
	defer os.Remove(temporary.Name())

	if _, err := temporary.Write(buffer.Bytes()); err != nil {
		temporary.Close()
		return Header{}, fmt.Errorf("snapshot: writing %s: %w", path, err)
	}
	if err := temporary.Close(); err != nil {
		return Header{}, fmt.Errorf("snapshot: writing %s: %w", path, err)
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		return Header{}, fmt.Errorf("snapshot: %w", err)
	}
	return header, nil
}

// ReadFile reads a snapshot from path.
func ReadFile(path string) (*resolve.Table, Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("snapshot: %w", err)
	}
	defer file.Close()
	table, header, err := Read(file)
	if err != nil {
		return nil, Header{}, fmt.Errorf("%s: %w", path, err)
	}
	return table, header, nil
}
