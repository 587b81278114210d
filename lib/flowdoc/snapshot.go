// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flowdoc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/flow/lib/codec"
)

// Compression identifies how a snapshot body is compressed. The
// values are stored in snapshot headers; changing them breaks existing
// snapshots.
type Compression uint8

const (
	// CompressionNone stores the CBOR body as is.
	CompressionNone Compression = 0

	// CompressionLZ4 is LZ4 block compression: fast, modest ratio.
	CompressionLZ4 Compression = 1

	// CompressionZstd is zstd at the default level: better ratio for
	// the text-heavy bodies large trees produce.
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (want none, lz4 or zstd)", name)
	}
}

// Snapshot layout:
//
//	offset 0  4 bytes  magic "FLWD"
//	offset 4  1 byte   format version (1)
//	offset 5  1 byte   Compression
//	offset 6  4 bytes  uncompressed body size, big-endian
//	offset 10          body
const (
	snapshotMagic   = "FLWD"
	snapshotVersion = 1
	headerSize      = 10

	// maxSnapshotBody bounds the allocation a corrupt header can ask
	// for.
	maxSnapshotBody = 64 << 20
)

// errIncompressible is returned by the compressors when the output
// would not be smaller than the input.
var errIncompressible = errors.New("data is incompressible")

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("flowdoc: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("flowdoc: zstd decoder initialization failed: " + err.Error())
	}
}

// WriteSnapshot writes node as a CBOR snapshot compressed with
// compression. A body that does not shrink is stored uncompressed, and
// the header records that. It returns the compression actually used.
func WriteSnapshot(w io.Writer, node *Node, compression Compression) (Compression, error) {
	body, err := codec.Marshal(node)
	if err != nil {
		return 0, fmt.Errorf("encoding snapshot: %w", err)
	}
	if len(body) > maxSnapshotBody {
		return 0, fmt.Errorf("snapshot body is %d bytes, limit is %d", len(body), maxSnapshotBody)
	}

	stored, err := compress(body, compression)
	if errors.Is(err, errIncompressible) {
		stored, compression = body, CompressionNone
	} else if err != nil {
		return 0, err
	}

	header := make([]byte, headerSize)
	copy(header, snapshotMagic)
	header[4] = snapshotVersion
	header[5] = byte(compression)
	binary.BigEndian.PutUint32(header[6:], uint32(len(body)))

	if _, err := w.Write(header); err != nil {
		return 0, err
	}
	if _, err := w.Write(stored); err != nil {
		return 0, err
	}
	return compression, nil
}

// IsSnapshot reports whether data starts with a snapshot header.
func IsSnapshot(data []byte) bool {
	return bytes.HasPrefix(data, []byte(snapshotMagic))
}

// ReadSnapshot reads a snapshot written by [WriteSnapshot]. The body
// must hold exactly one document.
func ReadSnapshot(r io.Reader) (*Node, error) {
	body, err := ReadSnapshotBody(r)
	if err != nil {
		return nil, err
	}
	var node Node
	if err := codec.Unmarshal(body, &node); err != nil {
		return nil, fmt.Errorf("decoding snapshot body: %w", err)
	}
	normalizeDefaults(&node)
	return &node, nil
}

// ReadSnapshotBody reads a snapshot and returns its decompressed CBOR
// body. The decompressed size must match the header exactly.
func ReadSnapshotBody(r io.Reader) ([]byte, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("reading snapshot header: %w", err)
	}
	if string(header[:4]) != snapshotMagic {
		return nil, fmt.Errorf("not a workflow snapshot (magic %q)", header[:4])
	}
	if header[4] != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", header[4])
	}
	compression := Compression(header[5])
	size := int(binary.BigEndian.Uint32(header[6:]))
	if size > maxSnapshotBody {
		return nil, fmt.Errorf("snapshot body is %d bytes, limit is %d", size, maxSnapshotBody)
	}

	stored, err := io.ReadAll(io.LimitReader(r, maxSnapshotBody+1))
	if err != nil {
		return nil, fmt.Errorf("reading snapshot body: %w", err)
	}
	return decompress(stored, compression, size)
}

func compress(data []byte, compression Compression) ([]byte, error) {
	switch compression {
	case CompressionNone:
		return data, nil

	case CompressionLZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(data)))
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		// CompressBlock returns 0 for incompressible input.
		if written == 0 || written >= len(data) {
			return nil, errIncompressible
		}
		return destination[:written], nil

	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return nil, errIncompressible
		}
		return compressed, nil

	default:
		return nil, fmt.Errorf("unsupported compression %s", compression)
	}
}

func decompress(stored []byte, compression Compression, size int) ([]byte, error) {
	switch compression {
	case CompressionNone:
		if len(stored) != size {
			return nil, fmt.Errorf("uncompressed snapshot: body is %d bytes, header says %d", len(stored), size)
		}
		return stored, nil

	case CompressionLZ4:
		destination := make([]byte, size)
		read, err := lz4.UncompressBlock(stored, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
		}
		return destination, nil

	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(stored, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported compression %s", compression)
	}
}
