// SPDX-License-Identifier: MIT

package checkpoint

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/katalvlaran/lvlearn/nn"
)

// Archive layout (all integers little-endian):
//
//	[0:8)    magic "LVLMODEL"
//	[8:10)   container version (uint16)
//	[10:n-8) zstd frame of the payload
//	[n-8:n)  xxhash64 of the uncompressed payload
//
// Payload: uint32 header length, header JSON, then every tensor in header
// order as row-major float64 bits.
var archiveMagic = [8]byte{'L', 'V', 'L', 'M', 'O', 'D', 'E', 'L'}

const (
	archivePrefixLen  = len(archiveMagic) + 2
	archiveTrailerLen = 8
	// maxPayload bounds decompression of untrusted files.
	maxPayload = 1 << 31
)

// encodeArchive writes the full container to w.
func encodeArchive(w io.Writer, h *Header, tensors []nn.Tensor, level zstd.EncoderLevel) error {
	hdr, err := marshalHeader(h)
	if err != nil {
		return err
	}

	var size int
	for _, t := range tensors {
		size += len(t.Data) * 8
	}
	payload := make([]byte, 4, 4+len(hdr)+size)
	binary.LittleEndian.PutUint32(payload, uint32(len(hdr)))
	payload = append(payload, hdr...)
	for _, t := range tensors {
		payload = append(payload, encodeFloats(t.Data)...)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return err
	}
	defer enc.Close()

	var prefix [archivePrefixLen]byte
	copy(prefix[:], archiveMagic[:])
	binary.LittleEndian.PutUint16(prefix[len(archiveMagic):], Version)

	out := make([]byte, 0, archivePrefixLen+len(payload)/2+archiveTrailerLen)
	out = append(out, prefix[:]...)
	out = enc.EncodeAll(payload, out)
	out = binary.LittleEndian.AppendUint64(out, xxhash.Sum64(payload))

	_, err = w.Write(out)
	return err
}

// decodeArchive validates and decodes a complete archive held in memory.
func decodeArchive(raw []byte) (*Header, [][]float64, error) {
	if len(raw) < archivePrefixLen+archiveTrailerLen {
		if len(raw) >= len(archiveMagic) && !bytes.Equal(raw[:len(archiveMagic)], archiveMagic[:]) {
			return nil, nil, ErrBadMagic
		}
		return nil, nil, corruptf("archive truncated at %d bytes", len(raw))
	}
	if !bytes.Equal(raw[:len(archiveMagic)], archiveMagic[:]) {
		return nil, nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint16(raw[len(archiveMagic):]); v == 0 || v > Version {
		return nil, nil, ErrUnsupportedVersion
	}

	body := raw[archivePrefixLen : len(raw)-archiveTrailerLen]
	want := binary.LittleEndian.Uint64(raw[len(raw)-archiveTrailerLen:])

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(maxPayload))
	if err != nil {
		return nil, nil, err
	}
	defer dec.Close()

	payload, err := dec.DecodeAll(body, nil)
	if err != nil {
		return nil, nil, corruptf("zstd: %v", err)
	}
	if xxhash.Sum64(payload) != want {
		return nil, nil, ErrChecksum
	}

	if len(payload) < 4 {
		return nil, nil, corruptf("payload truncated")
	}
	hlen := int(binary.LittleEndian.Uint32(payload))
	if hlen > len(payload)-4 {
		return nil, nil, corruptf("header length %d exceeds payload", hlen)
	}
	h, err := unmarshalHeader(payload[4 : 4+hlen])
	if err != nil {
		return nil, nil, err
	}

	region := payload[4+hlen:]
	data := make([][]float64, len(h.Tensors))
	for i, e := range h.Tensors {
		end := e.Offset + e.byteLen()
		if end < e.Offset || end > int64(len(region)) {
			return nil, nil, corruptf("tensor %q [%d:%d) outside %d data bytes", e.Name, e.Offset, end, len(region))
		}
		data[i] = decodeFloats(region[e.Offset:end])
	}

	return h, data, nil
}

func decodeFloats(b []byte) []float64 {
	out := make([]float64, len(b)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}

	return out
}

func encodeFloats(vs []float64) []byte {
	out := make([]byte, 0, len(vs)*8)
	for _, v := range vs {
		out = binary.LittleEndian.AppendUint64(out, math.Float64bits(v))
	}

	return out
}
