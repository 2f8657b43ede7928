package bvh

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Magic and Version identify a cached BVH file, matching the original
// format exactly: 'bvhc' (little-endian) and version 0. The original's
// header comment mentions a checksum, but no such field exists in the
// actual header it writes, so none is added here either.
const (
	Magic   uint32 = 0x63687662 // "bvhc" little-endian
	Version uint32 = 0
)

// fileHeader is the fixed 12-byte file header.
type fileHeader struct {
	Magic    uint32
	Version  uint32
	NumNodes uint32
}

// Encode serializes b to the on-disk cache format: header followed by
// the raw packed node array.
func Encode(b *BVH) ([]byte, error) {
	buf := new(bytes.Buffer)
	header := fileHeader{Magic: Magic, Version: Version, NumNodes: uint32(len(b.Nodes))}
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("bvh: encode header: %w", err)
	}
	for _, n := range b.Nodes {
		if err := binary.Write(buf, binary.LittleEndian, n); err != nil {
			return nil, fmt.Errorf("bvh: encode node: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// Decode parses the on-disk cache format written by Encode, rejecting
// anything with a mismatched magic or version.
func Decode(data []byte) (*BVH, error) {
	r := bytes.NewReader(data)
	var header fileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("bvh: decode header: %w", err)
	}
	if header.Magic != Magic {
		return nil, fmt.Errorf("bvh: bad magic %#x, want %#x", header.Magic, Magic)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("bvh: unsupported version %d", header.Version)
	}

	nodes := make([]Node, header.NumNodes)
	for i := range nodes {
		if err := binary.Read(r, binary.LittleEndian, &nodes[i]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("bvh: truncated file: expected %d nodes, got %d: %w", header.NumNodes, i, err)
			}
			return nil, fmt.Errorf("bvh: decode node %d: %w", i, err)
		}
	}
	return &BVH{Nodes: nodes}, nil
}
