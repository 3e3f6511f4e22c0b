// Package compress is a block-splitting file compressor whose parallel
// path is driven entirely through core's fork/join API instead of
// hand-rolled goroutines and a WaitGroup.
package compress

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

var magic = [4]byte{'P', 'C', 'Z', '2'}

// FileHeader precedes the compressed block payload: enough to recover the
// original filename, size, and the per-block table needed to seek straight
// to any block without scanning the ones before it.
type FileHeader struct {
	Filename       string
	OriginalSize   uint64
	BlockSize      uint32
	NumBlocks      uint64
	BlockCompSizes []uint64
}

// WriteHeader writes the magic, filename, and block table to w.
func WriteHeader(w io.Writer, h *FileHeader) error {
	if _, err := w.Write(magic[:]); err != nil {
		return errors.Wrap(err, "write magic")
	}

	nameBytes := []byte(h.Filename)
	if len(nameBytes) > 0xFFFF {
		return errors.New("compress: filename too long")
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(nameBytes))); err != nil {
		return errors.Wrap(err, "write filename length")
	}

	if err := binary.Write(w, binary.LittleEndian, h.OriginalSize); err != nil {
		return errors.Wrap(err, "write original size")
	}

	if _, err := w.Write(nameBytes); err != nil {
		return errors.Wrap(err, "write filename")
	}

	if err := binary.Write(w, binary.LittleEndian, h.BlockSize); err != nil {
		return errors.Wrap(err, "write block size")
	}

	if err := binary.Write(w, binary.LittleEndian, h.NumBlocks); err != nil {
		return errors.Wrap(err, "write block count")
	}

	if uint64(len(h.BlockCompSizes)) != h.NumBlocks {
		return errors.New("compress: block count mismatch")
	}
	for i := uint64(0); i < h.NumBlocks; i++ {
		if err := binary.Write(w, binary.LittleEndian, h.BlockCompSizes[i]); err != nil {
			return errors.Wrapf(err, "write block %d size", i)
		}
	}

	return nil
}

// ReadHeader reads and validates the header written by WriteHeader.
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var m [4]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return nil, errors.Wrap(err, "read magic")
	}
	if m != magic {
		return nil, errors.New("compress: invalid magic")
	}

	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return nil, errors.Wrap(err, "read filename length")
	}

	var originalSize uint64
	if err := binary.Read(r, binary.LittleEndian, &originalSize); err != nil {
		return nil, errors.Wrap(err, "read original size")
	}

	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return nil, errors.Wrap(err, "read filename")
	}

	var blockSize uint32
	if err := binary.Read(r, binary.LittleEndian, &blockSize); err != nil {
		return nil, errors.Wrap(err, "read block size")
	}

	var numBlocks uint64
	if err := binary.Read(r, binary.LittleEndian, &numBlocks); err != nil {
		return nil, errors.Wrap(err, "read block count")
	}

	blockSizes := make([]uint64, numBlocks)
	for i := uint64(0); i < numBlocks; i++ {
		if err := binary.Read(r, binary.LittleEndian, &blockSizes[i]); err != nil {
			return nil, errors.Wrapf(err, "read block %d size", i)
		}
	}

	return &FileHeader{
		Filename:       string(nameBytes),
		OriginalSize:   originalSize,
		BlockSize:      blockSize,
		NumBlocks:      numBlocks,
		BlockCompSizes: blockSizes,
	}, nil
}
