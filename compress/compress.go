package compress

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"forkjoin/core"
)

// DefaultBlockSize is the block granularity CompressFile splits its input
// into when the caller doesn't ask for a different size.
var DefaultBlockSize uint32 = 1024 * 1024

// SetBlockSizeBytes clamps n to a sane range and installs it as
// DefaultBlockSize.
func SetBlockSizeBytes(n uint32) {
	if n < 4*1024 {
		n = 4 * 1024
	}
	if n > 4*1024*1024 {
		n = 4 * 1024 * 1024
	}
	DefaultBlockSize = n
}

// forkLeaf is the smallest block range compressRange/decompressRange will
// process without splitting further -- below this the fork/join overhead of
// a recursive split would dwarf the work of compressing a single block.
const forkLeaf = 1

// CompressFile reads inputPath, splits it into DefaultBlockSize blocks, and
// writes a compressed copy to outputPath. Compression itself fans out
// across pool using a recursive fork/call/join split over the block
// range. With pool.NumWorkers() == 1 the same split still forks, but the
// calling goroutine runs every half itself: each right half inline, then
// the forked left half when Join pops it back off its own deque.
func CompressFile(pool *core.Pool, inputPath, outputPath string) error {
	info, err := os.Stat(inputPath)
	if err != nil {
		return errors.Wrap(err, "stat input")
	}
	if !info.Mode().IsRegular() {
		return errors.New("compress: input is not a regular file")
	}

	if info.Size() == 0 {
		return writeEmpty(outputPath, info.Name())
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return errors.Wrap(err, "read input")
	}
	originalSize := len(data)

	blockSize := int(DefaultBlockSize)
	numBlocks := (originalSize + blockSize - 1) / blockSize

	blocks := make([][]byte, numBlocks)
	for i := 0; i < numBlocks; i++ {
		s := i * blockSize
		e := s + blockSize
		if e > originalSize {
			e = originalSize
		}
		blocks[i] = data[s:e]
	}

	encoded := make([][]byte, numBlocks)
	sizes := make([]uint64, numBlocks)

	log.Debug().Int("blocks", numBlocks).Int("workers", pool.NumWorkers()).Msg("compressing")
	core.SyncWait(pool, func(w *core.Worker) struct{} {
		compressRange(w, blocks, encoded, sizes, 0, numBlocks)
		return struct{}{}
	})

	out, err := os.Create(outputPath)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	defer out.Close()

	header := &FileHeader{
		Filename:       info.Name(),
		OriginalSize:   uint64(originalSize),
		BlockSize:      uint32(blockSize),
		NumBlocks:      uint64(numBlocks),
		BlockCompSizes: sizes,
	}
	if err := WriteHeader(out, header); err != nil {
		return errors.Wrap(err, "write header")
	}
	for i := 0; i < numBlocks; i++ {
		if _, err := out.Write(encoded[i]); err != nil {
			return errors.Wrapf(err, "write block %d", i)
		}
	}
	return nil
}

// compressRange recursively halves [lo, hi) until it reaches forkLeaf-sized
// ranges, forking the left half and calling the right half inline before
// joining -- the same shape as core's own tests for divide-and-conquer
// workloads, applied to an array of real work instead of a toy sum.
func compressRange(w *core.Worker, blocks, encoded [][]byte, sizes []uint64, lo, hi int) {
	if hi-lo <= forkLeaf {
		for i := lo; i < hi; i++ {
			encoded[i], sizes[i] = compressBlock(blocks[i])
		}
		return
	}

	mid := lo + (hi-lo)/2
	var left, right struct{}
	core.Fork(w, &left, func(cw *core.Worker) struct{} {
		compressRange(cw, blocks, encoded, sizes, lo, mid)
		return struct{}{}
	})
	core.Call(w, &right, func(cw *core.Worker) struct{} {
		compressRange(cw, blocks, encoded, sizes, mid, hi)
		return struct{}{}
	})
	core.Join(w)
}

func compressBlock(buf []byte) ([]byte, uint64) {
	tokens := lzCompressTokens(buf)

	var enc []byte
	if len(tokens)+1 >= len(buf)+1 {
		enc = make([]byte, 1+len(buf))
		enc[0] = 0xFF
		copy(enc[1:], buf)
	} else {
		enc = make([]byte, 1+len(tokens))
		enc[0] = 0x00
		copy(enc[1:], tokens)
	}
	return enc, uint64(len(enc))
}

// DecompressFile reverses CompressFile, fanning block decoding out across
// pool the same way.
func DecompressFile(pool *core.Pool, inputPath, outputPath string) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer in.Close()

	header, err := ReadHeader(in)
	if err != nil {
		return errors.Wrap(err, "read header")
	}

	if header.OriginalSize == 0 || header.NumBlocks == 0 {
		out, err := os.Create(outputPath)
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		return out.Close()
	}

	numBlocks := int(header.NumBlocks)
	blockSize := int(header.BlockSize)
	originalSize := int64(header.OriginalSize)

	var total uint64
	for _, s := range header.BlockCompSizes {
		total += s
	}
	compData := make([]byte, total)
	if _, err := io.ReadFull(in, compData); err != nil {
		return errors.Wrap(err, "read compressed payload")
	}

	offsets := make([]uint64, numBlocks)
	var cur uint64
	for i := 0; i < numBlocks; i++ {
		offsets[i] = cur
		cur += header.BlockCompSizes[i]
	}

	decoded := make([][]byte, numBlocks)
	decodeErrs := make([]error, numBlocks)

	log.Debug().Int("blocks", numBlocks).Int("workers", pool.NumWorkers()).Msg("decompressing")
	core.SyncWait(pool, func(w *core.Worker) struct{} {
		decompressRange(w, compData, offsets, header.BlockCompSizes, decoded, decodeErrs, blockSize, numBlocks, originalSize, 0, numBlocks)
		return struct{}{}
	})

	for i, err := range decodeErrs {
		if err != nil {
			return errors.Wrapf(err, "decompress block %d", i)
		}
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	defer out.Close()

	for i := 0; i < numBlocks; i++ {
		if _, err := out.Write(decoded[i]); err != nil {
			return errors.Wrapf(err, "write block %d", i)
		}
	}
	return nil
}

func decompressRange(
	w *core.Worker,
	compData []byte,
	offsets []uint64,
	compSizes []uint64,
	decoded [][]byte,
	decodeErrs []error,
	blockSize, numBlocks int,
	originalSize int64,
	lo, hi int,
) {
	if hi-lo <= forkLeaf {
		for i := lo; i < hi; i++ {
			decoded[i], decodeErrs[i] = decompressBlock(compData, offsets[i], compSizes[i], blockSize, numBlocks, originalSize, i)
		}
		return
	}

	mid := lo + (hi-lo)/2
	var left, right struct{}
	core.Fork(w, &left, func(cw *core.Worker) struct{} {
		decompressRange(cw, compData, offsets, compSizes, decoded, decodeErrs, blockSize, numBlocks, originalSize, lo, mid)
		return struct{}{}
	})
	core.Call(w, &right, func(cw *core.Worker) struct{} {
		decompressRange(cw, compData, offsets, compSizes, decoded, decodeErrs, blockSize, numBlocks, originalSize, mid, hi)
		return struct{}{}
	})
	core.Join(w)
}

func decompressBlock(compData []byte, offset, size uint64, blockSize, numBlocks int, originalSize int64, index int) ([]byte, error) {
	if size == 0 {
		return nil, errors.Errorf("invalid compressed size for block %d", index)
	}
	compBuf := compData[offset : offset+size]

	var expected int
	if index < numBlocks-1 {
		expected = blockSize
	} else {
		fullBlocksSize := int64(blockSize) * int64(numBlocks-1)
		expected = int(originalSize - fullBlocksSize)
	}

	mode := compBuf[0]
	data := compBuf[1:]

	switch mode {
	case 0xFF:
		if len(data) != expected {
			return nil, errors.Errorf("raw block size mismatch: got %d, expected %d", len(data), expected)
		}
		return data, nil

	case 0x00:
		return lzDecompressTokens(data, expected)

	default:
		return nil, errors.Errorf("unknown block mode 0x%02x", mode)
	}
}

func writeEmpty(outputPath, filename string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	defer out.Close()

	header := &FileHeader{
		Filename:     filename,
		OriginalSize: 0,
		BlockSize:    DefaultBlockSize,
		NumBlocks:    0,
	}
	return errors.Wrap(WriteHeader(out, header), "write header")
}
