package compress

import "github.com/pkg/errors"

const (
	lzWindowSize = 65535 // 64KB sliding window
	lzMinMatch   = 4     // minimum match length
	lzMaxMatch   = 255   // maximum match length (1 byte to store length)
	hashBits     = 14    // 16K entries
	hashSize     = 1 << hashBits
)

// lzCompressTokens is a hash-chained LZ77 implementation: each 4-byte
// sequence is hashed into a table of last-seen positions, and a candidate
// match is confirmed byte-for-byte before being emitted as a token.
func lzCompressTokens(input []byte) []byte {
	if len(input) == 0 {
		return nil
	}

	out := make([]byte, 0, len(input))

	// table stores the index of the last occurrence of a 4-byte sequence;
	// -1 means no history.
	table := make([]int, hashSize)
	for i := range table {
		table[i] = -1
	}

	i := 0
	for i < len(input) {
		if i+lzMinMatch > len(input) {
			out = append(out, 0x00, input[i])
			i++
			continue
		}

		h := (uint32(input[i]) << 24) ^ (uint32(input[i+1]) << 16) ^ (uint32(input[i+2]) << 8) ^ uint32(input[i+3])
		h = (h * 0x1e35a7bd) >> (32 - hashBits)

		candidate := table[h]
		table[h] = i

		if candidate != -1 && (i-candidate) < lzWindowSize && i-candidate > 0 {
			if input[candidate] == input[i] &&
				input[candidate+1] == input[i+1] &&
				input[candidate+2] == input[i+2] &&
				input[candidate+3] == input[i+3] {

				matchLen := 4
				for i+matchLen < len(input) &&
					candidate+matchLen < len(input) &&
					matchLen < lzMaxMatch &&
					input[candidate+matchLen] == input[i+matchLen] {
					matchLen++
				}

				offset := i - candidate
				out = append(out, 0x01, byte(offset&0xFF), byte(offset>>8), byte(matchLen))

				i += matchLen
				continue
			}
		}

		out = append(out, 0x00, input[i])
		i++
	}

	return out
}

// lzDecompressTokens reverses lzCompressTokens.
func lzDecompressTokens(tokens []byte, expectedSize int) ([]byte, error) {
	if len(tokens) == 0 && expectedSize == 0 {
		return nil, nil
	}

	out := make([]byte, 0, expectedSize)
	i := 0

	for i < len(tokens) {
		flag := tokens[i]
		i++

		switch flag {
		case 0x00:
			if i >= len(tokens) {
				return nil, errors.New("compress: truncated literal token")
			}
			out = append(out, tokens[i])
			i++

		case 0x01:
			if i+3 > len(tokens) {
				return nil, errors.New("compress: truncated match token")
			}
			offset := int(tokens[i]) | int(tokens[i+1])<<8
			length := int(tokens[i+2])
			i += 3

			if offset <= 0 || offset > len(out) {
				return nil, errors.Errorf("compress: invalid match offset %d (out len %d)", offset, len(out))
			}

			start := len(out) - offset
			for j := 0; j < length; j++ {
				out = append(out, out[start+j])
			}

		default:
			return nil, errors.Errorf("compress: invalid token flag 0x%02x", flag)
		}
	}

	if len(out) != expectedSize {
		return nil, errors.Errorf("compress: size mismatch: got %d, expected %d", len(out), expectedSize)
	}
	return out, nil
}
