package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encodeEmbedding packs float64 components little-endian, 8 bytes each.
func encodeEmbedding(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(x))
	}
	return buf
}

func decodeEmbedding(buf []byte, dim int) ([]float64, error) {
	if len(buf) != 8*dim {
		return nil, fmt.Errorf("embedding blob has %d bytes, want %d", len(buf), 8*dim)
	}
	v := make([]float64, dim)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return v, nil
}
