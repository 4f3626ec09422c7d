package storage

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

// EncodeVector packs an embedding as little-endian float32 values.
func EncodeVector(v models.Embedding) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector unpacks an embedding written by EncodeVector.
func DecodeVector(data []byte) (models.Embedding, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(data))
	}

	v := make(models.Embedding, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v, nil
}
