package db

import (
	"encoding/binary"
	"math"
)

// EncodeVector lays v out as little-endian FLOAT32, the layout of both a
// stored VECTOR field and a KNN query blob.
func EncodeVector(v []float32) string {
	buf := make([]byte, 0, 4*len(v))
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return string(buf)
}

// DecodeVector reverses EncodeVector. A blob whose length is not a multiple
// of four is rejected as nil.
func DecodeVector(s string) []float32 {
	if len(s)%4 != 0 {
		return nil
	}
	v := make([]float32, len(s)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(s[i*4 : i*4+4])))
	}
	return v
}
