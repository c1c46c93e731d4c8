// Package words implements the scalar quantizers used to shrink embedding
// storage.
//
// Two precisions are supported:
//
//   - float16: IEEE 754 half precision, 2 bytes per component. Used for
//     on-disk snapshot artifacts, halving cache size with negligible
//     ranking impact. No training required.
//   - int8: symmetric scalar quantization mapping [-absMax, absMax] onto
//     [-127, 127], 1 byte per component. Backs the int8 flat index
//     strategy. Requires a training pass to find absMax.
//
// Product quantization (the vector-codebook kind) lives in vector_pq.go;
// these are plain per-component scalar codecs.
package words

import (
	"fmt"
	"math"

	"github.com/x448/float16"
)

// halfEncode compresses a float32 vector to float16 bit patterns.
func halfEncode(v []float32) []uint16 {
	out := make([]uint16, len(v))
	for i, x := range v {
		out[i] = float16.Fromfloat32(x).Bits()
	}
	return out
}

// halfDecode expands float16 bit patterns back to float32.
func halfDecode(bits []uint16) []float32 {
	out := make([]float32, len(bits))
	for i, b := range bits {
		out[i] = float16.Frombits(b).Float32()
	}
	return out
}

// int8Quantizer performs symmetric scalar quantization. The single learned
// parameter is the maximum absolute component value seen during training;
// quantization then linearly maps [-absMax, absMax] to [-127, 127].
type int8Quantizer struct {
	absMax float32
}

// train finds absMax across the sample vectors.
func (q *int8Quantizer) train(vectors [][]float32) {
	var max float32
	for _, v := range vectors {
		for _, x := range v {
			if a := float32(math.Abs(float64(x))); a > max {
				max = a
			}
		}
	}
	q.absMax = max
}

func (q *int8Quantizer) trained() bool {
	return q.absMax > 0
}

// quantize maps a float32 vector onto int8 codes.
func (q *int8Quantizer) quantize(v []float32) ([]int8, error) {
	if !q.trained() {
		return nil, fmt.Errorf("int8 quantizer must be trained before use")
	}
	out := make([]int8, len(v))
	for i, x := range v {
		scaled := (x / q.absMax) * 127.0
		if scaled > 127 {
			scaled = 127
		} else if scaled < -127 {
			scaled = -127
		}
		out[i] = int8(math.Round(float64(scaled)))
	}
	return out, nil
}

// dequantize approximately reverses quantize.
func (q *int8Quantizer) dequantize(codes []int8) []float32 {
	out := make([]float32, len(codes))
	for i, c := range codes {
		out[i] = (float32(c) / 127.0) * q.absMax
	}
	return out
}
