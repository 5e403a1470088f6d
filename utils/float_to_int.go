// SPDX-License-Identifier: EPL-2.0

package utils

func Float32ToInt16(x float32) int16 {
	// Clamp and scale
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// Use 32767 for positive max to avoid overflow
	return int16(x * 32767.0)
}

// IntToFloat32 scales a signed PCM integer of the given bit depth into [-1, 1].
// 8-bit samples are expected already re-centred around zero.
func IntToFloat32(v int, bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return float32(v) / 128.0
	case 16:
		return float32(v) / 32768.0
	case 24:
		return float32(v) / 8388608.0
	case 32:
		return float32(float64(v) / 2147483648.0)
	default:
		if bitDepth <= 0 || bitDepth > 32 {
			return 0
		}
		return float32(float64(v) / float64(int64(1)<<(bitDepth-1)))
	}
}
