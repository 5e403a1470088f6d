// SPDX-License-Identifier: EPL-2.0

package backend

import "errors"

var (
	ErrOutOfSources      = errors.New("no more sources available")
	ErrUnknownBuffer     = errors.New("unknown buffer")
	ErrUnsupportedFormat = errors.New("buffer must be mono or stereo")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
)
