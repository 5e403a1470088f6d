// SPDX-License-Identifier: EPL-2.0

package buffer

import "errors"

var (
	ErrFileNotFound             = errors.New("audio file not found")
	ErrUnsupportedChannelLayout = errors.New("only mono and stereo audio is supported")
	ErrDecode                   = errors.New("audio decode failed")
)
