// SPDX-License-Identifier: EPL-2.0

package replaygain

import "errors"

var (
	ErrEmptyValue   = errors.New("empty replaygain value")
	ErrInvalidValue = errors.New("invalid replaygain value")
)
