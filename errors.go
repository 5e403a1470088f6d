// SPDX-License-Identifier: EPL-2.0

package audvox

import "errors"

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrStreamIO      = errors.New("stream decode failed")
	ErrKindMismatch  = errors.New("voice kind does not match its data")
)
