// Package codec2 describes the Codec2 component store as seen by the harness:
// status codes, the expected component table, and a client for the running
// service.
package codec2

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/conn-castle/c2-harness/internal/messages"
)

// Status mirrors c2_status_t. Values are negated errno codes.
type Status int32

// Codec2 status codes.
const (
	OK        Status = 0
	BadState  Status = -1   // EPERM
	NotFound  Status = -2   // ENOENT
	Canceled  Status = -4   // EINTR
	BadIndex  Status = -6   // ENXIO
	Blocking  Status = -11  // EWOULDBLOCK
	NoMemory  Status = -12  // ENOMEM
	Refused   Status = -13  // EACCES
	Corrupted Status = -14  // EFAULT
	Duplicate Status = -17  // EEXIST
	NoInit    Status = -19  // ENODEV
	BadValue  Status = -22  // EINVAL
	Omitted   Status = -38  // ENOSYS
	CannotDo  Status = -95  // ENOTSUP
	TimedOut  Status = -110 // ETIMEDOUT
)

var statusNames = map[Status]string{
	OK:        "C2_OK",
	BadState:  "C2_BAD_STATE",
	NotFound:  "C2_NOT_FOUND",
	Canceled:  "C2_CANCELED",
	BadIndex:  "C2_BAD_INDEX",
	Blocking:  "C2_BLOCKING",
	NoMemory:  "C2_NO_MEMORY",
	Refused:   "C2_REFUSED",
	Corrupted: "C2_CORRUPTED",
	Duplicate: "C2_DUPLICATE",
	NoInit:    "C2_NO_INIT",
	BadValue:  "C2_BAD_VALUE",
	Omitted:   "C2_OMITTED",
	CannotDo:  "C2_CANNOT_DO",
	TimedOut:  "C2_TIMED_OUT",
}

// String returns the C2_* name, or the number for unknown codes.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("c2_status_t(%d)", int32(s))
}

// ParseStatus accepts a C2_* name (case-insensitive, prefix optional) or an integer.
func ParseStatus(text string) (Status, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(text))
	if trimmed == "" {
		return 0, fmt.Errorf(messages.Codec2StatusEmpty)
	}
	if !strings.HasPrefix(trimmed, "C2_") {
		if n, err := strconv.ParseInt(trimmed, 10, 32); err == nil {
			return Status(n), nil
		}
		trimmed = "C2_" + trimmed
	}
	for status, name := range statusNames {
		if name == trimmed {
			return status, nil
		}
	}
	return 0, fmt.Errorf(messages.Codec2StatusUnknownFmt, text)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if name, ok := statusNames[s]; ok {
		return []byte(name), nil
	}
	return []byte(strconv.Itoa(int(s))), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// UnmarshalJSON accepts either the numeric code or its name.
func (s *Status) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		return nil
	}
	return s.UnmarshalText([]byte(strings.Trim(text, `"`)))
}
