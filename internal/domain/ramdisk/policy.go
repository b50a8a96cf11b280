package ramdisk

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	ErrRootNotDir    = errors.New("root is not a directory")
	ErrUnsafePath    = errors.New("path cannot be written as a string literal")
	ErrInvalidOrder  = errors.New("invalid traversal order")
	ErrInvalidEscape = errors.New("invalid escape policy")
)

// Order selects how the walker sequences files, which fixes index assignment.
type Order string

const (
	// OrderNative visits directory entries in the order the OS lists them,
	// files of a directory before its subdirectories. Platform dependent.
	OrderNative Order = "native"
	// OrderTree groups like OrderNative but sorts names within each directory.
	OrderTree Order = "tree"
	// OrderPath sorts all relative paths bytewise.
	OrderPath Order = "path"
)

// DefaultOrder is deterministic across filesystems.
const DefaultOrder = OrderTree

// ParseOrder validates an order name. Empty selects DefaultOrder.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return DefaultOrder, nil
	case OrderNative, OrderTree, OrderPath:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %q (want native, tree or path)", ErrInvalidOrder, s)
	}
}

// EscapePolicy decides what happens to names that would break a quoted
// assembler string: a double quote, a backslash or a control byte.
type EscapePolicy string

const (
	// EscapeQuote backslash-escapes quote and backslash and writes control
	// bytes as octal escapes. The assembled bytes equal the original name.
	EscapeQuote EscapePolicy = "escape"
	// EscapeReject fails generation on any such name.
	EscapeReject EscapePolicy = "reject"
	// EscapeRaw writes names verbatim.
	EscapeRaw EscapePolicy = "raw"
)

// DefaultEscapePolicy keeps every name representable.
const DefaultEscapePolicy = EscapeQuote

// ParseEscapePolicy validates a policy name. Empty selects DefaultEscapePolicy.
func ParseEscapePolicy(s string) (EscapePolicy, error) {
	switch p := EscapePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultEscapePolicy, nil
	case EscapeQuote, EscapeReject, EscapeRaw:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q (want escape, reject or raw)", ErrInvalidEscape, s)
	}
}

// Literal renders s as the body of a double-quoted assembler string.
func (p EscapePolicy) Literal(s string) (string, error) {
	if p == EscapeRaw || !needsEscape(s) {
		return s, nil
	}
	if p == EscapeReject {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, s)
	}

	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case isControl(c):
			fmt.Fprintf(&sb, "\\%03o", c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}

func needsEscape(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' || isControl(c) {
			return true
		}
	}
	return false
}

// isControl reports bytes that cannot appear raw inside a one-line literal.
// Bytes >= 0x80 (UTF-8 names) pass through; gas copies them unchanged.
func isControl(c byte) bool {
	return c < 0x20 || c == 0x7f
}
