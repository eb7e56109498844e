package binform

import (
	"bytes"
	"fmt"
	"net/netip"

	"github.com/google/uuid"
)

// --- Strings ---

type stringHandler struct{}

func (stringHandler) NeedsLength() bool { return true }

func (stringHandler) Token(f *Field) (Token, error) {
	n, ok := f.resolveLength()
	if !ok {
		return Token{}, ErrNoLength
	}
	return Token{Code: codeBytes, Size: n}, nil
}

// Append encodes the UTF-8 bytes of the string into a buffer of exactly the
// resolved length. An embedded NUL truncates the content, matching C string
// semantics in both modes.
//
// C-compatible mode reserves the final byte for a terminator: content is cut
// at length-1, one NUL follows, zeros fill the remainder. Dynamic mode packs
// the bytes verbatim and zero-pads to the token width; a full-length string
// occupies the whole buffer with no terminator.
func (stringHandler) Append(dst []byte, v any, f *Field, env Env) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: expected string, got %T", ErrBadValue, v)
	}
	n, ok := f.resolveLength()
	if !ok {
		return nil, ErrNoLength
	}
	enc := []byte(s)
	if i := bytes.IndexByte(enc, 0); i >= 0 {
		enc = enc[:i]
	}
	max := n
	if env.Mode == CCompatible {
		max = n - 1
	}
	if len(enc) > max {
		enc = enc[:max]
	}
	dst = append(dst, enc...)
	return appendZeros(dst, n-len(enc)), nil
}

func (stringHandler) Parse(src []byte, _ *Field, env Env) (any, error) {
	if env.Mode == CCompatible {
		// Content ends at the first NUL.
		if i := bytes.IndexByte(src, 0); i >= 0 {
			src = src[:i]
		}
	} else {
		src = bytes.TrimRight(src, "\x00")
	}
	return string(src), nil
}

// --- Byte buffers ---

type bytesHandler struct{}

func (bytesHandler) NeedsLength() bool { return true }

func (bytesHandler) Token(f *Field) (Token, error) {
	n, ok := f.resolveLength()
	if !ok {
		return Token{}, ErrNoLength
	}
	return Token{Code: codeBytes, Size: n}, nil
}

// Append copies the buffer untransformed, zero-padded to the resolved
// length. Oversized input is a pack error rather than a silent truncation:
// unlike strings there is no terminator to recover the original boundary.
func (bytesHandler) Append(dst []byte, v any, f *Field, _ Env) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: expected []byte, got %T", ErrBadValue, v)
	}
	n, ok := f.resolveLength()
	if !ok {
		return nil, ErrNoLength
	}
	if len(b) > n {
		return nil, fmt.Errorf("%w: %d bytes exceed field length %d", ErrValueRange, len(b), n)
	}
	dst = append(dst, b...)
	return appendZeros(dst, n-len(b)), nil
}

func (bytesHandler) Parse(src []byte, _ *Field, _ Env) (any, error) {
	return append([]byte(nil), src...), nil
}

// --- IPv4 addresses ---

type ipv4Handler struct{}

func (ipv4Handler) NeedsLength() bool { return false }

func (ipv4Handler) Token(*Field) (Token, error) {
	return Token{Code: codeBytes, Size: 4}, nil
}

// Append packs the address in network order regardless of the record's byte
// order: protocol addresses are always big-endian on the wire.
func (ipv4Handler) Append(dst []byte, v any, _ *Field, _ Env) ([]byte, error) {
	a, ok := v.(netip.Addr)
	if !ok {
		return nil, fmt.Errorf("%w: expected netip.Addr, got %T", ErrBadValue, v)
	}
	a = a.Unmap()
	if !a.Is4() {
		return nil, fmt.Errorf("%w: %s is not an IPv4 address", ErrBadValue, a)
	}
	b := a.As4()
	return append(dst, b[:]...), nil
}

func (ipv4Handler) Parse(src []byte, _ *Field, _ Env) (any, error) {
	var b [4]byte
	copy(b[:], src)
	return netip.AddrFrom4(b), nil
}

// --- IPv6 addresses ---

type ipv6Handler struct{}

func (ipv6Handler) NeedsLength() bool { return false }

func (ipv6Handler) Token(*Field) (Token, error) {
	return Token{Code: codeBytes, Size: 16}, nil
}

// Append packs the 16-byte address in network order regardless of the
// record's byte order, like the IPv4 handler.
func (ipv6Handler) Append(dst []byte, v any, _ *Field, _ Env) ([]byte, error) {
	a, ok := v.(netip.Addr)
	if !ok {
		return nil, fmt.Errorf("%w: expected netip.Addr, got %T", ErrBadValue, v)
	}
	if !a.Is6() || a.Is4() {
		return nil, fmt.Errorf("%w: %s is not an IPv6 address", ErrBadValue, a)
	}
	b := a.As16()
	return append(dst, b[:]...), nil
}

func (ipv6Handler) Parse(src []byte, _ *Field, _ Env) (any, error) {
	var b [16]byte
	copy(b[:], src)
	return netip.AddrFrom16(b), nil
}

// --- UUIDs ---

type uuidHandler struct{}

func (uuidHandler) NeedsLength() bool { return false }

func (uuidHandler) Token(*Field) (Token, error) {
	return Token{Code: codeBytes, Size: 16}, nil
}

// Append packs 16 bytes. Big-endian layouts use the canonical byte sequence;
// little-endian layouts use the mixed-endian form (time fields byte-swapped,
// the rest verbatim), following the record's byte order rather than any
// per-field setting.
func (uuidHandler) Append(dst []byte, v any, _ *Field, env Env) ([]byte, error) {
	u, ok := v.(uuid.UUID)
	if !ok {
		return nil, fmt.Errorf("%w: expected uuid.UUID, got %T", ErrBadValue, v)
	}
	if !env.big() {
		u = swapUUID(u)
	}
	return append(dst, u[:]...), nil
}

func (uuidHandler) Parse(src []byte, _ *Field, env Env) (any, error) {
	var u uuid.UUID
	copy(u[:], src)
	if !env.big() {
		u = swapUUID(u)
	}
	return u, nil
}

// swapUUID converts between the canonical and mixed-endian byte forms: the
// three leading time groups (4, 2 and 2 bytes) reverse, the final 8 bytes
// stay put. The transform is its own inverse.
func swapUUID(u uuid.UUID) uuid.UUID {
	u[0], u[1], u[2], u[3] = u[3], u[2], u[1], u[0]
	u[4], u[5] = u[5], u[4]
	u[6], u[7] = u[7], u[6]
	return u
}

// appendZeros appends n zero bytes.
func appendZeros(dst []byte, n int) []byte {
	return append(dst, make([]byte, n)...)
}
