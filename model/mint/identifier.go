package mint

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// IdentifierLen is the length in bytes of an Identifier.
const IdentifierLen = 32

// Identifier is a blake3 digest used to address client requests and consensus items.
type Identifier [IdentifierLen]byte

// ZeroID is the lowest value in the 32-byte ID space.
var ZeroID = Identifier{}

// MakeID hashes the given parts into an Identifier. Each part is length-prefixed so that
// different splits of the same bytes never collide.
func MakeID(parts ...[]byte) Identifier {
	h := blake3.New()
	var prefix [8]byte
	for _, part := range parts {
		binary.BigEndian.PutUint64(prefix[:], uint64(len(part)))
		_, _ = h.Write(prefix[:])
		_, _ = h.Write(part)
	}
	var id Identifier
	copy(id[:], h.Sum(nil))
	return id
}

// HexStringToIdentifier converts a hex string to an identifier. The input
// must be 64 characters long and contain only valid hex characters.
func HexStringToIdentifier(hexString string) (Identifier, error) {
	var id Identifier
	i, err := hex.Decode(id[:], []byte(hexString))
	if err != nil {
		return id, err
	}
	if i != IdentifierLen {
		return id, fmt.Errorf("malformed input, expected %d bytes (%d hex chars), decoded %d", IdentifierLen, hex.EncodedLen(IdentifierLen), i)
	}
	return id, nil
}

// String returns the hex string representation of the identifier.
func (id Identifier) String() string {
	return hex.EncodeToString(id[:])
}

// Format implements fmt.Formatter so that %s, %v and %x all print hex.
func (id Identifier) Format(state fmt.State, verb rune) {
	switch verb {
	case 'x', 's', 'v':
		_, _ = state.Write([]byte(id.String()))
	default:
		_, _ = state.Write([]byte(fmt.Sprintf("%%!%c(%s)", verb, id.String())))
	}
}

// MarshalText returns the hex encoding of the identifier.
func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the hex encoding of an identifier.
func (id *Identifier) UnmarshalText(text []byte) error {
	var err error
	*id, err = HexStringToIdentifier(string(text))
	return err
}
