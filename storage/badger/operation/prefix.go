package operation

import (
	"encoding/binary"
	"fmt"

	"github.com/fedibtc/minimint/model/mint"
)

const (

	// codes for special database markers
	codeNextEpoch = 1 // lowest epoch not applied yet

	// codes for ledger entities
	codeAcceptedRequest = 10
	codeSignatureShare  = 11
	codeSigResponse     = 12
	codeOutgoingShare   = 13 // own shares not agreed on yet
)

func makePrefix(code byte, keys ...interface{}) []byte {
	prefix := make([]byte, 1)
	prefix[0] = code
	for _, key := range keys {
		prefix = append(prefix, keyPartToBinary(key)...)
	}
	return prefix
}

func keyPartToBinary(v interface{}) []byte {
	switch i := v.(type) {
	case uint8:
		return []byte{i}
	case uint16:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, i)
		return b
	case uint64:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, i)
		return b
	case mint.PeerID:
		return keyPartToBinary(uint16(i))
	case mint.Identifier:
		return i[:]
	default:
		panic(fmt.Sprintf("unsupported type to convert (%T)", v))
	}
}
