package protocol

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/letmeget/swapgate/internal/pkg/apperrors"
)

const wordSize = 32

// Encode computes the OfferKey for terms under the given schema.
//
// Every field is a 32-byte big-endian, left-zero-padded word, packed in
// the order offer contract, offer token id, wanted contract, wanted token
// id and, for v2 only, expires. The packed bytes are hashed with keccak256.
// Field order and word width are part of the protocol.
func Encode(v Version, t Terms) (common.Hash, error) {
	data, err := Pack(v, t)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(data), nil
}

// Pack returns the pre-image of the OfferKey.
func Pack(v Version, t Terms) ([]byte, error) {
	words := 4
	switch v {
	case V1:
		if t.Expires != 0 {
			return nil, apperrors.Parameter(apperrors.ReasonExpiresNotSupported)
		}
	case V2:
		words = 5
	default:
		return nil, fmt.Errorf("unknown protocol version %d", uint8(v))
	}

	offerID, err := tokenWord(t.OfferTokenID)
	if err != nil {
		return nil, err
	}
	wantedID, err := tokenWord(t.WantedTokenID)
	if err != nil {
		return nil, err
	}

	data := make([]byte, wordSize*words)
	// addresses are 20 bytes, right-aligned in their word
	copy(data[0*wordSize+12:1*wordSize], t.OfferContract.Bytes())
	copy(data[1*wordSize:2*wordSize], offerID)
	copy(data[2*wordSize+12:3*wordSize], t.WantedContract.Bytes())
	copy(data[3*wordSize:4*wordSize], wantedID)
	if v == V2 {
		binary.BigEndian.PutUint64(data[5*wordSize-8:5*wordSize], t.Expires)
	}
	return data, nil
}

func tokenWord(id *big.Int) ([]byte, error) {
	if id == nil || id.Sign() < 0 || id.BitLen() > 256 {
		return nil, apperrors.Parameter(apperrors.ReasonInvalidTokenID)
	}
	return math.PaddedBigBytes(id, wordSize), nil
}
