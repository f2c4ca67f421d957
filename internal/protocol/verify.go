package protocol

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru/v2"
)

// messagePrefix scopes offer signatures to personal-message signing of a
// 32-byte payload.
const messagePrefix = "\x19Ethereum Signed Message:\n32"

// PrefixedHash is the digest an offer signature actually covers.
func PrefixedHash(offerKey common.Hash) common.Hash {
	return crypto.Keccak256Hash([]byte(messagePrefix), offerKey.Bytes())
}

// Recover returns the address that signed offerKey, or the zero address
// when the signature is malformed: wrong length, unknown recovery id,
// non-canonical scalars, or a point that does not recover. Callers treat
// the zero address as "nobody" and fail authorization instead of erroring.
func Recover(offerKey common.Hash, sig []byte) common.Address {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}
	}
	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)

	// Accept both 0/1 and the legacy 27/28 recovery ids.
	switch v := normalized[crypto.RecoveryIDOffset]; v {
	case 0, 1:
	case 27, 28:
		normalized[crypto.RecoveryIDOffset] = v - 27
	default:
		return common.Address{}
	}

	r := new(big.Int).SetBytes(normalized[:32])
	s := new(big.Int).SetBytes(normalized[32:64])
	if !crypto.ValidateSignatureValues(normalized[crypto.RecoveryIDOffset], r, s, true) {
		return common.Address{}
	}

	pub, err := crypto.SigToPub(PrefixedHash(offerKey).Bytes(), normalized)
	if err != nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(*pub)
}

// Verifier memoizes Recover. Recovery is a pure function of its inputs, so
// caching it never hides a change in token ownership.
type Verifier struct {
	cache *lru.Cache[string, common.Address]
}

// NewVerifier returns a verifier holding up to size recoveries; size <= 0
// disables the cache.
func NewVerifier(size int) (*Verifier, error) {
	if size <= 0 {
		return &Verifier{}, nil
	}
	cache, err := lru.New[string, common.Address](size)
	if err != nil {
		return nil, err
	}
	return &Verifier{cache: cache}, nil
}

func (v *Verifier) Recover(offerKey common.Hash, sig []byte) common.Address {
	if v == nil || v.cache == nil {
		return Recover(offerKey, sig)
	}
	key := string(offerKey.Bytes()) + string(sig)
	if addr, ok := v.cache.Get(key); ok {
		return addr
	}
	addr := Recover(offerKey, sig)
	v.cache.Add(key, addr)
	return addr
}
