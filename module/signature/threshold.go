package signature

import (
	"fmt"

	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/pairing/bn256"
	"go.dedis.ch/kyber/v4/share"

	"github.com/fedibtc/minimint/module/random"
)

// Threshold BLS signatures on bn256. Signatures live in G1 and keys in G2. The
// holder of share index i is the federation member with PeerID i.

var suite = bn256.NewSuite()

// PublicKeySet is the public polynomial of a threshold key. It verifies
// signature shares of individual members as well as recovered signatures.
type PublicKeySet struct {
	poly      *share.PubPoly
	threshold int
	size      int
}

// SecretKeyShare is one member's share of the threshold key.
type SecretKeyShare struct {
	share *share.PriShare
}

// Deal generates a fresh threshold key with the given threshold and number of
// shares. It is run by a trusted dealer at federation setup.
func Deal(gen random.Generator, threshold, size int) (*PublicKeySet, []*SecretKeyShare, error) {
	if threshold < 1 || threshold > size {
		return nil, nil, fmt.Errorf("threshold %d out of range for %d shares: %w", threshold, size, ErrInvalidInputs)
	}

	stream := gen.Stream()
	secret := suite.G2().Scalar().Pick(stream)
	priPoly := share.NewPriPoly(suite.G2(), threshold, secret, stream)
	pubPoly := priPoly.Commit(suite.G2().Point().Base())

	priShares := priPoly.Shares(size)
	shares := make([]*SecretKeyShare, 0, size)
	for _, s := range priShares {
		shares = append(shares, &SecretKeyShare{share: s})
	}

	return &PublicKeySet{poly: pubPoly, threshold: threshold, size: size}, shares, nil
}

// DecodePublicKeySet reconstructs a public key set from its encoded commitments.
func DecodePublicKeySet(commits [][]byte, size int) (*PublicKeySet, error) {
	if len(commits) == 0 || len(commits) > size {
		return nil, fmt.Errorf("%d commitments for %d shares: %w", len(commits), size, ErrInvalidInputs)
	}
	points := make([]kyber.Point, 0, len(commits))
	for i, commit := range commits {
		point := suite.G2().Point()
		err := point.UnmarshalBinary(commit)
		if err != nil {
			return nil, fmt.Errorf("could not decode commitment %d: %w", i, err)
		}
		points = append(points, point)
	}
	poly := share.NewPubPoly(suite.G2(), suite.G2().Point().Base(), points)
	return &PublicKeySet{poly: poly, threshold: len(points), size: size}, nil
}

// Encode returns the commitments of the public polynomial.
func (p *PublicKeySet) Encode() ([][]byte, error) {
	_, commits := p.poly.Info()
	encoded := make([][]byte, 0, len(commits))
	for _, commit := range commits {
		b, err := commit.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("could not encode commitment: %w", err)
		}
		encoded = append(encoded, b)
	}
	return encoded, nil
}

// Threshold returns the number of shares required to recover a signature.
func (p *PublicKeySet) Threshold() int {
	return p.threshold
}

// Size returns the number of key shares.
func (p *PublicKeySet) Size() int {
	return p.size
}

// VerifyShare checks a signature share produced by the holder of the given index.
func (p *PublicKeySet) VerifyShare(index int, msg, sigShare []byte) error {
	if index < 0 || index >= p.size {
		return fmt.Errorf("share index %d out of range: %w", index, ErrInvalidInputs)
	}
	return verify(p.poly.Eval(index).V, msg, sigShare)
}

// Verify checks a recovered signature against the group public key.
func (p *PublicKeySet) Verify(msg, sig []byte) error {
	return verify(p.poly.Commit(), msg, sig)
}

// Combine recovers the group signature from signature shares, keyed by share index.
// The shares are expected to be verified already.
func (p *PublicKeySet) Combine(shares map[int][]byte) ([]byte, error) {
	if len(shares) < p.threshold {
		return nil, fmt.Errorf("got %d of %d shares: %w", len(shares), p.threshold, ErrInsufficientShares)
	}
	pubShares := make([]*share.PubShare, 0, len(shares))
	for index, sigShare := range shares {
		point := suite.G1().Point()
		err := point.UnmarshalBinary(sigShare)
		if err != nil {
			return nil, fmt.Errorf("could not decode share %d: %v: %w", index, err, ErrInvalidFormat)
		}
		pubShares = append(pubShares, &share.PubShare{I: index, V: point})
	}
	sig, err := share.RecoverCommit(suite.G1(), pubShares, p.threshold, p.size)
	if err != nil {
		return nil, fmt.Errorf("could not recover signature: %w", err)
	}
	return sig.MarshalBinary()
}

// DecodeSecretKeyShare reconstructs a secret key share.
func DecodeSecretKeyShare(index int, encoded []byte) (*SecretKeyShare, error) {
	scalar := suite.G2().Scalar()
	err := scalar.UnmarshalBinary(encoded)
	if err != nil {
		return nil, fmt.Errorf("could not decode secret share: %w", err)
	}
	return &SecretKeyShare{share: &share.PriShare{I: index, V: scalar}}, nil
}

// Index returns the share index, which equals the holder's PeerID.
func (s *SecretKeyShare) Index() int {
	return s.share.I
}

// Encode returns the binary encoding of the secret scalar.
func (s *SecretKeyShare) Encode() ([]byte, error) {
	return s.share.V.MarshalBinary()
}

// Sign produces this share's signature over the message.
func (s *SecretKeyShare) Sign(msg []byte) ([]byte, error) {
	sig := suite.G1().Point().Mul(s.share.V, hashToG1(msg))
	return sig.MarshalBinary()
}

type hashablePoint interface {
	Hash([]byte) kyber.Point
}

func hashToG1(msg []byte) kyber.Point {
	return suite.G1().Point().(hashablePoint).Hash(msg)
}

// verify checks e(sig, g2) == e(H(msg), pub).
func verify(pub kyber.Point, msg, sig []byte) error {
	point := suite.G1().Point()
	err := point.UnmarshalBinary(sig)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidFormat)
	}
	left := suite.Pair(point, suite.G2().Point().Base())
	right := suite.Pair(hashToG1(msg), pub)
	if !left.Equal(right) {
		return ErrInvalidSignature
	}
	return nil
}
