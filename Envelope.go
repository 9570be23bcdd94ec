package minerquery

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/rensa-labs/minerquery/internal/txkit"
)

// ErrBadEnvelope is wrapped by Verify for malformed signature material.
var ErrBadEnvelope = errors.New("malformed envelope")

// Envelope is the signed JSON wrapper miners respond with. Payload is itself
// a JSON document; Signature and PublicKey are hex and may be absent when the
// miner does not sign.
type Envelope struct {
	Payload   string  `json:"payload"`
	Signature *string `json:"signature"`
	PublicKey *string `json:"publicKey"`
	Encoding  string  `json:"encoding"`
	MimeType  string  `json:"mimetype"`

	// Verified is set by Verify. It stays false when signature or key are
	// absent; callers must check it explicitly rather than assume either way.
	Verified bool `json:"-"`
}

// Verify checks the envelope signature over SHA-256 of the payload bytes and
// sets Verified accordingly. Key forms are told apart by length: 32 bytes is
// an ed25519 key with a 64-byte raw signature, 33 or 65 bytes is a SEC-encoded
// secp256k1 key with a DER signature. Absent signature or key is a vacuous
// skip: Verified stays false and no error is returned. A well-formed
// signature that simply does not validate also leaves Verified false without
// error; only malformed material errors.
func (env *Envelope) Verify() error {
	if env.Signature == nil || *env.Signature == "" ||
		env.PublicKey == nil || *env.PublicKey == "" {
		return nil
	}
	pkb, err := hex.DecodeString(*env.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: public key: %v", ErrBadEnvelope, err)
	}
	sigb, err := hex.DecodeString(*env.Signature)
	if err != nil {
		return fmt.Errorf("%w: signature: %v", ErrBadEnvelope, err)
	}
	hash := sha256.Sum256([]byte(env.Payload))
	switch len(pkb) {
	case ed25519.PublicKeySize:
		if len(sigb) != ed25519.SignatureSize {
			return fmt.Errorf("%w: ed25519 signature must be %v bytes",
				ErrBadEnvelope, ed25519.SignatureSize)
		}
		env.Verified = ed25519.Verify(ed25519.PublicKey(pkb), hash[:], sigb)
	case 33, 65:
		pub, err := secp256k1.ParsePubKey(pkb)
		if err != nil {
			return fmt.Errorf("%w: public key: %v", ErrBadEnvelope, err)
		}
		sig, err := secpecdsa.ParseDERSignature(sigb)
		if err != nil {
			return fmt.Errorf("%w: signature: %v", ErrBadEnvelope, err)
		}
		env.Verified = sig.Verify(hash[:], pub)
	default:
		return fmt.Errorf("%w: unsupported public key length %v",
			ErrBadEnvelope, len(pkb))
	}
	return nil
}

// KeyFingerprint returns the hash160 of the signing key as hex, for log
// lines and display. Empty when the envelope carries no usable key.
func (env *Envelope) KeyFingerprint() string {
	if env.PublicKey == nil || *env.PublicKey == "" {
		return ""
	}
	pkb, err := hex.DecodeString(*env.PublicKey)
	if err != nil {
		return ""
	}
	return hex.EncodeToString(txkit.Hash160(pkb))
}
