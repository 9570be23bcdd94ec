package minerquery

import (
	"crypto/ed25519"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ed25519Envelope(t *testing.T, payload string) *Envelope {
	pub, priv, err := ed25519.GenerateKey(crand.Reader)
	require.NoError(t, err)
	hash := sha256.Sum256([]byte(payload))
	sig := hex.EncodeToString(ed25519.Sign(priv, hash[:]))
	pk := hex.EncodeToString(pub)
	return &Envelope{Payload: payload, Signature: &sig, PublicKey: &pk}
}

func secpEnvelope(t *testing.T, payload string) *Envelope {
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	hash := sha256.Sum256([]byte(payload))
	sig := hex.EncodeToString(secpecdsa.Sign(key, hash[:]).Serialize())
	pk := hex.EncodeToString(key.PubKey().SerializeCompressed())
	return &Envelope{Payload: payload, Signature: &sig, PublicKey: &pk}
}

func TestVerifyEd25519(t *testing.T) {
	env := ed25519Envelope(t, `{"fees":[]}`)
	require.NoError(t, env.Verify())
	assert.True(t, env.Verified)
}

func TestVerifySecp256k1(t *testing.T) {
	env := secpEnvelope(t, `{"fees":[]}`)
	require.NoError(t, env.Verify())
	assert.True(t, env.Verified)
}

func TestVerifyTamperedPayload(t *testing.T) {
	for _, env := range []*Envelope{
		ed25519Envelope(t, `{"fees":[]}`),
		secpEnvelope(t, `{"fees":[]}`),
	} {
		env.Payload = `{"fees":[{"feeType":"standard"}]}`
		// a valid-shaped signature that fails to validate is not an error
		require.NoError(t, env.Verify())
		assert.False(t, env.Verified)
	}
}

func TestVerifyVacuousSkip(t *testing.T) {
	env := &Envelope{Payload: `{}`}
	require.NoError(t, env.Verify())
	assert.False(t, env.Verified)

	// key without signature is also a skip
	pk := "00"
	env = &Envelope{Payload: `{}`, PublicKey: &pk}
	require.NoError(t, env.Verify())
	assert.False(t, env.Verified)
}

func TestVerifyMalformed(t *testing.T) {
	sig, pk := "not-hex", "02ff"
	env := &Envelope{Payload: `{}`, Signature: &sig, PublicKey: &pk}
	assert.ErrorIs(t, env.Verify(), ErrBadEnvelope)

	sig2, pk2 := "abcd", "0011" // 2-byte key has no scheme
	env = &Envelope{Payload: `{}`, Signature: &sig2, PublicKey: &pk2}
	assert.ErrorIs(t, env.Verify(), ErrBadEnvelope)
	assert.False(t, env.Verified)
}

func TestKeyFingerprint(t *testing.T) {
	env := ed25519Envelope(t, `{}`)
	assert.Len(t, env.KeyFingerprint(), 40)
	assert.Empty(t, (&Envelope{}).KeyFingerprint())
}
