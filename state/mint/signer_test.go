package mint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedibtc/minimint/module/random"
	"github.com/fedibtc/minimint/module/signature"
	"github.com/fedibtc/minimint/utils/unittest"
)

func TestSigner_SignAll(t *testing.T) {
	pub, shares, err := signature.Deal(random.NewSeededGenerator([]byte("signer")), 2, 3)
	require.NoError(t, err)

	signer := NewSigner(shares[1], 3)
	defer signer.Stop()

	messages := unittest.ClientRequestFixture(8).Messages
	sigs, err := signer.SignAll(messages)
	require.NoError(t, err)
	require.Len(t, sigs, len(messages))
	for i, msg := range messages {
		assert.NoError(t, pub.VerifyShare(1, msg, sigs[i]), "message %d", i)
	}

	sigs, err = signer.SignAll(nil)
	require.NoError(t, err)
	assert.Empty(t, sigs)
}
