package metaplex

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninja0404/launchpad-go-sdk/pkg/constants"
)

func TestCreateMetadataV3Encoding(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	ix, err := CreateMetadataV3(mint, owner, owner, owner, DataV2{Name: "Moon", Symbol: "MOON", URI: "https://ipfs.io/ipfs/cid"})
	require.NoError(t, err)
	assert.Equal(t, constants.MetadataProgramID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, byte(33), data[0])
	off := 1
	for _, s := range []string{"Moon", "MOON", "https://ipfs.io/ipfs/cid"} {
		n := int(binary.LittleEndian.Uint32(data[off:]))
		require.Equal(t, len(s), n)
		assert.Equal(t, s, string(data[off+4:off+4+n]))
		off += 4 + n
	}
	// fee u16, creators/collection/uses None, mutable, no collection details
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 1, 0}, data[off:])

	md, err := MetadataAddress(mint)
	require.NoError(t, err)
	accs := ix.Accounts()
	require.Len(t, accs, 6)
	assert.Equal(t, md, accs[0].PublicKey)
	assert.True(t, accs[2].IsSigner)
	assert.True(t, accs[3].IsSigner && accs[3].IsWritable)
}

func TestDecodeMetadataTrimsPadding(t *testing.T) {
	auth, mint := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	raw := []byte{4}
	raw = append(raw, auth[:]...)
	raw = append(raw, mint[:]...)
	for _, s := range []string{"Moon\x00\x00\x00", "MOON\x00", "uri"} {
		raw = binary.LittleEndian.AppendUint32(raw, uint32(len(s)))
		raw = append(raw, s...)
	}
	md, err := DecodeMetadata(raw)
	require.NoError(t, err)
	assert.Equal(t, "Moon", md.Name)
	assert.Equal(t, "MOON", md.Symbol)
	assert.Equal(t, "uri", md.URI)
	assert.Equal(t, mint, md.Mint)

	_, err = DecodeMetadata(raw[:70])
	assert.Error(t, err)
}
