// Package metaplex encodes the Metaplex Token Metadata instructions used to
// name a token, and decodes the on-chain metadata account.
package metaplex

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/ninja0404/launchpad-go-sdk/pkg/constants"
)

const createMetadataAccountV3 uint8 = 33

// DataV2 is the metadata payload of CreateMetadataAccountV3 without creators,
// collection or uses.
type DataV2 struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
}

type createArgs struct {
	Discriminator        uint8
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	CreatorsOption       uint8
	CollectionOption     uint8
	UsesOption           uint8
	IsMutable            bool
	CollectionDetails    uint8
}

// MetadataAddress derives the metadata PDA of mint.
func MetadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{
		[]byte(constants.SeedMetadata),
		constants.MetadataProgramID[:],
		mint[:],
	}, constants.MetadataProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive metadata pda: %w", err)
	}
	return addr, nil
}

// CreateMetadataV3 builds a mutable CreateMetadataAccountV3 instruction.
func CreateMetadataV3(mint, mintAuthority, payer, updateAuthority solana.PublicKey, data DataV2) (solana.Instruction, error) {
	metadata, err := MetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	args := createArgs{
		Discriminator:        createMetadataAccountV3,
		Name:                 data.Name,
		Symbol:               data.Symbol,
		URI:                  data.URI,
		SellerFeeBasisPoints: data.SellerFeeBasisPoints,
		IsMutable:            true,
	}
	if err := bin.NewBorshEncoder(buf).Encode(&args); err != nil {
		return nil, fmt.Errorf("encode metadata args: %w", err)
	}
	return solana.NewInstruction(constants.MetadataProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(metadata, true, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(mintAuthority, false, true),
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(updateAuthority, false, false),
		solana.NewAccountMeta(constants.SystemProgramID, false, false),
	}, buf.Bytes()), nil
}

// Metadata is the decoded head of a metadata account.
type Metadata struct {
	UpdateAuthority solana.PublicKey
	Mint            solana.PublicKey
	Name            string
	Symbol          string
	URI             string
}

// DecodeMetadata decodes key, authorities and the name/symbol/uri strings.
// Strings are stored padded with NUL bytes, which are trimmed.
func DecodeMetadata(data []byte) (Metadata, error) {
	const head = 1 + 32 + 32
	if len(data) < head {
		return Metadata{}, fmt.Errorf("metadata account too short: %d bytes", len(data))
	}
	md := Metadata{
		UpdateAuthority: solana.PublicKeyFromBytes(data[1:33]),
		Mint:            solana.PublicKeyFromBytes(data[33:65]),
	}
	rest := data[head:]
	var err error
	if md.Name, rest, err = readString(rest); err != nil {
		return Metadata{}, fmt.Errorf("name: %w", err)
	}
	if md.Symbol, rest, err = readString(rest); err != nil {
		return Metadata{}, fmt.Errorf("symbol: %w", err)
	}
	if md.URI, _, err = readString(rest); err != nil {
		return Metadata{}, fmt.Errorf("uri: %w", err)
	}
	return md, nil
}

func readString(b []byte) (string, []byte, error) {
	if len(b) < 4 {
		return "", nil, fmt.Errorf("missing length")
	}
	n := int(binary.LittleEndian.Uint32(b[:4]))
	if len(b) < 4+n {
		return "", nil, fmt.Errorf("length %d exceeds data", n)
	}
	return strings.TrimRight(string(b[4:4+n]), "\x00"), b[4+n:], nil
}
