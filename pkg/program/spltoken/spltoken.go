// Package spltoken builds SPL Token program instructions and decodes token
// and mint accounts.
package spltoken

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/ninja0404/launchpad-go-sdk/pkg/constants"
)

// AuthorityType selects the authority changed by SetAuthority.
type AuthorityType = token.AuthorityType

const (
	AuthorityMintTokens    = token.AuthorityMintTokens
	AuthorityFreezeAccount = token.AuthorityFreezeAccount
)

// Mint and Account are the chain layouts of mint and token accounts.
type (
	Mint    = token.Mint
	Account = token.Account
)

// InitializeMint sets decimals and authorities of a freshly allocated mint.
// A nil freeze authority leaves the mint without one.
func InitializeMint(mint, mintAuthority solana.PublicKey, freezeAuthority *solana.PublicKey, decimals uint8) solana.Instruction {
	b := token.NewInitializeMintInstructionBuilder().
		SetDecimals(decimals).
		SetMintAuthority(mintAuthority).
		SetMintAccount(mint).
		SetSysVarRentPubkeyAccount(solana.SysVarRentPubkey)
	if freezeAuthority != nil {
		b.SetFreezeAuthority(*freezeAuthority)
	}
	return b.Build()
}

// InitializeAccount binds a freshly allocated token account to mint and owner.
func InitializeAccount(account, mint, owner solana.PublicKey) solana.Instruction {
	return token.NewInitializeAccountInstruction(account, mint, owner, solana.SysVarRentPubkey).Build()
}

// MintTo mints amount base units into destination.
func MintTo(mint, destination, authority solana.PublicKey, amount uint64) solana.Instruction {
	return token.NewMintToInstruction(amount, mint, destination, authority, nil).Build()
}

// Burn destroys amount base units held by account.
func Burn(account, mint, owner solana.PublicKey, amount uint64) solana.Instruction {
	return token.NewBurnInstruction(amount, account, mint, owner, nil).Build()
}

// SetAuthority changes or, when newAuthority is nil, revokes an authority of target.
func SetAuthority(target, currentAuthority solana.PublicKey, kind AuthorityType, newAuthority *solana.PublicKey) solana.Instruction {
	b := token.NewSetAuthorityInstructionBuilder().
		SetAuthorityType(kind).
		SetSubjectAccount(target).
		SetAuthorityAccount(currentAuthority)
	if newAuthority != nil {
		b.SetNewAuthority(*newAuthority)
	}
	return b.Build()
}

// CloseAccount closes account and sends its rent to destination.
func CloseAccount(account, destination, owner solana.PublicKey) solana.Instruction {
	return token.NewCloseAccountInstruction(account, destination, owner, nil).Build()
}

// CreateATAIdempotent creates the associated token account when missing and
// succeeds when it already exists.
//
// The associated-token-account package of solana-go only builds the plain
// Create instruction, so the idempotent variant (tag 1) is encoded here.
func CreateATAIdempotent(payer, owner, mint solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("derive ata: %w", err)
	}
	ix := solana.NewInstruction(constants.AssociatedTokenProgramID, solana.AccountMetaSlice{
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(ata, true, false),
		solana.NewAccountMeta(owner, false, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(constants.SystemProgramID, false, false),
		solana.NewAccountMeta(constants.TokenProgramID, false, false),
	}, []byte{1})
	return ix, ata, nil
}

// DecodeAccount decodes a 165 byte token account.
func DecodeAccount(data []byte) (Account, error) {
	var acc Account
	if len(data) < constants.TokenAccountSize {
		return acc, fmt.Errorf("token account too short: %d bytes", len(data))
	}
	if err := bin.NewBinDecoder(data).Decode(&acc); err != nil {
		return acc, fmt.Errorf("decode token account: %w", err)
	}
	return acc, nil
}

// DecodeMint decodes an 82 byte mint account.
func DecodeMint(data []byte) (Mint, error) {
	var mint Mint
	if len(data) < constants.MintAccountSize {
		return mint, fmt.Errorf("mint account too short: %d bytes", len(data))
	}
	if err := bin.NewBinDecoder(data).Decode(&mint); err != nil {
		return mint, fmt.Errorf("decode mint: %w", err)
	}
	return mint, nil
}
