package constants

import "github.com/gagliardetto/solana-go"

// Well-known program IDs
var (
	// SPL Programs
	SystemProgramID          = solana.SystemProgramID
	TokenProgramID           = solana.TokenProgramID
	AssociatedTokenProgramID = solana.SPLAssociatedTokenAccountProgramID
	SysvarRentProgramID      = solana.SysVarRentPubkey
	MetadataProgramID        = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

	// OpenBook (Serum v3 layout) DEX
	OpenBookProgramID       = solana.MustPublicKeyFromBase58("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX")
	OpenBookDevnetProgramID = solana.MustPublicKeyFromBase58("EoTcMgcDRTJVZDMZWBoU6rhYHZfkNTVEAfz3uUJRcYGj")

	// Raydium AMM v4
	AmmV4ProgramID       = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	AmmV4DevnetProgramID = solana.MustPublicKeyFromBase58("HWy1jotHpo6UqeQxx49dpYYdQB8wj9Qk9MdxwjLvDHB8")
)

// Mainnet well-known accounts
var (
	// WSOL (Native Mint)
	WSOLMint = solana.WrappedSol
)

// Programs groups the cluster dependent program ids.
type Programs struct {
	OpenBook solana.PublicKey
	AmmV4    solana.PublicKey
}

// ProgramsFor returns mainnet ids, or the devnet deployments when devnet is set.
func ProgramsFor(devnet bool) Programs {
	if devnet {
		return Programs{OpenBook: OpenBookDevnetProgramID, AmmV4: AmmV4DevnetProgramID}
	}
	return Programs{OpenBook: OpenBookProgramID, AmmV4: AmmV4ProgramID}
}

// PDA seeds
const (
	SeedMetadata     = "metadata"
	SeedAmmAuthority = "amm authority"

	SeedAmmAssociated       = "amm_associated_seed"
	SeedLpMintAssociated    = "lp_mint_associated_seed"
	SeedCoinVaultAssociated = "coin_vault_associated_seed"
	SeedPcVaultAssociated   = "pc_vault_associated_seed"
	SeedTempLpAssociated    = "temp_lp_token_associated_seed"
	SeedTargetAssociated    = "target_associated_seed"
	SeedWithdrawAssociated  = "withdraw_associated_seed"
	SeedOpenOrderAssociated = "open_order_associated_seed"
)

// Account sizes and fees
const (
	MintAccountSize  = 82
	TokenAccountSize = 165

	// MinCreateTokenLamports is the owner balance required before creating a token.
	MinCreateTokenLamports = 38_000_000

	// DefaultTipLamports is the tip appended to relayed batches (0.01 SOL).
	DefaultTipLamports = 10_000_000
)
