package types

import "fmt"

// TxType tags a relayed batch for the backend run-transaction endpoint.
type TxType int

const (
	TxCreateToken       TxType = 1
	TxCreateMarket      TxType = 2
	TxRemoveLP          TxType = 3
	TxBurnLP            TxType = 4
	TxRevokeMint        TxType = 5
	TxRevokeFreeze      TxType = 6
	TxSetMint           TxType = 7
	TxSetFreeze         TxType = 8
	TxBurnToken         TxType = 9
	TxCloseTokenAccount TxType = 10
)

var txTypeNames = map[TxType]string{
	TxCreateToken:       "create_token",
	TxCreateMarket:      "create_market",
	TxRemoveLP:          "remove_lp",
	TxBurnLP:            "burn_lp",
	TxRevokeMint:        "revoke_mint",
	TxRevokeFreeze:      "revoke_freeze",
	TxSetMint:           "set_mint",
	TxSetFreeze:         "set_freeze",
	TxBurnToken:         "burn_token",
	TxCloseTokenAccount: "close_token_account",
}

func (t TxType) String() string {
	if name, ok := txTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tx_type_%d", int(t))
}

// CompletionTag is the push event the backend emits once a batch of this
// type has landed.
func (t TxType) CompletionTag() string {
	switch t {
	case TxCreateToken:
		return "CREATE_TOKEN"
	case TxCreateMarket:
		return "CREATE_OPENBOOKMARKET"
	case TxRemoveLP:
		return "REMOVE_LP"
	case TxBurnLP:
		return "BURN_LP"
	case TxRevokeMint:
		return "REVOKE_MINT"
	case TxRevokeFreeze:
		return "REVOKE_FREEZE_MINT"
	case TxSetMint:
		return "SET_MINT"
	case TxSetFreeze:
		return "FREEZE_MINT"
	case TxBurnToken:
		return "BURN_TOKEN"
	case TxCloseTokenAccount:
		return "CLOSE_TOKEN"
	default:
		return ""
	}
}
