package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FlexString decodes JSON strings and numbers alike and keeps the literal text.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("flex string: %w", err)
	}
	*s = FlexString(n.String())
	return nil
}

func (s FlexString) String() string { return string(s) }

// Role is the backend user role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is a backend account.
type User struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	Code      string `json:"code,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// ProjectStatus is the backend lifecycle state of a project.
type ProjectStatus string

const (
	ProjectInit    ProjectStatus = "INIT"
	ProjectOpen    ProjectStatus = "OPEN"
	ProjectExpired ProjectStatus = "EXPIRED"
	ProjectTrade   ProjectStatus = "TRADE"
	ProjectClosed  ProjectStatus = "CLOSED"
)

// TokenRef identifies the project token. The backend sends either an
// address string or an object.
type TokenRef struct {
	Address     string     `json:"address"`
	Name        string     `json:"name,omitempty"`
	Symbol      string     `json:"symbol,omitempty"`
	Decimals    FlexString `json:"decimals,omitempty"`
	TotalSupply FlexString `json:"totalSupply,omitempty"`
}

func (t *TokenRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var addr string
		if err := json.Unmarshal(b, &addr); err != nil {
			return err
		}
		*t = TokenRef{Address: addr}
		return nil
	}
	type plain TokenRef
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*t = TokenRef(p)
	return nil
}

// DepositWallet receives the project payment.
type DepositWallet struct {
	Address string `json:"address"`
}

// Wallet is an operation wallet owned by the backend.
type Wallet struct {
	Address            string          `json:"address"`
	InitialTokenAmount FlexString      `json:"initialTokenAmount,omitempty"`
	InitialSolAmount   FlexString      `json:"initialSolAmount,omitempty"`
	Sim                json.RawMessage `json:"sim,omitempty"`
}

// Project is one token-launch campaign.
type Project struct {
	ID            string         `json:"_id"`
	Name          string         `json:"name"`
	Status        ProjectStatus  `json:"status"`
	Token         *TokenRef      `json:"token,omitempty"`
	Zombie        string         `json:"zombie,omitempty"`
	Wallets       []Wallet       `json:"wallets,omitempty"`
	UserWallets   []Wallet       `json:"userWallets,omitempty"`
	BotWallets    []Wallet       `json:"botWallets,omitempty"`
	DepositWallet *DepositWallet `json:"depositWallet,omitempty"`
	PoolInfo      *PoolKeys      `json:"poolInfo,omitempty"`
	UserID        string         `json:"userId,omitempty"`
	PaymentID     FlexString     `json:"paymentId,omitempty"`
	Timestamp     FlexString     `json:"timestamp,omitempty"`

	// DepositWallets fund the bot wallets. The backend spells the key
	// "depositeWallets".
	DepositWallets []Wallet `json:"depositeWallets,omitempty"`
}

// TokenAddress returns the token address or "".
func (p Project) TokenAddress() string {
	if p.Token == nil {
		return ""
	}
	return p.Token.Address
}

// WalletIndex returns the index of addr in the project wallets or -1.
func (p Project) WalletIndex(addr string) int {
	for i, w := range p.Wallets {
		if strings.EqualFold(w.Address, addr) {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the project's slices.
func (p Project) Clone() Project {
	out := p
	out.Wallets = cloneWallets(p.Wallets)
	out.UserWallets = cloneWallets(p.UserWallets)
	out.BotWallets = cloneWallets(p.BotWallets)
	out.DepositWallets = cloneWallets(p.DepositWallets)
	if p.Token != nil {
		t := *p.Token
		out.Token = &t
	}
	if p.PoolInfo != nil {
		k := *p.PoolInfo
		out.PoolInfo = &k
	}
	if p.DepositWallet != nil {
		d := *p.DepositWallet
		out.DepositWallet = &d
	}
	return out
}

func cloneWallets(in []Wallet) []Wallet {
	if in == nil {
		return nil
	}
	out := make([]Wallet, len(in))
	for i, w := range in {
		out[i] = w
		if w.Sim != nil {
			out[i].Sim = append(json.RawMessage(nil), w.Sim...)
		}
	}
	return out
}

// ZombieWallet is the disperse wallet of a simulation. Value is in lamports.
type ZombieWallet struct {
	Address string     `json:"address"`
	Value   FlexString `json:"value,omitempty"`
}

// SimulationResult is the payload of a successful SIMULATE_COMPLETED event.
// It is sent back verbatim on disperse and buy.
type SimulationResult struct {
	ProjectID string        `json:"projectId"`
	Token     *TokenRef     `json:"token,omitempty"`
	Zombie    *ZombieWallet `json:"zombie,omitempty"`
	Wallets   []Wallet      `json:"wallets"`
	PoolInfo  *PoolKeys     `json:"poolInfo,omitempty"`

	raw json.RawMessage
}

func (s *SimulationResult) UnmarshalJSON(b []byte) error {
	type plain SimulationResult
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = SimulationResult(p)
	s.raw = append(json.RawMessage(nil), b...)
	return nil
}

func (s SimulationResult) MarshalJSON() ([]byte, error) {
	if len(s.raw) > 0 {
		return s.raw, nil
	}
	type plain SimulationResult
	return json.Marshal(plain(s))
}

// IsZero reports whether no simulation is held.
func (s *SimulationResult) IsZero() bool {
	return s == nil || s.ProjectID == ""
}

// PoolKeys are Raydium AMM v4 pool keys in their JSON form.
type PoolKeys struct {
	ID               string `json:"id"`
	BaseMint         string `json:"baseMint"`
	QuoteMint        string `json:"quoteMint"`
	LpMint           string `json:"lpMint"`
	BaseDecimals     int    `json:"baseDecimals"`
	QuoteDecimals    int    `json:"quoteDecimals"`
	LpDecimals       int    `json:"lpDecimals"`
	Version          int    `json:"version"`
	ProgramID        string `json:"programId"`
	Authority        string `json:"authority"`
	OpenOrders       string `json:"openOrders"`
	TargetOrders     string `json:"targetOrders"`
	BaseVault        string `json:"baseVault"`
	QuoteVault       string `json:"quoteVault"`
	WithdrawQueue    string `json:"withdrawQueue"`
	LpVault          string `json:"lpVault"`
	MarketVersion    int    `json:"marketVersion"`
	MarketProgramID  string `json:"marketProgramId"`
	MarketID         string `json:"marketId"`
	MarketAuthority  string `json:"marketAuthority"`
	MarketBaseVault  string `json:"marketBaseVault"`
	MarketQuoteVault string `json:"marketQuoteVault"`
	MarketBids       string `json:"marketBids"`
	MarketAsks       string `json:"marketAsks"`
	MarketEventQueue string `json:"marketEventQueue"`
}

// Email is an admin notification address.
type Email struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// JitoSigner is a backend-held key used to sign Jito bundles.
type JitoSigner struct {
	Address string `json:"address"`
}

func (j *JitoSigner) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &j.Address)
	}
	type plain JitoSigner
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*j = JitoSigner(p)
	return nil
}

// ExtraWallet is a named contact wallet held by the backend.
type ExtraWallet struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// TokenAccountInfo describes one SPL token holding of an owner.
type TokenAccountInfo struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Mint     string `json:"mint"`
	Account  string `json:"account"`
	Balance  string `json:"balance"`
	MarketID string `json:"marketId,omitempty"`
}
