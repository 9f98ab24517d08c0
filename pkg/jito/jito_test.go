package jito

import (
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestTipInstruction(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	ix := TipInstruction(payer, DefaultTipAccount(), 10_000_000)

	if !ix.ProgramID().Equals(solana.SystemProgramID) {
		t.Fatalf("program = %s", ix.ProgramID())
	}
	data, err := ix.Data()
	if err != nil {
		t.Fatalf("data: %v", err)
	}
	if binary.LittleEndian.Uint32(data[:4]) != 2 {
		t.Fatalf("not a transfer: %x", data)
	}
	if got := binary.LittleEndian.Uint64(data[4:12]); got != 10_000_000 {
		t.Fatalf("lamports = %d", got)
	}
	accs := ix.Accounts()
	if !accs[0].PublicKey.Equals(payer) || !accs[1].PublicKey.Equals(MainnetTipAccounts[0]) {
		t.Fatalf("unexpected accounts %v", accs)
	}
}

func TestEncodeBundle(t *testing.T) {
	payer := solana.NewWallet()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{TipInstruction(payer.PublicKey(), GetRandomTipAccountLocal(), 1)},
		solana.Hash{},
		solana.TransactionPayer(payer.PublicKey()),
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := tx.Sign(func(solana.PublicKey) *solana.PrivateKey { return &payer.PrivateKey }); err != nil {
		t.Fatalf("sign: %v", err)
	}
	out, err := EncodeBundle([]*solana.Transaction{tx, tx})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("encoded %d txs", len(out))
	}
	raw, err := base64.StdEncoding.DecodeString(out[0])
	if err != nil || len(raw) == 0 {
		t.Fatalf("invalid base64 output: %v", err)
	}
}

func TestIsRateLimitError(t *testing.T) {
	if isRateLimitError(nil) {
		t.Fatalf("nil is not a rate limit error")
	}
	if !isRateLimitError(errTest("HTTP 429 Too Many Requests")) {
		t.Fatalf("429 must count as rate limit")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
