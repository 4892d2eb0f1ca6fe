//go:build ignore_vet
// +build ignore_vet

package main

import (
	"fmt"

	"github.com/sats-mint/gonuts/cashu"
	"github.com/sats-mint/gonuts/wallet"
)

func main() {
	config := wallet.Config{
		WalletPath:     "./cashu",
		CurrentMintURL: "http://localhost:3338",
	}

	wallet, err := wallet.LoadWallet(config)

	// Mint tokens
	mintQuote, err := wallet.RequestMint(42)

	// Check quote state
	if wallet.CheckQuotePaid(mintQuote.Quote) {
		// Mint tokens if invoice paid
		proofs, err := wallet.MintTokens(mintQuote.Quote)
	}

	// Send
	mint := "http://localhost:3338"
	token, err := wallet.Send(21, mint)
	fmt.Println(token.Serialize())

	// Receive
	receiveToken, err := cashu.DecodeTokenV4("cashuBo2Ftd...")

	swapToTrustedMint := true
	amountReceived, err := wallet.Receive(*receiveToken, swapToTrustedMint)

	// Melt (pay invoice)
	meltResponse, err := wallet.Melt("lnbc100n1pja0w9pdqqx...", mint)
}
