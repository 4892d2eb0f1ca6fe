package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/tyler-smith/go-bip39"

	"github.com/sats-mint/gonuts/cashu"
	"github.com/sats-mint/gonuts/cashu/nuts/nut03"
	"github.com/sats-mint/gonuts/cashu/nuts/nut04"
	"github.com/sats-mint/gonuts/cashu/nuts/nut05"
	"github.com/sats-mint/gonuts/cashu/nuts/nut07"
	"github.com/sats-mint/gonuts/cashu/nuts/nut13"
	"github.com/sats-mint/gonuts/crypto"
	"github.com/sats-mint/gonuts/wallet/client"
	"github.com/sats-mint/gonuts/wallet/saga"
	"github.com/sats-mint/gonuts/wallet/storage"
)

var (
	ErrMintNotExist            = errors.New("mint does not exist")
	ErrInsufficientMintBalance = errors.New("insufficient balance in mint")
)

type Config struct {
	WalletPath     string
	CurrentMintURL string
}

// walletMint tracks the wallet's view of a single mint: its currently
// active keyset and any inactive ones still holding redeemable value.
type walletMint struct {
	mintURL         string
	activeKeyset    crypto.WalletKeyset
	inactiveKeysets map[string]crypto.WalletKeyset
}

type Wallet struct {
	db storage.WalletDB

	masterKey *hdkeychain.ExtendedKey

	mints       map[string]walletMint
	defaultMint string
	unit        cashu.Unit
}

func InitStorage(path string) (storage.WalletDB, error) {
	// bolt db atm
	return storage.InitBolt(path)
}

func LoadWallet(config Config) (*Wallet, error) {
	db, err := InitStorage(config.WalletPath)
	if err != nil {
		return nil, fmt.Errorf("InitStorage: %v", err)
	}

	seed := db.GetSeed()
	if len(seed) == 0 {
		entropy, err := bip39.NewEntropy(128)
		if err != nil {
			return nil, fmt.Errorf("error generating entropy for seed: %v", err)
		}
		mnemonic, err := bip39.NewMnemonic(entropy)
		if err != nil {
			return nil, fmt.Errorf("error generating mnemonic: %v", err)
		}
		seed = bip39.NewSeed(mnemonic, "")
		db.SaveMnemonicSeed(mnemonic, seed)
	}

	masterKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("error deriving master key: %v", err)
	}

	mintURL, err := url.Parse(config.CurrentMintURL)
	if err != nil {
		return nil, fmt.Errorf("invalid mint url: %v", err)
	}

	wallet := &Wallet{
		db:          db,
		masterKey:   masterKey,
		mints:       make(map[string]walletMint),
		defaultMint: mintURL.String(),
		unit:        cashu.Sat,
	}

	for mintAddr, keysets := range db.GetKeysets() {
		mint := walletMint{mintURL: mintAddr, inactiveKeysets: make(map[string]crypto.WalletKeyset)}
		for _, ks := range keysets {
			if ks.Active {
				mint.activeKeyset = ks
			} else {
				mint.inactiveKeysets[ks.Id] = ks
			}
		}
		wallet.mints[mintAddr] = mint
	}

	if _, ok := wallet.mints[wallet.defaultMint]; !ok {
		if err := wallet.addMint(wallet.defaultMint); err != nil {
			return nil, fmt.Errorf("error setting up wallet: %v", err)
		}
	}

	report, err := saga.RecoverSends(db, wallet.checkProofStates)
	if err != nil {
		return nil, fmt.Errorf("error recovering pending sends: %v", err)
	}
	if report.Recovered+report.Compensated+report.Skipped > 0 {
		slog.Info("resumed pending sends left by a previous run",
			"recovered", report.Recovered, "compensated", report.Compensated, "skipped", report.Skipped)
	}

	return wallet, nil
}

// addMint fetches a new mint's active and inactive keysets and stores them.
func (w *Wallet) addMint(mintURL string) error {
	activeKeyset, err := GetMintActiveKeyset(mintURL, w.unit)
	if err != nil {
		return fmt.Errorf("error getting active keyset from mint: %v", err)
	}
	if err := w.db.SaveKeyset(activeKeyset); err != nil {
		return err
	}

	inactiveKeysets, err := GetMintInactiveKeysets(mintURL, w.unit)
	if err != nil {
		return fmt.Errorf("error getting inactive keysets from mint: %v", err)
	}
	for _, ks := range inactiveKeysets {
		ks := ks
		if err := w.db.SaveKeyset(&ks); err != nil {
			return err
		}
	}

	w.mints[mintURL] = walletMint{
		mintURL:         mintURL,
		activeKeyset:    *activeKeyset,
		inactiveKeysets: inactiveKeysets,
	}
	return nil
}

// TrustedMints lists the mints the wallet currently holds keysets for.
func (w *Wallet) TrustedMints() []string {
	mints := make([]string, 0, len(w.mints))
	for url := range w.mints {
		mints = append(mints, url)
	}
	return mints
}

// UpdateMintURL moves all stored keysets for oldURL to newURL, for when a
// mint changes its address without rotating its keys.
func (w *Wallet) UpdateMintURL(oldURL, newURL string) error {
	mint, ok := w.mints[oldURL]
	if !ok {
		return ErrMintNotExist
	}

	if err := w.db.UpdateKeysetMintURL(oldURL, newURL); err != nil {
		return fmt.Errorf("error updating keyset mint url: %v", err)
	}

	mint.mintURL = newURL
	mint.activeKeyset.MintURL = newURL
	for id, ks := range mint.inactiveKeysets {
		ks.MintURL = newURL
		mint.inactiveKeysets[id] = ks
	}

	delete(w.mints, oldURL)
	w.mints[newURL] = mint

	if w.defaultMint == oldURL {
		w.defaultMint = newURL
	}

	return nil
}

func (w *Wallet) GetBalance() uint64 {
	return w.db.GetProofs().Amount()
}

func (w *Wallet) GetBalanceByMint(mintURL string) uint64 {
	mint, ok := w.mints[mintURL]
	if !ok {
		return 0
	}
	var balance uint64
	for _, proof := range w.db.GetProofs() {
		if proof.Id == mint.activeKeyset.Id {
			balance += proof.Amount
			continue
		}
		if _, ok := mint.inactiveKeysets[proof.Id]; ok {
			balance += proof.Amount
		}
	}
	return balance
}

func (w *Wallet) RequestMint(amount uint64) (*nut04.PostMintQuoteBolt11Response, error) {
	mintRequest := nut04.PostMintQuoteBolt11Request{Amount: amount, Unit: w.unit.String()}
	res, err := client.PostMintQuoteBolt11(w.defaultMint, mintRequest)
	if err != nil {
		return nil, err
	}

	quote := storage.MintQuote{
		QuoteId:        res.Quote,
		Mint:           w.defaultMint,
		Method:         cashu.BOLT11_METHOD,
		Unit:           w.unit.String(),
		PaymentRequest: res.Request,
		Amount:         amount,
		QuoteExpiry:    uint64(res.Expiry),
	}
	if err := w.db.SaveMintQuote(quote); err != nil {
		return nil, fmt.Errorf("error saving mint quote: %v", err)
	}

	return res, nil
}

func (w *Wallet) GetInvoiceByPaymentRequest(paymentRequest string) (*storage.MintQuote, error) {
	for _, quote := range w.db.GetMintQuotes() {
		if quote.PaymentRequest == paymentRequest {
			return &quote, nil
		}
	}
	return nil, errors.New("no invoice found for payment request")
}

func (w *Wallet) CheckQuotePaid(quoteId string) bool {
	res, err := client.GetMintQuoteState(w.defaultMint, quoteId)
	if err != nil {
		return false
	}
	return res.Paid
}

// MintTokens mints proofs for a previously requested, now paid, quote.
func (w *Wallet) MintTokens(quoteId string) (cashu.Proofs, error) {
	quote := w.db.GetMintQuoteById(quoteId)
	if quote == nil {
		return nil, fmt.Errorf("quote '%v' not found", quoteId)
	}

	activeKeyset, err := w.getActiveKeyset(quote.Mint)
	if err != nil {
		return nil, err
	}

	split := cashu.AmountSplit(quote.Amount)
	counter := w.db.GetKeysetCounter(activeKeyset.Id)
	blindedMessages, secrets, rs, err := w.createBlindedMessages(split, activeKeyset.Id, &counter)
	if err != nil {
		return nil, fmt.Errorf("createBlindedMessages: %v", err)
	}

	mintRequest := nut04.PostMintBolt11Request{Quote: quoteId, Outputs: blindedMessages}
	res, err := client.PostMintBolt11(quote.Mint, mintRequest)
	if err != nil {
		return nil, err
	}

	proofs, err := constructProofs(res.Signatures, blindedMessages, secrets, rs, activeKeyset)
	if err != nil {
		return nil, fmt.Errorf("constructProofs: %v", err)
	}

	if err := w.db.IncrementKeysetCounter(activeKeyset.Id, uint32(len(blindedMessages))); err != nil {
		return nil, fmt.Errorf("error incrementing keyset counter: %v", err)
	}
	if err := w.db.SaveProofs(proofs); err != nil {
		return nil, fmt.Errorf("error storing proofs: %v", err)
	}

	return proofs, nil
}

// Send selects proofs from mintURL covering amount and returns them as a
// token. The selected proofs are reserved through a send saga so a crash
// mid-swap can be resumed instead of silently losing or double-spending
// them; see wallet/saga.
func (w *Wallet) Send(amount uint64, mintURL string) (*cashu.TokenV4, error) {
	mint, ok := w.mints[mintURL]
	if !ok {
		return nil, ErrMintNotExist
	}

	if w.GetBalanceByMint(mintURL) < amount {
		return nil, ErrInsufficientMintBalance
	}

	proofsToSend, err := w.getProofsForAmount(amount, mint)
	if err != nil {
		return nil, err
	}

	token, err := cashu.NewTokenV4(proofsToSend, mintURL, w.unit, false)
	if err != nil {
		return nil, fmt.Errorf("error creating token: %v", err)
	}
	return &token, nil
}

// Receive redeems a token's proofs. If swap is true, the proofs are
// exchanged with the wallet's default mint; otherwise they're kept under
// the token's own mint (adding it to the trusted set if new).
func (w *Wallet) Receive(token cashu.TokenV4, swap bool) (uint64, error) {
	tokenProofs := token.Proofs()
	tokenMint := token.MintURL

	if !swap {
		if _, ok := w.mints[tokenMint]; !ok {
			if err := w.addMint(tokenMint); err != nil {
				return 0, fmt.Errorf("error trusting mint '%v': %v", tokenMint, err)
			}
		}
		if err := w.db.SaveProofs(tokenProofs); err != nil {
			return 0, fmt.Errorf("error storing proofs: %v", err)
		}
		return tokenProofs.Amount(), nil
	}

	activeKeyset, err := w.getActiveKeyset(w.defaultMint)
	if err != nil {
		return 0, err
	}

	split := cashu.AmountSplit(tokenProofs.Amount())
	counter := w.db.GetKeysetCounter(activeKeyset.Id)
	outputs, secrets, rs, err := w.createBlindedMessages(split, activeKeyset.Id, &counter)
	if err != nil {
		return 0, fmt.Errorf("createBlindedMessages: %v", err)
	}

	swapRequest := nut03.PostSwapRequest{Inputs: tokenProofs, Outputs: outputs}
	res, err := client.PostSwap(tokenMint, swapRequest)
	if err != nil {
		return 0, err
	}

	proofs, err := constructProofs(res.Signatures, outputs, secrets, rs, activeKeyset)
	if err != nil {
		return 0, fmt.Errorf("constructProofs: %v", err)
	}

	if err := w.db.IncrementKeysetCounter(activeKeyset.Id, uint32(len(outputs))); err != nil {
		return 0, fmt.Errorf("error incrementing keyset counter: %v", err)
	}
	if err := w.db.SaveProofs(proofs); err != nil {
		return 0, fmt.Errorf("error storing proofs: %v", err)
	}

	return proofs.Amount(), nil
}

// Melt pays a Lightning invoice by burning proofs from mintURL.
func (w *Wallet) Melt(invoice string, mintURL string) (*nut05.PostMeltBolt11Response, error) {
	if _, ok := w.mints[mintURL]; !ok {
		return nil, ErrMintNotExist
	}

	quoteResponse, err := client.PostMeltQuoteBolt11(mintURL, nut05.PostMeltQuoteBolt11Request{
		Request: invoice, Unit: w.unit.String(),
	})
	if err != nil {
		return nil, err
	}

	amountNeeded := quoteResponse.Amount + quoteResponse.FeeReserve
	if w.GetBalanceByMint(mintURL) < amountNeeded {
		return nil, ErrInsufficientMintBalance
	}

	mint := w.mints[mintURL]
	proofs, err := w.getProofsForAmount(amountNeeded, mint)
	if err != nil {
		return nil, err
	}

	sendSaga := saga.New(w.db, quoteResponse.Quote, proofs)
	if err := sendSaga.Reserve(); err != nil {
		return nil, err
	}

	meltRequest := nut05.PostMeltBolt11Request{Quote: quoteResponse.Quote, Inputs: proofs}
	res, err := client.PostMeltBolt11(mintURL, meltRequest)
	if err != nil {
		sendSaga.Compensate()
		return nil, err
	}

	if res.Paid {
		if err := sendSaga.Finalize(); err != nil {
			return nil, err
		}
	} else {
		if err := sendSaga.Compensate(); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// getProofsForAmount selects proofs from mint covering amount, swaps them
// at the mint for exact change, and returns the proofs to send. Selected
// proofs are reserved through a send saga (wallet/saga) for the duration
// of the swap, so a crash between the swap request and storing its result
// can be resumed by asking the mint what happened to the reserved proofs
// instead of silently losing or double-spending them.
func (w *Wallet) getProofsForAmount(amount uint64, mint walletMint) (cashu.Proofs, error) {
	var inactive, active cashu.Proofs
	for _, proof := range w.db.GetProofs() {
		if _, ok := mint.inactiveKeysets[proof.Id]; ok {
			inactive = append(inactive, proof)
		} else if proof.Id == mint.activeKeyset.Id {
			active = append(active, proof)
		}
	}

	var selected cashu.Proofs
	var selectedAmount uint64
	for _, pool := range []cashu.Proofs{inactive, active} {
		for _, proof := range pool {
			if selectedAmount >= amount {
				break
			}
			selected = append(selected, proof)
			selectedAmount += proof.Amount
		}
	}
	if selectedAmount < amount {
		return nil, ErrInsufficientMintBalance
	}

	sagaId := selected[0].Secret
	sendSaga := saga.New(w.db, sagaId, selected)
	if err := sendSaga.Reserve(); err != nil {
		return nil, err
	}

	if selectedAmount == amount {
		if err := sendSaga.Finalize(); err != nil {
			return nil, err
		}
		return selected, nil
	}

	activeKeyset := mint.activeKeyset
	sendSplit := cashu.AmountSplit(amount)
	changeSplit := cashu.AmountSplit(selectedAmount - amount)

	counter := w.db.GetKeysetCounter(activeKeyset.Id)
	send, sendSecrets, sendRs, err := w.createBlindedMessages(sendSplit, activeKeyset.Id, &counter)
	if err != nil {
		sendSaga.Compensate()
		return nil, fmt.Errorf("createBlindedMessages: %v", err)
	}
	change, changeSecrets, changeRs, err := w.createBlindedMessages(changeSplit, activeKeyset.Id, &counter)
	if err != nil {
		sendSaga.Compensate()
		return nil, fmt.Errorf("createBlindedMessages: %v", err)
	}

	outputs := append(cashu.BlindedMessages{}, send...)
	outputs = append(outputs, change...)
	secrets := append(append([]string{}, sendSecrets...), changeSecrets...)
	rs := append(append([]*secp256k1.PrivateKey{}, sendRs...), changeRs...)

	swapRequest := nut03.PostSwapRequest{Inputs: selected, Outputs: outputs}
	res, err := client.PostSwap(activeKeyset.MintURL, swapRequest)
	if err != nil {
		sendSaga.Compensate()
		return nil, err
	}

	proofs, err := constructProofs(res.Signatures, outputs, secrets, rs, &activeKeyset)
	if err != nil {
		// the mint has already accepted the swap: the saga cannot be
		// compensated, only surfaced, since the inputs are spent.
		return nil, fmt.Errorf("constructProofs: %v", err)
	}

	if err := w.db.IncrementKeysetCounter(activeKeyset.Id, uint32(len(outputs))); err != nil {
		return nil, fmt.Errorf("error incrementing keyset counter: %v", err)
	}

	sendAmount := send.Amount()
	var proofsToSend, changeProofs cashu.Proofs
	var sentAmount uint64
	for _, proof := range proofs {
		if sentAmount < sendAmount {
			proofsToSend = append(proofsToSend, proof)
			sentAmount += proof.Amount
		} else {
			changeProofs = append(changeProofs, proof)
		}
	}

	if err := w.db.SaveProofs(changeProofs); err != nil {
		return nil, fmt.Errorf("error storing change proofs: %v", err)
	}
	if err := sendSaga.Finalize(); err != nil {
		return nil, err
	}

	return proofsToSend, nil
}

// checkProofStates adapts the NUT-07 check-state client call to the shape
// wallet/saga needs to resume sagas left pending by a crash.
func (w *Wallet) checkProofStates(ys []string) (map[string]bool, error) {
	res, err := client.PostCheckProofState(w.defaultMint, nut07.PostCheckStateRequest{Ys: ys})
	if err != nil {
		return nil, err
	}

	spent := make(map[string]bool, len(res.States))
	for _, state := range res.States {
		spent[state.Y] = state.State == nut07.Spent
	}
	return spent, nil
}

// createBlindedMessages derives deterministic secrets and blinding
// factors from the wallet's master key (NUT-13) for each amount in
// split, starting at *counter, and advances counter past them.
func (w *Wallet) createBlindedMessages(split []uint64, keysetId string, counter *uint32) (
	cashu.BlindedMessages, []string, []*secp256k1.PrivateKey, error) {

	keysetPath, err := nut13.DeriveKeysetPath(w.masterKey, keysetId)
	if err != nil {
		return nil, nil, nil, err
	}

	blindedMessages := make(cashu.BlindedMessages, len(split))
	secrets := make([]string, len(split))
	rs := make([]*secp256k1.PrivateKey, len(split))

	for i, amt := range split {
		secret, r, err := generateDeterministicSecret(keysetPath, *counter)
		if err != nil {
			return nil, nil, nil, err
		}
		B_, r := crypto.BlindMessage([]byte(secret), r.Serialize())

		blindedMessages[i] = cashu.BlindedMessage{Amount: amt, B_: hex.EncodeToString(B_.SerializeCompressed()), Id: keysetId}
		secrets[i] = secret
		rs[i] = r
		*counter++
	}

	return blindedMessages, secrets, rs, nil
}

// generateDeterministicSecret derives the NUT-13 secret and blinding
// factor for the given keyset path and counter.
func generateDeterministicSecret(keysetPath *hdkeychain.ExtendedKey, counter uint32) (string, *secp256k1.PrivateKey, error) {
	secret, err := nut13.DeriveSecret(keysetPath, counter)
	if err != nil {
		return "", nil, err
	}
	r, err := nut13.DeriveBlindingFactor(keysetPath, counter)
	if err != nil {
		return "", nil, err
	}
	return secret, r, nil
}

// constructProofs unblinds a mint's signatures into spendable proofs.
func constructProofs(signatures cashu.BlindedSignatures, blindedMessages cashu.BlindedMessages,
	secrets []string, rs []*secp256k1.PrivateKey, keyset *crypto.WalletKeyset) (cashu.Proofs, error) {

	if len(signatures) != len(secrets) || len(signatures) != len(rs) {
		return nil, errors.New("lengths do not match")
	}

	proofs := make(cashu.Proofs, len(signatures))
	for i, sig := range signatures {
		C_bytes, err := hex.DecodeString(sig.C_)
		if err != nil {
			return nil, err
		}
		C_, err := secp256k1.ParsePubKey(C_bytes)
		if err != nil {
			return nil, err
		}

		K, ok := keyset.PublicKeys[sig.Amount]
		if !ok {
			return nil, fmt.Errorf("could not find public key for amount %v", sig.Amount)
		}
		C := crypto.UnblindSignature(C_, rs[i], K)

		proofs[i] = cashu.Proof{
			Amount: sig.Amount,
			Id:     sig.Id,
			Secret: secrets[i],
			C:      hex.EncodeToString(C.SerializeCompressed()),
		}
	}

	return proofs, nil
}

// unblindSignature unblinds a single hex-encoded blind signature.
func unblindSignature(C_hex string, r *secp256k1.PrivateKey, K *secp256k1.PublicKey) (string, error) {
	C_bytes, err := hex.DecodeString(C_hex)
	if err != nil {
		return "", err
	}
	C_, err := secp256k1.ParsePubKey(C_bytes)
	if err != nil {
		return "", err
	}
	C := crypto.UnblindSignature(C_, r, K)
	return hex.EncodeToString(C.SerializeCompressed()), nil
}
