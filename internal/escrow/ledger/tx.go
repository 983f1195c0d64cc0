package ledger

import (
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Run executes fn against state under the ledger rules. Backends call it
// inside their own transaction and discard every write when it fails.
func Run(state State, invocationID string, now time.Time, fn func(Tx) error) error {
	if state == nil {
		return errors.New("ledger state is required")
	}
	if fn == nil {
		return errors.New("invocation function is required")
	}
	return fn(&txn{state: state, id: invocationID, now: now.UTC()})
}

type txn struct {
	state State
	id    string
	now   time.Time
}

func (t *txn) InvocationID() string { return t.id }

func (t *txn) Now() time.Time { return t.now }

func (t *txn) journal(entry Entry) error {
	entry.InvocationID = t.id
	entry.At = t.now
	if err := t.state.AppendEntry(entry); err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

func (t *txn) Mint(address solana.PublicKey) (Mint, error) {
	mint, err := t.state.LoadMint(address)
	if err != nil {
		if IsNotFound(err) {
			return Mint{}, notFound("mint", address)
		}
		return Mint{}, err
	}
	return mint, nil
}

func (t *txn) CreateMint(mint Mint) error {
	if err := requireAddress("mint", mint.Address); err != nil {
		return err
	}
	if err := requireAddress("mint authority", mint.Authority); err != nil {
		return err
	}
	if _, err := t.state.LoadMint(mint.Address); err == nil {
		return alreadyExists("mint", mint.Address)
	} else if !IsNotFound(err) {
		return err
	}
	mint.Supply = 0
	if err := t.state.SaveMint(mint); err != nil {
		return err
	}
	return t.journal(Entry{
		Kind:      EntryCreateMint,
		Mint:      mint.Address,
		Authority: mint.Authority,
	})
}

func (t *txn) MintTo(mintAddress, destination, authority solana.PublicKey, amount uint64) error {
	mint, err := t.Mint(mintAddress)
	if err != nil {
		return err
	}
	if !mint.Authority.Equals(authority) {
		return ErrMintAuthority.With(fmt.Sprintf("%s is not the authority of mint %s", authority, mintAddress), "mint", mintAddress.String())
	}
	holding, err := t.Holding(destination)
	if err != nil {
		return err
	}
	if !holding.Mint.Equals(mintAddress) {
		return mintMismatch(holding, mintAddress)
	}
	supply, carry := bits.Add64(mint.Supply, amount, 0)
	if carry != 0 {
		return ErrOverflow.With(fmt.Sprintf("mint %s supply overflow", mintAddress), "mint", mintAddress.String())
	}
	balance, carry := bits.Add64(holding.Amount, amount, 0)
	if carry != 0 {
		return ErrOverflow.With(fmt.Sprintf("holding %s balance overflow", destination), "holding", destination.String())
	}
	mint.Supply = supply
	holding.Amount = balance
	if err := t.state.SaveMint(mint); err != nil {
		return err
	}
	if err := t.state.SaveHolding(holding); err != nil {
		return err
	}
	return t.journal(Entry{
		Kind:        EntryMintTo,
		Mint:        mintAddress,
		Destination: destination,
		Authority:   authority,
		Amount:      amount,
	})
}

func (t *txn) Holding(address solana.PublicKey) (Holding, error) {
	holding, err := t.state.LoadHolding(address)
	if err != nil {
		if IsNotFound(err) {
			return Holding{}, notFound("holding", address)
		}
		return Holding{}, err
	}
	return holding, nil
}

func (t *txn) OpenHolding(address, mint, owner solana.PublicKey) (Holding, error) {
	if err := requireAddress("holding", address); err != nil {
		return Holding{}, err
	}
	if err := requireAddress("owner", owner); err != nil {
		return Holding{}, err
	}
	if _, err := t.Mint(mint); err != nil {
		return Holding{}, err
	}
	if _, err := t.state.LoadHolding(address); err == nil {
		return Holding{}, alreadyExists("holding", address)
	} else if !IsNotFound(err) {
		return Holding{}, err
	}
	holding := Holding{Address: address, Mint: mint, Owner: owner}
	if err := t.state.SaveHolding(holding); err != nil {
		return Holding{}, err
	}
	if err := t.journal(Entry{
		Kind:        EntryOpenHolding,
		Mint:        mint,
		Destination: address,
		Authority:   owner,
	}); err != nil {
		return Holding{}, err
	}
	return holding, nil
}

func (t *txn) Transfer(source, destination, authority solana.PublicKey, amount uint64) error {
	from, err := t.Holding(source)
	if err != nil {
		return err
	}
	to, err := t.Holding(destination)
	if err != nil {
		return err
	}
	if !from.Owner.Equals(authority) {
		return ownerMismatch(from, authority)
	}
	if !from.Mint.Equals(to.Mint) {
		return mintMismatch(to, from.Mint)
	}
	if from.Amount < amount {
		return ErrInsufficientFunds.With(
			fmt.Sprintf("holding %s has %d, needs %d", source, from.Amount, amount),
			"holding", source.String(),
		)
	}
	if !source.Equals(destination) {
		balance, carry := bits.Add64(to.Amount, amount, 0)
		if carry != 0 {
			return ErrOverflow.With(fmt.Sprintf("holding %s balance overflow", destination), "holding", destination.String())
		}
		from.Amount -= amount
		to.Amount = balance
		if err := t.state.SaveHolding(from); err != nil {
			return err
		}
		if err := t.state.SaveHolding(to); err != nil {
			return err
		}
	}
	return t.journal(Entry{
		Kind:        EntryTransfer,
		Mint:        from.Mint,
		Source:      source,
		Destination: destination,
		Authority:   authority,
		Amount:      amount,
	})
}

func (t *txn) SetOwner(address, currentOwner, newOwner solana.PublicKey) error {
	if err := requireAddress("new owner", newOwner); err != nil {
		return err
	}
	holding, err := t.Holding(address)
	if err != nil {
		return err
	}
	if !holding.Owner.Equals(currentOwner) {
		return ownerMismatch(holding, currentOwner)
	}
	holding.Owner = newOwner
	if err := t.state.SaveHolding(holding); err != nil {
		return err
	}
	return t.journal(Entry{
		Kind:        EntrySetOwner,
		Mint:        holding.Mint,
		Source:      address,
		Destination: newOwner,
		Authority:   currentOwner,
	})
}

func (t *txn) CloseHolding(address, destination, authority solana.PublicKey) error {
	if err := requireAddress("close destination", destination); err != nil {
		return err
	}
	holding, err := t.Holding(address)
	if err != nil {
		return err
	}
	if !holding.Owner.Equals(authority) {
		return ownerMismatch(holding, authority)
	}
	if holding.Amount != 0 {
		return ErrHoldingNotEmpty.With(
			fmt.Sprintf("holding %s still has %d", address, holding.Amount),
			"holding", address.String(),
		)
	}
	if err := t.state.DeleteHolding(address); err != nil {
		return err
	}
	return t.journal(Entry{
		Kind:        EntryCloseHolding,
		Mint:        holding.Mint,
		Source:      address,
		Destination: destination,
		Authority:   authority,
	})
}

func (t *txn) Record(address solana.PublicKey) ([]byte, error) {
	data, err := t.state.LoadRecord(address)
	if err != nil {
		if IsNotFound(err) {
			return nil, notFound("record", address)
		}
		return nil, err
	}
	return data, nil
}

func (t *txn) PutRecord(address solana.PublicKey, data []byte) error {
	if err := requireAddress("record", address); err != nil {
		return err
	}
	return t.state.SaveRecord(address, data)
}

func (t *txn) DeleteRecord(address solana.PublicKey) error {
	if _, err := t.Record(address); err != nil {
		return err
	}
	return t.state.DeleteRecord(address)
}

func (t *txn) Records(prefix []byte, after solana.PublicKey, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, errors.New("record scan limit must be greater than zero")
	}
	return t.state.ScanRecords(prefix, after, limit)
}

func ownerMismatch(holding Holding, authority solana.PublicKey) error {
	return ErrOwnerMismatch.With(
		fmt.Sprintf("%s does not own holding %s", authority, holding.Address),
		"holding", holding.Address.String(),
	)
}

func mintMismatch(holding Holding, want solana.PublicKey) error {
	return ErrMintMismatch.With(
		fmt.Sprintf("holding %s is mint %s, want %s", holding.Address, holding.Mint, want),
		"holding", holding.Address.String(),
	)
}
