package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger"
)

// txState implements ledger.State on one SQL transaction.
type txState struct {
	ctx context.Context
	tx  *sql.Tx
}

func (s *txState) LoadMint(address solana.PublicKey) (ledger.Mint, error) {
	var authority string
	var decimals, supply int64
	err := s.tx.QueryRowContext(s.ctx,
		`SELECT authority, decimals, supply FROM mints WHERE address = ?`,
		address.String(),
	).Scan(&authority, &decimals, &supply)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Mint{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Mint{}, fmt.Errorf("load mint: %w", err)
	}
	authorityKey, err := parseKey(authority)
	if err != nil {
		return ledger.Mint{}, err
	}
	return ledger.Mint{
		Address:   address,
		Authority: authorityKey,
		Decimals:  uint8(decimals),
		Supply:    uint64(supply),
	}, nil
}

func (s *txState) SaveMint(mint ledger.Mint) error {
	_, err := s.tx.ExecContext(s.ctx,
		`INSERT INTO mints (address, authority, decimals, supply) VALUES (?, ?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET
		   authority = excluded.authority,
		   decimals = excluded.decimals,
		   supply = excluded.supply`,
		mint.Address.String(),
		mint.Authority.String(),
		int64(mint.Decimals),
		int64(mint.Supply),
	)
	if err != nil {
		return fmt.Errorf("save mint: %w", err)
	}
	return nil
}

func (s *txState) LoadHolding(address solana.PublicKey) (ledger.Holding, error) {
	var mint, owner string
	var amount int64
	err := s.tx.QueryRowContext(s.ctx,
		`SELECT mint, owner, amount FROM holdings WHERE address = ?`,
		address.String(),
	).Scan(&mint, &owner, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Holding{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Holding{}, fmt.Errorf("load holding: %w", err)
	}
	mintKey, err := parseKey(mint)
	if err != nil {
		return ledger.Holding{}, err
	}
	ownerKey, err := parseKey(owner)
	if err != nil {
		return ledger.Holding{}, err
	}
	return ledger.Holding{
		Address: address,
		Mint:    mintKey,
		Owner:   ownerKey,
		Amount:  uint64(amount),
	}, nil
}

func (s *txState) SaveHolding(holding ledger.Holding) error {
	_, err := s.tx.ExecContext(s.ctx,
		`INSERT INTO holdings (address, mint, owner, amount) VALUES (?, ?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET
		   mint = excluded.mint,
		   owner = excluded.owner,
		   amount = excluded.amount`,
		holding.Address.String(),
		holding.Mint.String(),
		holding.Owner.String(),
		int64(holding.Amount),
	)
	if err != nil {
		return fmt.Errorf("save holding: %w", err)
	}
	return nil
}

func (s *txState) DeleteHolding(address solana.PublicKey) error {
	if _, err := s.tx.ExecContext(s.ctx, `DELETE FROM holdings WHERE address = ?`, address.String()); err != nil {
		return fmt.Errorf("delete holding: %w", err)
	}
	return nil
}

func (s *txState) LoadRecord(address solana.PublicKey) ([]byte, error) {
	var data []byte
	err := s.tx.QueryRowContext(s.ctx, `SELECT data FROM records WHERE address = ?`, address[:]).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}
	return data, nil
}

func (s *txState) SaveRecord(address solana.PublicKey, data []byte) error {
	_, err := s.tx.ExecContext(s.ctx,
		`INSERT INTO records (address, data) VALUES (?, ?)
		 ON CONFLICT(address) DO UPDATE SET data = excluded.data`,
		address[:],
		data,
	)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (s *txState) DeleteRecord(address solana.PublicKey) error {
	if _, err := s.tx.ExecContext(s.ctx, `DELETE FROM records WHERE address = ?`, address[:]); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// ScanRecords compares prefixes and addresses as blobs, which SQLite orders
// bytewise.
func (s *txState) ScanRecords(prefix []byte, after solana.PublicKey, limit int) ([]ledger.Record, error) {
	query := `SELECT address, data FROM records WHERE 1 = 1`
	var params []any
	if len(prefix) > 0 {
		query += ` AND substr(data, 1, ?) = ?`
		params = append(params, len(prefix), prefix)
	}
	if !after.IsZero() {
		query += ` AND address > ?`
		params = append(params, after[:])
	}
	query += ` ORDER BY address LIMIT ?`
	params = append(params, limit)

	rows, err := s.tx.QueryContext(s.ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	defer rows.Close()

	var out []ledger.Record
	for rows.Next() {
		var raw, data []byte
		if err := rows.Scan(&raw, &data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if len(raw) != solana.PublicKeyLength {
			return nil, fmt.Errorf("record address has %d bytes", len(raw))
		}
		out = append(out, ledger.Record{Address: solana.PublicKeyFromBytes(raw), Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	return out, nil
}

func (s *txState) AppendEntry(entry ledger.Entry) error {
	_, err := s.tx.ExecContext(s.ctx,
		`INSERT INTO journal (invocation_id, kind, mint, source, destination, authority, amount, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.InvocationID,
		string(entry.Kind),
		keyText(entry.Mint),
		keyText(entry.Source),
		keyText(entry.Destination),
		keyText(entry.Authority),
		int64(entry.Amount),
		toMillis(entry.At),
	)
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}
