package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mcoot/powerup-ledger/internal/model"
)

// sqlTx writes straight into the open transaction; rollback discards everything
type sqlTx struct {
	tx *sql.Tx
	d  dialect
}

func (t *sqlTx) GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	return getPlayer(ctx, t.tx, t.d, id, t.d.lockSuffix())
}

func (t *sqlTx) InsertPlayer(ctx context.Context, rec *model.PlayerRecord) error {
	data, err := model.EncodePlayerRecord(rec)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, t.d.rebind(
		`INSERT INTO players (player_id, score_key, record) VALUES (?, ?, ?)`),
		string(rec.PlayerID), scoreKey(rec.Score), data,
	)
	if err != nil {
		if t.d.isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (t *sqlTx) UpdatePlayer(ctx context.Context, rec *model.PlayerRecord) error {
	data, err := model.EncodePlayerRecord(rec)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, t.d.rebind(
		`UPDATE players SET score_key = ?, record = ? WHERE player_id = ?`),
		scoreKey(rec.Score), data, string(rec.PlayerID),
	)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return expectOneRow(res, model.ErrRecordNotFound)
}

func (t *sqlTx) GetAccount(ctx context.Context, id model.AccountID) (*model.TokenAccount, error) {
	return getAccount(ctx, t.tx, t.d, id, t.d.lockSuffix())
}

func (t *sqlTx) InsertAccount(ctx context.Context, acct *model.TokenAccount) error {
	_, err := t.tx.ExecContext(ctx, t.d.rebind(
		`INSERT INTO accounts (account_id, owner, balance, frozen, created_at) VALUES (?, ?, ?, ?, ?)`),
		string(acct.ID), string(acct.Owner), formatUint(acct.Balance), acct.Frozen, toNanos(acct.CreatedAt),
	)
	if err != nil {
		if t.d.isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (t *sqlTx) UpdateAccount(ctx context.Context, acct *model.TokenAccount) error {
	res, err := t.tx.ExecContext(ctx, t.d.rebind(
		`UPDATE accounts SET owner = ?, balance = ?, frozen = ? WHERE account_id = ?`),
		string(acct.Owner), formatUint(acct.Balance), acct.Frozen, string(acct.ID),
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return expectOneRow(res, model.ErrAccountNotFound)
}

func (t *sqlTx) AppendTransfer(ctx context.Context, r *model.TransferReceipt) error {
	_, err := t.tx.ExecContext(ctx, t.d.rebind(
		`INSERT INTO transfers (transfer_id, from_account, to_account, authority, amount, memo, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		r.ID, string(r.From), string(r.To), string(r.Authority), formatUint(r.Amount), r.Memo, toNanos(r.CreatedAt),
	)
	if err != nil {
		if t.d.isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("append transfer: %w", err)
	}
	return nil
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
