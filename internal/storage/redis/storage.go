package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/storage"
)

// ErrTxConflict is returned when a unit of work kept losing optimistic races
var ErrTxConflict = errors.New("redis: transaction conflict retries exhausted")

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = DefaultConfig().MaxTxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Atomically runs fn with every key it reads under WATCH and flushes the
// staged writes in one MULTI/EXEC. If a watched key changes before EXEC the
// whole unit is replayed.
func (s *Storage) Atomically(ctx context.Context, fn func(tx storage.Tx) error) error {
	for attempt := 0; attempt < s.cfg.MaxTxRetries; attempt++ {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			tx := newRedisTx(rtx)
			if err := fn(tx); err != nil {
				return err
			}
			return tx.commit(ctx, s.cfg)
		})
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrTxConflict
}

// Player reads

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRecordNotFound
		}
		return nil, err
	}
	return model.DecodePlayerRecord(data)
}

func (s *Storage) TopPlayers(ctx context.Context, limit int) ([]*model.PlayerRecord, error) {
	if limit <= 0 {
		return []*model.PlayerRecord{}, nil
	}

	members, err := s.client.ZRangeByLex(ctx, scoreIndexKey(), &redis.ZRangeBy{
		Min:   "-",
		Max:   "+",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []*model.PlayerRecord{}, nil
	}

	keys := make([]string, 0, len(members))
	for _, member := range members {
		id, ok := playerFromRankMember(member)
		if !ok {
			return nil, fmt.Errorf("malformed score index entry %q", member)
		}
		keys = append(keys, playerKey(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	recs := make([]*model.PlayerRecord, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue
		}
		rec, err := model.DecodePlayerRecord([]byte(val.(string)))
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Token account reads

func (s *Storage) GetAccount(ctx context.Context, id model.AccountID) (*model.TokenAccount, error) {
	data, err := s.client.Get(ctx, accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var acct model.TokenAccount
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

func (s *Storage) ListTransfers(ctx context.Context, id model.AccountID, limit int) ([]*model.TransferReceipt, error) {
	if limit <= 0 {
		return []*model.TransferReceipt{}, nil
	}

	ids, err := s.client.LRange(ctx, accountTransfersKey(id), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.TransferReceipt{}, nil
	}

	keys := make([]string, len(ids))
	for i, rid := range ids {
		keys[i] = transferKey(rid)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	receipts := make([]*model.TransferReceipt, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue
		}
		var r model.TransferReceipt
		if err := json.Unmarshal([]byte(val.(string)), &r); err != nil {
			return nil, err
		}
		receipts = append(receipts, &r)
	}
	return receipts, nil
}

// Signer operations

func (s *Storage) SaveSigner(ctx context.Context, signer *model.Signer) error {
	data, err := json.Marshal(signer)
	if err != nil {
		return err
	}

	// Claim the username first; a different signer already holding it wins
	indexKey := usernameIndexKey(signer.Username)
	claimed, err := s.client.SetNX(ctx, indexKey, string(signer.ID), 0).Result()
	if err != nil {
		return err
	}
	if !claimed {
		owner, err := s.client.Get(ctx, indexKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if owner != string(signer.ID) {
			return model.ErrAlreadyExists
		}
	}
	return s.client.Set(ctx, signerKey(signer.ID), data, 0).Err()
}

func (s *Storage) GetSigner(ctx context.Context, id model.Authority) (*model.Signer, error) {
	data, err := s.client.Get(ctx, signerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSignerNotFound
		}
		return nil, err
	}

	var signer model.Signer
	if err := json.Unmarshal(data, &signer); err != nil {
		return nil, err
	}
	return &signer, nil
}

func (s *Storage) GetSignerByUsername(ctx context.Context, username string) (*model.Signer, error) {
	id, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSignerNotFound
		}
		return nil, err
	}
	return s.GetSigner(ctx, model.Authority(id))
}

// redisTx stages writes in memory; reads go through the watching connection
type redisTx struct {
	rtx       *redis.Tx
	players   map[model.PlayerID]*model.PlayerRecord
	stored    map[model.PlayerID]uint64 // score in Redis when first read
	accounts  map[model.AccountID]*model.TokenAccount
	transfers []*model.TransferReceipt
}

func newRedisTx(rtx *redis.Tx) *redisTx {
	return &redisTx{
		rtx:      rtx,
		players:  make(map[model.PlayerID]*model.PlayerRecord),
		stored:   make(map[model.PlayerID]uint64),
		accounts: make(map[model.AccountID]*model.TokenAccount),
	}
}

// read watches key before fetching it so a concurrent write aborts our EXEC
func (tx *redisTx) read(ctx context.Context, key string) ([]byte, error) {
	if err := tx.rtx.Watch(ctx, key).Err(); err != nil {
		return nil, err
	}
	return tx.rtx.Get(ctx, key).Bytes()
}

func (tx *redisTx) GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	if rec, ok := tx.players[id]; ok {
		return rec.Clone(), nil
	}
	data, err := tx.read(ctx, playerKey(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRecordNotFound
		}
		return nil, err
	}
	rec, err := model.DecodePlayerRecord(data)
	if err != nil {
		return nil, err
	}
	if _, seen := tx.stored[id]; !seen {
		tx.stored[id] = rec.Score
	}
	return rec, nil
}

func (tx *redisTx) InsertPlayer(ctx context.Context, rec *model.PlayerRecord) error {
	_, err := tx.GetPlayer(ctx, rec.PlayerID)
	switch {
	case err == nil:
		return model.ErrAlreadyExists
	case !errors.Is(err, model.ErrRecordNotFound):
		return err
	}
	tx.players[rec.PlayerID] = rec.Clone()
	return nil
}

func (tx *redisTx) UpdatePlayer(ctx context.Context, rec *model.PlayerRecord) error {
	if _, err := tx.GetPlayer(ctx, rec.PlayerID); err != nil {
		return err
	}
	tx.players[rec.PlayerID] = rec.Clone()
	return nil
}

func (tx *redisTx) GetAccount(ctx context.Context, id model.AccountID) (*model.TokenAccount, error) {
	if acct, ok := tx.accounts[id]; ok {
		return acct.Clone(), nil
	}
	data, err := tx.read(ctx, accountKey(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var acct model.TokenAccount
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

func (tx *redisTx) InsertAccount(ctx context.Context, acct *model.TokenAccount) error {
	_, err := tx.GetAccount(ctx, acct.ID)
	switch {
	case err == nil:
		return model.ErrAlreadyExists
	case !errors.Is(err, model.ErrAccountNotFound):
		return err
	}
	tx.accounts[acct.ID] = acct.Clone()
	return nil
}

func (tx *redisTx) UpdateAccount(ctx context.Context, acct *model.TokenAccount) error {
	if _, err := tx.GetAccount(ctx, acct.ID); err != nil {
		return err
	}
	tx.accounts[acct.ID] = acct.Clone()
	return nil
}

func (tx *redisTx) AppendTransfer(ctx context.Context, receipt *model.TransferReceipt) error {
	c := *receipt
	tx.transfers = append(tx.transfers, &c)
	return nil
}

// commit flushes staged writes in one MULTI/EXEC on the watching connection
func (tx *redisTx) commit(ctx context.Context, cfg Config) error {
	if len(tx.players) == 0 && len(tx.accounts) == 0 && len(tx.transfers) == 0 {
		return nil
	}

	// Encode before opening MULTI so a bad value cannot leave a half-queued transaction
	players := make(map[string][]byte, len(tx.players))
	for id, rec := range tx.players {
		data, err := model.EncodePlayerRecord(rec)
		if err != nil {
			return fmt.Errorf("encode player %s: %w", id, err)
		}
		players[string(id)] = data
	}
	accounts := make(map[string][]byte, len(tx.accounts))
	for id, acct := range tx.accounts {
		data, err := json.Marshal(acct)
		if err != nil {
			return err
		}
		accounts[accountKey(id)] = data
	}
	transfers := make([][]byte, len(tx.transfers))
	for i, r := range tx.transfers {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		transfers[i] = data
	}

	_, err := tx.rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for id, data := range players {
			pid := model.PlayerID(id)
			score := tx.players[pid].Score
			pipe.Set(ctx, playerKey(pid), data, 0)
			if old, ok := tx.stored[pid]; ok && old != score {
				pipe.ZRem(ctx, scoreIndexKey(), scoreRankMember(pid, old))
			}
			pipe.ZAdd(ctx, scoreIndexKey(), redis.Z{Score: 0, Member: scoreRankMember(pid, score)})
		}
		for key, data := range accounts {
			pipe.Set(ctx, key, data, 0)
		}
		for i, r := range tx.transfers {
			pipe.Set(ctx, transferKey(r.ID), transfers[i], 0)
			for _, acct := range uniqueAccounts(r.From, r.To) {
				listKey := accountTransfersKey(acct)
				pipe.LPush(ctx, listKey, r.ID)
				if cfg.TransferHistoryLen > 0 {
					pipe.LTrim(ctx, listKey, 0, cfg.TransferHistoryLen-1)
				}
			}
		}
		return nil
	})
	return err
}

// uniqueAccounts lists the accounts a receipt touches. Mints have no source.
func uniqueAccounts(from, to model.AccountID) []model.AccountID {
	var ids []model.AccountID
	if from != "" {
		ids = append(ids, from)
	}
	if to != "" && to != from {
		ids = append(ids, to)
	}
	return ids
}
