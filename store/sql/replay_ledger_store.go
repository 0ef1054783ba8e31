package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/simplyqio/simplyq-go/core"
	"github.com/simplyqio/simplyq-go/migrations"
	"github.com/uptrace/bun"
)

// ReplayLedgerStore persists webhook delivery claims so replay protection is
// shared by every receiver pointed at the same database.
type ReplayLedgerStore struct {
	db   *bun.DB
	repo repository.Repository[*replayClaimRecord]
	Now  func() time.Time
}

func NewReplayLedgerStore(db *bun.DB) (*ReplayLedgerStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*replayClaimRecord](db, replayClaimHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid replay claim repository wiring: %w", err)
		}
	}
	return &ReplayLedgerStore{db: db, repo: repo}, nil
}

// EnsureSchema runs the replay claims up migration for the store's dialect.
// The statements use IF NOT EXISTS, so repeated calls and databases already
// migrated through go-persistence-bun are left as they are.
func (s *ReplayLedgerStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: replay ledger store is not configured")
	}
	dialect, err := migrations.DialectForDriver(s.db.Dialect().Name().String())
	if err != nil {
		return fmt.Errorf("sqlstore: replay claims schema: %w", err)
	}
	statements, err := migrations.UpStatements(dialect)
	if err != nil {
		return fmt.Errorf("sqlstore: replay claims schema: %w", err)
	}
	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("sqlstore: apply replay claims schema: %w", err)
		}
	}
	return nil
}

func (s *ReplayLedgerStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if s == nil || s.db == nil {
		return false, core.NewUsageError("replay ledger is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return false, core.NewUsageError("replay key is required")
	}
	if ttl <= 0 {
		ttl = core.DefaultWebhookTolerance
	}
	now := s.now()
	record := &replayClaimRecord{
		ID:        uuid.NewString(),
		ClaimKey:  key,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	claimed := false
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*replayClaimRecord)(nil)).
			Where("claim_key = ?", key).
			Where("expires_at <= ?", now).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewInsert().
			Model(record).
			On("CONFLICT (claim_key) DO NOTHING").
			Exec(ctx)
		if err != nil {
			if isUniqueViolation(err) {
				return nil
			}
			return err
		}
		claimed = rowsAffected(res) > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("sqlstore: claim replay key: %w", err)
	}
	return claimed, nil
}

func (s *ReplayLedgerStore) Release(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return core.NewUsageError("replay ledger is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	if _, err := s.db.NewDelete().
		Model((*replayClaimRecord)(nil)).
		Where("claim_key = ?", key).
		Exec(ctx); err != nil {
		return fmt.Errorf("sqlstore: release replay key: %w", err)
	}
	return nil
}

// PurgeExpired deletes claims whose window has elapsed and reports how many
// rows were removed.
func (s *ReplayLedgerStore) PurgeExpired(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, core.NewUsageError("replay ledger is not configured")
	}
	res, err := s.db.NewDelete().
		Model((*replayClaimRecord)(nil)).
		Where("expires_at <= ?", s.now()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: purge replay claims: %w", err)
	}
	return int(rowsAffected(res)), nil
}

// ActiveClaims lists unexpired claims, soonest expiry first.
func (s *ReplayLedgerStore) ActiveClaims(ctx context.Context, limit int) ([]ReplayClaim, error) {
	if s == nil || s.repo == nil {
		return nil, core.NewUsageError("replay ledger is not configured")
	}
	selectors := []repository.SelectCriteria{
		repository.SelectByTimetz("expires_at", ">", s.now()),
		repository.OrderBy("expires_at ASC"),
	}
	if limit > 0 {
		selectors = append(selectors, repository.SelectPaginate(limit, 0))
	}
	records, _, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list replay claims: %w", err)
	}
	claims := make([]ReplayClaim, 0, len(records))
	for _, record := range records {
		claims = append(claims, replayClaimToDomain(record))
	}
	return claims, nil
}

func (s *ReplayLedgerStore) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func rowsAffected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return affected
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
