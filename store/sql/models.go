package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type replayClaimRecord struct {
	bun.BaseModel `bun:"table:webhook_replay_claims,alias:wrc"`

	ID        string    `bun:"id,pk"`
	ClaimKey  string    `bun:"claim_key,notnull,unique"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// ReplayClaim is a held webhook delivery claim.
type ReplayClaim struct {
	ID        string
	Key       string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func replayClaimToDomain(record *replayClaimRecord) ReplayClaim {
	if record == nil {
		return ReplayClaim{}
	}
	return ReplayClaim{
		ID:        record.ID,
		Key:       record.ClaimKey,
		ExpiresAt: record.ExpiresAt.UTC(),
		CreatedAt: record.CreatedAt.UTC(),
	}
}
