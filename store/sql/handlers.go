package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func replayClaimHandlers() repository.ModelHandlers[*replayClaimRecord] {
	return repository.ModelHandlers[*replayClaimRecord]{
		NewRecord: func() *replayClaimRecord {
			return &replayClaimRecord{}
		},
		GetID: func(record *replayClaimRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *replayClaimRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "claim_key"
		},
		GetIdentifierValue: func(record *replayClaimRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ClaimKey)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
