package sqlstore

import "github.com/simplyqio/simplyq-go/core"

var (
	_ core.ReplayLedger   = (*ReplayLedgerStore)(nil)
	_ core.ReplayReleaser = (*ReplayLedgerStore)(nil)
)
