package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ Caller          = (*Client)(nil)
	_ MetricsRecorder = NopMetricsRecorder{}
	_ ReplayLedger    = (*MemoryReplayLedger)(nil)
	_ ReplayReleaser  = (*MemoryReplayLedger)(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
