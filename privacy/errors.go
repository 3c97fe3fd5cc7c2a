package privacy

import "errors"

// Enforcement errors, one per capability. The IPC layers translate these
// into distinct error codes; the messages here are diagnostics, not UI copy.
var (
	ErrDiskWriteBlocked   = errors.New("privacy: disk writes blocked by current mode")
	ErrHistoryBlocked     = errors.New("privacy: history recording blocked by current mode")
	ErrCacheBlocked       = errors.New("privacy: cache writes blocked by current mode")
	ErrCookiesBlocked     = errors.New("privacy: cookie persistence blocked by current mode")
	ErrClipboardBlocked   = errors.New("privacy: clipboard persistence blocked in ghost mode")
	ErrScreenshotBlocked  = errors.New("privacy: screenshots blocked in ghost mode")
	ErrCrashReportBlocked = errors.New("privacy: crash reports blocked in ghost mode")
	ErrDNSCacheBlocked    = errors.New("privacy: dns caching blocked in ghost mode")
)
