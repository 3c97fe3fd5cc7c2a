package shell

import (
	"errors"
	"net/http"

	"github.com/omnibrowser/redix/privacy"
	"github.com/omnibrowser/redix/runtime"
	"github.com/omnibrowser/redix/tabs"
	"github.com/omnibrowser/redix/tor"
)

// ErrorCode maps an error to the stable code both transports expose.
// Unknown errors map to "internal".
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, runtime.ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, tabs.ErrNotFound):
		return "tab_not_found"
	case errors.Is(err, ErrTabLimit):
		return "tab_limit_reached"
	case errors.Is(err, privacy.ErrDiskWriteBlocked):
		return "disk_write_blocked"
	case errors.Is(err, privacy.ErrHistoryBlocked):
		return "history_blocked"
	case errors.Is(err, privacy.ErrCacheBlocked):
		return "cache_blocked"
	case errors.Is(err, privacy.ErrCookiesBlocked):
		return "cookies_blocked"
	case errors.Is(err, privacy.ErrClipboardBlocked):
		return "clipboard_blocked"
	case errors.Is(err, privacy.ErrScreenshotBlocked):
		return "screenshot_blocked"
	case errors.Is(err, privacy.ErrCrashReportBlocked):
		return "crash_report_blocked"
	case errors.Is(err, privacy.ErrDNSCacheBlocked):
		return "dns_cache_blocked"
	case errors.Is(err, tor.ErrNotInstalled):
		return "tor_not_installed"
	case errors.Is(err, tor.ErrNotRunning):
		return "tor_not_running"
	default:
		return "internal"
	}
}

// HTTPStatus maps an error to an HTTP status for the /v1 API.
func HTTPStatus(err error) int {
	switch ErrorCode(err) {
	case "invalid_payload":
		return http.StatusBadRequest
	case "tab_not_found", "tor_not_running":
		return http.StatusNotFound
	case "tab_limit_reached":
		return http.StatusConflict
	case "disk_write_blocked", "history_blocked", "cache_blocked", "cookies_blocked",
		"clipboard_blocked", "screenshot_blocked", "crash_report_blocked", "dns_cache_blocked":
		return http.StatusForbidden
	case "tor_not_installed":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
