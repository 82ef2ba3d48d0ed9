package fevents

import (
	"fmt"
	"net/http"
	"time"
)

func nowUnixMillis() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

type httpStatusError struct {
	Message string
	Code    int
}

func (e httpStatusError) Error() string { return e.Message }

func checkForHTTPError(statusCode int, url string) error {
	if statusCode == http.StatusUnauthorized {
		return httpStatusError{
			Message: fmt.Sprintf("invalid key when accessing URL: %s", url),
			Code:    statusCode,
		}
	}
	if statusCode == http.StatusNotFound {
		return httpStatusError{
			Message: fmt.Sprintf("resource not found when accessing URL: %s", url),
			Code:    statusCode,
		}
	}
	if statusCode/100 != 2 {
		return httpStatusError{
			Message: fmt.Sprintf("unexpected response code %d from %s", statusCode, url),
			Code:    statusCode,
		}
	}
	return nil
}

// isHTTPErrorRecoverable reports whether a non-2xx status might resolve on
// retry. Mirrors the classification the polling/streaming data sources use.
func isHTTPErrorRecoverable(statusCode int) bool {
	if statusCode >= 400 && statusCode < 500 {
		switch statusCode {
		case 400, 408, 429:
			return true
		default:
			return false
		}
	}
	return true
}

func httpErrorMessage(statusCode int, context string, recoverableMessage string) string {
	statusDesc := ""
	if statusCode == 401 {
		statusDesc = " (invalid key)"
	}
	resultMessage := recoverableMessage
	if !isHTTPErrorRecoverable(statusCode) {
		resultMessage = "giving up permanently"
	}
	return fmt.Sprintf("received HTTP error %d%s for %s - %s", statusCode, statusDesc, context, resultMessage)
}

func toUnixMillis(t time.Time) uint64 {
	return uint64(t.UnixNano() / int64(time.Millisecond))
}
