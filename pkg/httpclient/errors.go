package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/piyush182004/Fynd/pkg/errors"
)

// maxErrorBody caps how much of an error body is read.
const maxErrorBody = 1 << 20

// UpstreamErrorResponse is the error body returned by the feedback API,
// e.g. {"error": "Review text is required"}.
type UpstreamErrorResponse struct {
	Error string `json:"error"`
}

// ParseResponseError reads the body of a non-2xx response and returns an
// AppError wrapping ErrRequestFailed. When the body carries an "error" string
// it becomes the user-facing message; otherwise fallback is used.
//
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName, fallback string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apperrors.RequestFailed(resp.StatusCode, fallback,
			fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err))
	}

	var upstream UpstreamErrorResponse
	if json.Unmarshal(bodyBytes, &upstream) == nil && strings.TrimSpace(upstream.Error) != "" {
		return apperrors.RequestFailed(resp.StatusCode, upstream.Error,
			fmt.Errorf("%s returned status %d", serviceName, resp.StatusCode))
	}

	return apperrors.RequestFailed(resp.StatusCode, fallback,
		fmt.Errorf("%s returned status %d: %s", serviceName, resp.StatusCode, truncate(string(bodyBytes), 256)))
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}

// IsSuccess returns true for 2xx status codes.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
