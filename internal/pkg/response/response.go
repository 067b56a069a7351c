// internal/pkg/response/response.go
package response

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	xerrors "jobboard-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Response defines the standard API response format.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RejectionBody is the uniform shape of every 401/403/429/503 answer.
type RejectionBody struct {
	Success   bool       `json:"success"`
	Error     string     `json:"error"`
	Remaining *int       `json:"remaining,omitempty"`
	ResetTime *time.Time `json:"resetTime,omitempty"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends a standardized error response. The error text is only exposed
// for client mistakes (4xx other than the rejection statuses).
func Error(c *gin.Context, code int, message string, err error) {
	c.Abort()

	resp := Response{
		Success: false,
		Message: message,
		Error:   message,
	}
	if err != nil && code == http.StatusBadRequest {
		resp.Error = err.Error()
	}

	c.JSON(code, resp)
}

// Reject writes err as a uniform rejection. Errors that are not a
// *xerrors.Rejection are treated as internal and never echoed.
func Reject(c *gin.Context, err error) {
	c.Abort()

	rej, ok := xerrors.AsRejection(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, RejectionBody{Error: "internal server error"})
		return
	}

	body := RejectionBody{Error: rej.PublicMessage()}
	if rej.Reason == xerrors.ReasonRateLimited {
		remaining := rej.Remaining
		reset := rej.ResetTime.UTC()
		body.Remaining = &remaining
		body.ResetTime = &reset

		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		retry := int(time.Until(reset).Seconds()) + 1
		if retry < 1 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))
	}

	c.JSON(rej.Status(), body)
}

// ValidationError sends a 400 Bad Request response for invalid input.
func ValidationError(c *gin.Context, message string, err error) {
	Error(c, http.StatusBadRequest, message, err)
}

// NotFound sends a 404 Not Found response.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, nil)
}

// HandleError writes err with the status its kind maps to. Rejections keep
// their own status and body; anything unrecognised is a bare 500.
func HandleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case isRejection(err):
		Reject(c, err)
	case errors.Is(err, xerrors.ErrInvalidInput):
		ValidationError(c, "invalid request", err)
	case errors.Is(err, xerrors.ErrNotFound):
		NotFound(c, "resource not found")
	case errors.Is(err, xerrors.ErrDuplicateEntry), errors.Is(err, xerrors.ErrConflict):
		Error(c, http.StatusConflict, "resource already exists", nil)
	default:
		Error(c, http.StatusInternalServerError, "internal server error", nil)
	}
}

func isRejection(err error) bool {
	_, ok := xerrors.AsRejection(err)
	return ok
}
