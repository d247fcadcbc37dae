package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/blog-engagement-engine/internal/apperror"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	headerUserID    = "X-User-ID"
	headerSessionID = "X-Session-ID"
	// headerElevated is set by the fronting identity provider for moderators
	headerElevated = "X-Elevated"
)

// viewer identifies the caller from headers set upstream
type viewer struct {
	UserID    string
	SessionID string
	Elevated  bool
}

func viewerFrom(c *gin.Context) viewer {
	elevated, _ := strconv.ParseBool(c.GetHeader(headerElevated))
	return viewer{
		UserID:    strings.TrimSpace(c.GetHeader(headerUserID)),
		SessionID: strings.TrimSpace(c.GetHeader(headerSessionID)),
		Elevated:  elevated,
	}
}

// respondError writes err as JSON with the status its code maps to.
// Database failures are logged and reported without detail.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	code := apperror.CodeOf(err)
	status := apperror.HTTPStatus(code)

	body := gin.H{"error": err.Error(), "code": code}
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Field != "" {
		body["field"] = appErr.Field
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		body["error"] = "Internal server error"
	}

	c.JSON(status, body)
}

func badRequest(c *gin.Context, field, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": apperror.CodeValidation, "field": field})
}

// listLimits bound the limit parameter of list endpoints
type listLimits struct {
	defaultSize int
	maxSize     int
}

// intQuery parses an optional integer query parameter
func intQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, name, name+" must be an integer")
		return 0, false
	}
	return n, true
}

// listQuery splits a comma separated query parameter, also accepting
// the parameter repeated
func listQuery(c *gin.Context, name string) []string {
	var out []string
	for _, v := range c.QueryArray(name) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
