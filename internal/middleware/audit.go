package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samuq/backend/internal/services"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxAuditBody = 2000

var sensitiveKeys = map[string]bool{
	"password":     true,
	"old_password": true,
	"new_password": true,
	"token":        true,
	"secret":       true,
	"bot_token":    true,
}

// AuditLog records staff write operations (POST) to system_logs.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		var body string
		if c.Request.Body != nil {
			raw, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			body = maskSensitiveFields(raw)
			if len(body) > maxAuditBody {
				body = body[:maxAuditBody] + "...[truncated]"
			}
		}

		c.Next()

		userID := GetUserID(c)
		var uid *uint
		if userID > 0 {
			uid = &userID
		}
		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath())

		services.LogInfo(module, action, formatAuditMessage(GetUsername(c), c.Request.URL.Path, status),
			uid, c.ClientIP(), c.Request.UserAgent(), map[string]interface{}{
				"path":   c.Request.URL.Path,
				"query":  c.Request.URL.RawQuery,
				"status": status,
				"body":   body,
			})
	}
}

var titleCaser = cases.Title(language.BrazilianPortuguese)

// parseRouteInfo derives module and action from a route pattern:
// "/api/checklists/digest/send" gives ("Checklists", "send"),
// "/api/inbox/questions/:id/reviewed" gives ("Inbox", "reviewed").
func parseRouteInfo(fullPath string) (module, action string) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(fullPath, "/api/"), "/"), "/")
	module = parts[0]
	if module == "" {
		module = "unknown"
	}
	module = titleCaser.String(strings.ReplaceAll(module, "-", " "))

	action = "create"
	for i := len(parts) - 1; i > 0; i-- {
		if !strings.HasPrefix(parts[i], ":") {
			action = parts[i]
			break
		}
	}
	return module, action
}

func formatAuditMessage(username, path string, status int) string {
	outcome := "OK"
	if status < 200 || status >= 300 {
		outcome = "Failed"
	}
	if username == "" {
		username = "anonymous"
	}
	return "[Audit] " + username + " POST " + path + " → " + outcome
}

// maskSensitiveFields hides credential values of a JSON object body.
// Bodies that are not JSON objects are returned unchanged.
func maskSensitiveFields(raw []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return string(raw)
	}
	masked := false
	for k := range payload {
		if sensitiveKeys[strings.ToLower(k)] {
			payload[k] = "***"
			masked = true
		}
	}
	if !masked {
		return string(raw)
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(out)
}
