package frontend

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Status carries the live fields rendered into the landing page
type Status struct {
	Version      string
	ModelVersion string
	ModelTrained bool
}

// NewPageHandler parses the embedded landing page once and returns a
// handler that renders it with the current service status
func NewPageHandler(status func() Status) (gin.HandlerFunc, error) {
	content, err := Content()
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded content: %w", err)
	}

	tmpl, err := template.ParseFS(content, "index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse landing page template: %w", err)
	}

	return func(c *gin.Context) {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, status()); err != nil {
			slog.Error("Failed to render landing page", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to render page"})
			return
		}

		c.Header("Cache-Control", "public, max-age=300")
		c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	}, nil
}
