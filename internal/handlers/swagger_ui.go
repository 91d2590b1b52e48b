package handlers

import (
	"html/template"
	"net/http"

	"github.com/gorilla/mux"

	"airwatch-platform/pkg/logging"
)

var swaggerPage = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui.css">
    <style>
        body { margin: 0; padding: 0; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: "{{.SpecURL}}",
                dom_id: "#swagger-ui",
                deepLinking: true,
                presets: [SwaggerUIBundle.presets.apis]
            });
        };
    </script>
</body>
</html>`))

// SwaggerUI serves the Swagger UI HTML page for the API document
func (h *AirQualityHandler) SwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := swaggerPage.Execute(w, struct {
		Title   string
		SpecURL string
	}{
		Title:   "AirWatch API Documentation",
		SpecURL: "/api/docs/openapi.json",
	})
	if err != nil {
		h.logger.Debug(r.Context(), "[DOCS_WRITE_FAILED] Swagger page not written", logging.Fields{
			"error": err.Error(),
		})
	}
}

// RegisterDocsRoutes mounts the Swagger UI and the OpenAPI document
func (h *AirQualityHandler) RegisterDocsRoutes(router *mux.Router) {
	router.HandleFunc("/api/docs", h.SwaggerUI).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", h.OpenAPISpec).Methods("GET")
}
