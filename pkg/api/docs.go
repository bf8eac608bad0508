package api

import (
	"net/http"

	"github.com/swaggo/swag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// docName is the swag registry name of the catalog API description.
const docName = "cnet"

// catalogDoc describes the /api/v1 routes in Swagger 2.0.
var catalogDoc = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "cnet catalog API",
	Description:      "Ingest ISIS control networks and query their points.",
	InfoInstanceName: docName,
	SwaggerTemplate:  catalogTemplate,
}

func init() {
	swag.Register(docName, catalogDoc)
}

const catalogTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "{{.Title}}",
    "description": "{{escape .Description}}",
    "version": "{{.Version}}"
  },
  "basePath": "{{.BasePath}}",
  "schemes": {{ marshal .Schemes }},
  "securityDefinitions": {
    "ApiKeyAuth": {
      "type": "apiKey",
      "in": "header",
      "name": "X-API-Key"
    }
  },
  "security": [
    {
      "ApiKeyAuth": []
    }
  ],
  "paths": {
    "/health": {
      "get": {
        "summary": "Report that the server is up",
        "responses": {
          "200": {
            "description": "healthy"
          }
        }
      }
    },
    "/networks": {
      "get": {
        "summary": "List ingested networks",
        "responses": {
          "200": {
            "description": "catalog entries"
          }
        }
      },
      "post": {
        "summary": "Ingest a control network file from the request body",
        "consumes": [
          "application/octet-stream"
        ],
        "parameters": [
          {
            "name": "source",
            "in": "query",
            "type": "string",
            "description": "Name recorded for the upload"
          }
        ],
        "responses": {
          "200": {
            "description": "the new catalog entry"
          },
          "400": {
            "description": "the body is not a readable control network"
          },
          "413": {
            "description": "the body exceeds the upload limit"
          }
        }
      }
    },
    "/networks/{key}": {
      "parameters": [
        {
          "name": "key",
          "in": "path",
          "required": true,
          "type": "string"
        }
      ],
      "get": {
        "summary": "Get one catalog entry",
        "responses": {
          "200": {
            "description": "catalog entry"
          },
          "404": {
            "description": "no such network"
          }
        }
      },
      "delete": {
        "summary": "Remove a network and its points",
        "responses": {
          "200": {
            "description": "deleted"
          },
          "404": {
            "description": "no such network"
          }
        }
      }
    },
    "/networks/{key}/points": {
      "get": {
        "summary": "List point ids in byte order",
        "parameters": [
          {
            "name": "key",
            "in": "path",
            "required": true,
            "type": "string"
          },
          {
            "name": "prefix",
            "in": "query",
            "type": "string"
          },
          {
            "name": "offset",
            "in": "query",
            "type": "integer"
          },
          {
            "name": "limit",
            "in": "query",
            "type": "integer"
          }
        ],
        "responses": {
          "200": {
            "description": "a page of point ids"
          }
        }
      }
    },
    "/networks/{key}/points/{pointID}": {
      "get": {
        "summary": "Get one decoded control point with its measures",
        "parameters": [
          {
            "name": "key",
            "in": "path",
            "required": true,
            "type": "string"
          },
          {
            "name": "pointID",
            "in": "path",
            "required": true,
            "type": "string"
          }
        ],
        "responses": {
          "200": {
            "description": "the point"
          },
          "404": {
            "description": "no such network or point"
          }
        }
      }
    }
  }
}`

const swaggerUI = `<!DOCTYPE html>
<html>
<head>
  <title>cnet catalog API</title>
  <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      SwaggerUIBundle({
        url: '/swagger/swagger.json',
        dom_id: '#swagger-ui',
        presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.presets.standalone]
      });
    };
  </script>
</body>
</html>`

// handleSwagger serves the UI page and the API description as JSON or YAML.
func (s *Server) handleSwagger(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/swagger/", "/swagger/index.html":
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerUI))
	case "/swagger/swagger.json":
		doc, err := swag.ReadDoc(docName)
		if err != nil {
			s.logger.Error("swagger doc failed", zap.Error(err))
			http.Error(w, "Failed to render API documentation", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	case "/swagger/swagger.yaml":
		doc, err := swag.ReadDoc(docName)
		if err == nil {
			var tree any
			// JSON is YAML, so the same decoder reads it.
			if err = yaml.Unmarshal([]byte(doc), &tree); err == nil {
				var out []byte
				if out, err = yaml.Marshal(tree); err == nil {
					w.Header().Set("Content-Type", "application/yaml")
					_, _ = w.Write(out)
					return
				}
			}
		}
		s.logger.Error("swagger doc failed", zap.Error(err))
		http.Error(w, "Failed to render API documentation", http.StatusInternalServerError)
	default:
		http.NotFound(w, r)
	}
}
