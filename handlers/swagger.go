package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the bingo API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>prospect-bingo Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: 'doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "prospect-bingo", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "ObjectId": { "type": "object", "required": ["$oid"], "properties": { "$oid": { "type": "string", "pattern": "^[0-9a-f]{24}$" } } },
      "MetaData": { "type": "object", "properties": { "createdAt": { "type": "string", "format": "date-time" }, "updatedAt": { "type": "string", "format": "date-time" } } },
      "CriteriaArray": { "type": "object", "properties": { "criteria": { "type": "array", "minItems": 25, "maxItems": 25, "items": { "type": "string", "maxLength": 200 } } } },
      "BingoSquare": { "type": "object", "properties": { "index": { "type": "integer", "minimum": 0, "maximum": 24 }, "checked": { "type": "boolean" } } },
      "BingoCard": { "type": "object", "properties": { "prospectName": { "type": "string" }, "tileMatrix": { "type": "array", "minItems": 5, "maxItems": 5, "items": { "type": "array", "minItems": 5, "maxItems": 5, "items": { "$ref": "#/components/schemas/BingoSquare" } } } } },
      "CriteriaResource": { "type": "object", "required": ["data"], "properties": { "_id": { "$ref": "#/components/schemas/ObjectId" }, "metadata": { "$ref": "#/components/schemas/MetaData" }, "data": { "$ref": "#/components/schemas/CriteriaArray" } } },
      "CardResource": { "type": "object", "required": ["data"], "properties": { "_id": { "$ref": "#/components/schemas/ObjectId" }, "metadata": { "$ref": "#/components/schemas/MetaData" }, "data": { "$ref": "#/components/schemas/BingoCard" } } },
      "Error": { "type": "object", "properties": { "error": { "type": "string" }, "details": { "type": "string" } } }
    }
  },
  "paths": {
    "/api/criteria": {
      "get": { "summary": "List criteria lists", "responses": { "200": { "description": "saved criteria resources" } } },
      "post": { "summary": "Create a criteria list", "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/CriteriaResource" } } } }, "responses": { "201": { "description": "created" }, "400": { "description": "invalid resource or _id supplied" } } }
    },
    "/api/criteria/{id}": {
      "get": { "summary": "Get a criteria list", "responses": { "200": { "description": "found" }, "400": { "description": "invalid id" }, "404": { "description": "not found" } } },
      "put": { "summary": "Replace a criteria list", "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/CriteriaResource" } } } }, "responses": { "200": { "description": "replaced" }, "400": { "description": "invalid" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a criteria list", "responses": { "204": { "description": "deleted" }, "404": { "description": "not found" } } }
    },
    "/api/cards": {
      "get": { "summary": "List bingo cards", "responses": { "200": { "description": "saved card resources" } } },
      "post": { "summary": "Create a bingo card", "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/CardResource" } } } }, "responses": { "201": { "description": "created" }, "400": { "description": "invalid resource or _id supplied" } } }
    },
    "/api/cards/generate": {
      "post": { "summary": "Generate a card with a random layout", "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["prospectName"], "properties": { "prospectName": { "type": "string" } } } } } }, "responses": { "201": { "description": "created" }, "400": { "description": "invalid" } } }
    },
    "/api/cards/{id}": {
      "get": { "summary": "Get a bingo card", "responses": { "200": { "description": "found" }, "400": { "description": "invalid id" }, "404": { "description": "not found" } } },
      "put": { "summary": "Replace a bingo card", "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/CardResource" } } } }, "responses": { "200": { "description": "replaced" }, "400": { "description": "invalid" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a bingo card", "responses": { "204": { "description": "deleted" }, "404": { "description": "not found" } } }
    },
    "/api/cards/{id}/squares/{row}/{col}": {
      "patch": { "summary": "Mark or unmark a square", "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["checked"], "properties": { "checked": { "type": "boolean" } } } } } }, "responses": { "200": { "description": "updated card" }, "400": { "description": "invalid position" }, "404": { "description": "not found" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
