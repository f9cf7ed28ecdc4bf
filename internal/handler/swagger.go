package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kadewerk/tally/tally-backend/docs"
	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"
)

// openAPIServer describes a server entry in the OpenAPI 3 document
type openAPIServer struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// openAPIDocument is the subset of OpenAPI 3.0 we emit when converting the
// generated Swagger 2.0 document
type openAPIDocument struct {
	OpenAPI    string                 `json:"openapi"`
	Info       map[string]interface{} `json:"info"`
	Servers    []openAPIServer        `json:"servers"`
	Paths      map[string]interface{} `json:"paths"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// ServeOpenAPI3Spec converts the swag-generated Swagger 2.0 document to
// OpenAPI 3.0 on the fly. swag only emits 2.0, while client generators and
// the hosted docs UI expect 3.x.
func ServeOpenAPI3Spec(c echo.Context) error {
	raw, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to read API documentation"})
	}

	var v2 map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &v2); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to parse API documentation"})
	}

	doc := openAPIDocument{
		OpenAPI: "3.0.3",
		Servers: []openAPIServer{
			{URL: "http://localhost:8080/api/v1", Description: "Local development"},
			{URL: "https://tally.kadewerk.dev/api/v1", Description: "Production"},
		},
		Components: map[string]interface{}{},
	}

	doc.Info, _ = v2["info"].(map[string]interface{})

	if paths, ok := v2["paths"].(map[string]interface{}); ok {
		doc.Paths, _ = upgradeNode(paths).(map[string]interface{})
	}

	if schemes, ok := v2["securityDefinitions"].(map[string]interface{}); ok {
		doc.Components["securitySchemes"] = schemes
	}
	if defs, ok := v2["definitions"].(map[string]interface{}); ok {
		doc.Components["schemas"] = upgradeNode(defs)
	}

	return c.JSON(http.StatusOK, doc)
}

// upgradeNode walks the document tree rewriting Swagger 2.0 constructs to
// their OpenAPI 3.0 equivalents. $ref targets move from #/definitions/ to
// #/components/schemas/, and non-body parameters get their bare type fields
// nested under a schema object. Body parameters keep their shape so only
// their refs are rewritten.
func upgradeNode(node interface{}) interface{} {
	switch v := node.(type) {
	case map[string]interface{}:
		if isParameter(v) && v["in"] != "body" {
			return upgradeParameter(v)
		}
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if key == "$ref" {
				if ref, ok := value.(string); ok {
					out[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
					continue
				}
			}
			out[key] = upgradeNode(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = upgradeNode(item)
		}
		return out
	default:
		return node
	}
}

// isParameter reports whether a map looks like a Swagger parameter object
func isParameter(m map[string]interface{}) bool {
	_, hasIn := m["in"]
	_, hasName := m["name"]
	return hasIn && hasName
}

// parameterSchemaFields are the bare type fields Swagger 2.0 puts directly
// on a parameter and OpenAPI 3.0 nests under "schema"
var parameterSchemaFields = []string{"type", "format", "enum", "default", "minimum", "maximum", "items"}

func upgradeParameter(param map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, field := range []string{"name", "in", "description", "required"} {
		if val, ok := param[field]; ok {
			out[field] = val
		}
	}

	schema := make(map[string]interface{})
	for _, field := range parameterSchemaFields {
		if val, ok := param[field]; ok {
			if field == "items" {
				schema[field] = upgradeNode(val)
			} else {
				schema[field] = val
			}
		}
	}
	if len(schema) > 0 {
		out["schema"] = schema
	}

	return out
}
