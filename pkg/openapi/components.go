package openapi

// NewComponents returns the schemas and responses shared by every API.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type:     "object",
				Required: []string{"error"},
				Properties: map[string]*Schema{
					"error": {Type: "string"},
				},
			},
			"ValidationError": {
				Type:     "object",
				Required: []string{"error", "fields"},
				Properties: map[string]*Schema{
					"error":  {Type: "string"},
					"fields": {Type: "object", Description: "Message per rejected field"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":       errorResponse("Invalid request", "Error"),
			"NotFound":         errorResponse("Resource not found", "Error"),
			"Conflict":         errorResponse("Resource conflict", "Error"),
			"ValidationFailed": errorResponse("Validation failed", "ValidationError"),
		},
	}
}

// AddSchemas merges schemas into the components, replacing existing names.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	for name, schema := range schemas {
		c.Schemas[name] = schema
	}
}

func errorResponse(description, schema string) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			"application/json": {Schema: SchemaRef(schema)},
		},
	}
}
