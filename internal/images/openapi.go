package images

import "github.com/JaimeStill/image-lab/pkg/openapi"

// spec defines OpenAPI operations for image endpoints.
type spec struct {
	List           *openapi.Operation
	Create         *openapi.Operation
	Show           *openapi.Operation
	Replace        *openapi.Operation
	Delete         *openapi.Operation
	Representation *openapi.Operation
	Download       *openapi.Operation
	Resize         *openapi.Operation
	Insert         *openapi.Operation
	Crop           *openapi.Operation
	Greyscale      *openapi.Operation
	Opacity        *openapi.Operation
	Brightness     *openapi.Operation
	Rotate         *openapi.Operation
	Encode         *openapi.Operation
}

var binaryImage = map[string]*openapi.MediaType{
	"image/*": {Schema: &openapi.Schema{Type: "string", Format: "binary"}},
}

func imageResponse(description string) *openapi.Response {
	return &openapi.Response{Description: description, Content: binaryImage}
}

func transformOp(summary, description string, params ...*openapi.Parameter) *openapi.Operation {
	return &openapi.Operation{
		Summary:     summary,
		Description: description,
		Parameters:  append([]*openapi.Parameter{openapi.PathParam("id", "Image ID")}, params...),
		Responses: map[int]*openapi.Response{
			200: imageResponse("Transformed image"),
			404: openapi.ResponseRef("NotFound"),
			422: openapi.ResponseRef("ValidationFailed"),
		},
	}
}

// Spec provides OpenAPI specifications for all image endpoints.
var Spec = spec{
	List: &openapi.Operation{
		Summary:     "List images",
		Description: "List metadata for every stored image, oldest first",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Image list", "ImageArray"),
		},
	},
	Create: &openapi.Operation{
		Summary:     "Upload image",
		Description: "Store an uploaded image. The extension is taken from the file content.",
		RequestBody: openapi.RequestBodyMultipart("ImageUpload", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Image created", "Image"),
			400: openapi.ResponseRef("BadRequest"),
			413: {Description: "File too large"},
			422: openapi.ResponseRef("ValidationFailed"),
		},
	},
	Show: &openapi.Operation{
		Summary: "Render image",
		Description: "Render the stored image with at most one transformation. Crop wins over resize, " +
			"then greyscale, transparency, brightness and angle. Without any of these an Accept of " +
			"image/gif, image/jpeg or image/png re-encodes the image. Storage is never modified.",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Image ID"),
			openapi.QueryParam("width", "integer", "Target width, at least 0", false),
			openapi.QueryParam("height", "integer", "Target height, at least 0", false),
			openapi.QueryParam("x_coordinate", "integer", "Crop left edge, at least 0", false),
			openapi.QueryParam("y_coordinate", "integer", "Crop top edge, at least 0", false),
			openapi.QueryParam("greyscale", "boolean", "Desaturate the image", false),
			openapi.QueryParam("transparency", "integer", "Opacity percentage (0-100)", false),
			openapi.QueryParam("brightness", "integer", "Brightness shift (-100 to 100)", false),
			openapi.QueryParam("angle", "number", "Clockwise rotation in degrees (-360 to 360)", false),
		},
		Responses: map[int]*openapi.Response{
			200: imageResponse("Rendered image"),
			404: openapi.ResponseRef("NotFound"),
			422: openapi.ResponseRef("ValidationFailed"),
		},
	},
	Replace: &openapi.Operation{
		Summary:     "Replace image",
		Description: "Replace the stored bytes of an image while keeping its id",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Image ID"),
		},
		RequestBody: openapi.RequestBodyMultipart("ImageUpload", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Image replaced", "Image"),
			404: openapi.ResponseRef("NotFound"),
			413: {Description: "File too large"},
			422: openapi.ResponseRef("ValidationFailed"),
		},
	},
	Delete: &openapi.Operation{
		Summary:     "Delete image",
		Description: "Delete an image and its metadata",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Image ID"),
		},
		Responses: map[int]*openapi.Response{
			204: {Description: "Image deleted"},
			404: openapi.ResponseRef("NotFound"),
			500: {Description: "File could not be deleted"},
		},
	},
	Representation: &openapi.Operation{
		Summary:     "Find image metadata",
		Description: "Return the metadata record of an image",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Image ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Image metadata", "Image"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Download: &openapi.Operation{
		Summary:     "Download image",
		Description: "Return the stored bytes as an attachment named after the original file",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Image ID"),
		},
		Responses: map[int]*openapi.Response{
			200: imageResponse("Stored image"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Resize: transformOp("Resize image", "Persist a resize to exactly width x height",
		openapi.QueryParam("width", "integer", "Target width", true),
		openapi.QueryParam("height", "integer", "Target height", true),
	),
	Insert: &openapi.Operation{
		Summary:     "Insert overlay",
		Description: "Persist an overlay drawn at one of nine anchor positions, unscaled",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Image ID"),
		},
		RequestBody: openapi.RequestBodyMultipart("OverlayUpload", true),
		Responses: map[int]*openapi.Response{
			200: imageResponse("Image with overlay"),
			404: openapi.ResponseRef("NotFound"),
			422: openapi.ResponseRef("ValidationFailed"),
		},
	},
	Crop: transformOp("Crop image", "Persist a crop whose top-left corner is (x_coordinate, y_coordinate)",
		openapi.QueryParam("width", "integer", "Crop width", true),
		openapi.QueryParam("height", "integer", "Crop height", true),
		openapi.QueryParam("x_coordinate", "integer", "Left edge", true),
		openapi.QueryParam("y_coordinate", "integer", "Top edge", true),
	),
	Greyscale: transformOp("Greyscale image", "Persist a greyscale conversion"),
	Opacity: transformOp("Set opacity", "Persist an opacity change",
		openapi.QueryParam("transparency", "integer", "Opacity percentage (0-100)", true),
	),
	Brightness: transformOp("Change brightness", "Persist a brightness shift",
		openapi.QueryParam("brightness", "integer", "Brightness shift (-100 to 100)", true),
	),
	Rotate: transformOp("Rotate image", "Persist a clockwise rotation",
		openapi.QueryParam("angle", "number", "Degrees (-360 to 360)", true),
	),
	Encode: transformOp("Encode image", "Persist a re-encode and rename the extension to match",
		openapi.QueryParam("format", "string", "Target format (jpg, png or gif)", true),
	),
}

// Schemas returns OpenAPI schemas for image-related types.
func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Image": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":            {Type: "string", Format: "uuid"},
				"original_name": {Type: "string", Description: "Client file name"},
				"extension":     {Type: "string", Description: "Format of the stored bytes"},
				"created_at":    {Type: "string", Format: "date-time"},
				"updated_at":    {Type: "string", Format: "date-time"},
				"url":           {Type: "string", Format: "uri", Description: "Render link"},
			},
		},
		"ImageArray": {
			Type:  "array",
			Items: openapi.SchemaRef("Image"),
		},
		"ImageUpload": {
			Type:     "object",
			Required: []string{"file"},
			Properties: map[string]*openapi.Schema{
				"file": {Type: "string", Format: "binary"},
			},
		},
		"OverlayUpload": {
			Type:     "object",
			Required: []string{"file", "position"},
			Properties: map[string]*openapi.Schema{
				"file": {Type: "string", Format: "binary"},
				"position": {
					Type: "string",
					Enum: []any{
						"top-left", "top", "top-right",
						"left", "center", "right",
						"bottom-left", "bottom", "bottom-right",
					},
				},
			},
		},
	}
}
