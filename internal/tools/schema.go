package tools

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects a JSON schema for a tool's argument struct.
// Descriptions come from jsonschema struct tags; fields without omitempty
// are required.
func GenerateSchema[T any]() json.RawMessage {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	data, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}
	return data
}
