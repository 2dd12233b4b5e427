package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commandSchema() Schema {
	return Schema{Params: map[string]Param{
		"command": {Kind: KindString, Required: true},
		"timeout": {Kind: KindInteger},
		"append":  {Kind: KindBoolean},
		"mode":    {Kind: KindEnum, Enum: []string{"read", "write"}},
		"env":     {Kind: KindStringList},
	}}
}

func TestValidate_AcceptsValidArguments(t *testing.T) {
	schema := commandSchema()

	err := schema.Validate(map[string]any{
		"command": "ls -la",
		"timeout": 30,
		"append":  true,
		"mode":    "read",
		"env":     []string{"PATH=/bin"},
	})

	assert.NoError(t, err)
}

func TestValidate_JSONNumbersAcceptedAsIntegers(t *testing.T) {
	schema := commandSchema()

	// json.Unmarshal decodes numbers into float64
	err := schema.Validate(map[string]any{"command": "ls", "timeout": float64(30)})
	assert.NoError(t, err)

	err = schema.Validate(map[string]any{"command": "ls", "timeout": float64(30.5)})
	require.Error(t, err)
}

func TestValidate_ReportsEveryViolationAtOnce(t *testing.T) {
	schema := commandSchema()

	// Missing required command, wrong timeout type, bad enum value, unknown field.
	err := schema.Validate(map[string]any{
		"timeout": "soon",
		"mode":    "execute",
		"bogus":   1,
	})

	require.Error(t, err)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)

	fields := make([]string, 0, len(schemaErr.Violations))
	for _, v := range schemaErr.Violations {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"command", "timeout", "mode", "bogus"}, fields)
}

func TestValidate_StringListElementTypes(t *testing.T) {
	schema := Schema{Params: map[string]Param{
		"patterns": {Kind: KindStringList, Required: true},
	}}

	assert.NoError(t, schema.Validate(map[string]any{"patterns": []any{"a", "b"}}))

	err := schema.Validate(map[string]any{"patterns": []any{"a", 7}})
	require.Error(t, err)

	err = schema.Validate(map[string]any{"patterns": "a"})
	require.Error(t, err)
}

func TestValidate_OptionalFieldsMayBeOmitted(t *testing.T) {
	schema := commandSchema()

	err := schema.Validate(map[string]any{"command": "uptime"})

	assert.NoError(t, err)
}

func TestSchemaError_MessageListsAllFields(t *testing.T) {
	err := &SchemaError{Violations: []Violation{
		{Field: "path", Reason: "required field is missing"},
		{Field: "lines", Reason: "expected integer, got string"},
	}}

	msg := err.Error()
	assert.Contains(t, msg, "path: required field is missing")
	assert.Contains(t, msg, "lines: expected integer, got string")
}
