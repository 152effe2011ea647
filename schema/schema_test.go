package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_ObjectIsStrict(t *testing.T) {
	node := Object(
		Field{Name: "location", Node: String()},
		Field{Name: "units", Node: Enum("celsius", "fahrenheit"), Optional: true},
	)
	doc, err := Generate(node)
	require.NoError(t, err)
	assert.Contains(t, string(doc), `"additionalProperties":false`)
	assert.Contains(t, string(doc), `"location"`)
}

func TestValidator_EnumRejectsOutsideSet(t *testing.T) {
	node := Object(
		Field{Name: "location", Node: String()},
		Field{Name: "units", Node: Enum("celsius", "fahrenheit"), Optional: true},
	)
	v, err := NewValidatorFromIR(node)
	require.NoError(t, err)

	err = v.Validate([]byte(`{"location":"Paris","units":"kelvin"}`))
	require.Error(t, err)

	err = v.Validate([]byte(`{"location":"Paris"}`))
	assert.NoError(t, err)
}

func TestValidator_RejectsUnknownFields(t *testing.T) {
	node := Object(Field{Name: "name", Node: String()})
	v, err := NewValidatorFromIR(node)
	require.NoError(t, err)

	err = v.Validate([]byte(`{"name":"a","extra":true}`))
	require.Error(t, err)
}

func TestValidator_RejectsMissingRequiredField(t *testing.T) {
	node := Object(Field{Name: "name", Node: String()})
	v, err := NewValidatorFromIR(node)
	require.NoError(t, err)

	err = v.Validate([]byte(`{}`))
	require.Error(t, err)
}

func TestValidator_IntegerConstraintRejectsFloats(t *testing.T) {
	node := Object(Field{Name: "count", Node: Number().WithInt()})
	v, err := NewValidatorFromIR(node)
	require.NoError(t, err)

	require.Error(t, v.Validate([]byte(`{"count":1.5}`)))
	assert.NoError(t, v.Validate([]byte(`{"count":3}`)))
}

func TestValidator_ArrayMinItems(t *testing.T) {
	node := Object(Field{Name: "tags", Node: ArrayOf(String()).WithMinItems(1)})
	v, err := NewValidatorFromIR(node)
	require.NoError(t, err)

	require.Error(t, v.Validate([]byte(`{"tags":[]}`)))
	assert.NoError(t, v.Validate([]byte(`{"tags":["a"]}`)))
}

func TestValidator_StringLengthAndPattern(t *testing.T) {
	node := Object(Field{Name: "code", Node: String().WithMinLength(3).WithPattern(`^[A-Z]+$`)})
	v, err := NewValidatorFromIR(node)
	require.NoError(t, err)

	require.Error(t, v.Validate([]byte(`{"code":"ab"}`)))
	require.Error(t, v.Validate([]byte(`{"code":"abcdef"}`)))
	assert.NoError(t, v.Validate([]byte(`{"code":"ABC"}`)))
}

func TestValidator_AnyAcceptsEverything(t *testing.T) {
	v, err := NewValidatorFromIR(Any())
	require.NoError(t, err)
	assert.NoError(t, v.Validate([]byte(`{"whatever":[1,2,3]}`)))
	assert.NoError(t, v.Validate([]byte(`42`)))
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "units", Rule: "units must be one of the following: celsius, fahrenheit"}
	assert.Contains(t, err.Error(), "units")
}
