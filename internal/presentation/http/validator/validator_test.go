package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/ventas/pkg/errorbank"
)

type item struct {
	Quantity *int64 `json:"quantity" validate:"required,gte=0"`
}

type payload struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Items []item `json:"items" validate:"required,min=1,dive"`
}

func ptr[T any](v T) *T { return &v }

func TestValidate_OK(t *testing.T) {
	v := New()
	err := v.Validate(&payload{Name: "Ana", Items: []item{{Quantity: ptr(int64(0))}}})
	assert.NoError(t, err)
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Validate(&payload{Email: "nope", Items: []item{{}, {Quantity: ptr(int64(-1))}}})
	require.Error(t, err)

	appErr := errorbank.From(err)
	assert.Equal(t, errorbank.KindBadRequest, appErr.Kind())
	assert.Equal(t, map[string]any{
		"name":              "required",
		"email":             "email",
		"items[0].quantity": "required",
		"items[1].quantity": "gte=0",
	}, appErr.Details())
	assert.Contains(t, appErr.Message(), "name")
}

func TestValidate_EmptySlice(t *testing.T) {
	v := New()
	err := v.Validate(&payload{Name: "Ana", Items: []item{}})
	require.Error(t, err)
	assert.Equal(t, "min=1", errorbank.From(err).Details()["items"])
}
