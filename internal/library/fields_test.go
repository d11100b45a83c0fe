package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateField(t *testing.T) {
	tests := []struct {
		name  string
		spec  FieldSpec
		value string
		want  error
	}{
		{"leading space", FieldSpec{Name: "title"}, " Dune", ErrLeadingSpace},
		{"leading tab", FieldSpec{Name: "title"}, "\tDune", ErrLeadingSpace},
		{"trailing space ok", FieldSpec{Name: "title"}, "Dune ", nil},
		{"required empty", FieldSpec{Name: "title", Required: true}, "", ErrRequired},
		{"optional empty", FieldSpec{Name: "description"}, "", nil},
		{"email ok", FieldSpec{Name: "email", Kind: KindEmail}, "ann@example.com", nil},
		{"email bad", FieldSpec{Name: "email", Kind: KindEmail}, "ann.example.com", ErrInvalidEmail},
		{"email display name rejected", FieldSpec{Name: "email", Kind: KindEmail}, "Ann <ann@example.com>", ErrInvalidEmail},
		{"int ok", FieldSpec{Name: "phone", Kind: KindInt}, "9876543210", nil},
		{"int bad", FieldSpec{Name: "phone", Kind: KindInt}, "98x", ErrInvalidNumber},
		{"bool ok", FieldSpec{Name: "isActive", Kind: KindBool}, "false", nil},
		{"bool bad", FieldSpec{Name: "isActive", Kind: KindBool}, "maybe", ErrInvalidBool},
		{"date ok", FieldSpec{Name: "due", Kind: KindDate}, "2025-01-31", nil},
		{"date bad", FieldSpec{Name: "due", Kind: KindDate}, "31/01/2025", ErrInvalidDate},
		{"choice ok", FieldSpec{Name: "identificationType", Kind: KindChoice, Options: IdentificationTypes}, "Pan", nil},
		{"choice bad", FieldSpec{Name: "identificationType", Kind: KindChoice, Options: IdentificationTypes}, "pan", ErrInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateField(tt.spec, tt.value)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.ErrorIs(t, got, tt.want)
			assert.Equal(t, tt.spec.Name, got.Field)
		})
	}
}

func TestValidate_CollectsEveryBadField(t *testing.T) {
	errs := Validate(UserSchema, Fields{
		"name":                 " Ann",
		"email":                "nope",
		"phone":                "123",
		"identificationType":   "Pan",
		"identificationNumber": "",
	})
	require.Len(t, errs, 3)
	assert.ErrorIs(t, errs["name"], ErrLeadingSpace)
	assert.ErrorIs(t, errs["email"], ErrInvalidEmail)
	assert.ErrorIs(t, errs["identificationNumber"], ErrRequired)
	assert.Contains(t, errs.Error(), "email is not a valid email address")

	assert.Nil(t, Validate(TopicSchema, Fields{"genre": "Poetry"}))
}

func TestEncode_ConvertsKinds(t *testing.T) {
	body, err := Encode(UserSchema, Fields{
		"name":                 "Ann",
		"email":                "ann@example.com",
		"phone":                " 42",
		"identificationType":   "Passport",
		"identificationNumber": "P1",
		"isActive":             "true",
	})
	// phone starts with a space, so nothing is encoded
	require.Error(t, err)
	assert.Nil(t, body)

	body, err = Encode(UserSchema, Fields{
		"name":                 "Ann",
		"email":                "ann@example.com",
		"phone":                "42",
		"identificationType":   "Passport",
		"identificationNumber": "P1",
		"isActive":             "true",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":                 "Ann",
		"email":                "ann@example.com",
		"phone":                int64(42),
		"identificationType":   "Passport",
		"identificationNumber": "P1",
		"isActive":             true,
	}, body)

	body, err = Encode(BookSchema, Fields{"title": "Emma", "author": "Austen", "topics": "t1, ,t2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, body["topics"])
}

func TestEncodeUpdate_SendsClearedFields(t *testing.T) {
	specs := []FieldSpec{
		{Name: "genre", Kind: KindText, Required: true},
		{Name: "description", Kind: KindText},
		{Name: "topics", Kind: KindList},
		{Name: "copies", Kind: KindInt},
		{Name: "note", Kind: KindText},
	}
	body, err := EncodeUpdate(specs, Fields{"genre": "Poetry", "description": "", "topics": "", "copies": ""})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"genre":       "Poetry",
		"description": "",
		"topics":      []string{},
		"copies":      nil,
	}, body, "fields absent from the draft stay out of the body")

	body, err = Encode(specs, Fields{"genre": "Poetry", "description": ""})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"genre": "Poetry"}, body)
}

func TestFieldsClone(t *testing.T) {
	orig := Fields{"a": "1"}
	dup := orig.Clone()
	dup["a"] = "2"
	assert.Equal(t, "1", orig["a"])
	assert.NotNil(t, Fields(nil).Clone())
}
