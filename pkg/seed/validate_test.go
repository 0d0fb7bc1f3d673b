package seed

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestValidate_OperationDefaults(t *testing.T) {
	s, err := Validate("g", KindOperation, Input{
		OperationName:  "GetUser",
		MatchArguments: map[string]any{"id": "1", "first": 10},
		SeedResponse:   map[string]any{"data": map[string]any{"user": map[string]any{"name": "Ada"}}},
	}, OptionsInput{})
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "g", s.GroupID)
	assert.Equal(t, KindOperation, s.Kind)
	assert.Equal(t, Options{UsesLeft: UnlimitedUses, PartialArgsMatch: false, StatusCode: 200}, s.Options)
	assert.Equal(t, float64(10), s.MatchArguments["first"], "arguments are normalized to JSON numbers")
	require.NotNil(t, s.patch)
	assert.True(t, s.patch.hasData)
	assert.Equal(t, map[string]any{"user": map[string]any{"name": "Ada"}}, s.patch.data)
}

func TestValidate_NetworkErrorDefaults(t *testing.T) {
	s, err := Validate("g", KindNetworkError, Input{OperationName: "GetUser"}, OptionsInput{})
	require.NoError(t, err)
	assert.Equal(t, 500, s.Options.StatusCode)
	assert.Nil(t, s.patch)
}

func TestValidate_Options(t *testing.T) {
	s, err := Validate("g", KindOperation, Input{
		OperationName: "GetUser",
		SeedResponse:  map[string]any{"errors": []any{map[string]any{"message": "boom", "path": []any{"user"}}}},
	}, OptionsInput{UsesLeft: intPtr(3), PartialArgsMatch: boolPtr(true), StatusCode: intPtr(202)})
	require.NoError(t, err)

	assert.Equal(t, Options{UsesLeft: 3, PartialArgsMatch: true, StatusCode: 202}, s.Options)
	assert.False(t, s.patch.hasData)
	require.Len(t, s.patch.errors, 1)
	assert.Equal(t, "boom", s.patch.errors[0].Message)
}

func TestValidate_Rejects(t *testing.T) {
	validResponse := map[string]any{"data": map[string]any{}}

	tests := []struct {
		name      string
		groupID   string
		kind      Kind
		in        Input
		opts      OptionsInput
		wantField string
	}{
		{
			name:      "empty group",
			groupID:   "",
			kind:      KindOperation,
			in:        Input{OperationName: "Op", SeedResponse: validResponse},
			wantField: "groupId",
		},
		{
			name:      "missing operation name",
			groupID:   "g",
			kind:      KindNetworkError,
			in:        Input{},
			wantField: "operationName",
		},
		{
			name:    "operation without seedResponse",
			groupID: "g",
			kind:    KindOperation,
			in:      Input{OperationName: "Op"},
		},
		{
			name:      "seedResponse without data or errors",
			groupID:   "g",
			kind:      KindOperation,
			in:        Input{OperationName: "Op", SeedResponse: map[string]any{"extensions": map[string]any{}}},
			wantField: "seedResponse",
		},
		{
			name:      "data is not an object",
			groupID:   "g",
			kind:      KindOperation,
			in:        Input{OperationName: "Op", SeedResponse: map[string]any{"data": []any{1}}},
			wantField: "seedResponse.data",
		},
		{
			name:      "error without message",
			groupID:   "g",
			kind:      KindOperation,
			in:        Input{OperationName: "Op", SeedResponse: map[string]any{"errors": []any{map[string]any{}}}},
			wantField: "seedResponse.errors.0",
		},
		{
			name:      "usesLeft below -1",
			groupID:   "g",
			kind:      KindOperation,
			in:        Input{OperationName: "Op", SeedResponse: validResponse},
			opts:      OptionsInput{UsesLeft: intPtr(-2)},
			wantField: "options.usesLeft",
		},
		{
			name:      "status code out of range",
			groupID:   "g",
			kind:      KindNetworkError,
			in:        Input{OperationName: "Op"},
			opts:      OptionsInput{StatusCode: intPtr(99)},
			wantField: "options.statusCode",
		},
		{
			name:      "unknown kind",
			groupID:   "g",
			kind:      Kind("subscription"),
			in:        Input{OperationName: "Op"},
			wantField: "kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Validate(tt.groupID, tt.kind, tt.in, tt.opts)
			require.Error(t, err)
			assert.Nil(t, s)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
			assert.Equal(t, 400, verr.StatusCode())
			assert.NotEmpty(t, verr.Hint())
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, verr.Field)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindOperation, false},
		{"Operation", KindOperation, false},
		{"NetworkError", KindNetworkError, false},
		{"network_error", KindNetworkError, false},
		{"query", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
