package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func paramDef(specs ...ParameterSpec) *Definition {
	return &Definition{ModuleID: "test_module", Name: "Test Module", Parameters: specs}
}

func TestValidateParameters_MissingRequiredFails(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	def := paramDef(ParameterSpec{Key: "threshold", Type: ParameterTypeNumber, Required: true})

	// --- Act ---
	_, err := ValidateParameters(def, map[string]any{})

	// --- Assert ---
	var paramErr *ParameterValidationError
	require.ErrorAs(t, err, &paramErr)
	require.Equal(t, "threshold", paramErr.Key)
}

func TestValidateParameters_RequiredWithDefaultPasses(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	def := paramDef(ParameterSpec{Key: "threshold", Type: ParameterTypeNumber, Required: true, Default: 0.5})

	// --- Act ---
	validated, err := ValidateParameters(def, map[string]any{})

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, 0.5, validated["threshold"])
}

func TestValidateParameters_NilValueTreatedAsMissing(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	def := paramDef(ParameterSpec{Key: "label", Type: ParameterTypeText, Default: "fallback"})

	// --- Act ---
	validated, err := ValidateParameters(def, map[string]any{"label": nil})

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, "fallback", validated["label"])
}

func TestValidateParameters_OptionalMissingIsAbsent(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	def := paramDef(ParameterSpec{Key: "label", Type: ParameterTypeText})

	// --- Act ---
	validated, err := ValidateParameters(def, map[string]any{})

	// --- Assert ---
	require.NoError(t, err)
	require.NotContains(t, validated, "label")
}

func TestValidateParameters_NumberCoercion(t *testing.T) {
	t.Parallel()

	def := paramDef(ParameterSpec{Key: "n", Type: ParameterTypeNumber})

	testCases := []struct {
		name     string
		input    any
		expected any
	}{
		{name: "int passes through", input: 7, expected: 7},
		{name: "float passes through", input: 2.25, expected: 2.25},
		{name: "numeric string parses", input: "3.5", expected: 3.5},
		{name: "padded numeric string parses", input: "  42  ", expected: 42.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			validated, err := ValidateParameters(def, map[string]any{"n": tc.input})

			require.NoError(t, err)
			require.Equal(t, tc.expected, validated["n"])
		})
	}
}

func TestValidateParameters_NumberRejectsNonNumeric(t *testing.T) {
	t.Parallel()

	def := paramDef(ParameterSpec{Key: "n", Type: ParameterTypeNumber})

	for _, input := range []any{"not-a-number", "", true, []any{1}} {
		_, err := ValidateParameters(def, map[string]any{"n": input})

		var paramErr *ParameterValidationError
		require.ErrorAs(t, err, &paramErr, "input %#v should be rejected", input)
		require.Equal(t, "n", paramErr.Key)
	}
}

func TestValidateParameters_SelectMembership(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	def := paramDef(ParameterSpec{Key: "mode", Type: ParameterTypeSelect, Options: []any{"fast", "slow"}})

	// --- Act / Assert ---
	validated, err := ValidateParameters(def, map[string]any{"mode": "fast"})
	require.NoError(t, err)
	require.Equal(t, "fast", validated["mode"])

	_, err = ValidateParameters(def, map[string]any{"mode": "medium"})
	var paramErr *ParameterValidationError
	require.ErrorAs(t, err, &paramErr)
}

func TestValidateParameters_SelectWithoutOptionsPassesThrough(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	def := paramDef(ParameterSpec{Key: "mode", Type: ParameterTypeSelect})

	// --- Act ---
	validated, err := ValidateParameters(def, map[string]any{"mode": "anything"})

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, "anything", validated["mode"])
}

func TestValidateParameters_TextAndRegexRequireStrings(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	def := paramDef(
		ParameterSpec{Key: "title", Type: ParameterTypeText},
		ParameterSpec{Key: "pattern", Type: ParameterTypeRegex},
	)

	// --- Act / Assert ---
	_, err := ValidateParameters(def, map[string]any{"title": 12})
	require.Error(t, err)

	_, err = ValidateParameters(def, map[string]any{"pattern": 12})
	require.Error(t, err)

	validated, err := ValidateParameters(def, map[string]any{"title": "ok", "pattern": `^unit\d+$`})
	require.NoError(t, err)
	require.Equal(t, "ok", validated["title"])
	require.Equal(t, `^unit\d+$`, validated["pattern"])
}

func TestValidateParameters_UndeclaredKeysPassThrough(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	def := paramDef(ParameterSpec{Key: "declared", Type: ParameterTypeText})

	// --- Act ---
	validated, err := ValidateParameters(def, map[string]any{"declared": "yes", "extra": 99})

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, 99, validated["extra"])
}
