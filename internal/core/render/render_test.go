package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Substitute Tests
// =============================================================================

func TestSubstitute_Simple(t *testing.T) {
	out, err := Substitute("${DOMAIN_NAME}", map[string]string{"DOMAIN_NAME": "bot.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "bot.example.com", out)
}

func TestSubstitute_Multiple(t *testing.T) {
	env := map[string]string{"TARGET_NAME": "bot", "APPLICATION_PORT": "8000"}
	out, err := Substitute("proxy_pass http://${TARGET_NAME}:${APPLICATION_PORT};", env)
	require.NoError(t, err)
	assert.Equal(t, "proxy_pass http://bot:8000;", out)
}

func TestSubstitute_NoPlaceholders(t *testing.T) {
	out, err := Substitute("plain text", map[string]string{"KEY": "value"})
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)
}

func TestSubstitute_MissingVariable(t *testing.T) {
	_, err := Substitute("listen ${MISSING_PORT};", map[string]string{})
	require.Error(t, err)

	var missing *MissingVariableError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "MISSING_PORT", missing.Name)
}

func TestSubstitute_MissingVariable_ReportsFirst(t *testing.T) {
	_, err := Substitute("${FIRST} ${SECOND}", map[string]string{})
	var missing *MissingVariableError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "FIRST", missing.Name)
}

func TestSubstitute_EmptyValueIsNotMissing(t *testing.T) {
	out, err := Substitute("x${EMPTY}y", map[string]string{"EMPTY": ""})
	require.NoError(t, err)
	assert.Equal(t, "xy", out)
}

func TestSubstitute_AdjacentPlaceholders(t *testing.T) {
	out, err := Substitute("${A}${B}", map[string]string{"A": "1", "B": "2"})
	require.NoError(t, err)
	assert.Equal(t, "12", out)
}

func TestSubstitute_Deterministic(t *testing.T) {
	env := map[string]string{"A": "1", "B": "2"}
	first, err := Substitute("${A}-${B}", env)
	require.NoError(t, err)
	second, err := Substitute("${A}-${B}", env)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// =============================================================================
// Variables Tests
// =============================================================================

func TestVariables(t *testing.T) {
	names := Variables("server_name ${DOMAIN_NAME}; # ${DOMAIN_NAME} again, then ${APPLICATION_PORT}")
	assert.Equal(t, []string{"DOMAIN_NAME", "APPLICATION_PORT"}, names)
}

func TestVariables_None(t *testing.T) {
	assert.Empty(t, Variables("nothing templated here"))
}
