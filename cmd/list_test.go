package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListCommand_ShowsAllTechniques(t *testing.T) {
	out, err := executeCommand(t, newListCmd())
	require.NoError(t, err)

	for _, name := range []string{
		"string_encoding",
		"numeric_obfuscation",
		"identifier_renaming",
		"dead_code",
		"import_indirection",
	} {
		require.Contains(t, out, name)
	}
}
