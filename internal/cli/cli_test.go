package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags puts every flag back to its default so commands can be executed
// again in the same test binary.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTokenizeCmd_Use(t *testing.T) {
	assert.Equal(t, "tokenize [file]", tokenizeCmd.Use)
	assert.Equal(t, "Print the tokens of an HTML document", tokenizeCmd.Short)
}

func TestTokenizeCmd_HasFormatFlag(t *testing.T) {
	flag := tokenizeCmd.Flags().Lookup("format")
	require.NotNil(t, flag, "format flag should exist")
	assert.Equal(t, "f", flag.Shorthand)
	assert.Equal(t, "text", flag.DefValue)
}

func TestTokenizeCmd_TextFromStdin(t *testing.T) {
	out, _, err := execute(t, "<p class=x>hi</p>", "tokenize")
	require.NoError(t, err)
	assert.Equal(t, `StartTag "<p class=\"x\">"
Text "hi"
EndTag "</p>"
`, out)
}

func TestTokenizeCmd_JSONFromFile(t *testing.T) {
	path := writeFile(t, "doc.html", "<!DOCTYPE html><br/>a<1<!--c-->")

	out, _, err := execute(t, "", "tokenize", "--format", "json", path)
	require.NoError(t, err)
	assert.Equal(t, `["DOCTYPE"," html",null,null,true]
["StartTag","br",{},true]
["Character","a"]
["Character","<"]
["Character","1"]
["Comment","c"]
`, out)
}

func TestTokenizeCmd_Coalesce(t *testing.T) {
	out, _, err := execute(t, "a<1</p>b<2", "tokenize", "-f", "json", "--coalesce")
	require.NoError(t, err)
	assert.Equal(t, `["Character","a<1"]
["EndTag","p"]
["Character","b<2"]
`, out)
}

func TestTokenizeCmd_ConfigFile(t *testing.T) {
	cfg := writeFile(t, "mashtml.toml", "[output]\nformat = \"json\"\ncoalesce = true\n")

	out, _, err := execute(t, "x<y", "tokenize", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "[\"Character\",\"x<y\"]\n", out)
}

func TestTokenizeCmd_FlagsOverrideConfigFile(t *testing.T) {
	cfg := writeFile(t, "mashtml.toml", "[output]\nformat = \"json\"\n")

	out, _, err := execute(t, "<b>", "tokenize", "--config", cfg, "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "StartTag \"<b>\"\n", out)
}

func TestTokenizeCmd_Errors(t *testing.T) {
	badConfig := writeFile(t, "bad.toml", "[output]\nformat = \"yaml\"\n")

	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{"unknown format", []string{"tokenize", "--format", "xml"}, `unknown output format "xml"`},
		{"missing file", []string{"tokenize", filepath.Join(t.TempDir(), "none.html")}, "reading"},
		{"bad config", []string{"tokenize", "--config", badConfig}, `unknown output format "yaml"`},
		{"too many files", []string{"tokenize", "a", "b"}, "accepts at most 1 arg(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestTokenizeCmd_Verbose(t *testing.T) {
	out, errOut, err := execute(t, "<p>", "tokenize", "--verbose")
	require.NoError(t, err)
	assert.Equal(t, "StartTag \"<p>\"\n", out)
	assert.Contains(t, errOut, "tokenizing")
	assert.Contains(t, errOut, "[TOKEN] state transition")
}

func TestTokenizeCmd_QuietByDefault(t *testing.T) {
	_, errOut, err := execute(t, "<p>", "tokenize")
	require.NoError(t, err)
	assert.Empty(t, errOut)
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, _, err := execute(t, "", "version")
	assert.NoError(t, err)
	assert.Contains(t, out, "mashtml version test-version-1.0.0")
}
