package cli

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/storybook-narrator/model"
)

func init() {
	color.NoColor = true
}

func TestReportPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/in/fox.pdf", "/in/fox.docx"},
		{"/in/Fox.PDF", "/in/Fox.docx"},
		{"fox", "fox.docx"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, reportPath(tt.in))
		})
	}
}

func TestPrintRunSkipsEmptySections(t *testing.T) {
	var buf bytes.Buffer
	printRun(&buf, model.Run{
		RawText:   "raw text",
		Processed: "A fox story",
	}, "Korean", false)

	out := buf.String()
	assert.Contains(t, out, "Extracted Main Content:\nA fox story\n")
	assert.NotContains(t, out, "raw text")
	assert.NotContains(t, out, "Translated Main Content")
	assert.NotContains(t, out, "Audio:")
}

func TestPrintRunShowRaw(t *testing.T) {
	var buf bytes.Buffer
	printRun(&buf, model.Run{
		RawText:       "raw text",
		Translated:    "여우 이야기",
		AudioLocation: "/out/speech_1.mp3",
	}, "Korean", true)

	out := buf.String()
	assert.Contains(t, out, "Extracted Raw Text:\nraw text\n")
	assert.Contains(t, out, "Translated Main Content (Korean):\n여우 이야기\n")
	assert.Contains(t, out, "Audio:\n/out/speech_1.mp3\n")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "run", "watch"} {
		assert.True(t, names[want], want)
	}

	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, runCmd.Flags().Lookup("docx"))
	require.NotNil(t, watchCmd.Flags().Lookup("workers"))
}

func TestRunRequiresFile(t *testing.T) {
	assert.Error(t, runCmd.Args(runCmd, nil))
	assert.NoError(t, runCmd.Args(runCmd, []string{"fox.pdf"}))
}
