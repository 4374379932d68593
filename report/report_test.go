package report

import (
	"archive/zip"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/storybook-narrator/model"
)

func documentXML(t *testing.T, path string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatal("word/document.xml missing")
	return ""
}

func TestSaveWritesAllPanes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fox.docx")
	run := model.Run{
		ID:            "run-1",
		Filename:      "fox.pdf",
		State:         model.StateAudioReady,
		RawText:       "The fox saw the grapes.\nThey hung high.",
		Processed:     "A fox gives up on grapes",
		Translated:    "Translated fox story",
		AudioLocation: "/out/speech_1.mp3",
	}

	require.NoError(t, Save(run, "Korean", path))

	xml := documentXML(t, path)
	for _, want := range []string{
		"fox.pdf",
		headingRaw,
		"The fox saw the grapes.",
		"They hung high.",
		"A fox gives up on grapes",
		"Translated Main Content (Korean)",
		"Translated fox story",
		"/out/speech_1.mp3",
	} {
		assert.Contains(t, xml, want)
	}
}

func TestSaveFailedRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.docx")
	run := model.Run{
		ID:      "run-2",
		State:   model.StateFailed,
		RawText: "raw",
		Error:   "translate: quota exceeded",
	}

	require.NoError(t, Save(run, "", path))

	xml := documentXML(t, path)
	assert.Contains(t, xml, "run-2")
	assert.Contains(t, xml, "Error: translate: quota exceeded")
	assert.Contains(t, xml, "(not available)")
}
