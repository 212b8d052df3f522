package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attendanceDataset() Dataset {
	return Dataset{
		Title:   "Attendance",
		Headers: []string{"Date", "Student", "Status"},
		Rows: []map[string]string{
			{"Date": "2024-03-01", "Student": "RIV2024001", "Status": "PRESENT"},
			{"Date": "2024-03-01", "Student": "RIV2024002", "Status": "LATE"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestRenderCSV(t *testing.T) {
	body, err := Render(FormatCSV, attendanceDataset())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Student,Status", lines[0])
	assert.Equal(t, "2024-03-01,RIV2024002,LATE", lines[2])
}

func TestRenderPDF(t *testing.T) {
	body, err := Render(FormatPDF, attendanceDataset())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))
}

func TestRenderRequiresHeaders(t *testing.T) {
	_, err := Render(FormatCSV, Dataset{})
	assert.Error(t, err)
	_, err = Render(FormatPDF, Dataset{})
	assert.Error(t, err)
}
