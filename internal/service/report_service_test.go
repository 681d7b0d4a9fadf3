package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSVQuotesTextFields(t *testing.T) {
	fx := newRequestServiceFixture()
	reports := NewReportService(fx.service)
	ctx := context.Background()

	student := testStudent("s1", "h1")
	input := validInput()
	input.Reason = `Visit to the "family house", Accra`
	_, err := fx.service.Create(ctx, student, input, "")
	require.NoError(t, err)

	data, filename, err := reports.ExportCSV(ctx, testHeadmaster("hd1"), RequestListFilter{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "exeat-requests-"))
	assert.True(t, strings.HasSuffix(filename, ".csv"))

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Student Name,House,Class,Date,Time,Duration,Destination,Reason,Status,Submitted", lines[0])
	// Embedded quotes are doubled and the field wrapped.
	assert.Contains(t, lines[1], `"Visit to the ""family house"", Accra"`)
	assert.Contains(t, lines[1], "pending")
}

func TestExportCSVScopedToCaller(t *testing.T) {
	fx := newRequestServiceFixture()
	reports := NewReportService(fx.service)
	ctx := context.Background()

	_, err := fx.service.Create(ctx, testStudent("s1", "h1"), validInput(), "")
	require.NoError(t, err)
	_, err = fx.service.Create(ctx, testStudent("s2", "h2"), validInput(), "")
	require.NoError(t, err)

	data, _, err := reports.ExportCSV(ctx, testHousemaster("hm1", "h1"), RequestListFilter{})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
}
