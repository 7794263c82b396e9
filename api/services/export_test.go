package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/local/sensei/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportRejectsBadArguments(t *testing.T) {
	svc := NewExportService(newTestDB(t))

	for _, tc := range []struct{ classID, format string }{
		{"", "json"},
		{"class-1", ""},
		{"class-1", "xml"},
	} {
		_, _, err := svc.Export(context.Background(), tc.classID, tc.format)
		var reportErr *ReportError
		require.ErrorAs(t, err, &reportErr)
		assert.Equal(t, KindInvalidArgument, reportErr.Kind)
	}
}

func TestExportClassNotFound(t *testing.T) {
	svc := NewExportService(newTestDB(t))

	_, _, err := svc.Export(context.Background(), "missing", "json")

	var reportErr *ReportError
	require.ErrorAs(t, err, &reportErr)
	assert.Equal(t, KindNotFound, reportErr.Kind)
}

func TestExportEmptyRosterFailsPrecondition(t *testing.T) {
	db := newTestDB(t)
	seedGroup(t, db, "class-1", []string{})
	svc := NewExportService(db)

	_, _, err := svc.Export(context.Background(), "class-1", "json")

	var reportErr *ReportError
	require.ErrorAs(t, err, &reportErr)
	assert.Equal(t, KindFailedPrecondition, reportErr.Kind)
}

func TestExportJSONAnonymizesStudentIDs(t *testing.T) {
	db := newTestDB(t)
	seedGroup(t, db, "class-1", []string{"student-abc", "student-def"})
	seedQuiz(t, db, "student-abc", "Fractions", 0.7)
	seedQuiz(t, db, "student-def", "Decimals", 0.2)
	require.NoError(t, db.Create(&models.CrisisLog{
		ID: uuid.New().String(), StudentID: "student-def", DurationMs: 1200,
	}).Error)

	data, contentType, err := NewExportService(db).Export(context.Background(), "class-1", "json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)

	// Raw student ids must not leak into the export
	assert.NotContains(t, string(data), "student-abc")
	assert.NotContains(t, string(data), "student-def")

	var rows []ExportRow
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 3)

	participants := map[string]bool{}
	for _, row := range rows {
		participants[row.Participant] = true
	}
	assert.True(t, participants["Participant_001"])
	assert.True(t, participants["Participant_002"])
}

func TestExportCSVShape(t *testing.T) {
	db := newTestDB(t)
	seedGroup(t, db, "class-1", []string{"s1"})
	seedQuiz(t, db, "s1", "Fractions", 0.7)

	data, contentType, err := NewExportService(db).Export(context.Background(), "class-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2) // header + one quiz row

	assert.Equal(t, []string{"participant", "record_type", "title", "score", "duration_ms", "role", "created_at"}, records[0])
	assert.Equal(t, "Participant_001", records[1][0])
	assert.Equal(t, "quiz", records[1][1])
	assert.Equal(t, "Fractions", records[1][2])
	assert.Equal(t, "0.7", records[1][3])
}
