package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/local/sensei/api/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ExportRow is one anonymized record in a class data export
type ExportRow struct {
	Participant string    `json:"participant"`
	RecordType  string    `json:"record_type"` // quiz, test, crisis, progress
	Title       string    `json:"title,omitempty"`
	Score       float64   `json:"score,omitempty"`
	DurationMs  int64     `json:"duration_ms,omitempty"`
	Role        string    `json:"role,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExportService produces anonymized research exports of class data. Student
// ids are replaced with stable Participant_NNN labels derived from roster
// order.
type ExportService struct {
	db *gorm.DB
}

func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{db: db}
}

// Export collects all submission, crisis and progress records for a class
// and renders them as json or csv.
func (s *ExportService) Export(ctx context.Context, classID, format string) ([]byte, string, error) {
	if classID == "" || format == "" {
		return nil, "", &ReportError{Kind: KindInvalidArgument, Message: "Missing classId or format (json/csv)."}
	}
	if format != "json" && format != "csv" {
		return nil, "", &ReportError{Kind: KindInvalidArgument, Message: "Format must be json or csv."}
	}

	var group models.Group
	if err := s.db.WithContext(ctx).First(&group, "id = ?", classID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", &ReportError{Kind: KindNotFound, Message: "Class not found."}
		}
		return nil, "", s.internal("failed to load group", err)
	}

	studentIDs, err := decodeStudentIDs(group.StudentIDs)
	if err != nil {
		return nil, "", s.internal("failed to decode roster", err)
	}
	if len(studentIDs) == 0 {
		return nil, "", &ReportError{Kind: KindFailedPrecondition, Message: "No students in this class."}
	}

	anonMap := make(map[string]string, len(studentIDs))
	for i, id := range studentIDs {
		anonMap[id] = fmt.Sprintf("Participant_%03d", i+1)
	}

	rows, err := s.collectRows(ctx, studentIDs, anonMap)
	if err != nil {
		return nil, "", s.internal("failed to collect export rows", err)
	}

	switch format {
	case "csv":
		data, err := renderCSV(rows)
		if err != nil {
			return nil, "", s.internal("failed to render csv", err)
		}
		return data, "text/csv", nil
	default:
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return nil, "", s.internal("failed to render json", err)
		}
		return data, "application/json", nil
	}
}

func (s *ExportService) collectRows(ctx context.Context, studentIDs []string, anonMap map[string]string) ([]ExportRow, error) {
	rows := []ExportRow{}

	for _, chunk := range chunkIDs(studentIDs, maxInFilterSize) {
		var quizSubs []models.QuizSubmission
		if err := s.db.WithContext(ctx).Where("student_id IN ?", chunk).Find(&quizSubs).Error; err != nil {
			return nil, err
		}
		for _, sub := range quizSubs {
			rows = append(rows, ExportRow{
				Participant: anonMap[sub.StudentID],
				RecordType:  "quiz",
				Title:       sub.QuizTitle,
				Score:       sub.Score,
				CreatedAt:   sub.CreatedAt,
			})
		}

		var testSubs []models.TestSubmission
		if err := s.db.WithContext(ctx).Where("student_id IN ?", chunk).Find(&testSubs).Error; err != nil {
			return nil, err
		}
		for _, sub := range testSubs {
			rows = append(rows, ExportRow{
				Participant: anonMap[sub.StudentID],
				RecordType:  "test",
				Title:       sub.TestTitle,
				Score:       sub.Score,
				CreatedAt:   sub.CreatedAt,
			})
		}

		var logs []models.CrisisLog
		if err := s.db.WithContext(ctx).Where("student_id IN ?", chunk).Find(&logs).Error; err != nil {
			return nil, err
		}
		for _, entry := range logs {
			rows = append(rows, ExportRow{
				Participant: anonMap[entry.StudentID],
				RecordType:  "crisis",
				DurationMs:  entry.DurationMs,
				CreatedAt:   entry.CreatedAt,
			})
		}

		var progress []models.StudentProgress
		if err := s.db.WithContext(ctx).Where("student_id IN ?", chunk).Find(&progress).Error; err != nil {
			return nil, err
		}
		for _, row := range progress {
			rows = append(rows, ExportRow{
				Participant: anonMap[row.StudentID],
				RecordType:  "progress",
				Title:       row.LessonID,
				Role:        row.SelectedRole,
				CreatedAt:   row.CreatedAt,
			})
		}
	}

	return rows, nil
}

func renderCSV(rows []ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"participant", "record_type", "title", "score", "duration_ms", "role", "created_at"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.Participant,
			row.RecordType,
			row.Title,
			strconv.FormatFloat(row.Score, 'f', -1, 64),
			strconv.FormatInt(row.DurationMs, 10),
			row.Role,
			row.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (s *ExportService) internal(msg string, err error) *ReportError {
	log.Error().Err(err).Msg(msg)
	return &ReportError{Kind: KindInternal, Message: "Failed to export class data."}
}
