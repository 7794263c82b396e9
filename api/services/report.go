package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/local/sensei/api/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// The backing store caps value-in-set filters at 30 elements, so roster
	// queries are partitioned into consecutive chunks of at most this size.
	maxInFilterSize = 30

	// The knowledge heatmap keeps only the most problematic topics.
	heatmapLimit = 5
)

// TopicHeat is one knowledge-heatmap entry: a topic ranked by the fraction
// of failing attempts.
type TopicHeat struct {
	Topic       string  `json:"topic"`
	FailureRate float64 `json:"failureRate"`
	Attempts    int     `json:"attempts"`
}

type CognitiveMetrics struct {
	AvgQuizScore     float64     `json:"avgQuizScore"`
	AvgTestScore     float64     `json:"avgTestScore"`
	KnowledgeHeatmap []TopicHeat `json:"knowledgeHeatmap"`
}

type BehavioralMetrics struct {
	AvgCrisisResolutionSeconds float64 `json:"avgCrisisResolutionSeconds"`
	CrisisCount                int     `json:"crisisCount"`
}

type SocialMetrics struct {
	RoleDistribution map[string]int `json:"roleDistribution"`
}

type ReportMetrics struct {
	Cognitive  CognitiveMetrics  `json:"cognitive"`
	Behavioral BehavioralMetrics `json:"behavioral"`
	Social     SocialMetrics     `json:"social"`
}

type ReportMeta struct {
	StudentCount int    `json:"studentCount"`
	DataRange    string `json:"dataRange"`
}

// ClassReport is the aggregated per-class summary. A fresh value is built on
// every run; the persisted slot holds only the latest one.
type ClassReport struct {
	ClassID     string        `json:"classId"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Metrics     ReportMetrics `json:"metrics"`
	Meta        ReportMeta    `json:"meta"`
}

// ReportService aggregates submission, crisis and progress records across a
// class roster into a ClassReport.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// GenerateReport builds, persists and returns the report for one class.
// Metric categories run sequentially; only the per-student role sub-fetches
// inside a social chunk run concurrently. Any unexpected store error aborts
// the whole run with nothing persisted.
func (s *ReportService) GenerateReport(ctx context.Context, classID string) (*ClassReport, error) {
	if strings.TrimSpace(classID) == "" {
		return nil, &ReportError{Kind: KindInvalidArgument, Message: "Missing classId."}
	}

	var group models.Group
	if err := s.db.WithContext(ctx).First(&group, "id = ?", classID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ReportError{Kind: KindNotFound, Message: "Class (group) not found."}
		}
		return nil, s.internal("failed to load group", err)
	}

	studentIDs, err := decodeStudentIDs(group.StudentIDs)
	if err != nil {
		return nil, s.internal("failed to decode roster", err)
	}

	report := &ClassReport{
		ClassID:     classID,
		GeneratedAt: time.Now().UTC(),
		Metrics: ReportMetrics{
			Cognitive: CognitiveMetrics{KnowledgeHeatmap: []TopicHeat{}},
			Social:    SocialMetrics{RoleDistribution: map[string]int{}},
		},
		Meta: ReportMeta{
			StudentCount: len(studentIDs),
			DataRange:    "All Time",
		},
	}

	// An empty roster short-circuits to a minimal report, not an error.
	if len(studentIDs) > 0 {
		if err := s.collectCognitive(ctx, studentIDs, report); err != nil {
			return nil, s.internal("cognitive metrics failed", err)
		}
		if err := s.collectBehavioral(ctx, studentIDs, report); err != nil {
			return nil, s.internal("behavioral metrics failed", err)
		}
		if err := s.collectSocial(ctx, studentIDs, report); err != nil {
			return nil, s.internal("social metrics failed", err)
		}
	}

	if err := s.persist(ctx, report); err != nil {
		return nil, s.internal("failed to persist report", err)
	}

	return report, nil
}

// LatestReport reads the persisted per-class report slot.
func (s *ReportService) LatestReport(ctx context.Context, classID string) (*ClassReport, error) {
	var record models.AnalyticsReport
	if err := s.db.WithContext(ctx).First(&record, "class_id = ?", classID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ReportError{Kind: KindNotFound, Message: "No report generated for this class yet."}
		}
		return nil, s.internal("failed to load report", err)
	}

	var report ClassReport
	if err := json.Unmarshal([]byte(record.Report), &report); err != nil {
		return nil, s.internal("failed to decode stored report", err)
	}
	return &report, nil
}

func (s *ReportService) collectCognitive(ctx context.Context, studentIDs []string, report *ClassReport) error {
	quizzes := &scoreAccumulator{}
	tests := &scoreAccumulator{}
	topics := topicCounter{}

	for _, chunk := range chunkIDs(studentIDs, maxInFilterSize) {
		var quizSubs []models.QuizSubmission
		if err := s.db.WithContext(ctx).Where("student_id IN ?", chunk).Find(&quizSubs).Error; err != nil {
			return err
		}
		for _, sub := range quizSubs {
			quizzes.add(sub.Score)
			topics.observe(sub.QuizTitle, sub.Score)
		}

		// Tests feed their own average; they never enter the quiz heatmap.
		var testSubs []models.TestSubmission
		if err := s.db.WithContext(ctx).Where("student_id IN ?", chunk).Find(&testSubs).Error; err != nil {
			return err
		}
		for _, sub := range testSubs {
			tests.add(sub.Score)
		}
	}

	report.Metrics.Cognitive = CognitiveMetrics{
		AvgQuizScore:     quizzes.averagePercent(),
		AvgTestScore:     tests.averagePercent(),
		KnowledgeHeatmap: topics.heatmap(heatmapLimit),
	}
	return nil
}

func (s *ReportService) collectBehavioral(ctx context.Context, studentIDs []string, report *ClassReport) error {
	var totalMs int64
	var count int

	for _, chunk := range chunkIDs(studentIDs, maxInFilterSize) {
		var logs []models.CrisisLog
		if err := s.db.WithContext(ctx).Where("student_id IN ?", chunk).Find(&logs).Error; err != nil {
			return err
		}
		for _, entry := range logs {
			if entry.DurationMs > 0 {
				totalMs += entry.DurationMs
				count++
			}
		}
	}

	avgSeconds := 0.0
	if count > 0 {
		avgSeconds = round1(float64(totalMs) / float64(count) / 1000)
	}
	report.Metrics.Behavioral = BehavioralMetrics{
		AvgCrisisResolutionSeconds: avgSeconds,
		CrisisCount:                count,
	}
	return nil
}

func (s *ReportService) collectSocial(ctx context.Context, studentIDs []string, report *ClassReport) error {
	roles := map[string]int{}
	var mu sync.Mutex

	for _, chunk := range chunkIDs(studentIDs, maxInFilterSize) {
		g, gctx := errgroup.WithContext(ctx)
		for _, studentID := range chunk {
			studentID := studentID
			g.Go(func() error {
				var rows []models.StudentProgress
				if err := s.db.WithContext(gctx).Where("student_id = ?", studentID).Find(&rows).Error; err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				for _, row := range rows {
					if row.SelectedRole != "" {
						roles[row.SelectedRole]++
					}
				}
				return nil
			})
		}
		// Join the chunk before moving to the next one.
		if err := g.Wait(); err != nil {
			return err
		}
	}

	report.Metrics.Social = SocialMetrics{RoleDistribution: roles}
	return nil
}

// persist overwrites the per-class report slot unconditionally; concurrent
// runs race and the later write wins.
func (s *ReportService) persist(ctx context.Context, report *ClassReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	record := models.AnalyticsReport{
		ClassID:     report.ClassID,
		Report:      string(raw),
		GeneratedAt: report.GeneratedAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error
}

func (s *ReportService) internal(msg string, err error) *ReportError {
	log.Error().Err(err).Msg(msg)
	return &ReportError{Kind: KindInternal, Message: "Failed to generate class report."}
}

func decodeStudentIDs(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// chunkIDs partitions ids into consecutive groups of at most size elements.
func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

type scoreAccumulator struct {
	sum   float64
	count int
}

func (a *scoreAccumulator) add(score float64) {
	a.sum += score
	a.count++
}

// averagePercent converts the running 0-1 mean to a percentage rounded to
// one decimal, 0 when nothing was observed.
func (a *scoreAccumulator) averagePercent() float64 {
	if a.count == 0 {
		return 0
	}
	return round1(a.sum / float64(a.count) * 100)
}

type topicStats struct {
	failures int
	total    int
}

// topicCounter tracks per-topic failure counts. The topic comes from the
// quiz title; a stable topic id does not exist in the data model.
type topicCounter map[string]*topicStats

func (t topicCounter) observe(topic string, score float64) {
	if topic == "" {
		topic = "Unknown Topic"
	}
	stats, ok := t[topic]
	if !ok {
		stats = &topicStats{}
		t[topic] = stats
	}
	stats.total++
	if score < 0.5 {
		stats.failures++
	}
}

// heatmap ranks topics by failure rate descending and truncates to limit.
// Ties break on topic name so repeated runs stay deterministic.
func (t topicCounter) heatmap(limit int) []TopicHeat {
	entries := make([]TopicHeat, 0, len(t))
	for topic, stats := range t {
		rate := 0.0
		if stats.total > 0 {
			rate = float64(stats.failures) / float64(stats.total) * 100
		}
		entries = append(entries, TopicHeat{
			Topic:       topic,
			FailureRate: rate,
			Attempts:    stats.total,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].FailureRate != entries[j].FailureRate {
			return entries[i].FailureRate > entries[j].FailureRate
		}
		return entries[i].Topic < entries[j].Topic
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
