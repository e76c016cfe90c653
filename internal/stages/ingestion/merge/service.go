// internal/stages/ingestion/merge/service.go
package merge

import (
	"context"

	"finaid-pipeline/internal/common/errors"
	"finaid-pipeline/internal/common/logger"
	"finaid-pipeline/internal/common/metrics"
	"finaid-pipeline/internal/models"
)

// Service inner-joins normalized borrower and student datasets on a shared
// identifier. SSN is preferred when every record on both sides carries one;
// otherwise student_id is used.
type Service struct {
	logger logger.Logger
}

func NewService(log logger.Logger) *Service {
	return &Service{
		logger: log.WithFields(map[string]interface{}{"stage": "merge"}),
	}
}

// Execute merges the two datasets. Unmatched records on either side
// contribute nothing to the output; their counts are reported in Stats.
// Fails with MERGE_KEY_UNAVAILABLE when neither ssn nor student_id is
// populated on both sides.
func (s *Service) Execute(ctx context.Context, borrowers []models.BorrowerRecord, students []models.StudentRecord) ([]models.MergedRecord, *Stats, error) {
	key, err := s.selectJoinKey(borrowers, students)
	if err != nil {
		return nil, nil, err
	}

	// Index students by join key. Duplicate keys keep the first record so
	// every merged record corresponds to exactly one borrower/student pair.
	index := make(map[string]int, len(students))
	for i, st := range students {
		k := studentKey(st, key)
		if k == "" {
			continue
		}
		if _, exists := index[k]; !exists {
			index[k] = i
		}
	}

	merged := make([]models.MergedRecord, 0, len(borrowers))
	used := make(map[int]bool, len(students))
	unmatchedBorrowers := 0
	for _, b := range borrowers {
		k := borrowerKey(b, key)
		i, ok := index[k]
		if k == "" || !ok {
			unmatchedBorrowers++
			continue
		}
		used[i] = true
		merged = append(merged, models.MergedRecord{
			JoinKey:  k,
			Borrower: b,
			Student:  students[i],
		})
	}

	// Students that contributed to no merged record, duplicates included.
	unmatchedStudents := len(students) - len(used)

	stats := &Stats{
		JoinKey:            key,
		Matched:            len(merged),
		UnmatchedBorrowers: unmatchedBorrowers,
		UnmatchedStudents:  unmatchedStudents,
	}

	metrics.RecordsMerged.Add(float64(stats.Matched))
	metrics.RecordsUnmatched.WithLabelValues("borrower").Add(float64(unmatchedBorrowers))
	metrics.RecordsUnmatched.WithLabelValues("student").Add(float64(unmatchedStudents))

	s.logger.Info("datasets merged", map[string]interface{}{
		"joinKey":            string(key),
		"matched":            stats.Matched,
		"unmatchedBorrowers": stats.UnmatchedBorrowers,
		"unmatchedStudents":  stats.UnmatchedStudents,
	})

	return merged, stats, nil
}

// selectJoinKey prefers ssn when both sequences carry a non-empty ssn on
// every record considered for the join, falling back to student_id.
func (s *Service) selectJoinKey(borrowers []models.BorrowerRecord, students []models.StudentRecord) (JoinKey, error) {
	ssnComplete := len(borrowers) > 0 && len(students) > 0
	for _, b := range borrowers {
		if b.SSN == "" {
			ssnComplete = false
			break
		}
	}
	if ssnComplete {
		for _, st := range students {
			if st.SSN == "" {
				ssnComplete = false
				break
			}
		}
	}
	if ssnComplete {
		return KeySSN, nil
	}

	idComplete := len(borrowers) > 0 && len(students) > 0
	for _, b := range borrowers {
		if b.StudentID == "" {
			idComplete = false
			break
		}
	}
	if idComplete {
		for _, st := range students {
			if st.StudentID == "" {
				idComplete = false
				break
			}
		}
	}
	if idComplete {
		return KeyStudentID, nil
	}

	return "", errors.NewMergeKeyUnavailableError(
		"neither ssn nor student_id is populated on every record of both datasets")
}

func borrowerKey(b models.BorrowerRecord, key JoinKey) string {
	if key == KeySSN {
		return b.SSN
	}
	return b.StudentID
}

func studentKey(st models.StudentRecord, key JoinKey) string {
	if key == KeySSN {
		return st.SSN
	}
	return st.StudentID
}
