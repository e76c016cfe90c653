// internal/stages/ingestion/merge/models.go
package merge

// JoinKey identifies which canonical field the merger joined on.
type JoinKey string

const (
	KeySSN       JoinKey = "ssn"
	KeyStudentID JoinKey = "student_id"
)

// Stats surfaces the inner join's silent data loss: callers can decide
// whether unmatched counts warrant a warning.
type Stats struct {
	JoinKey            JoinKey `json:"joinKey"`
	Matched            int     `json:"matched"`
	UnmatchedBorrowers int     `json:"unmatchedBorrowers"`
	UnmatchedStudents  int     `json:"unmatchedStudents"`
}
