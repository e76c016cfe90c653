// internal/models/records.go
package models

// RawRecord is one row of an uploaded file, keyed by source column label.
// Ephemeral; it exists only while a file is being normalized.
type RawRecord map[string]string

// BorrowerRecord is the canonical form of one delinquency-report row.
type BorrowerRecord struct {
	StudentID          string  `json:"student_id"`
	SSN                string  `json:"ssn,omitempty"`
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	Email              string  `json:"email"`
	DaysDelinquent     *int    `json:"days_delinquent,omitempty"` // nil = absent
	OutstandingBalance float64 `json:"outstanding_balance"`
	LoanType           string  `json:"loan_type"`
	// Extra carries unmapped source columns through unchanged, keyed by
	// their original header.
	Extra map[string]string `json:"extra,omitempty"`
}

// DelinquentDays returns the delinquency in days, treating absent as 0.
func (b BorrowerRecord) DelinquentDays() int {
	if b.DaysDelinquent == nil {
		return 0
	}
	return *b.DaysDelinquent
}

// StudentRecord is the canonical form of one student-records row.
type StudentRecord struct {
	StudentID        string            `json:"student_id"`
	SSN              string            `json:"ssn,omitempty"`
	FirstName        string            `json:"first_name"`
	LastName         string            `json:"last_name"`
	Email            string            `json:"email"`
	Major            string            `json:"major"`
	Program          string            `json:"program"`
	CIPCode          string            `json:"cip_code"`
	AcademicStanding string            `json:"academic_standing"`
	GPA              float64           `json:"gpa"`
	CreditHours      int               `json:"credit_hours"`
	EnrollmentStatus string            `json:"enrollment_status"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// MergedRecord is the natural join of one borrower record and one student
// record sharing JoinKey. Nesting keeps both origins' full field sets and
// disambiguates colliding names.
type MergedRecord struct {
	JoinKey  string         `json:"join_key"`
	Borrower BorrowerRecord `json:"borrower"`
	Student  StudentRecord  `json:"student"`
	Risk     RiskAssessment `json:"risk"`
}

// RiskTier is a coarse bucketing of a continuous risk score.
type RiskTier string

const (
	TierLow    RiskTier = "LOW"
	TierMedium RiskTier = "MEDIUM"
	TierHigh   RiskTier = "HIGH"
)

// RiskAssessment attaches a score in [0,1] and its tier to a borrower record.
type RiskAssessment struct {
	Score float64  `json:"risk_score"`
	Tier  RiskTier `json:"risk_tier"`
}

// MajorSummary aggregates merged records per distinct major. Computed fresh
// on every aggregation request, never persisted.
type MajorSummary struct {
	Major                   string   `json:"major"`
	StudentCount            int      `json:"student_count"`
	AvgRiskScore            float64  `json:"avg_risk_score"`
	AvgOutstandingBalance   float64  `json:"avg_outstanding_balance"`
	TotalOutstandingBalance float64  `json:"total_outstanding_balance"`
	AvgDaysDelinquent       float64  `json:"avg_days_delinquent"`
	RiskTier                RiskTier `json:"risk_tier"`
}
