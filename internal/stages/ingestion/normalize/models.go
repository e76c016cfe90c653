// internal/stages/ingestion/normalize/models.go
package normalize

import "finaid-pipeline/internal/models"

// SourceKind identifies which mapping table applies to a raw file.
type SourceKind string

const (
	KindDelinquency    SourceKind = "delinquency"
	KindStudentRecords SourceKind = "student_records"
)

// Table is a parsed tabular source: the free-form header row plus one
// RawRecord per data row. Header order is preserved so unmapped columns pass
// through deterministically.
type Table struct {
	Source  string
	Headers []string
	Rows    []models.RawRecord
}
