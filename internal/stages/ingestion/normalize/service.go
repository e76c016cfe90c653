// internal/stages/ingestion/normalize/service.go
package normalize

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"finaid-pipeline/internal/common/errors"
	"finaid-pipeline/internal/common/logger"
	"finaid-pipeline/internal/common/metrics"
	"finaid-pipeline/internal/models"
)

// Service maps heterogeneous source-file columns onto the canonical field set
// for each input kind. Mappings whose source header is absent from a row are
// skipped; unmapped columns pass through unchanged.
type Service struct {
	config *Config
	logger logger.Logger

	// mapping tables keyed by lowercased, trimmed source header
	delinquencyMap map[string]string
	studentMap     map[string]string
}

func NewService(config *Config, log logger.Logger) *Service {
	return &Service{
		config:         config,
		logger:         log.WithFields(map[string]interface{}{"stage": "normalize"}),
		delinquencyMap: foldHeaders(config.DelinquencyMap),
		studentMap:     foldHeaders(config.StudentMap),
	}
}

func foldHeaders(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// ParseCSV reads a delimited-text source into a Table. Fails with
// MALFORMED_INPUT when the header cannot be read or the file carries zero
// data rows. The raw source is never mutated.
func (s *Service) ParseCSV(source string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // allow variable-length rows

	headers, err := reader.Read()
	if err != nil {
		metrics.IngestionFailures.WithLabelValues(source).Inc()
		return nil, errors.NewMalformedInputError(source, err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	table := &Table{Source: source, Headers: headers}
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			metrics.IngestionFailures.WithLabelValues(source).Inc()
			return nil, errors.NewMalformedInputError(source, err)
		}

		row := make(models.RawRecord, len(headers))
		for i, cell := range cells {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(cell)
			} else {
				// surplus cell beyond the header row keeps positional key
				row[fmt.Sprintf("column_%d", i+1)] = strings.TrimSpace(cell)
			}
		}
		table.Rows = append(table.Rows, row)
	}

	if len(table.Rows) == 0 {
		metrics.IngestionFailures.WithLabelValues(source).Inc()
		return nil, errors.NewMalformedInputError(source, fmt.Errorf("zero data rows"))
	}

	return table, nil
}

// NormalizeBorrowers produces one BorrowerRecord per table row. Rows with no
// mapped identifier get a deterministic synthesized student_id from their
// position.
func (s *Service) NormalizeBorrowers(ctx context.Context, table *Table) []models.BorrowerRecord {
	out := make([]models.BorrowerRecord, 0, len(table.Rows))

	for i, row := range table.Rows {
		rec := models.BorrowerRecord{}
		extra := map[string]string{}

		for _, header := range table.Headers {
			value, present := row[header]
			if !present {
				continue
			}
			canonical, mapped := s.delinquencyMap[strings.ToLower(header)]
			if !mapped {
				extra[header] = value
				continue
			}
			switch canonical {
			case "student_id":
				rec.StudentID = value
			case "ssn":
				rec.SSN = value
			case "first_name":
				rec.FirstName = value
			case "last_name":
				rec.LastName = value
			case "email":
				rec.Email = value
			case "days_delinquent":
				if d, err := parseInt(value); err == nil && d >= 0 {
					rec.DaysDelinquent = &d
				}
			case "outstanding_balance":
				if b, err := parseFloat(value); err == nil && b >= 0 {
					rec.OutstandingBalance = b
				}
			case "loan_type":
				rec.LoanType = value
			default:
				extra[header] = value
			}
		}

		if rec.StudentID == "" {
			rec.StudentID = s.synthesizeID(i)
		}
		if len(extra) > 0 {
			rec.Extra = extra
		}
		out = append(out, rec)
	}

	metrics.RowsNormalized.WithLabelValues(string(KindDelinquency)).Add(float64(len(out)))
	s.logger.Info("normalized delinquency report", map[string]interface{}{
		"source": table.Source,
		"rows":   len(out),
	})

	return out
}

// NormalizeStudents produces one StudentRecord per table row.
func (s *Service) NormalizeStudents(ctx context.Context, table *Table) []models.StudentRecord {
	out := make([]models.StudentRecord, 0, len(table.Rows))

	for _, row := range table.Rows {
		rec := models.StudentRecord{}
		extra := map[string]string{}

		for _, header := range table.Headers {
			value, present := row[header]
			if !present {
				continue
			}
			canonical, mapped := s.studentMap[strings.ToLower(header)]
			if !mapped {
				extra[header] = value
				continue
			}
			switch canonical {
			case "student_id":
				rec.StudentID = value
			case "ssn":
				rec.SSN = value
			case "first_name":
				rec.FirstName = value
			case "last_name":
				rec.LastName = value
			case "email":
				rec.Email = value
			case "major":
				rec.Major = value
			case "program":
				rec.Program = value
			case "cip_code":
				rec.CIPCode = value
			case "academic_standing":
				rec.AcademicStanding = value
			case "gpa":
				if g, err := parseFloat(value); err == nil {
					rec.GPA = g
				}
			case "credit_hours":
				if h, err := parseInt(value); err == nil {
					rec.CreditHours = h
				}
			case "enrollment_status":
				rec.EnrollmentStatus = value
			default:
				extra[header] = value
			}
		}

		if len(extra) > 0 {
			rec.Extra = extra
		}
		out = append(out, rec)
	}

	metrics.RowsNormalized.WithLabelValues(string(KindStudentRecords)).Add(float64(len(out)))
	s.logger.Info("normalized student records", map[string]interface{}{
		"source": table.Source,
		"rows":   len(out),
	})

	return out
}

func (s *Service) synthesizeID(rowIndex int) string {
	return fmt.Sprintf("%s%06d", s.config.IDPrefix, s.config.IDBase+rowIndex)
}

func parseInt(raw string) (int, error) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.Atoi(cleaned)
}

func parseFloat(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	cleaned = strings.TrimPrefix(strings.TrimSpace(cleaned), "$")
	if cleaned == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(cleaned, 64)
}
