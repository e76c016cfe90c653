// internal/stages/ingestion/normalize/service_test.go
package normalize

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finaid-pipeline/internal/common/config"
	commonerrors "finaid-pipeline/internal/common/errors"
	"finaid-pipeline/internal/common/logger"
)

func createTestService(t *testing.T) *Service {
	cfg := config.Default()
	return NewService(ConfigFrom(cfg), logger.NewTestLogger(t))
}

const nsldsCSV = `Borrower SSN,Borrower First Name,Borrower Last Name,E-mail,Days Delinquent,OPB,Loan Type,Servicer Code
111-22-3333,Ada,Lovelace,ada@example.edu,200,15000,Direct Subsidized,SVC-01
444-55-6666,Grace,Hopper,grace@example.edu,45,"8,250.50",Direct Unsubsidized,SVC-02
777-88-9999,Alan,Turing,alan@example.edu,,3000,Perkins,SVC-01
`

const sisCSV = `Student ID,SSN,First Name,Last Name,Email,Major,Program,GPA,Credit Hours,Enrollment Status
S-100,111-22-3333,Ada,Lovelace,ada@example.edu,Nursing,BSN,3.8,15,Enrolled
S-200,444-55-6666,Grace,Hopper,grace@example.edu,Computer Science,BS,3.9,12,Enrolled
`

func TestParseCSV(t *testing.T) {
	svc := createTestService(t)

	table, err := svc.ParseCSV("nslds.csv", strings.NewReader(nsldsCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, len(table.Rows))
	assert.Equal(t, 8, len(table.Headers))
	assert.Equal(t, "111-22-3333", table.Rows[0]["Borrower SSN"])
}

func TestParseCSV_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ""},
		{name: "header only", input: "SSN,Major\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := createTestService(t)
			_, err := svc.ParseCSV("bad.csv", strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, commonerrors.HasCode(err, commonerrors.ErrCodeMalformedInput))
		})
	}
}

func TestNormalizeBorrowers(t *testing.T) {
	svc := createTestService(t)
	table, err := svc.ParseCSV("nslds.csv", strings.NewReader(nsldsCSV))
	require.NoError(t, err)

	records := svc.NormalizeBorrowers(context.Background(), table)

	// no rows silently dropped during normalization
	require.Equal(t, len(table.Rows), len(records))

	first := records[0]
	assert.Equal(t, "111-22-3333", first.SSN)
	assert.Equal(t, "Ada", first.FirstName)
	assert.Equal(t, "Lovelace", first.LastName)
	require.NotNil(t, first.DaysDelinquent)
	assert.Equal(t, 200, *first.DaysDelinquent)
	assert.Equal(t, 15000.0, first.OutstandingBalance)
	assert.Equal(t, "Direct Subsidized", first.LoanType)

	// synthesized deterministic ids from row position
	assert.Equal(t, "STU001000", records[0].StudentID)
	assert.Equal(t, "STU001001", records[1].StudentID)

	// thousands separators tolerated
	assert.Equal(t, 8250.50, records[1].OutstandingBalance)

	// blank delinquency stays absent
	assert.Nil(t, records[2].DaysDelinquent)

	// unmapped columns pass through unchanged
	assert.Equal(t, "SVC-01", first.Extra["Servicer Code"])
}

func TestNormalizeBorrowers_MissingColumnsSkipped(t *testing.T) {
	svc := createTestService(t)

	// no Days Delinquent or OPB columns at all; mapping must not fail
	csvData := "Borrower First Name,Borrower Last Name\nAda,Lovelace\n"
	table, err := svc.ParseCSV("partial.csv", strings.NewReader(csvData))
	require.NoError(t, err)

	records := svc.NormalizeBorrowers(context.Background(), table)
	require.Len(t, records, 1)
	assert.Equal(t, "Ada", records[0].FirstName)
	assert.Nil(t, records[0].DaysDelinquent)
	assert.Equal(t, 0.0, records[0].OutstandingBalance)
}

func TestNormalizeBorrowers_HeaderCaseInsensitive(t *testing.T) {
	svc := createTestService(t)

	csvData := "BORROWER SSN,days delinquent\n111,30\n"
	table, err := svc.ParseCSV("case.csv", strings.NewReader(csvData))
	require.NoError(t, err)

	records := svc.NormalizeBorrowers(context.Background(), table)
	require.Len(t, records, 1)
	assert.Equal(t, "111", records[0].SSN)
	require.NotNil(t, records[0].DaysDelinquent)
	assert.Equal(t, 30, *records[0].DaysDelinquent)
}

func TestNormalizeBorrowers_NegativeDelinquencyAbsent(t *testing.T) {
	svc := createTestService(t)

	csvData := "Borrower SSN,Days Delinquent\n111,-5\n"
	table, err := svc.ParseCSV("neg.csv", strings.NewReader(csvData))
	require.NoError(t, err)

	records := svc.NormalizeBorrowers(context.Background(), table)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].DaysDelinquent)
}

func TestNormalizeStudents(t *testing.T) {
	svc := createTestService(t)
	table, err := svc.ParseCSV("sis.csv", strings.NewReader(sisCSV))
	require.NoError(t, err)

	records := svc.NormalizeStudents(context.Background(), table)
	require.Equal(t, len(table.Rows), len(records))

	first := records[0]
	assert.Equal(t, "S-100", first.StudentID)
	assert.Equal(t, "Nursing", first.Major)
	assert.Equal(t, "BSN", first.Program)
	assert.Equal(t, 3.8, first.GPA)
	assert.Equal(t, 15, first.CreditHours)
	assert.Equal(t, "Enrolled", first.EnrollmentStatus)
}

func TestNormalizeStudents_ShortRow(t *testing.T) {
	svc := createTestService(t)

	// second row is shorter than the header; missing columns are skipped
	csvData := "Student ID,SSN,Major\nS-1,111,Nursing\nS-2\n"
	table, err := svc.ParseCSV("short.csv", strings.NewReader(csvData))
	require.NoError(t, err)

	records := svc.NormalizeStudents(context.Background(), table)
	require.Len(t, records, 2)
	assert.Equal(t, "S-2", records[1].StudentID)
	assert.Empty(t, records[1].Major)
}
