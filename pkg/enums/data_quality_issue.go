package enums

import "fmt"

// DataQualityIssue classifies a recoverable problem found on a product row.
type DataQualityIssue string

const (
	DataQualityIssueMissing     DataQualityIssue = "missing"
	DataQualityIssueUnparseable DataQualityIssue = "unparseable"
)

var validDataQualityIssues = []DataQualityIssue{
	DataQualityIssueMissing,
	DataQualityIssueUnparseable,
}

// String implements fmt.Stringer.
func (d DataQualityIssue) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DataQualityIssue.
func (d DataQualityIssue) IsValid() bool {
	for _, candidate := range validDataQualityIssues {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDataQualityIssue converts raw input into a DataQualityIssue.
func ParseDataQualityIssue(value string) (DataQualityIssue, error) {
	for _, candidate := range validDataQualityIssues {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid data quality issue %q", value)
}
