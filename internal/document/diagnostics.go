package document

import "fmt"

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic is a single finding against a source document. Check names the
// producer (e.g. "parse", "images", "codeblocks", "xrefs", "structure").
type Diagnostic struct {
	Severity Severity
	Check    string
	Doc      string
	Line     int
	Message  string
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: [%s] %s", d.Doc, d.Line, d.Severity, d.Check, d.Message)
	}
	return fmt.Sprintf("%s: %s: [%s] %s", d.Doc, d.Severity, d.Check, d.Message)
}

// CountBySeverity tallies diagnostics per severity level.
func CountBySeverity(diags []Diagnostic) (errors, warnings, infos int) {
	for _, d := range diags {
		switch d.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		default:
			infos++
		}
	}
	return
}
