package tables

import "fmt"

// WarningKind classifies a non-fatal reconstruction problem
type WarningKind int

const (
	// WarningEmptyPage means a page yielded no section to process.
	WarningEmptyPage WarningKind = iota
	// WarningEmptySection means a section half yielded no rows or no columns.
	WarningEmptySection
	// WarningColumnMismatch means the detected column count differs from the
	// station count of the direction.
	WarningColumnMismatch
	// WarningDuplicateKey means a table key was produced by more than one page.
	WarningDuplicateKey
)

// String returns the kind name
func (k WarningKind) String() string {
	switch k {
	case WarningEmptyPage:
		return "empty_page"
	case WarningEmptySection:
		return "empty_section"
	case WarningColumnMismatch:
		return "column_mismatch"
	case WarningDuplicateKey:
		return "duplicate_key"
	default:
		return "unknown"
	}
}

// Warning describes a condition the reconstruction recovered from
type Warning struct {
	Kind    WarningKind
	Page    int    // 1-indexed page number, 0 when not page specific
	Key     string // table key, empty when not table specific
	Message string
}

// String formats the warning for logs
func (w Warning) String() string {
	switch {
	case w.Page > 0 && w.Key != "":
		return fmt.Sprintf("page %d: %s: %s", w.Page, w.Key, w.Message)
	case w.Page > 0:
		return fmt.Sprintf("page %d: %s", w.Page, w.Message)
	case w.Key != "":
		return fmt.Sprintf("%s: %s", w.Key, w.Message)
	default:
		return w.Message
	}
}
