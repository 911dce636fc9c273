package dto

// RosterImportResult summarizes a bulk student import from a spreadsheet.
type RosterImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// QuestionImportResult summarizes a bulk question import from a spreadsheet.
type QuestionImportResult struct {
	Imported  int                `json:"imported"`
	Questions []QuestionResponse `json:"questions"`
}
