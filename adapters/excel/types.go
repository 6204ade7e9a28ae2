package excel

// Sheet names of an uncertainty workbook.
const (
	SheetMean        = "Mean"
	SheetUncertainty = "Uncertainty"
	SheetSummary     = "Summary"
)

// SheetData is one worksheet read back as text.
type SheetData struct {
	Headers []string   // first row
	Rows    [][]string // remaining rows
}
