package analysis

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet names in exported workbooks.
const (
	ChartSheet   = "Daily"
	SummarySheet = "Summary"
)

var chartHeader = []interface{}{"Date", "Symptom Severity", "Tree Pollen", "Grass Pollen", "Weed Pollen"}

// WriteXLSX writes the result as a workbook: one row per logged day plus a
// summary sheet with the coefficients and insights.
func WriteXLSX(w io.Writer, result Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ChartSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	if err := f.SetSheetRow(ChartSheet, "A1", &chartHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, p := range result.ChartData {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{p.Date, p.SymptomSeverity, p.TreePollen, p.GrassPollen, p.WeedPollen}
		if err := f.SetSheetRow(ChartSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("adding summary sheet: %w", err)
	}

	summary := [][]interface{}{
		{"Pet", result.PetName},
		{"Status", string(result.Status)},
		{"Days Logged", result.DaysLogged},
	}
	if result.Status == StatusInsufficientData {
		summary = append(summary, []interface{}{"Message", result.Message})
	}
	if c := result.Correlations; c != nil {
		summary = append(summary,
			[]interface{}{"Tree Correlation", c.Tree},
			[]interface{}{"Grass Correlation", c.Grass},
			[]interface{}{"Weed Correlation", c.Weed},
			[]interface{}{"Top Trigger", DisplayName(c.TopTrigger)},
			[]interface{}{"Top Trigger r", c.TopTriggerValue},
		)
	}
	if in := result.Insights; in != nil {
		summary = append(summary,
			[]interface{}{"Insight", in.TopTrigger},
			[]interface{}{"Threshold", in.Threshold},
			[]interface{}{"Recommendation", in.Action},
		)
	}

	for i, row := range summary {
		row := row
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
