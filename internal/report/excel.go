// Package report renders a solved CDN scenario as a downloadable Excel
// workbook or PDF document for the HTTP report endpoints.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"cdnflow/internal/flow"
	"cdnflow/internal/topology"
)

// cellAddr formats a cell reference from a column letter and row number.
func cellAddr(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// Excel renders a scenario and its solve result as a three-sheet
// workbook: a summary sheet, a node table, and an arc table with the
// flow assigned to each arc.
func Excel(scn *topology.Scenario, g *flow.Graph, result flow.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build header style: %w", err)
	}

	writeSummarySheet(f, headerStyle, scn, result)
	writeNodesSheet(f, headerStyle, scn)
	writeArcsSheet(f, headerStyle, scn, g)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, headerStyle int, scn *topology.Scenario, result flow.Result) {
	sheet := "Summary"
	f.NewSheet(sheet)

	row := 1
	f.SetCellValue(sheet, cellAddr("A", row), "CDN Flow Solve Report")
	f.MergeCell(sheet, cellAddr("A", row), cellAddr("B", row))
	row += 2

	f.SetCellValue(sheet, cellAddr("A", row), "Scenario")
	f.SetCellStyle(sheet, cellAddr("A", row), cellAddr("B", row), headerStyle)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Name")
	f.SetCellValue(sheet, cellAddr("B", row), scn.Name)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Nodes")
	f.SetCellValue(sheet, cellAddr("B", row), len(scn.Nodes))
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Arcs")
	f.SetCellValue(sheet, cellAddr("B", row), len(scn.Arcs))
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Source")
	f.SetCellValue(sheet, cellAddr("B", row), scn.Source)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Sink")
	f.SetCellValue(sheet, cellAddr("B", row), scn.Sink)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Demand")
	f.SetCellValue(sheet, cellAddr("B", row), scn.Demand)
	row += 2

	f.SetCellValue(sheet, cellAddr("A", row), "Solve Result")
	f.SetCellStyle(sheet, cellAddr("A", row), cellAddr("B", row), headerStyle)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Total Flow")
	f.SetCellValue(sheet, cellAddr("B", row), result.TotalFlow)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Total Cost")
	f.SetCellValue(sheet, cellAddr("B", row), result.TotalCost)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Satisfied")
	f.SetCellValue(sheet, cellAddr("B", row), result.Satisfied)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Elapsed (ms)")
	f.SetCellValue(sheet, cellAddr("B", row), result.ElapsedMs)

	f.SetColWidth(sheet, "A", "B", 20)
}

func writeNodesSheet(f *excelize.File, headerStyle int, scn *topology.Scenario) {
	sheet := "Nodes"
	f.NewSheet(sheet)

	headers := []string{"ID", "Name", "Kind"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)

	for i, n := range scn.Nodes {
		row := i + 2
		f.SetCellValue(sheet, cellAddr("A", row), n.ID)
		f.SetCellValue(sheet, cellAddr("B", row), n.Name)
		f.SetCellValue(sheet, cellAddr("C", row), string(n.Kind))
	}
	f.SetColWidth(sheet, "A", "C", 18)
}

func writeArcsSheet(f *excelize.File, headerStyle int, scn *topology.Scenario, g *flow.Graph) {
	sheet := "Arcs"
	f.NewSheet(sheet)

	headers := []string{"Tail", "Head", "Capacity", "Unit Cost", "Flow"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheet, "A1", "E1", headerStyle)

	for i, a := range scn.Arcs {
		row := i + 2
		f.SetCellValue(sheet, cellAddr("A", row), a.Tail)
		f.SetCellValue(sheet, cellAddr("B", row), a.Head)
		f.SetCellValue(sheet, cellAddr("C", row), a.Capacity)
		f.SetCellValue(sheet, cellAddr("D", row), a.UnitCost)
		if g != nil {
			if flowAmt, err := g.ArcFlow(i); err == nil {
				f.SetCellValue(sheet, cellAddr("E", row), flowAmt)
			}
		}
	}
	f.SetColWidth(sheet, "A", "E", 14)
}
