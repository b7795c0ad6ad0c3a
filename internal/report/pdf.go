package report

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"cdnflow/internal/flow"
	"cdnflow/internal/topology"
)

var (
	primaryColor  = &props.Color{Red: 52, Green: 152, Blue: 219}
	headerBgColor = &props.Color{Red: 44, Green: 62, Blue: 80}
	darkGrayColor = &props.Color{Red: 127, Green: 140, Blue: 141}
	lightGray     = &props.Color{Red: 236, Green: 240, Blue: 241}

	titleStyle  = props.Text{Size: 24, Style: fontstyle.Bold, Align: align.Center, Color: headerBgColor}
	h2Style     = props.Text{Size: 16, Style: fontstyle.Bold, Color: headerBgColor, Top: 5}
	smallStyle  = props.Text{Size: 8, Color: darkGrayColor}
	boldStyle   = props.Text{Size: 10, Style: fontstyle.Bold}
	normalStyle = props.Text{Size: 10}

	metricValueStyle = props.Text{Size: 20, Style: fontstyle.Bold, Align: align.Center, Color: primaryColor}
	metricLabelStyle = props.Text{Size: 9, Align: align.Center, Color: darkGrayColor}
)

// PDF renders a one-page summary of a scenario's solve result: a
// title, a metrics row (total flow / total cost / satisfied / elapsed)
// and a key-value table of the scenario shape.
func PDF(scn *topology.Scenario, result flow.Result) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	addHeader(m, scn)
	addMetrics(m, result)
	addScenarioTable(m, scn)
	addFooter(m)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addHeader(m core.Maroto, scn *topology.Scenario) {
	m.AddRow(15, text.NewCol(12, "CDN Flow Solve Report", titleStyle))
	m.AddRow(5, line.NewCol(12))
	m.AddRow(6,
		text.NewCol(6, fmt.Sprintf("Scenario: %s", scn.Name), smallStyle),
		text.NewCol(6, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05")),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)
	m.AddRow(8)
}

func addMetrics(m core.Maroto, result flow.Result) {
	m.AddRow(10, text.NewCol(12, "Solve Result", h2Style))
	m.AddRow(2, line.NewCol(12, props.Line{Color: primaryColor}))
	m.AddRow(5)

	satisfied := "no"
	if result.Satisfied {
		satisfied = "yes"
	}

	m.AddRow(20,
		col.New(3).Add(text.New(fmt.Sprintf("%d", result.TotalFlow), metricValueStyle), text.New("Total Flow", metricLabelStyle)),
		col.New(3).Add(text.New(fmt.Sprintf("%d", result.TotalCost), metricValueStyle), text.New("Total Cost", metricLabelStyle)),
		col.New(3).Add(text.New(satisfied, metricValueStyle), text.New("Satisfied", metricLabelStyle)),
		col.New(3).Add(text.New(fmt.Sprintf("%d ms", result.ElapsedMs), metricValueStyle), text.New("Elapsed", metricLabelStyle)),
	)
	m.AddRow(8)
}

func addScenarioTable(m core.Maroto, scn *topology.Scenario) {
	m.AddRow(10, text.NewCol(12, "Scenario Shape", h2Style))
	m.AddRow(2, line.NewCol(12, props.Line{Color: primaryColor}))
	m.AddRow(5)

	rows := []struct{ key, value string }{
		{"Nodes", fmt.Sprintf("%d", len(scn.Nodes))},
		{"Arcs", fmt.Sprintf("%d", len(scn.Arcs))},
		{"Source", fmt.Sprintf("%d", scn.Source)},
		{"Sink", fmt.Sprintf("%d", scn.Sink)},
		{"Demand", fmt.Sprintf("%d", scn.Demand)},
	}
	for _, r := range rows {
		m.AddRow(6,
			text.NewCol(6, r.key, boldStyle),
			text.NewCol(6, r.value, normalStyle),
		)
	}
}

func addFooter(m core.Maroto) {
	m.AddRow(10)
	m.AddRow(2, line.NewCol(12, props.Line{Color: lightGray}))
	m.AddRow(6,
		text.NewCol(12, fmt.Sprintf("Generated %s", time.Now().Format("2006-01-02 15:04:05")),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Center}),
	)
}
