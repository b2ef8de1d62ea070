package export

import (
	"fmt"
	"io"
	"time"

	"github.com/macrat/ssdash/internal/view"
	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the sheet in the xlsx file.
const SheetName = "history"

func excelPos(x, y uint) string {
	pos, err := excelize.CoordinatesToCellName(int(x+1), int(y+1))
	if err != nil {
		panic(err)
	}
	return pos
}

var statusColors = map[view.Status]string{
	view.StatusUp:       "89C923",
	view.StatusDegraded: "DDA100",
	view.StatusDown:     "FF2D00",
}

// ToXlsx writes rows as an Excel workbook.
// Times are converted to the location of createdAt.
func ToXlsx(w io.Writer, rows []Row, createdAt time.Time) error {
	xlsx := excelize.NewFile()
	defer xlsx.Close()
	if err := xlsx.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	xlsx.SetAppProps(&excelize.AppProperties{
		Application: "ssdash",
	})
	xlsx.SetDocProps(&excelize.DocProperties{
		Created:        createdAt.Format(time.RFC3339),
		Modified:       createdAt.Format(time.RFC3339),
		Creator:        "ssdash",
		LastModifiedBy: "ssdash",
	})

	zone, _ := createdAt.Zone()
	headers := []string{
		fmt.Sprintf("time (%s)", zone),
		"endpoint_id",
		"name",
		"status",
		"reachable",
		"tcp_latency",
		"tcp_error",
		"protocol",
		"protocol_latency",
		"protocol_error",
	}
	for x, h := range headers {
		xlsx.SetCellStr(SheetName, excelPos(uint(x), 0), h)
	}

	styles := make(map[string]int)
	styleOf := func(color string, border int, format string) int {
		key := fmt.Sprintf("%s/%d/%s", color, border, format)
		if id, ok := styles[key]; ok {
			return id
		}
		st := &excelize.Style{
			Border: []excelize.Border{{Type: "bottom", Style: border, Color: color}},
		}
		if format != "" {
			st.CustomNumFmt = &format
		}
		id, _ := xlsx.NewStyle(st)
		styles[key] = id
		return id
	}

	setValue := func(x, y uint, value any, color string, border int, format string) {
		pos := excelPos(x, y)
		if value != nil {
			xlsx.SetCellValue(SheetName, pos, value)
		}
		xlsx.SetCellStyle(SheetName, pos, pos, styleOf(color, border, format))
	}
	latency := func(ms *float64) any {
		if ms == nil {
			return nil
		}
		return *ms
	}
	datefmt := "yyyy-mm-dd hh:mm:ss"
	latencyfmt := "#,##0.000 \"ms\""

	for i, r := range rows {
		y := uint(i + 1)
		color := statusColors[r.Status]

		setValue(0, y, r.Time.In(createdAt.Location()), color, 1, datefmt)
		setValue(1, y, r.EndpointID, color, 1, "")
		setValue(2, y, r.Name, color, 1, "")
		setValue(3, y, string(r.Status), color, 5, "")
		setValue(4, y, r.Reachable, color, 1, "")
		setValue(5, y, latency(r.TCPLatencyMs), color, 1, latencyfmt)
		setValue(6, y, r.TCPError, color, 1, "")
		setValue(7, y, r.Protocol, color, 1, "")
		setValue(8, y, latency(r.ProtocolLatencyMs), color, 1, latencyfmt)
		setValue(9, y, r.ProtocolError, color, 1, "")
	}

	if err := xlsx.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	xlsx.SetColWidth(SheetName, "A", "A", 20)
	xlsx.SetColWidth(SheetName, "B", "B", 38)
	xlsx.SetColWidth(SheetName, "C", "C", 20)
	xlsx.SetColWidth(SheetName, "F", "F", 15)
	xlsx.SetColWidth(SheetName, "G", "G", 30)
	xlsx.SetColWidth(SheetName, "I", "I", 15)
	xlsx.SetColWidth(SheetName, "J", "J", 30)

	if err := xlsx.AutoFilter(SheetName, "A1:"+excelPos(uint(len(headers)-1), 0), nil); err != nil {
		return err
	}

	return xlsx.Write(w)
}
