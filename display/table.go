package display

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/qsup/errors"
	"github.com/teranos/qsup/slurm"
)

// JobTableData builds table rows for job records. Live records show their
// queue state; accounting records add the end time.
func JobTableData(records []slurm.JobRecord, withEnd bool) pterm.TableData {
	header := []string{"NAME", "JOB ID", "STATE"}
	if withEnd {
		header = append(header, "END")
	}
	data := pterm.TableData{header}
	for _, r := range records {
		id := "-"
		if r.JobID != 0 {
			id = strconv.FormatInt(r.JobID, 10)
		}
		row := []string{r.Name, id, r.DisplayState()}
		if withEnd {
			end := "-"
			if r.EndTime > 0 {
				end = time.Unix(r.EndTime, 0).Local().Format("2006-01-02 15:04:05")
			}
			row = append(row, end)
		}
		data = append(data, row)
	}
	return data
}

// RenderJobs writes records as a table to w, or a short note when empty.
func RenderJobs(w io.Writer, records []slurm.JobRecord, withEnd bool) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No matching jobs")
		return err
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(JobTableData(records, withEnd)).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render job table")
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
