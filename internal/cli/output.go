package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"sales_targets/internal/iiko"
	"sales_targets/internal/report"
	"sales_targets/internal/targets"
)

type departmentOutput struct {
	Department string                 `json:"department"`
	Rows       int                    `json:"rows"`
	Categories []report.CategoryTotal `json:"categories"`
}

type reportOutput struct {
	From        string              `json:"from"`
	To          string              `json:"to"`
	SyncedAt    time.Time           `json:"synced_at"`
	Department  string              `json:"department,omitempty"`
	Rows        int                 `json:"rows"`
	Departments []departmentOutput  `json:"departments"`
	Targets     *targets.FormResult `json:"targets,omitempty"`
	Progress    []targets.Progress  `json:"progress,omitempty"`
	Digest      string              `json:"digest,omitempty"`
}

// newReportOutput renders every department, or only department when it is
// not empty.
func newReportOutput(model *report.Model, department string) (reportOutput, error) {
	out := reportOutput{
		From:     model.Range.Start.Format(iiko.DateLayout),
		To:       model.Range.End.Format(iiko.DateLayout),
		SyncedAt: model.SyncedAt,
		Rows:     model.Len(),
	}

	departments := model.Departments()
	if department = strings.TrimSpace(department); department != "" {
		if !slices.Contains(departments, department) {
			return reportOutput{}, fmt.Errorf("%w: %q", ErrUnknownDepartment, department)
		}
		departments = []string{department}
		out.Department = department
		out.Rows = len(model.Rows(department))
	}

	for _, dept := range departments {
		out.Departments = append(out.Departments, departmentOutput{
			Department: dept,
			Rows:       len(model.Rows(dept)),
			Categories: model.CategoryTotals(dept),
		})
	}
	return out, nil
}

func progressFor(progress []targets.Progress, department string) []targets.Progress {
	if department == "" {
		return progress
	}
	var out []targets.Progress
	for _, p := range progress {
		if p.BranchID == department {
			out = append(out, p)
		}
	}
	return out
}

// readTargetsFile reads a form body as the targets page posts it; newlines
// are accepted as separators in addition to '&'.
func readTargetsFile(path string) (url.Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}
	var pairs []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pairs = append(pairs, line)
	}
	form, err := url.ParseQuery(strings.Join(pairs, "&"))
	if err != nil {
		return nil, fmt.Errorf("parse targets file: %w", err)
	}
	return form, nil
}

func writeJSON(w io.Writer, out reportOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeHuman(w io.Writer, out reportOutput) error {
	fmt.Fprintf(w, "Отчет: %s..%s (строк: %d)\n", out.From, out.To, out.Rows)
	if out.Department != "" {
		fmt.Fprintf(w, "Филиал: %s\n", out.Department)
	}
	if len(out.Departments) == 0 {
		fmt.Fprintln(w, "- (нет продаж за период)")
	}
	for _, dept := range out.Departments {
		fmt.Fprintf(w, "\n%s (строк: %d)\n", dept.Department, dept.Rows)
		for _, cat := range dept.Categories {
			fmt.Fprintf(w, "  - %s: %g\n", cat.Category, cat.Amount)
		}
	}

	if out.Targets != nil {
		fmt.Fprintf(w, "\nПланы: применено %d, пропущено %d\n", out.Targets.Applied, out.Targets.Skipped)
		for _, p := range out.Progress {
			fmt.Fprintf(w, "- %s #%d %s, %s: %g из %g / %g%s\n",
				p.BranchID, p.Position+1, orDash(p.EmployeeSurname), p.Category,
				p.Actual, p.Target1, p.Target2, progressMark(p))
		}
	}

	if out.Digest != "" {
		fmt.Fprintln(w, "\nСводка:")
		fmt.Fprintf(w, "- %s\n", out.Digest)
	}
	return nil
}

func progressMark(p targets.Progress) string {
	switch {
	case p.Reached2:
		return " ✔✔"
	case p.Reached1:
		return " ✔"
	default:
		return ""
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
