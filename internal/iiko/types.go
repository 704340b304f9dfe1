package iiko

import (
	"bytes"
	"encoding/json"
	"strings"
)

type Credentials struct {
	Server   string `json:"server" validate:"required,url"`
	User     string `json:"user" validate:"required_without=Token"`
	Password string `json:"-" validate:"required_with=User"`
	Token    string `json:"-"`
}

// ReportRow is one OLAP row grouped by the sales dimensions we request.
type ReportRow struct {
	Cashier      string     `json:"Cashier"`
	Department   string     `json:"Department"`
	OrderNum     FlexString `json:"OrderNum"`
	DishName     string     `json:"DishName"`
	DishCategory string     `json:"DishCategory"`
	DishAmount   float64    `json:"DishAmountInt"`
}

// FlexString accepts a JSON string or number; iiko returns order numbers as
// numbers but older servers quote them.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

type olapRequest struct {
	ReportType       string                `json:"reportType"`
	BuildSummary     string                `json:"buildSummary"`
	GroupByRowFields []string              `json:"groupByRowFields"`
	Filters          map[string]olapFilter `json:"filters"`
}

type olapFilter struct {
	FilterType  string   `json:"filterType"`
	PeriodType  string   `json:"periodType,omitempty"`
	From        string   `json:"from,omitempty"`
	To          string   `json:"to,omitempty"`
	IncludeLow  *bool    `json:"includeLow,omitempty"`
	IncludeHigh *bool    `json:"includeHigh,omitempty"`
	Values      []string `json:"values,omitempty"`
}

type olapResponse struct {
	Data []ReportRow `json:"data"`
}

var salesRowFields = []string{
	"Cashier",
	"Department",
	"OrderNum",
	"DishName",
	"DishCategory",
	"DishAmountInt",
}

func newSalesRequest(rng DateRange) olapRequest {
	inclusive := true
	return olapRequest{
		ReportType:       "SALES",
		BuildSummary:     "false",
		GroupByRowFields: salesRowFields,
		Filters: map[string]olapFilter{
			"OpenDate.Typed": {
				FilterType:  "DateRange",
				PeriodType:  "CUSTOM",
				From:        rng.Start.Format(DateLayout),
				To:          rng.End.Format(DateLayout),
				IncludeLow:  &inclusive,
				IncludeHigh: &inclusive,
			},
			"DeletedWithWriteoff": {
				FilterType: "ExcludeValues",
				Values:     []string{"DELETED_WITH_WRITEOFF", "DELETED_WITHOUT_WRITEOFF"},
			},
			"OrderDeleted": {
				FilterType: "IncludeValues",
				Values:     []string{"NOT_DELETED"},
			},
		},
	}
}
