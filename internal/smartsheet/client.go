// Package smartsheet is a minimal client for the Smartsheet REST API. It
// fetches sheets by ID or name and converts their cell grid into the
// loosely-typed sheet.Table the analysis pipeline consumes.
package smartsheet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hivelab-data/soma.report/internal/httputil"
	"github.com/hivelab-data/soma.report/internal/monitoring"
	"github.com/hivelab-data/soma.report/internal/sheet"
)

// DefaultBaseURL is the production Smartsheet API endpoint.
const DefaultBaseURL = "https://api.smartsheet.com/2.0"

// APIError is a non-2xx response from the Smartsheet API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("smartsheet: API error %d: %s", e.StatusCode, e.Message)
}

// Client talks to the Smartsheet API with a bearer token.
type Client struct {
	baseURL string
	token   string
	httpc   httputil.Doer
}

// NewClient creates a client. An empty token is a configuration error.
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("smartsheet: access token is required")
	}
	return &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// SetDoer overrides the HTTP transport. Used by tests.
func (c *Client) SetDoer(d httputil.Doer) { c.httpc = d }

// Column is a sheet column descriptor.
type Column struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Cell is one cell of the API grid. Value is a JSON scalar (string, number,
// bool or null).
type Cell struct {
	ColumnID     int64       `json:"columnId"`
	Value        interface{} `json:"value"`
	DisplayValue string      `json:"displayValue"`
}

// GridRow is one row of the API grid.
type GridRow struct {
	ID    int64  `json:"id"`
	Cells []Cell `json:"cells"`
}

// Sheet is the API sheet payload.
type Sheet struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Columns []Column  `json:"columns"`
	Rows    []GridRow `json:"rows"`
}

// SheetInfo is a list-sheets entry.
type SheetInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type sheetList struct {
	Data []SheetInfo `json:"data"`
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("smartsheet: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// SheetByID fetches a sheet by its numeric ID.
func (c *Client) SheetByID(ctx context.Context, id int64) (*Sheet, error) {
	monitoring.Logf("retrieving sheet with ID: %d", id)
	var s Sheet
	if err := c.get(ctx, fmt.Sprintf("/sheets/%d", id), &s); err != nil {
		return nil, err
	}
	monitoring.Logf("retrieved sheet %q (%d rows)", s.Name, len(s.Rows))
	return &s, nil
}

// ListSheets returns all sheets visible to the token.
func (c *Client) ListSheets(ctx context.Context) ([]SheetInfo, error) {
	var list sheetList
	if err := c.get(ctx, "/sheets?includeAll=true", &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// SheetByName lists sheets and fetches the one with an exact name match.
func (c *Client) SheetByName(ctx context.Context, name string) (*Sheet, error) {
	sheets, err := c.ListSheets(ctx)
	if err != nil {
		return nil, err
	}
	for _, info := range sheets {
		if info.Name == name {
			return c.SheetByID(ctx, info.ID)
		}
	}
	return nil, fmt.Errorf("smartsheet: sheet %q not found among %d sheets", name, len(sheets))
}

// Table converts the API grid into a sheet.Table. Typed cell values are
// preferred; cells with only a display value keep it as a string, and cells
// with neither are null.
func (s *Sheet) Table() *sheet.Table {
	titles := make(map[int64]string, len(s.Columns))
	columns := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		titles[col.ID] = col.Title
		columns[i] = col.Title
	}

	t := sheet.NewTable(columns)
	for _, gr := range s.Rows {
		row := make(sheet.Row, len(gr.Cells))
		for _, cell := range gr.Cells {
			title, ok := titles[cell.ColumnID]
			if !ok {
				continue
			}
			switch {
			case cell.Value != nil:
				row[title] = sheet.FromAny(cell.Value)
			case cell.DisplayValue != "":
				row[title] = sheet.String(cell.DisplayValue)
			default:
				row[title] = sheet.Null()
			}
		}
		t.Append(row)
	}
	return t
}
