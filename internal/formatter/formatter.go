// package formatter renders cache listings and ledger rows as tables, CSV, or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/desertthunder/tri/internal/models"
	"github.com/desertthunder/tri/internal/tasks"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Output formats accepted by the list commands.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

// Alignment of a table column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Sheet is a rendered listing: column headers, string rows, and the records
// they came from for JSON output.
type Sheet struct {
	Headers []string
	Rows    [][]string
	Aligns  []Alignment
	Records any
}

// Write renders s to w in format. An empty format means [FormatTable].
func Write(w io.Writer, format string, s Sheet) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case "", FormatTable:
		data = []byte(RenderTable(s.Headers, s.Rows, s.Aligns) + "\n")
	case FormatCSV:
		data, err = ToCSV(s.Headers, s.Rows)
	case FormatJSON:
		data, err = json.MarshalIndent(s.Records, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, FormatTable, FormatCSV, FormatJSON)
	}
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}

// RenderTable draws a rounded table. Short rows are padded with empty cells.
func RenderTable(headers []string, rows [][]string, aligns []Alignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// ToCSV writes headers and rows as CSV.
func ToCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

type cacheRecord struct {
	Hash      string      `json:"hash"`
	Tier      models.Tier `json:"tier"`
	Extension string      `json:"extension"`
	Path      string      `json:"path"`
	Size      int64       `json:"size"`
	Modified  time.Time   `json:"modified"`
}

// CacheSheet lists persisted artifacts with human-readable sizes.
func CacheSheet(entries []tasks.CacheEntry) Sheet {
	rows := make([][]string, len(entries))
	records := make([]cacheRecord, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Hash, string(e.Tier), e.Extension, humanize.Bytes(uint64(e.Size)), humanize.Time(e.ModTime), e.Path}
		records[i] = cacheRecord{e.Hash, e.Tier, e.Extension, e.Path, e.Size, e.ModTime}
	}

	return Sheet{
		Headers: []string{"Hash", "Tier", "Ext", "Size", "Modified", "Path"},
		Rows:    rows,
		Aligns:  []Alignment{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignLeft},
		Records: records,
	}
}

type jobRecord struct {
	ID          string        `json:"id"`
	Sequence    int           `json:"sequence"`
	TrackID     string        `json:"track_id,omitempty"`
	Hash        string        `json:"hash"`
	State       string        `json:"state"`
	Tiers       []models.Tier `json:"tiers,omitempty"`
	Partial     bool          `json:"partial,omitempty"`
	Error       string        `json:"error,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// JobSheet lists ledger rows, one per download request.
func JobSheet(jobs []*models.DownloadJob) Sheet {
	rows := make([][]string, len(jobs))
	records := make([]jobRecord, len(jobs))
	for i, j := range jobs {
		duration := "-"
		if j.CompletedAt() != nil {
			duration = j.Duration().Round(time.Millisecond).String()
		}
		tiers := models.JoinTiers(j.Tiers())
		if j.Partial() {
			tiers += " (partial)"
		}

		rows[i] = []string{
			strconv.Itoa(j.Sequence()), j.ContentHash(), j.TrackID(), string(j.State()), tiers,
			humanize.Time(j.StartedAt()), duration, j.ErrorMessage(),
		}
		records[i] = jobRecord{
			ID: j.ID(), Sequence: j.Sequence(), TrackID: j.TrackID(), Hash: j.ContentHash(),
			State: string(j.State()), Tiers: j.Tiers(), Partial: j.Partial(), Error: j.ErrorMessage(),
			StartedAt: j.StartedAt(), CompletedAt: j.CompletedAt(),
		}
	}

	return Sheet{
		Headers: []string{"#", "Hash", "Track", "State", "Tiers", "Started", "Duration", "Error"},
		Rows:    rows,
		Aligns:  []Alignment{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft},
		Records: records,
	}
}

// ArtifactSheet lists the files a single download wrote.
func ArtifactSheet(artifacts []models.PersistedArtifact) Sheet {
	rows := make([][]string, len(artifacts))
	for i, a := range artifacts {
		rows[i] = []string{string(a.Tier), a.Format.String(), humanize.Bytes(uint64(a.Size)), a.Path}
	}

	return Sheet{
		Headers: []string{"Tier", "Format", "Size", "Path"},
		Rows:    rows,
		Aligns:  []Alignment{AlignLeft, AlignLeft, AlignRight, AlignLeft},
		Records: artifacts,
	}
}
