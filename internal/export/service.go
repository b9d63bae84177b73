package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docs-ocr/constants"
	"github.com/joseph-ayodele/docs-ocr/internal/entity"
)

// SheetName is the worksheet holding one row per finished job.
const SheetName = "Documentos"

// JobLister is the slice of the job repository the export needs.
type JobLister interface {
	ListFinished(ctx context.Context, since time.Time) ([]*entity.Job, error)
}

// Service produces XLSX bytes for finished jobs.
type Service struct {
	jobs   JobLister
	logger *slog.Logger
}

func NewService(jobs JobLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, logger: logger}
}

// ExportJobsXLSX returns a workbook of jobs finished on or after since.
// A zero since exports every finished job still retained.
func (s *Service) ExportJobsXLSX(ctx context.Context, since time.Time) ([]byte, error) {
	start := time.Now()
	if !since.IsZero() {
		since = time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, time.UTC)
	}

	jobs, err := s.jobs.ListFinished(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	headers := []string{"Job ID", "Chave", "Arquivo", "Finalizado em"}
	headers = append(headers, constants.DocumentFields()...)
	headers = append(headers, "Campos extraídos", "Confiança", "Revisar", "CPF válido", "CNPJ válido")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	row := 2
	for _, j := range jobs {
		if j.Result == nil || j.Result.Data == nil {
			continue
		}
		data := j.Result.Data
		col := 1
		write := func(v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
			col++
		}

		write(j.ID)
		write(j.DocumentKey)
		write(j.Filename)
		if j.FinishedAt != nil {
			write(j.FinishedAt.UTC().Format(time.RFC3339))
		} else {
			write("")
		}
		for _, name := range constants.DocumentFields() {
			write(deref(data.Get(name)))
		}
		write(data.FieldsExtracted)
		write(data.ConfidenceScore)
		write(strings.Join(data.NeedsReview, ", "))
		var cpfValid, cnpjValid string
		if c := j.Result.Checks; c != nil {
			cpfValid, cnpjValid = yesNo(c.CPFValid), yesNo(c.CNPJValid)
		}
		write(cpfValid)
		write(cnpjValid)
		row++
	}

	_ = f.SetColWidth(SheetName, "A", "A", 38) // job id
	_ = f.SetColWidth(SheetName, "B", "C", 20) // key, filename
	_ = f.SetColWidth(SheetName, "D", "D", 22) // finished at
	_ = f.SetColWidth(SheetName, "E", "L", 24) // fields
	_ = f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", row-2,
		"since", since,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b *bool) string {
	switch {
	case b == nil:
		return ""
	case *b:
		return "sim"
	default:
		return "não"
	}
}
