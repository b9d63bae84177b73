package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docs-ocr/internal/entity"
)

type fakeLister struct {
	jobs  []*entity.Job
	err   error
	since time.Time
}

func (f *fakeLister) ListFinished(_ context.Context, since time.Time) ([]*entity.Job, error) {
	f.since = since
	return f.jobs, f.err
}

func ptr(s string) *string { return &s }

func TestExportJobsXLSX(t *testing.T) {
	finished := time.Date(2024, 6, 2, 15, 4, 5, 0, time.UTC)
	valid := true
	lister := &fakeLister{jobs: []*entity.Job{
		{
			ID:          "11111111-1111-1111-1111-111111111111",
			DocumentKey: "rg",
			Filename:    "rg_teste.jpg",
			FinishedAt:  &finished,
			Result: &entity.Result{
				Success: true,
				Data: &entity.ExtractedFields{
					Fields:          entity.Fields{NomeCompleto: ptr("MARIA DA SILVA"), CPF: ptr("529.982.247-25")},
					FieldsExtracted: 2,
					FieldsTotal:     8,
					ConfidenceScore: 0.13,
					NeedsReview:     []string{"nome_completo"},
				},
				Checks: &entity.DocumentChecks{CPFValid: &valid},
			},
		},
		{ID: "no-result"},
	}}

	out, err := NewService(lister, nil).ExportJobsXLSX(t.Context(), time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), lister.since)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus the one job with a result")
	require.Equal(t, "Job ID", rows[0][0])
	require.Equal(t, "nome_completo", rows[0][4])

	r := rows[1]
	require.Equal(t, "rg", r[1])
	require.Equal(t, "2024-06-02T15:04:05Z", r[3])
	require.Equal(t, "MARIA DA SILVA", r[4])
	require.Equal(t, "529.982.247-25", r[6])
	require.Equal(t, "2", r[12])
	require.Equal(t, "nome_completo", r[14])
	require.Equal(t, "sim", r[15])
}

func TestExportPropagatesStoreError(t *testing.T) {
	_, err := NewService(&fakeLister{err: errors.New("db down")}, nil).ExportJobsXLSX(t.Context(), time.Time{})
	require.ErrorContains(t, err, "db down")
}
