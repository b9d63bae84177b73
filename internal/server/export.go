package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/joseph-ayodele/docs-ocr/internal/common"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Parâmetro 'since' deve estar no formato YYYY-MM-DD.")
			return
		}
		since = t
	}

	data, err := s.exporter.ExportJobsXLSX(r.Context(), since)
	if err != nil {
		s.logger.Error("export failed", "request_id", common.RequestIDFromContext(r.Context()), "error", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Erro ao exportar jobs: %v", err))
		return
	}

	name := "ocr-jobs.xlsx"
	if !since.IsZero() {
		name = "ocr-jobs-" + since.Format("2006-01-02") + ".xlsx"
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
