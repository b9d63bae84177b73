package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/docs-ocr/constants"
	"github.com/joseph-ayodele/docs-ocr/internal/common"
	"github.com/joseph-ayodele/docs-ocr/internal/entity"
)

// JobStatusResponse is the polling view of a job.
type JobStatusResponse struct {
	JobID  string              `json:"job_id"`
	Status constants.JobStatus `json:"status"`
	Result *entity.Result      `json:"result"`
	Error  *entity.JobError    `json:"error"`
}

func statusView(job *entity.Job) JobStatusResponse {
	out := JobStatusResponse{JobID: job.ID, Status: job.Status}
	if !job.Status.Terminal() {
		return out
	}
	if job.Status == constants.JobStatusFinished {
		out.Result = job.Result
	} else {
		out.Error = job.Error
	}
	return out
}

// jobID reads the job_id route variable. Ids are UUIDs, so anything else
// cannot name a job and is reported as not found.
func jobID(r *http.Request) (string, bool) {
	id := mux.Vars(r)["job_id"]
	if common.NewValidator().Field("job_id", id, common.UUID).HasErrors() {
		return id, false
	}
	return id, true
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(r)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Job não encontrado.")
		return
	}
	job, err := s.queue.Fetch(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Job não encontrado.")
			return
		}
		s.logger.Error("fetch job failed", "request_id", common.RequestIDFromContext(r.Context()), "job_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Erro ao buscar status do job: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, statusView(job))
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(r)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Job não encontrado.")
		return
	}
	job, err := s.queue.Cancel(r.Context(), id)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, statusView(job))
	case errors.Is(err, common.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "Job não encontrado.")
	case errors.Is(err, common.ErrConflict):
		s.writeError(w, http.StatusConflict, "Apenas jobs na fila podem ser cancelados.")
	default:
		s.logger.Error("cancel job failed", "request_id", common.RequestIDFromContext(r.Context()), "job_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Erro ao cancelar o job: %v", err))
	}
}
