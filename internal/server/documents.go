package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/joseph-ayodele/docs-ocr/constants"
	"github.com/joseph-ayodele/docs-ocr/internal/common"
	"github.com/joseph-ayodele/docs-ocr/internal/entity"
)

const (
	filesField = "files"
	keysField  = "document_keys"
	// maxKeyBytes caps a document_keys value.
	maxKeyBytes = 256
)

// EnqueuedJob is one entry of the process-documents response.
type EnqueuedJob struct {
	DocumentKey string  `json:"document_key"`
	Filename    string  `json:"filename"`
	JobID       *string `json:"job_id"`
	Error       string  `json:"error,omitempty"`
}

type processResponse struct {
	Message string        `json:"message"`
	Jobs    []EnqueuedJob `json:"jobs"`
}

type upload struct {
	field       string
	filename    string
	contentType string
	content     []byte
	index       int // position among "files" parts, -1 otherwise
}

// DocumentKey derives a key from a filename: the prefix before the first "_",
// or the whole name when there is none ("rg_teste.jpg" -> "rg").
func DocumentKey(filename string) string {
	if key, _, ok := strings.Cut(filename, "_"); ok {
		return key
	}
	return filename
}

func (s *Server) handleProcessDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize)

	uploads, keys, err := readUploads(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Arquivo excede o tamanho máximo permitido de %d bytes.", s.cfg.MaxFileSize))
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			s.logger.Warn("read multipart failed", "request_id", common.RequestIDFromContext(ctx), "error", err)
			s.writeError(w, http.StatusBadRequest, "Erro ao ler o upload: "+err.Error())
			return
		}
	}
	if len(uploads) == 0 {
		s.writeError(w, http.StatusBadRequest, "Nenhum arquivo enviado.")
		return
	}

	// validate everything before enqueueing anything
	for _, u := range uploads {
		if constants.MapContentTypeToFormat(u.contentType) == "" {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf(
				"Tipo de arquivo '%s' para '%s' não suportado. Apenas imagens e PDFs são permitidos.",
				u.contentType, u.filename))
			return
		}
	}

	jobs := make([]EnqueuedJob, 0, len(uploads))
	for _, u := range uploads {
		key := u.field
		if u.field == filesField {
			key = DocumentKey(u.filename)
			if u.index < len(keys) && strings.TrimSpace(keys[u.index]) != "" {
				key = strings.TrimSpace(keys[u.index])
			}
		}

		entry := EnqueuedJob{DocumentKey: key, Filename: u.filename}
		job, err := s.queue.Enqueue(ctx, entity.Document{
			Key:         key,
			Filename:    u.filename,
			ContentType: constants.NormalizeContentType(u.contentType),
			Content:     u.content,
		})
		if err != nil {
			s.logger.Error("enqueue failed", "request_id", common.RequestIDFromContext(ctx), "filename", u.filename, "error", err)
			entry.Error = err.Error()
		} else {
			entry.JobID = &job.ID
		}
		jobs = append(jobs, entry)
	}

	s.writeJSON(w, http.StatusAccepted, processResponse{
		Message: "Documentos enfileirados para processamento.",
		Jobs:    jobs,
	})
}

// readUploads streams the multipart body, keeping part order.
func readUploads(r *http.Request) ([]upload, []string, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, nil, err
	}

	var (
		uploads []upload
		keys    []string
		files   int
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return uploads, keys, nil
		}
		if err != nil {
			return nil, nil, err
		}

		if part.FileName() == "" {
			if part.FormName() == keysField {
				v, err := io.ReadAll(io.LimitReader(part, maxKeyBytes))
				if err != nil {
					return nil, nil, err
				}
				keys = append(keys, string(v))
			}
			_ = part.Close()
			continue
		}

		u, err := readFilePart(part)
		if err != nil {
			return nil, nil, err
		}
		u.index = -1
		if u.field == filesField {
			u.index = files
			files++
		}
		uploads = append(uploads, u)
	}
}

func readFilePart(part *multipart.Part) (upload, error) {
	defer func() { _ = part.Close() }()
	content, err := io.ReadAll(part)
	if err != nil {
		return upload{}, err
	}
	return upload{
		field:       part.FormName(),
		filename:    part.FileName(),
		contentType: part.Header.Get("Content-Type"),
		content:     content,
	}, nil
}
