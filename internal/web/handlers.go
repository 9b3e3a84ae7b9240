package web

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/mcasconvert/internal/batch"
	"github.com/JonMunkholm/mcasconvert/internal/core"
	"github.com/JonMunkholm/mcasconvert/internal/csv"
	"github.com/JonMunkholm/mcasconvert/internal/logging"
)

// SubjectResponse describes one subject in the catalog.
type SubjectResponse struct {
	Key          string   `json:"key"`
	Name         string   `json:"name"`
	Abbrev       string   `json:"abbrev"`
	TestDate     string   `json:"test_date"`
	InputColumns []string `json:"input_columns"`
}

// ColumnsResponse lists the input and output columns of the default pipeline.
type ColumnsResponse struct {
	InputColumns  []string `json:"input_columns"`
	OutputColumns []string `json:"output_columns"`
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status      string        `json:"status"`
	Database    string        `json:"database"`
	Conversions LimiterStatus `json:"conversions"`
}

/* ----------------------------------------
	Catalog
---------------------------------------- */

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects := core.Subjects()
	resp := make([]SubjectResponse, len(subjects))
	for i, subj := range subjects {
		def := subj.Definition()
		resp[i] = SubjectResponse{
			Key:          def.Key,
			Name:         def.DisplayName,
			Abbrev:       def.Abbrev,
			TestDate:     def.TestDate,
			InputColumns: []string{subj.PerfColumn(), subj.ScaledColumn(), subj.CPIColumn()},
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListColumns(w http.ResponseWriter, r *http.Request) {
	cfg := s.pipeline.Config()
	writeJSON(w, http.StatusOK, ColumnsResponse{
		InputColumns:  cfg.InputColumns(),
		OutputColumns: core.ColumnNames(cfg.Columns()),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Database: "disabled", Conversions: s.limiter.Status()}
	status := http.StatusOK

	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			logging.FromContext(r.Context()).Warn("health check: database unavailable", "error", err)
			resp.Status = "degraded"
			resp.Database = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}
	writeJSON(w, status, resp)
}

/* ----------------------------------------
	Conversion
---------------------------------------- */

// handleConvert converts an uploaded export and returns the canonical CSV.
//
// The file is sent either as multipart form field "file" or as the raw
// request body. Query parameters:
//
//	subjects  comma-separated subject keys (default: server configuration)
//	policy    fail or passthrough (default: server configuration)
//	store     true to also write rows to the database
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := s.requestPipeline(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	store, err := parseBoolParam(r, "store")
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	if store && s.sink == nil {
		s.respondError(w, r, fmt.Errorf("%w: storage is not configured", errBadRequest), 0)
		return
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		if errors.Is(err, ErrTooManyConversions) {
			w.Header().Set("Retry-After", "5")
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
				Error:   err.Error(),
				Message: "The service is busy",
				Action:  "Retry in a few seconds",
				Code:    "SRV001",
			})
			return
		}
		s.respondError(w, r, err, 0)
		return
	}
	defer s.limiter.Release()

	name, body, err := readUpload(w, r, s.cfg.MaxUploadSize)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	cfg := p.Config()
	tbl, err := csv.Read(bytes.NewReader(body), csv.OptionsFor(cfg, s.cfg.MaxUploadSize))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	rows, stats, err := p.RunWithStats(tbl.Records)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	var stored int64
	if store {
		sum := sha256.Sum256(body)
		stored, err = s.sink.Store(ctx, batch.Output{
			RunID:    uuid.NewString(),
			Source:   name,
			Checksum: hex.EncodeToString(sum[:]),
			Columns:  cfg.Columns(),
			Rows:     rows,
		})
		if err != nil {
			s.respondError(w, r, fmt.Errorf("store: %w", err), 0)
			return
		}
	}

	var buf bytes.Buffer
	if err := csv.Write(&buf, cfg.Columns(), rows); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	logging.WithFields(ctx, "file", name).Info("upload converted",
		"input_rows", stats.InputRows,
		"output_rows", stats.Output,
		"dropped", stats.Dropped,
		"stored", stored,
	)

	outName := filepath.Base(batch.OutputPath(".", name, "_processed"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outName))
	w.Header().Set("X-Rows-In", strconv.Itoa(stats.InputRows))
	w.Header().Set("X-Rows-Out", strconv.Itoa(stats.Output))
	w.Header().Set("X-Rows-Dropped", strconv.Itoa(stats.Dropped))
	if store {
		w.Header().Set("X-Rows-Stored", strconv.FormatInt(stored, 10))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// requestPipeline returns the server pipeline, or a new one when the request
// overrides subjects or policy.
func (s *Server) requestPipeline(r *http.Request) (*core.Pipeline, error) {
	q := r.URL.Query()
	subjectsParam := q.Get("subjects")
	policyParam := q.Get("policy")
	if subjectsParam == "" && policyParam == "" {
		return s.pipeline, nil
	}

	base := s.pipeline.Config()

	keys := make([]string, 0, len(base.Subjects()))
	for _, subj := range base.Subjects() {
		keys = append(keys, subj.String())
	}
	if subjectsParam != "" {
		keys = keys[:0]
		for _, k := range strings.Split(subjectsParam, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
	}

	policy := base.Policy()
	if policyParam != "" {
		parsed, err := core.ParsePolicy(policyParam)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		policy = parsed
	}

	cfg, err := core.NewConfig(keys, base.Columns(), policy)
	if err != nil {
		var subjErr *core.UnknownSubjectError
		if errors.As(err, &subjErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return core.NewPipeline(cfg)
}

// readUpload returns the uploaded file name and contents, limited to max bytes.
func readUpload(w http.ResponseWriter, r *http.Request, max int64) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, max)

	var (
		name = "upload.csv"
		src  io.Reader
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(max); err != nil {
			return "", nil, uploadError(err)
		}
		defer r.MultipartForm.RemoveAll()
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("%w: multipart field \"file\" is required", errBadRequest)
		}
		defer file.Close()
		if header.Filename != "" {
			name = filepath.Base(header.Filename)
		}
		src = file
	} else {
		if q := r.URL.Query().Get("filename"); q != "" {
			name = filepath.Base(q)
		}
		src = r.Body
	}

	body, err := io.ReadAll(src)
	if err != nil {
		return "", nil, uploadError(err)
	}
	return name, body, nil
}

// uploadError converts a body size overrun into core.ErrFileTooLarge.
func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: request body exceeds %d bytes", core.ErrFileTooLarge, maxErr.Limit)
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

func parseBoolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false", errBadRequest, name)
	}
	return b, nil
}
