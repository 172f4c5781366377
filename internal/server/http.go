// ABOUTME: HTTP handlers for health checks and one-shot analysis
// ABOUTME: Parses multipart uploads and maps failures to localized error bodies
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/oli8788/stek-meeting-minutes/internal/analysis"
	"github.com/oli8788/stek-meeting-minutes/internal/metrics"
	"github.com/oli8788/stek-meeting-minutes/pkg/inference"
	"github.com/oli8788/stek-meeting-minutes/pkg/minutes"
)

const (
	// multipartMemory is how much of a form is held in memory before
	// spilling to temp files
	multipartMemory = 32 << 20

	maxReportBytes = 10 << 20
)

type ctxKey int

const requestIDKey ctxKey = iota

// errorBody is the JSON error shape of the HTTP API
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	RawText string `json:"rawText,omitempty"`
}

// segment is one entry of the chunks form field
type segment struct {
	FileURI  string `json:"fileUri"`
	MIMEType string `json:"mimeType"`
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}

// handleAnalyze accepts a multipart form with file, chunks or fileUris
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.service == nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: missingKeyMessage(s.config.Backend)})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "upload too large", Details: "SizeExceeded"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid form: " + err.Error()})
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, err := s.analysisRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if req.Upload == nil && len(req.Segments) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "No file or URIs provided"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	res, err := s.service.Analyze(ctx, req, nil)
	if res != nil {
		w.Header().Set("X-Audio-Compressed", strconv.FormatBool(res.Compressed()))
	} else {
		w.Header().Set("X-Audio-Compressed", "false")
	}
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("http", analysis.ErrorKind(err)).Inc()
		s.failed.Add(1)
		writeJSON(w, http.StatusInternalServerError, failureBody(err))
		return
	}

	metrics.AnalysesTotal.WithLabelValues("http", "ok").Inc()
	s.completed.Add(1)
	writeJSON(w, http.StatusOK, res.Report)
}

// analysisRequest reads chunks, then legacy fileUris, then file
func (s *Server) analysisRequest(r *http.Request) (analysis.Request, error) {
	req := analysis.Request{ID: requestID(r.Context())}

	if chunks := r.FormValue("chunks"); chunks != "" {
		var segs []segment
		if err := json.Unmarshal([]byte(chunks), &segs); err != nil {
			return req, errors.New("invalid chunks: " + err.Error())
		}
		for _, sg := range segs {
			req.Segments = append(req.Segments, inference.Part{FileURI: sg.FileURI, MIMEType: sg.MIMEType})
		}
		return req, nil
	}

	if uris := r.FormValue("fileUris"); uris != "" {
		var list []string
		if err := json.Unmarshal([]byte(uris), &list); err != nil {
			return req, errors.New("invalid fileUris: " + err.Error())
		}
		for _, u := range list {
			req.Segments = append(req.Segments, inference.Part{FileURI: u, MIMEType: "audio/wav"})
		}
		return req, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, nil
		}
		return req, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return req, errors.New("failed to read upload: " + err.Error())
	}
	if len(data) == 0 {
		return req, nil
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "application/octet-stream" {
		mimeType = ""
	}
	s.logger.Info("analyzing direct file upload",
		"request_id", req.ID,
		"file", header.Filename,
		"mb", float64(len(data))/1024/1024)

	req.Upload = &analysis.Upload{
		FileName: header.Filename,
		MIMEType: mimeType,
		Data:     data,
		Compress: s.config.CompressUploads,
	}
	return req, nil
}

func failureBody(err error) errorBody {
	var pe *minutes.ParseError
	if errors.As(err, &pe) {
		return errorBody{Error: "Failed to parse structured output", RawText: pe.Raw}
	}
	msg := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "analysis timed out"
	}
	return errorBody{Error: msg, Details: analysis.ErrorKind(err)}
}

// handleCompress runs the speech pipeline on the request body
func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes+1))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: err.Error(), Details: "SizeExceeded"})
		return
	}

	start := time.Now()
	// headerless PCM declares its shape in Content-Type
	blob, err := s.compressor.CompressAs(r.Context(), data, r.Header.Get("Content-Type"))
	metrics.StageDuration.WithLabelValues("compress").Observe(time.Since(start).Seconds())
	if err != nil {
		kind := analysis.ErrorKind(err)
		metrics.Errors.WithLabelValues("compress", kind).Inc()
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Details: kind})
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	w.Header().Set("X-Original-Bytes", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(blob)
}

// handleExport renders a report JSON body as an attachment
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")
	if !minutes.ValidFormat(format) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unsupported export format: " + format})
		return
	}
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = minutes.LangKO
	}
	if !minutes.ValidLang(lang) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unsupported language: " + lang})
		return
	}

	var report minutes.Report
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReportBytes)).Decode(&report); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid report: " + err.Error()})
		return
	}

	exp, err := minutes.Render(&report, lang, format, s.config.PDF)
	if err != nil {
		metrics.Errors.WithLabelValues("export", format).Inc()
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	metrics.Exports.WithLabelValues(format).Inc()

	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exp.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(exp.Data)
}

// handleModels lists the models the backend can generate with
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if s.service == nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: missingKeyMessage(s.config.Backend)})
		return
	}
	if s.models == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "model listing is not supported by " + s.backendName()})
		return
	}

	names, err := s.models.ListModels(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"models": names})
}
