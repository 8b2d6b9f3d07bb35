package http

import (
	"errors"
	"net/http"
	"time"

	"hrdash/internal/dashboard"
	"hrdash/internal/log"
	"hrdash/internal/metrics"
	"hrdash/internal/session"
	"hrdash/internal/sheet"
)

// uploadError is a rejected upload: the status for plain posts, the inline
// message and the metric outcome.
type uploadError struct {
	status    int
	message   string
	outcome   string
	errorType string
	err       error
}

// handleUpload replaces the session dataset with the uploaded workbook. On
// any failure the previous dataset stays in place.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed("POST").send(w)
		return
	}

	// The page carries the session in the query string so a body that
	// cannot be read still answers within that session.
	id, prev := s.lookupSession(r.URL.Query().Get("session"))
	f := filterFrom(r.URL.Query().Get)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.rejectUpload(w, r, id, prev, f, "", "", uploadError{
				status: http.StatusRequestEntityTooLarge, message: msgTooLarge,
				outcome: metrics.OutcomeTooLarge, errorType: log.ErrorTypeTooLarge, err: err,
			})
			return
		}
		s.rejectUpload(w, r, id, prev, f, "", "", uploadError{
			status: http.StatusBadRequest, message: msgBadRequest,
			outcome: metrics.OutcomeBadRequest, errorType: log.ErrorTypeValidation, err: err,
		})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	if formID := r.PostFormValue("session"); formID != "" && formID != id {
		id, prev = s.lookupSession(formID)
	}
	f = parseFilter(r)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.rejectUpload(w, r, id, prev, f, "", "", uploadError{
			status: http.StatusBadRequest, message: msgNoFile,
			outcome: metrics.OutcomeBadRequest, errorType: log.ErrorTypeValidation, err: err,
		})
		return
	}
	defer file.Close()

	fileName := sanitizeFileName(header.Filename)
	contentType := header.Header.Get("Content-Type")

	start := time.Now()
	table, err := sheet.Parse(file, contentType)
	if err == nil {
		metrics.ParseDuration.WithLabelValues(formatLabel(contentType)).Observe(time.Since(start).Seconds())
	}
	if err == nil && s.strict {
		err = s.derive.Schema.Check(table.Headers)
	}
	if err != nil {
		s.rejectUpload(w, r, id, prev, f, fileName, contentType, classifyUploadError(err))
		return
	}

	st := session.State{
		Rows:       table.Rows,
		Headers:    table.Headers,
		Sheet:      table.Sheet,
		FileName:   fileName,
		UploadedAt: time.Now(),
	}
	s.store.Put(id, st)

	metrics.UploadsTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
	metrics.UploadedRows.Observe(float64(len(table.Rows)))
	s.events.LogUploadAccepted(r.Context(), id, fileName, contentType, table.Sheet, header.Size, len(table.Rows))

	if !isHTMX(r) {
		http.Redirect(w, r, pageURL(id, f), http.StatusSeeOther)
		return
	}

	v, _ := s.view(r, id, st, f)
	v.SwapSession = true
	body, err := s.renderPartial(v)
	if err != nil {
		s.logTemplateError(r, "dashboard", err)
		errorReply(http.StatusInternalServerError, "Could not render the dashboard.").send(w)
		return
	}
	reply(http.StatusOK).
		datasetUploaded(len(table.Rows), fileName).
		notify(levelSuccess, "Loaded "+fileName).
		resetForm().
		pushURL(pageURL(id, f)).
		html(body).
		send(w)
}

func classifyUploadError(err error) uploadError {
	switch {
	case errors.Is(err, sheet.ErrUnsupportedType):
		return uploadError{
			status: http.StatusUnsupportedMediaType, message: msgInvalidType,
			outcome: metrics.OutcomeUnsupported, errorType: log.ErrorTypeUnsupported, err: err,
		}
	case errors.Is(err, dashboard.ErrMissingColumns):
		return uploadError{
			status: http.StatusUnprocessableEntity, message: msgMissingColumns + missingDetail(err),
			outcome: metrics.OutcomeMissingCols, errorType: log.ErrorTypeValidation, err: err,
		}
	default:
		return uploadError{
			status: http.StatusUnprocessableEntity, message: msgParseFailed,
			outcome: metrics.OutcomeParseError, errorType: log.ErrorTypeParse, err: err,
		}
	}
}

// missingDetail strips the sentinel prefix from a missing-columns error.
func missingDetail(err error) string {
	msg := err.Error()
	prefix := dashboard.ErrMissingColumns.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}

// rejectUpload answers a failed upload with the unchanged dashboard and an
// inline error. htmx requests always get 200 so the partial is swapped in.
func (s *Server) rejectUpload(w http.ResponseWriter, r *http.Request, id string, prev session.State, f dashboard.Filter, fileName, contentType string, ue uploadError) {
	metrics.UploadsTotal.WithLabelValues(ue.outcome).Inc()
	s.events.LogUploadRejected(r.Context(), id, fileName, contentType, ue.err, ue.errorType)

	v, _ := s.view(r, id, prev, f)
	v.Error = ue.message

	if !isHTMX(r) {
		s.renderPage(w, r, ue.status, v)
		return
	}

	v.SwapSession = true
	body, err := s.renderPartial(v)
	if err != nil {
		s.logTemplateError(r, "dashboard", err)
		errorReply(ue.status, ue.message).notify(levelError, ue.message).send(w)
		return
	}
	reply(http.StatusOK).
		notify(levelError, ue.message).
		html(body).
		send(w)
}
