package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// hxReply assembles one htmx answer: status, HX-* headers, client events
// and an HTML body. Handlers chain the setters and finish with send.
type hxReply struct {
	status int
	header http.Header
	events map[string]any
	body   []byte
}

func reply(status int) *hxReply {
	return &hxReply{
		status: status,
		header: make(http.Header),
		events: make(map[string]any),
	}
}

// event queues a client event for the HX-Trigger header.
func (b *hxReply) event(name string, detail any) *hxReply {
	b.events[name] = detail
	return b
}

// datasetUploaded announces a replaced dataset to page scripts.
func (b *hxReply) datasetUploaded(rows int, fileName string) *hxReply {
	return b.event("dataset:uploaded", map[string]any{"rows": rows, "fileName": fileName})
}

// resetForm clears the file input after a successful upload.
func (b *hxReply) resetForm() *hxReply {
	return b.event("form:reset", struct{}{})
}

// pushURL moves the address bar to the shareable view.
func (b *hxReply) pushURL(u string) *hxReply {
	b.header.Set("HX-Push-Url", u)
	return b
}

type notifyLevel string

const (
	levelSuccess notifyLevel = "success"
	levelError   notifyLevel = "error"
)

// notify raises a toast. Errors stay on screen longer.
func (b *hxReply) notify(level notifyLevel, message string) *hxReply {
	duration := 3000
	if level == levelError {
		duration = 5000
	}
	return b.event("show-notification", map[string]any{
		"type":     string(level),
		"message":  message,
		"duration": duration,
	})
}

func (b *hxReply) html(body string) *hxReply {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = []byte(body)
	return b
}

func (b *hxReply) send(w http.ResponseWriter) {
	for name, values := range b.header {
		w.Header()[name] = values
	}
	if len(b.events) > 0 {
		if events, err := json.Marshal(b.events); err == nil {
			w.Header().Set("HX-Trigger", string(events))
		}
	}
	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// errorReply is a bare inline error for when no dashboard can be rendered.
func errorReply(status int, message string) *hxReply {
	return reply(status).html(`<div class="error" role="alert">` + template.HTMLEscapeString(message) + `</div>`)
}

func methodNotAllowed(allow string) *hxReply {
	r := reply(http.StatusMethodNotAllowed)
	r.header.Set("Allow", allow)
	return r
}
