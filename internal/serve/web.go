package serve

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.App}}</title></head>
<body>
<h1>{{.App}}</h1>
<p>{{.Records}} records buffered, {{.Clients}} client(s) connected, up {{.Uptime}}.</p>
<p>Connect a viewer to <code>ws://{{.WSAddr}}/ws</code>. The stream is CBOR
binary messages: a hello frame, the buffered records, then live records.</p>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	data := struct {
		App     string
		Records int
		Clients int
		Uptime  string
		WSAddr  string
	}{
		App:     s.app,
		Records: s.BacklogLen(),
		Clients: s.ClientCount(),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		WSAddr:  s.WSAddr(),
	}
	if err := indexTemplate.Execute(w, data); err != nil {
		http.Error(w, "render index: "+err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	status := struct {
		App     string  `json:"app"`
		Records int     `json:"records"`
		Clients int     `json:"clients"`
		Uptime  float64 `json:"uptime_seconds"`
	}{
		App:     s.app,
		Records: s.BacklogLen(),
		Clients: s.ClientCount(),
		Uptime:  time.Since(s.started).Seconds(),
	}
	json.NewEncoder(w).Encode(status)
}
