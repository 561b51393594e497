// Copyright 2020 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package server

import (
	"html/template"
	"net/http"

	"github.com/golang/glog"
)

var statusTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head>
<title>ml2eigen on {{.BindAddress}}</title>
</head>
<body>
<h1>ml2eigen on {{.BindAddress}}</h1>
<p>Build: {{.BuildInfo}}</p>
<p>Metrics: <a href="/metrics">prometheus</a>, <a href="/debug/vars">debug/vars</a></p>
<p>Traces: <a href="/tracez">tracez</a>, <a href="/rpcz">rpcz</a></p>
<h2>Watched sources</h2>
<ul>
{{range .SourceDirs}}<li>{{.}}</li>
{{end}}</ul>
<p>Output: {{if .OutDir}}{{.OutDir}}{{else}}beside each source{{end}}</p>
</body>
</html>
`))

// ServeHTTP satisfies the http.Handler interface, and is used to serve the
// root page for online status reporting.
func (m *Server) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	data := struct {
		BindAddress string
		BuildInfo   string
		SourceDirs  []string
		OutDir      string
	}{
		m.bindAddress,
		m.buildInfo.String(),
		m.sourceDirs,
		m.outDir,
	}
	w.Header().Add("Content-type", "text/html")
	w.WriteHeader(http.StatusOK)
	if err := statusTemplate.Execute(w, data); err != nil {
		glog.Warningf("Error while writing status: %s", err)
	}
}
