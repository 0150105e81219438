/*
	This file holds the HTTP API through which a host viewer drives the curation
	volumes.  All routes live under WebAPIPath:

	GET  /api/server/info               version, shape and label counts
	GET  /api/volume/{which}/info       shape and label summary of image, source or destination
	GET  /api/volume/{which}/slice/{z}  PNG of one z-slice
	POST /api/transfer                  {"points": [[z,y,x], ...], "from": "source", "to": "destination"}
	POST /api/export                    {"volume": "destination", "dir": "...", "prefix": "lbl"}
	POST /api/relabel/{which}           sequential relabel of a label volume
	GET  /api/session                   list of saved snapshots
	POST /api/session/{name}            save snapshot
	PUT  /api/session/{name}            restore snapshot
	GET  /api/mutations                 mutation log
*/

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/cors"
	"github.com/zenazn/goji/web"

	"github.com/janelia-flyem/neuropil/core"
	"github.com/janelia-flyem/neuropil/volume"
)

const (
	// WebAPIPath is the prefix of all HTTP API calls.
	WebAPIPath = "/api/"

	// maximum accepted request body
	maxBodySize = 64 * core.Mega
)

// BadRequest writes an error message as a 400 response and logs it.  The message
// can be an error or a format string with arguments.
func BadRequest(w http.ResponseWriter, r *http.Request, message interface{}, args ...interface{}) {
	var msg string
	switch m := message.(type) {
	case error:
		msg = m.Error()
	case string:
		msg = fmt.Sprintf(m, args...)
	default:
		msg = fmt.Sprint(message)
	}
	errorMsg := fmt.Sprintf("%s (%s).", msg, r.URL.Path)
	core.Errorf("%s\n", errorMsg)
	http.Error(w, errorMsg, http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		core.Errorf("unable to write JSON response to %s: %v\n", r.URL.Path, err)
	}
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, fmt.Errorf("request requires a JSON body")
	}
	return io.ReadAll(io.LimitReader(r.Body, maxBodySize))
}

func parseWhich(c web.C) (volume.Which, error) {
	return volume.ParseWhich(c.URLParams["which"])
}

// Handler returns the HTTP API of the adapter.  Cross-origin requests are allowed
// from the given origins; none allows all.
func (a *Adapter) Handler(corsOrigins []string) http.Handler {
	mux := web.New()
	mux.Use(cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
	}).Handler)

	mux.Get(WebAPIPath+"server/info", a.serverInfoHandler)
	mux.Get(WebAPIPath+"volume/:which/info", a.volumeInfoHandler)
	mux.Get(WebAPIPath+"volume/:which/slice/:z", a.sliceHandler)
	mux.Post(WebAPIPath+"transfer", a.transferHandler)
	mux.Post(WebAPIPath+"export", a.exportHandler)
	mux.Post(WebAPIPath+"relabel/:which", a.relabelHandler)
	mux.Get(WebAPIPath+"session", a.sessionListHandler)
	mux.Post(WebAPIPath+"session/:name", a.sessionSaveHandler)
	mux.Put(WebAPIPath+"session/:name", a.sessionRestoreHandler)
	mux.Get(WebAPIPath+"mutations", a.mutationsHandler)
	return mux
}

func (a *Adapter) serverInfoHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	info := struct {
		Version    string
		Shape      core.Point3d
		RegionMode string
		Volumes    []VolumeInfo
	}{
		Version:    Version.String(),
		RegionMode: a.engine.Mode().String(),
	}
	for _, which := range []volume.Which{volume.ImageVolume, volume.Source, volume.Destination} {
		if vi, err := a.VolumeInfo(which); err == nil {
			info.Shape = vi.Shape
			info.Volumes = append(info.Volumes, vi)
		}
	}
	writeJSON(w, r, info)
}

func (a *Adapter) volumeInfoHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	which, err := parseWhich(c)
	if err != nil {
		BadRequest(w, r, err)
		return
	}
	info, err := a.VolumeInfo(which)
	if err != nil {
		BadRequest(w, r, err)
		return
	}
	writeJSON(w, r, info)
}

func (a *Adapter) sliceHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	which, err := parseWhich(c)
	if err != nil {
		BadRequest(w, r, err)
		return
	}
	z, err := strconv.Atoi(c.URLParams["z"])
	if err != nil {
		BadRequest(w, r, "bad slice index %q", c.URLParams["z"])
		return
	}
	var buf bytes.Buffer
	if err := a.WriteSlicePNG(&buf, which, z); err != nil {
		BadRequest(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := buf.WriteTo(w); err != nil {
		core.Errorf("unable to write slice %d of %s: %v\n", z, which, err)
	}
}

type transferRequest struct {
	From   string         `json:"from"`
	To     string         `json:"to"`
	Points []core.Point3d `json:"points"`
}

func (a *Adapter) transferHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		BadRequest(w, r, err)
		return
	}
	req := transferRequest{From: volume.Source.String(), To: volume.Destination.String()}
	if err := decodeValidated(transferSchema, body, &req); err != nil {
		BadRequest(w, r, err)
		return
	}
	from, err := volume.ParseWhich(req.From)
	if err != nil {
		BadRequest(w, r, err)
		return
	}
	to, err := volume.ParseWhich(req.To)
	if err != nil {
		BadRequest(w, r, err)
		return
	}
	result, err := a.RequestTransferBetween(from, to, req.Points)
	if err != nil {
		BadRequest(w, r, err)
		return
	}
	writeJSON(w, r, result)
}

type exportRequest struct {
	Volume string `json:"volume"`
	Dir    string `json:"dir"`
	Prefix string `json:"prefix"`
}

func (a *Adapter) exportHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		BadRequest(w, r, err)
		return
	}
	req := exportRequest{Volume: volume.Destination.String()}
	if err := decodeValidated(exportSchema, body, &req); err != nil {
		BadRequest(w, r, err)
		return
	}
	which, err := volume.ParseWhich(req.Volume)
	if err != nil {
		BadRequest(w, r, err)
		return
	}
	result, err := a.RequestExport(r.Context(), which, req.Dir, req.Prefix)
	if err != nil {
		BadRequest(w, r, err)
		return
	}
	writeJSON(w, r, result)
}

func (a *Adapter) relabelHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	which, err := parseWhich(c)
	if err != nil {
		BadRequest(w, r, err)
		return
	}
	mapping, err := a.Relabel(which)
	if err != nil {
		BadRequest(w, r, err)
		return
	}
	writeJSON(w, r, struct {
		Volume    string
		NumLabels int
	}{which.String(), len(mapping)})
}

func (a *Adapter) sessionListHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	infos, err := a.Sessions()
	if err != nil {
		BadRequest(w, r, err)
		return
	}
	writeJSON(w, r, infos)
}

func (a *Adapter) sessionSaveHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	info, err := a.SaveSession(c.URLParams["name"])
	if err != nil {
		BadRequest(w, r, err)
		return
	}
	writeJSON(w, r, info)
}

func (a *Adapter) sessionRestoreHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	info, err := a.RestoreSession(c.URLParams["name"])
	if err != nil {
		BadRequest(w, r, err)
		return
	}
	writeJSON(w, r, info)
}

func (a *Adapter) mutationsHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	records, err := a.Mutations()
	if err != nil {
		BadRequest(w, r, err)
		return
	}
	writeJSON(w, r, records)
}

// ServeHTTP listens on address and serves the adapter's HTTP API until ctx is
// done.  Stay-alive connections are limited to an hour.
func ServeHTTP(ctx context.Context, address string, a *Adapter) error {
	if address == "" {
		address = DefaultWebAddress
	}
	src := &http.Server{
		Addr:        address,
		Handler:     a.Handler(CorsOrigins()),
		ReadTimeout: 1 * time.Hour,
	}
	errCh := make(chan error, 1)
	go func() {
		core.Infof("Web server listening at %s ...\n", address)
		errCh <- src.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		core.Infof("Shutting down web server at %s\n", address)
		return src.Shutdown(shutdownCtx)
	}
}
