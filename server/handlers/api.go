// Package handlers contains the HTTP handlers that translate wire requests
// into gateway calls and gateway responses back onto the wire.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/filegate/filegate/gateway"
)

// API serves the single gateway endpoint. The operation is selected by the
// q query parameter together with the HTTP method; everything else (adapter,
// path, filter, payload) rides along as query parameters or request body.
func API(gw *gateway.Gateway, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			writeResponse(w, gw.Preflight(), logger)
			return
		}

		req, err := buildRequest(r)
		if err != nil {
			logger.Debug("Malformed API request", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"code":"BAD_REQUEST","message":%q,"status":false}`, err.Error())
			return
		}

		writeResponse(w, gw.Handle(r.Context(), req), logger)
	}
}

// buildRequest maps the wire request onto the gateway's transport-neutral
// form. It never touches storage; validation belongs to the gateway.
func buildRequest(r *http.Request) (*gateway.Request, error) {
	q := r.URL.Query()

	req := &gateway.Request{
		Verb:       r.Method,
		Op:         q.Get("q"),
		Token:      bearerToken(r),
		AdapterKey: q.Get("adapter"),
		Address:    q.Get("path"),
		Filter:     q.Get("filter"),
	}

	// Only preview may carry its credential as a query parameter: the
	// browser follows preview links without custom headers. Every other
	// operation is header-only so tokens stay out of URLs and access logs.
	if req.Token == "" && r.Method == http.MethodGet && req.Op == "preview" {
		req.Token = q.Get("token")
	}

	switch r.Method {
	case http.MethodGet:
		// download_archive carries its payload in the query string so the
		// browser can drive it with a plain link.
		req.Payload.Name = q.Get("name")
		for _, p := range q["paths"] {
			req.Payload.Items = append(req.Payload.Items, gateway.Item{Path: p})
		}

	case http.MethodPost:
		ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if ct == "multipart/form-data" {
			file, header, err := r.FormFile("file")
			if err != nil {
				return nil, fmt.Errorf("missing multipart file field: %w", err)
			}
			name := r.FormValue("name")
			if name == "" {
				name = header.Filename
			}
			req.Upload = file
			req.UploadName = name
			break
		}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req.Payload); err != nil && err != io.EOF {
				return nil, fmt.Errorf("malformed JSON payload: %w", err)
			}
		}
	}

	return req, nil
}

// bearerToken extracts the caller's credential from the Authorization
// header.
func bearerToken(r *http.Request) string {
	return strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
}

// writeResponse puts a gateway response on the wire. Stream responses are
// copied through and closed; everything else is JSON-encoded.
func writeResponse(w http.ResponseWriter, resp *gateway.Response, logger *zap.Logger) {
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}

	if resp.Stream != nil {
		defer resp.Stream.Close()
		if resp.Size >= 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(resp.Size, 10))
		}
		w.WriteHeader(resp.Status)
		if _, err := io.Copy(w, resp.Stream); err != nil {
			// Headers are already on the wire; all we can do is log.
			logger.Warn("Failed streaming response body", zap.Error(err))
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	if resp.Body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(resp.Body); err != nil {
		logger.Warn("Failed encoding response body", zap.Error(err))
	}
}
