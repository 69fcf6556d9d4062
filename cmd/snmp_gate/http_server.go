package main

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kvolkov/snmp_gate/gateway"
)

type entryInfo struct {
	OID         string `json:"oid"`
	Description string `json:"description,omitempty"`
	gateway.EntryStatus
}

func (app *App) setRoute() {
	http.HandleFunc("/", app.handleIndex())
	http.Handle("/metrics", promhttp.Handler())
}

func (app *App) ListenHTTP(addr string) error {
	return http.ListenAndServe(addr, nil)
}

// handleIndex reports the last value seen on every backend entry.
func (app *App) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := make([]entryInfo, 0, app.registry.Len())
		for _, h := range app.registry.Handlers() {
			info := entryInfo{OID: h.OID().String(), Description: h.Describe()}
			if mh, ok := h.(*gateway.ModbusHandler); ok {
				info.EntryStatus = mh.Status()
			}
			entries = append(entries, info)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			app.Logger.Errorf("can't write status: %v", err)
		}
	}
}
