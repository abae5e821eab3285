package cmd

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jsphweid/backingband/constants"
	"github.com/jsphweid/backingband/model"
	"github.com/jsphweid/backingband/timeline"
	"github.com/jsphweid/backingband/worker"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

var servePort string

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on, defaults to PORT or 8080")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves band sessions over http",
	Long:  `Serves band sessions over http. Each session owns a worker that generates ahead of the client's transport.`,
	Run: func(cmd *cobra.Command, args []string) {
		addr := constants.GetListenAddr()
		if servePort != "" {
			addr = ":" + servePort
		}
		log.Printf("listening on %s", addr)
		log.Fatal(http.ListenAndServe(addr, NewHandler()))
	},
}

// NewHandler routes the session api behind a permissive cors policy.
func NewHandler() http.Handler {
	h := &handlers{sessions: newSessions()}
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/sessions", h.create).Methods("POST")
	router.HandleFunc("/sessions/{id}", h.sync).Methods("PUT")
	router.HandleFunc("/sessions/{id}", h.remove).Methods("DELETE")
	router.HandleFunc("/sessions/{id}/advance", h.advance).Methods("POST")
	router.HandleFunc("/sessions/{id}/flush", h.flush).Methods("POST")
	router.HandleFunc("/sessions/{id}/export", h.export).Methods("GET")

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
	}).Handler(router)
}

type handlers struct {
	sessions *sessions
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("WARN could not write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

func (h *handlers) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, err := h.sessions.get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return sess, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "could not decode request body"))
		return false
	}
	return true
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	var input model.SessionRequestBody
	if !decode(w, r, &input) {
		return
	}
	id, sess, err := h.sessions.create(input.Document)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.SessionResponse{ID: id, TotalSteps: sess.snap.Arrangement.TotalSteps})
}

func (h *handlers) sync(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var snap model.Snapshot
	if !decode(w, r, &snap) {
		return
	}
	sess.sync(snap)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) advance(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var input model.AdvanceRequestBody
	if !decode(w, r, &input) {
		return
	}
	e, err := sess.request(worker.Advance{Step: input.Step}, func(e worker.Event) bool {
		notes, ok := e.(worker.EventNotes)
		return ok && notes.Step == input.Step
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	notes := e.(worker.EventNotes)
	res := model.AdvanceResponse{
		Step:        notes.Step,
		Intensity:   notes.Intensity,
		TempoOffset: notes.TempoOffset,
		Notes:       notes.Notes,
	}
	if res.Notes == nil {
		res.Notes = []model.NoteEvent{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) flush(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var input model.FlushRequestBody
	if !decode(w, r, &input) {
		return
	}
	if _, err := sess.request(worker.Flush{Step: input.Step, Prime: input.Prime}, nil); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) export(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	loops := 1
	if v := r.URL.Query().Get("loops"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, errors.Errorf("invalid loops %q", v))
			return
		}
		loops = n
	}
	opts := timeline.Options{Loops: loops, Name: r.URL.Query().Get("name")}
	e, err := sess.request(worker.Export{Options: opts}, func(e worker.Event) bool {
		_, ok := e.(worker.EventExport)
		return ok
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	exported := e.(worker.EventExport)
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exported.Filename+`"`)
	if _, err := w.Write(exported.Data); err != nil {
		log.Printf("WARN could not write export: %v", err)
	}
}

func (h *handlers) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.remove(mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	if errors.Is(err, worker.ErrBusy) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
