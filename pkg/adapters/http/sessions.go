package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/runner"
)

var errBadRequest = errors.New("bad request")

// maxBody bounds request bodies; event payloads are further checked by
// runner.SanitizeInput.
const maxBody = 1 << 20

type createRequest struct {
	Form      string `json:"form"`
	SessionID string `json:"session_id,omitempty"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Resumed   bool   `json:"resumed,omitempty"`
	*runner.RichResponse
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if req.Form == "" {
		s.fail(w, fmt.Errorf("%w: form is required", errBadRequest))
		return
	}
	id, resp, resumed, err := s.service.Start(r.Context(), req.Form, req.SessionID)
	if err != nil {
		s.fail(w, err)
		return
	}
	code := http.StatusCreated
	if resumed {
		code = http.StatusOK
	}
	s.logger.Info("session opened", "session_id", id, "form", req.Form, "resumed", resumed)
	writeJSON(w, code, sessionResponse{SessionID: id, Resumed: resumed, RichResponse: resp})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resp, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, RichResponse: resp})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.Sessions.Load(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	s.Streams.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		s.fail(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	ev, err := decodeEvent(body)
	if err != nil {
		s.fail(w, err)
		return
	}
	resp, err := s.Apply(r.Context(), id, ev)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, RichResponse: resp})
}

// Apply handles one event for a stored session and publishes the outcome
// to the session's streams.
func (s *Server) Apply(ctx context.Context, id string, ev domain.Event) (*runner.RichResponse, error) {
	resp, err := s.service.Apply(ctx, id, ev)
	if err != nil {
		return nil, err
	}
	s.publish(id, resp)
	return resp, nil
}

func (s *Server) publish(id string, resp *runner.RichResponse) {
	if resp.Diff != nil {
		s.Streams.Publish(id, runner.Message{Type: runner.MessageFrame, Diff: resp.Diff, Text: resp.Notice})
	}
	if resp.Terminal && resp.Result != nil {
		s.Streams.Publish(id, runner.Message{Type: runner.MessageResult, Result: resp.Result, Entries: resp.Result.ByPath()})
	}
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func decodeEvent(body []byte) (domain.Event, error) {
	clean, err := runner.SanitizeInput(string(body))
	if err != nil {
		return domain.Event{}, err
	}
	return runner.DecodeEvent(strings.TrimSpace(clean))
}
