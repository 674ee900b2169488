package dashboard

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/edgard/telebot/internal/editor"
	"github.com/edgard/telebot/internal/store"
)

type sessionJSON struct {
	ID string `json:"id"`
	editor.Snapshot
}

type openEditorRequest struct {
	BotID string `json:"botId"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type descriptionRequest struct {
	Description string `json:"description"`
}

func (s *Server) handleOpenEditor() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req openEditorRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}

		var existing *store.BotRecord
		if req.BotID != "" {
			rec, err := s.deps.Store.Get(req.BotID)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			existing = &rec
		}

		id := uuid.NewString()
		e := s.deps.NewEditor(existing)

		s.mu.Lock()
		s.sessions[id] = e
		s.mu.Unlock()

		s.log.DebugContext(r.Context(), "Editor session opened", "session", id, "bot_id", req.BotID)
		writeJSON(w, http.StatusCreated, sessionJSON{ID: id, Snapshot: e.Snapshot()})
	}
}

// session looks up the editor named by the sid URL parameter.
func (s *Server) session(r *http.Request) (string, *editor.Editor, error) {
	id := chi.URLParam(r, "sid")
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return id, nil, fmt.Errorf("%w: %s", errSessionNotFound, id)
	}
	return id, e, nil
}

// withSession resolves the session and, when apply succeeds, responds with
// its fresh snapshot.
func (s *Server) withSession(apply func(w http.ResponseWriter, r *http.Request, e *editor.Editor) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, e, err := s.session(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := apply(w, r, e); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionJSON{ID: id, Snapshot: e.Snapshot()})
	}
}

func (s *Server) handleEditorSnapshot() http.HandlerFunc {
	return s.withSession(func(http.ResponseWriter, *http.Request, *editor.Editor) error {
		return nil
	})
}

func (s *Server) handleEditorToken() http.HandlerFunc {
	return s.withSession(func(w http.ResponseWriter, r *http.Request, e *editor.Editor) error {
		var req tokenRequest
		if err := decodeBody(w, r, &req); err != nil {
			return err
		}
		e.SetToken(req.Token)
		return nil
	})
}

func (s *Server) handleEditorDescription() http.HandlerFunc {
	return s.withSession(func(w http.ResponseWriter, r *http.Request, e *editor.Editor) error {
		var req descriptionRequest
		if err := decodeBody(w, r, &req); err != nil {
			return err
		}
		e.SetDescription(req.Description)
		return nil
	})
}

func (s *Server) handleEditorClearChat() http.HandlerFunc {
	return s.withSession(func(_ http.ResponseWriter, _ *http.Request, e *editor.Editor) error {
		e.ClearChatID()
		return nil
	})
}

func (s *Server) handleEditorTest() http.HandlerFunc {
	return s.withSession(func(_ http.ResponseWriter, r *http.Request, e *editor.Editor) error {
		return e.SendTest(r.Context())
	})
}

// handleEditorSave commits the draft and ends the session.
func (s *Server) handleEditorSave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, e, err := s.session(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		rec, err := e.Commit(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.closeSession(id)
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) handleEditorClose() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _, err := s.session(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.closeSession(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) closeSession(id string) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		e.Close()
		s.log.Debug("Editor session closed", "session", id)
	}
}
