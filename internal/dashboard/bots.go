package dashboard

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/edgard/telebot/internal/editor"
)

type healthJSON struct {
	Status     string `json:"status"`
	Hydrated   bool   `json:"hydrated"`
	Bots       int    `json:"bots"`
	Sessions   int    `json:"sessions"`
	Generation bool   `json:"generation"`
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		sessions := len(s.sessions)
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, healthJSON{
			Status:     "ok",
			Hydrated:   s.deps.Store.Hydrated(),
			Bots:       len(s.deps.Store.List()),
			Sessions:   sessions,
			Generation: s.deps.Generator != nil,
		})
	}
}

func (s *Server) handleListBots() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.deps.Store.List())
	}
}

func (s *Server) handleGetBot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := s.deps.Store.Get(chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) handleDeleteBot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.deps.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleGetSelected() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		rec, ok := s.deps.Store.Selected()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) handleSelect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := s.deps.Store.Select(id); err != nil {
			s.writeError(w, r, err)
			return
		}
		rec, _ := s.deps.Store.Selected()
		writeJSON(w, http.StatusOK, rec)
	}
}

type sentJSON struct {
	Sent   bool   `json:"sent"`
	ChatID string `json:"chatId"`
}

// handleSayHello sends the greeting quick action to the bot's chat.
func (s *Server) handleSayHello() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := s.deps.Store.Get(chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if !rec.HasChat() {
			s.writeError(w, r, &editor.ValidationError{Field: "chatId", Message: "bot has no chat yet"})
			return
		}

		err = s.deps.Client.SendMessage(r.Context(), rec.Token, rec.ChatID, s.deps.HelloMessage)
		s.deps.Metrics.Sent(err)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sentJSON{Sent: true, ChatID: rec.ChatID})
	}
}

type linkJSON struct {
	URL string `json:"url"`
}

func (s *Server) handleBotLink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := s.deps.Store.Get(chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, linkJSON{URL: BotLink(rec.Name)})
	}
}

// BotLink returns the t.me link shown for a bot: its name with the first
// space removed.
func BotLink(name string) string {
	return fmt.Sprintf("https://t.me/%s", strings.Replace(name, " ", "", 1))
}
