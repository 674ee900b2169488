package dashboard

import (
	"net/http"
	"strings"

	"github.com/edgard/telebot/internal/editor"
	"github.com/edgard/telebot/internal/gemini"
)

type generateRequest struct {
	BotName string `json:"botName"`
	Niche   string `json:"niche"`
}

func (s *Server) handleGenerate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Generator == nil {
			s.writeError(w, r, gemini.ErrDisabled)
			return
		}

		var req generateRequest
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if strings.TrimSpace(req.Niche) == "" {
			s.writeError(w, r, &editor.ValidationError{Field: "niche", Message: "is required"})
			return
		}

		content, err := s.deps.Generator.GenerateBotContent(r.Context(), req.BotName, req.Niche)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, content)
	}
}
