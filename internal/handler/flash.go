package handler

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	flashSuccess = "success"
	flashError   = "error"
)

func addFlash(c *gin.Context, kind, message string) {
	session := sessions.Default(c)
	session.AddFlash(message, kind)
	if err := session.Save(); err != nil {
		log.Warn().Err(err).Msg("failed to save flash message")
	}
}

// popFlashes returns and clears the pending messages of one kind.
func popFlashes(c *gin.Context, kind string) []string {
	session := sessions.Default(c)
	raw := session.Flashes(kind)
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(); err != nil {
		log.Warn().Err(err).Msg("failed to clear flash messages")
	}

	messages := make([]string, 0, len(raw))
	for _, value := range raw {
		if message, ok := value.(string); ok {
			messages = append(messages, message)
		}
	}
	return messages
}
