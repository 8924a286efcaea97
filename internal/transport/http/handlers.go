package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/relay/internal/app"
	"github.com/dkeye/relay/internal/domain"
)

const sessionRoomKey = "room"

// API serves read-only views of the registry and the editor session.
type API struct {
	Registry *app.Registry
}

func (a API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": a.Registry.ConnectionCount(),
		"rooms":       a.Registry.RoomCount(),
	})
}

// GET /api/rooms
func (a API) Rooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": a.Registry.Rooms()})
}

// GET /api/rooms/:id
func (a API) Room(c *gin.Context) {
	info, ok := a.Registry.Room(domain.RoomID(c.Param("id")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room has no members"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// EditorSession hands the editor a room id that survives page reloads.
func (a API) EditorSession(c *gin.Context) {
	s := sessions.Default(c)
	room, ok := s.Get(sessionRoomKey).(string)
	if !ok || room == "" {
		room = uuid.NewString()
		s.Set(sessionRoomKey, room)
		if err := s.Save(); err != nil {
			log.Error().Err(err).Str("module", "transport.http").Msg("save session")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
			return
		}
		log.Info().Str("module", "transport.http").Str("room", room).Msg("issued editor room")
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}
