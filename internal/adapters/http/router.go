package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/dkeye/Consult/internal/adapters/auth"
	"github.com/dkeye/Consult/internal/adapters/signal"
	"github.com/dkeye/Consult/internal/app"
	"github.com/dkeye/Consult/internal/app/orch"
	"github.com/dkeye/Consult/internal/config"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	identityKey     = "identity"
	sessionTokenKey = "token"
)

// ArchiveReader serves transcripts that outlived their session.
type ArchiveReader interface {
	ArchivedTranscript(ctx context.Context, id domain.AppointmentID) (string, error)
}

// Deps are the collaborators behind the HTTP surface. Audit and Archive may be nil.
type Deps struct {
	Orch    *orch.Orchestrator
	Tokens  *auth.TokenCodec
	Audit   app.AuditLog
	Archive ArchiveReader
}

// AuthMiddleware resolves the caller from a bearer token, the token query
// parameter (browser websockets) or the cookie session.
func AuthMiddleware(tokens *auth.TokenCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			token, _ = session.Get(sessionTokenKey).(string)
		}
		user, err := tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": err.Error()})
			return
		}
		if session.Get(sessionTokenKey) != token {
			session.Set(sessionTokenKey, token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
			}
		}
		c.Set(identityKey, user)
		c.Next()
	}
}

func identity(c *gin.Context) *domain.User {
	return c.MustGet(identityKey).(*domain.User)
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: int(cfg.TokenTTL.Seconds()), HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("ConsultSessions", store))

	h := &handlers{deps: deps}
	ws := signal.NewSignalWSController(deps.Orch, cfg)

	api := r.Group("/api")
	api.GET("/health", h.health)

	authed := api.Group("", AuthMiddleware(deps.Tokens))
	authed.GET("/ws/signaling/:room_id", func(c *gin.Context) {
		user := identity(c)
		room := domain.RoomID(c.Param("room_id"))
		log.Info().Str("module", "adapters.http").Str("user", string(user.ID)).Str("room", string(room)).Msg("ws signal endpoint hit")
		ws.HandleSignal(ctx, c, user, room)
	})
	authed.GET("/rooms/:room_id/participants", h.participants)

	consent := authed.Group("/consent/:id")
	consent.POST("", h.requestConsent)
	consent.GET("", h.getConsent)
	consent.PATCH("", h.respondConsent)
	consent.POST("/renew", h.renewConsent)
	consent.GET("/check", h.checkConsent)

	rec := authed.Group("/recordings/:id")
	rec.POST("/start", h.startRecording)
	rec.POST("/stop", h.stopRecording)
	rec.GET("", h.getRecording)

	tr := authed.Group("/transcripts/:id")
	tr.POST("/start", h.startTranscription)
	tr.POST("/end", h.endTranscription)
	tr.POST("/chunks", h.appendChunk)
	tr.POST("/audio", h.uploadAudio)
	tr.GET("", h.getTranscript)
	tr.GET("/archive", h.getArchive)
	tr.POST("/summary", h.generateSummary)
	tr.GET("/summary", h.getSummary)

	authed.GET("/audit", h.listAudit)

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
