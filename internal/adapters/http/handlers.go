package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const maxAudioBytes = 25 << 20

type handlers struct {
	deps Deps
}

// statusOf maps the error taxonomy to HTTP.
func statusOf(err error) int {
	switch core.KindOf(err) {
	case core.KindCapacity:
		return http.StatusConflict
	case core.KindPrecondition:
		switch {
		case errors.Is(err, core.ErrConsentRequired):
			return http.StatusForbidden
		case errors.Is(err, core.ErrNoPendingRequest):
			return http.StatusPreconditionFailed
		case errors.Is(err, core.ErrTranscriptShort):
			return http.StatusBadRequest
		}
		return http.StatusConflict
	case core.KindProtocol:
		if errors.Is(err, core.ErrRateLimited) {
			return http.StatusTooManyRequests
		}
		return http.StatusBadRequest
	case core.KindPermission:
		return http.StatusForbidden
	case core.KindNotFound:
		if errors.Is(err, core.ErrCapabilityUnavailable) {
			return http.StatusServiceUnavailable
		}
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": core.CodeOf(err), "message": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": core.CodeOf(err), "message": err.Error()})
}

func appointment(c *gin.Context) domain.AppointmentID {
	return domain.AppointmentID(c.Param("id"))
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) participants(c *gin.Context) {
	room := domain.RoomID(c.Param("room_id"))
	snap := h.deps.Orch.Participants(room)
	c.JSON(http.StatusOK, gin.H{"room_id": room, "participants": snap, "count": len(snap)})
}

func (h *handlers) requestConsent(c *gin.Context) {
	rec, err := h.deps.Orch.RequestConsent(c.Request.Context(), appointment(c), identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handlers) getConsent(c *gin.Context) {
	rec, err := h.deps.Orch.ConsentRecord(appointment(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type consentResponse struct {
	Granted *bool `json:"granted" binding:"required"`
}

func (h *handlers) respondConsent(c *gin.Context) {
	var req consentResponse
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, core.ErrInvalidMessage)
		return
	}
	rec, err := h.deps.Orch.RespondConsent(c.Request.Context(), appointment(c), identity(c), *req.Granted)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handlers) renewConsent(c *gin.Context) {
	rec, err := h.deps.Orch.RenewConsent(c.Request.Context(), appointment(c), identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handlers) checkConsent(c *gin.Context) {
	rec, err := h.deps.Orch.ConsentRecord(appointment(c))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"consent_exists": false, "consent_status": nil, "can_record": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"consent_exists": true,
		"consent_status": rec.Status,
		"can_record":     rec.Status == domain.ConsentGranted,
	})
}

type recordingView struct {
	domain.RecordingSession
	DurationSeconds float64 `json:"duration_seconds"`
}

func viewRecording(s domain.RecordingSession) recordingView {
	return recordingView{RecordingSession: s, DurationSeconds: s.Duration().Seconds()}
}

func (h *handlers) startRecording(c *gin.Context) {
	rec, err := h.deps.Orch.StartRecording(c.Request.Context(), appointment(c), identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewRecording(rec))
}

func (h *handlers) stopRecording(c *gin.Context) {
	rec, err := h.deps.Orch.StopRecording(c.Request.Context(), appointment(c), identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewRecording(rec))
}

func (h *handlers) getRecording(c *gin.Context) {
	c.JSON(http.StatusOK, viewRecording(h.deps.Orch.Recording(appointment(c))))
}

func (h *handlers) startTranscription(c *gin.Context) {
	sess, err := h.deps.Orch.StartTranscription(c.Request.Context(), appointment(c), identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *handlers) endTranscription(c *gin.Context) {
	sess, err := h.deps.Orch.EndTranscription(c.Request.Context(), appointment(c), identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type chunkRequest struct {
	Text    string `json:"text" binding:"required,max=10000"`
	Speaker string `json:"speaker"`
}

func (h *handlers) appendChunk(c *gin.Context) {
	var req chunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, core.ErrInvalidMessage)
		return
	}
	var speaker domain.Role
	if req.Speaker != "" {
		role, err := domain.ParseRole(req.Speaker)
		if err != nil {
			respondError(c, core.ErrInvalidMessage)
			return
		}
		speaker = role
	}
	chunk, err := h.deps.Orch.AppendTranscript(c.Request.Context(), appointment(c), identity(c), speaker, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chunk)
}

func (h *handlers) uploadAudio(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil || file.Size > maxAudioBytes {
		respondError(c, core.ErrInvalidMessage)
		return
	}
	f, err := file.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()
	audio, err := io.ReadAll(io.LimitReader(f, maxAudioBytes))
	if err != nil {
		respondError(c, err)
		return
	}
	chunk, err := h.deps.Orch.TranscribeAudio(c.Request.Context(), appointment(c), identity(c), audio)
	if err != nil {
		respondError(c, err)
		return
	}
	if chunk == nil {
		c.JSON(http.StatusOK, gin.H{"chunk": nil})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"chunk": chunk})
}

func (h *handlers) getTranscript(c *gin.Context) {
	var after uint64
	if raw := c.Query("after"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, core.ErrInvalidMessage)
			return
		}
		after = n
	}
	sess := h.deps.Orch.Transcript(c.Request.Context(), appointment(c), identity(c), after)
	c.JSON(http.StatusOK, gin.H{
		"appointment_id": sess.AppointmentID,
		"status":         sess.Status,
		"chunks":         sess.Chunks,
		"text":           domain.RenderTranscript(sess.Chunks),
	})
}

func (h *handlers) getArchive(c *gin.Context) {
	if h.deps.Archive == nil {
		respondError(c, core.ErrCapabilityUnavailable)
		return
	}
	text, err := h.deps.Archive.ArchivedTranscript(c.Request.Context(), appointment(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment_id": appointment(c), "text": text})
}

func (h *handlers) generateSummary(c *gin.Context) {
	sum, err := h.deps.Orch.Summarize(c.Request.Context(), appointment(c), identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *handlers) getSummary(c *gin.Context) {
	sum, err := h.deps.Orch.Summary(appointment(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *handlers) listAudit(c *gin.Context) {
	if identity(c).Role != domain.RoleClinician {
		respondError(c, core.ErrRoleNotPermitted)
		return
	}
	if h.deps.Audit == nil {
		respondError(c, core.ErrCapabilityUnavailable)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.deps.Audit.List(c.Request.Context(), c.Query("resource_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
