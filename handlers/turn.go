package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"frontdesk/models"
	"frontdesk/services/dialogue"
	"frontdesk/services/speech"
	"frontdesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TurnHandlers serves the voice and text turn endpoints.
type TurnHandlers struct {
	Sessions dialogue.SessionService
	STT      speech.Transcriber
	TTS      speech.Synthesizer
	// MinAudioBytes is the size below which an upload is treated as a
	// session-opening ping rather than speech worth transcribing.
	MinAudioBytes int
}

// VoiceTurn handles one spoken turn: multipart audio in, reply audio
// out. Dialogue metadata travels in response headers so the body can
// stay pure audio.
func (h *TurnHandlers) VoiceTurn(c *gin.Context) {
	sessionID := c.PostForm("session_id")
	if sessionID == "" {
		utils.JSONError(c, http.StatusBadRequest, "session_id is required", "")
		return
	}
	init := c.PostForm("init") == "true"

	audio, err := h.readAudio(c)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "audio file is required", err.Error())
		return
	}

	// A near-empty upload is the client opening the session, not the
	// caller speaking.
	if len(audio) < h.minAudio() {
		init = true
	}

	transcript := ""
	if !init || len(audio) >= h.minAudio() {
		transcript, err = h.STT.Transcribe(c.Request.Context(), audio)
		if err != nil {
			utils.GetLogger().Error("transcription failed",
				zap.String("sessionId", sessionID), zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "speech recognition failed", err.Error())
			return
		}
	}

	res, err := h.Sessions.Advance(c.Request.Context(), sessionID, transcript, init)
	if errors.Is(err, dialogue.ErrSessionExpired) {
		h.speak(c, &models.TurnResult{
			SessionID: sessionID,
			Reply:     "Sorry, that session has expired. Let's start over. " + expiredRestartPrompt,
			State:     models.StateGreet,
		})
		return
	}
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to process turn", err.Error())
		return
	}

	h.speak(c, res)
}

const expiredRestartPrompt = "Could I take your full name, please?"

// speak synthesizes the reply and streams it with the dialogue
// metadata in X- headers, query-escaped to stay header-safe.
func (h *TurnHandlers) speak(c *gin.Context, res *models.TurnResult) {
	audio, err := h.TTS.Synthesize(c.Request.Context(), res.Reply)
	if err != nil {
		utils.GetLogger().Error("synthesis failed",
			zap.String("sessionId", res.SessionID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "speech synthesis failed", err.Error())
		return
	}

	c.Header("X-User-Transcript", url.QueryEscape(res.Transcript))
	c.Header("X-Bot-Text", url.QueryEscape(res.Reply))
	c.Header("X-Agent-State", string(res.State))
	c.Header("X-Session-Ended", strconv.FormatBool(res.Ended))
	if res.CalendarError != "" {
		c.Header("X-Calendar-Error", url.QueryEscape(res.CalendarError))
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

func (h *TurnHandlers) readAudio(c *gin.Context) ([]byte, error) {
	file, _, err := c.Request.FormFile("audio")
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, speech.MaxAudioBytes))
}

func (h *TurnHandlers) minAudio() int {
	if h.MinAudioBytes > 0 {
		return h.MinAudioBytes
	}
	return 600
}

// TextTurn handles one typed turn. Same dialogue, no audio: useful for
// clients without a microphone and for integration testing.
func (h *TurnHandlers) TextTurn(c *gin.Context) {
	var req models.TextTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	res, err := h.Sessions.Advance(c.Request.Context(), req.SessionID, req.Text, req.Init)
	if errors.Is(err, dialogue.ErrSessionExpired) {
		utils.JSONError(c, http.StatusGone, "session expired", "start a new session with init=true")
		return
	}
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to process turn", err.Error())
		return
	}
	c.JSON(http.StatusOK, res)
}

// EndSession discards a session mid-dialogue.
func (h *TurnHandlers) EndSession(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if err := h.Sessions.End(c.Request.Context(), sessionID); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to end session", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended", "sessionId": sessionID})
}
