package rest

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oshokin/alarm-manager/internal/api/dto"
	"github.com/oshokin/alarm-manager/internal/export/ical"
)

const (
	// defaultUpcoming is the number of fire times listed without ?count.
	defaultUpcoming = 5
	// maxUpcoming bounds ?count.
	maxUpcoming = 100
)

type handlers struct {
	service Service
	now     func() time.Time
}

func (h *handlers) listAlarms(c *gin.Context) (any, *Error) {
	snapshots, err := h.service.List(c.Request.Context())
	if err != nil {
		return nil, toError(err)
	}

	return dto.FromSnapshots(snapshots), nil
}

func (h *handlers) getAlarm(c *gin.Context) (any, *Error) {
	id, err := dto.ParseID(c.Param("id"))
	if err != nil {
		return nil, toError(err)
	}

	snapshot, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		return nil, toError(err)
	}

	return dto.FromSnapshot(snapshot), nil
}

func (h *handlers) createAlarm(c *gin.Context) (any, *Error) {
	var request dto.Alarm
	if err := c.ShouldBindJSON(&request); err != nil {
		return nil, badRequest(err)
	}

	request.ID = ""

	return h.save(c, &request)
}

func (h *handlers) updateAlarm(c *gin.Context) (any, *Error) {
	var request dto.Alarm
	if err := c.ShouldBindJSON(&request); err != nil {
		return nil, badRequest(err)
	}

	request.ID = c.Param("id")
	if _, err := dto.ParseID(request.ID); err != nil {
		return nil, toError(err)
	}

	return h.save(c, &request)
}

func (h *handlers) save(c *gin.Context, request *dto.Alarm) (any, *Error) {
	draft, err := request.ToDomain()
	if err != nil {
		return nil, toError(err)
	}

	snapshot, err := h.service.Save(c.Request.Context(), draft)
	if err != nil {
		return nil, toError(err)
	}

	return dto.FromSnapshot(snapshot), nil
}

func (h *handlers) deleteAlarm(c *gin.Context) (any, *Error) {
	id, err := dto.ParseID(c.Param("id"))
	if err != nil {
		return nil, toError(err)
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		return nil, toError(err)
	}

	return gin.H{"id": id.String()}, nil
}

func (h *handlers) moveAlarm(c *gin.Context) (any, *Error) {
	var request dto.MoveRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		return nil, badRequest(err)
	}

	id, err := dto.ParseID(c.Param("id"))
	if err != nil {
		return nil, toError(err)
	}

	if err := h.service.Move(c.Request.Context(), id, request.Index); err != nil {
		return nil, toError(err)
	}

	return dto.MoveRequest{ID: id.String(), Index: request.Index}, nil
}

func (h *handlers) startAlarm(c *gin.Context) (any, *Error) {
	id, err := dto.ParseID(c.Param("id"))
	if err != nil {
		return nil, toError(err)
	}

	snapshot, err := h.service.Start(c.Request.Context(), id)
	if err != nil {
		return nil, toError(err)
	}

	return dto.FromSnapshot(snapshot), nil
}

func (h *handlers) stopAlarm(c *gin.Context) (any, *Error) {
	id, err := dto.ParseID(c.Param("id"))
	if err != nil {
		return nil, toError(err)
	}

	snapshot, err := h.service.Stop(c.Request.Context(), id)
	if err != nil {
		return nil, toError(err)
	}

	return dto.FromSnapshot(snapshot), nil
}

func (h *handlers) acknowledge(c *gin.Context) (any, *Error) {
	id, err := dto.ParseID(c.Param("id"))
	if err != nil {
		return nil, toError(err)
	}

	acknowledged, err := h.service.Acknowledge(c.Request.Context(), id)
	if err != nil {
		return nil, toError(err)
	}

	var result dto.CountResult
	if acknowledged {
		result.Count = 1
	}

	return result, nil
}

func (h *handlers) acknowledgeAll(c *gin.Context) (any, *Error) {
	count, err := h.service.AcknowledgeAll(c.Request.Context())
	if err != nil {
		return nil, toError(err)
	}

	return dto.CountResult{Count: count}, nil
}

func (h *handlers) suspend(c *gin.Context) (any, *Error) {
	count, err := h.service.Suspend(c.Request.Context())
	if err != nil {
		return nil, toError(err)
	}

	return dto.CountResult{Count: count}, nil
}

func (h *handlers) resume(c *gin.Context) (any, *Error) {
	count, err := h.service.Resume(c.Request.Context())
	if err != nil {
		return nil, toError(err)
	}

	return dto.CountResult{Count: count}, nil
}

func (h *handlers) upcoming(c *gin.Context) (any, *Error) {
	id, err := dto.ParseID(c.Param("id"))
	if err != nil {
		return nil, toError(err)
	}

	count := defaultUpcoming

	if raw := c.Query("count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count < 1 || count > maxUpcoming {
			return nil, &Error{Code: http.StatusBadRequest, Message: "count must be between 1 and " + strconv.Itoa(maxUpcoming)}
		}
	}

	snapshot, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		return nil, toError(err)
	}

	times, err := ical.Occurrences(snapshot, h.now(), count)
	if err != nil {
		return nil, toError(err)
	}

	return dto.Occurrences{ID: id.String(), Times: times}, nil
}

func (h *handlers) getDefaultAlert(c *gin.Context) (any, *Error) {
	alert, err := h.service.DefaultAlert(c.Request.Context())
	if err != nil {
		return nil, toError(err)
	}

	return dto.FromAlert(alert), nil
}

func (h *handlers) setDefaultAlert(c *gin.Context) (any, *Error) {
	var request dto.Alert
	if err := c.ShouldBindJSON(&request); err != nil {
		return nil, badRequest(err)
	}

	alert, err := request.ToDomain()
	if err != nil {
		return nil, toError(err)
	}

	if err := h.service.SetDefaultAlert(c.Request.Context(), alert); err != nil {
		return nil, toError(err)
	}

	return dto.FromAlert(alert), nil
}

// calendar serves the alarms as an iCalendar document.
func (h *handlers) calendar(c *gin.Context) {
	snapshots, err := h.service.List(c.Request.Context())
	if err != nil {
		apiErr := toError(err)
		c.JSON(apiErr.Code, gin.H{"error": apiErr.Message})

		return
	}

	var buf bytes.Buffer
	if err = ical.Encode(&buf, snapshots, h.now()); err != nil {
		apiErr := toError(err)
		c.JSON(apiErr.Code, gin.H{"error": apiErr.Message})

		return
	}

	c.Header("Content-Disposition", `attachment; filename="alarms.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}
