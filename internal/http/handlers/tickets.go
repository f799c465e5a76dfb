package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bustix/internal/domain"
	"bustix/internal/http/middleware"
	"bustix/internal/services"
	"bustix/internal/utils"
)

// TicketHandlers serves booking documents.
type TicketHandlers struct {
	Tickets services.TicketService
}

// ETicket streams the booking's e-ticket PDF.
func (h TicketHandlers) ETicket(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondDomainError(c, requestID, "tickets", domain.ValidationError{Field: "id", Msg: "must be numeric"})
		return
	}

	pdfBytes, filename, err := h.Tickets.GenerateETicket(c.Request.Context(), id, middleware.GetActor(c))
	if err != nil {
		RespondDomainError(c, requestID, "tickets", err)
		return
	}

	utils.LogEvent(requestID, "tickets", "eticket", filename)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
