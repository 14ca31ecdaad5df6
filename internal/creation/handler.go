package creation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/middleware"
	"github.com/invisireel/backend/pkg/response"
)

// FlowView is the JSON shape of a flow.
type FlowView struct {
	ID        uuid.UUID `json:"id"`
	Demo      bool      `json:"demo"`
	StepIndex int       `json:"step_index"`
	State     State     `json:"state"`
}

// NewFlowView renders s for flow f.
func NewFlowView(f *Flow, s State) FlowView {
	return FlowView{ID: f.ID(), Demo: f.Demo(), StepIndex: s.Step.Index(), State: s}
}

// CreateRequest is the optional body for POST /api/flows.
type CreateRequest struct {
	Edit *FormEdit `json:"edit"`
}

// Handler serves the creation wizard.
type Handler struct {
	registry *Registry
	logger   *zap.Logger
}

// NewHandler creates a creation handler.
func NewHandler(registry *Registry, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{registry: registry, logger: logger}
}

// Create handles POST /api/flows.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	f := h.registry.Create(middleware.IdentityFrom(c))
	s := f.State()
	if req.Edit != nil {
		var err error
		if s, err = f.Dispatch(c.Request.Context(), Action{Type: ActionEdit, Edit: req.Edit}); err != nil {
			response.Internal(c, "failed to initialise flow")
			return
		}
	}
	response.Created(c, NewFlowView(f, s))
}

// Get handles GET /api/flows/:id.
func (h *Handler) Get(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}
	response.OK(c, NewFlowView(f, f.State()))
}

// Dispatch handles POST /api/flows/:id/actions.
func (h *Handler) Dispatch(c *gin.Context) {
	f, ok := h.flow(c)
	if !ok {
		return
	}
	var a Action
	if err := c.ShouldBindJSON(&a); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !a.Type.ClientAction() {
		response.BadRequest(c, "unknown action: "+string(a.Type))
		return
	}

	s, err := f.Dispatch(c.Request.Context(), a)
	view := NewFlowView(f, s)
	switch {
	case err == nil && a.Type == ActionGenerate:
		response.Accepted(c, view)
	case err == nil:
		response.OK(c, view)
	case errors.Is(err, ErrValidation):
		response.Unprocessable(c, err.Error(), view)
	case errors.Is(err, ErrBusy), errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusConflict, response.Body{Success: false, Error: err.Error(), Data: view})
	case errors.Is(err, ErrSubmit):
		c.JSON(http.StatusBadGateway, response.Body{Success: false, Error: s.Message, Data: view})
	case errors.Is(err, ErrClosed):
		response.NotFound(c, ErrFlowNotFound.Error())
	default:
		h.logger.Error("flow action failed", zap.String("flow_id", f.ID().String()), zap.Error(err))
		response.Internal(c, "failed to apply action")
	}
}

// Delete handles DELETE /api/flows/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid flow id")
		return
	}
	if err := h.registry.Close(id, middleware.UserIDFrom(c)); err != nil {
		response.NotFound(c, err.Error())
		return
	}
	response.NoContent(c)
}

func (h *Handler) flow(c *gin.Context) (*Flow, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid flow id")
		return nil, false
	}
	f, err := h.registry.Get(id, middleware.UserIDFrom(c))
	if err != nil {
		response.NotFound(c, err.Error())
		return nil, false
	}
	return f, true
}
