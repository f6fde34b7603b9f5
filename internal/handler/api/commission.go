package api

import (
	"context"
	"net/http"
	"strconv"

	"booking-engine/internal/domain/commission"
	reqdto "booking-engine/internal/handler/dto/request"
	resdto "booking-engine/internal/handler/dto/response"
	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CommissionHandler struct {
	cmds commands.CommissionCommands
	q    queries.CommissionQueries
}

func NewCommissionHandler(cmds commands.CommissionCommands, q queries.CommissionQueries) *CommissionHandler {
	return &CommissionHandler{cmds: cmds, q: q}
}

// @Summary Create commission strategy
// @Tags commission-strategies
// @Accept json
// @Produce json
// @Param request body reqdto.StrategyRequest true "Strategy"
// @Success 201 {object} resdto.StrategyResponse
// @Failure 400 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /commission-strategies [post]
func (h *CommissionHandler) Create(c *gin.Context) {
	params, ok := bindStrategyParams(c)
	if !ok {
		return
	}
	s, err := h.cmds.CreateStrategy(c.Request.Context(), params)
	if err != nil {
		abortWithUseCaseError(c, err, 0, "Create strategy failed")
		return
	}
	c.Header("Location", "/api/commission-strategies/"+s.ID().String())
	c.JSON(http.StatusCreated, resdto.FromStrategyView(queries.NewStrategyView(s)))
}

// @Summary Update commission strategy
// @Description Replace name, type, value, priority and applicability of a strategy; the active flag is unchanged
// @Tags commission-strategies
// @Accept json
// @Produce json
// @Param id path string true "Strategy ID"
// @Param request body reqdto.StrategyRequest true "Strategy"
// @Success 200 {object} resdto.StrategyResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /commission-strategies/{id} [put]
func (h *CommissionHandler) Update(c *gin.Context) {
	id, ok := strategyIDParam(c)
	if !ok {
		return
	}
	params, ok := bindStrategyParams(c)
	if !ok {
		return
	}
	s, err := h.cmds.UpdateStrategy(c.Request.Context(), id, params)
	if err != nil {
		abortWithUseCaseError(c, err, 0, "Update strategy failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromStrategyView(queries.NewStrategyView(s)))
}

// @Summary Activate commission strategy
// @Tags commission-strategies
// @Produce json
// @Param id path string true "Strategy ID"
// @Success 200 {object} resdto.StrategyResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /commission-strategies/{id}/activate [post]
func (h *CommissionHandler) Activate(c *gin.Context) {
	h.toggle(c, "Activate strategy failed", h.cmds.ActivateStrategy)
}

// @Summary Deactivate commission strategy
// @Tags commission-strategies
// @Produce json
// @Param id path string true "Strategy ID"
// @Success 200 {object} resdto.StrategyResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /commission-strategies/{id}/deactivate [post]
func (h *CommissionHandler) Deactivate(c *gin.Context) {
	h.toggle(c, "Deactivate strategy failed", h.cmds.DeactivateStrategy)
}

// @Summary Get commission strategy
// @Tags commission-strategies
// @Produce json
// @Param id path string true "Strategy ID"
// @Success 200 {object} resdto.StrategyResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /commission-strategies/{id} [get]
func (h *CommissionHandler) Get(c *gin.Context) {
	id, ok := strategyIDParam(c)
	if !ok {
		return
	}
	view, err := h.q.GetStrategy(c.Request.Context(), id)
	if err != nil {
		abortWithUseCaseError(c, err, 0, "Failed to load strategy")
		return
	}
	c.JSON(http.StatusOK, resdto.FromStrategyView(view))
}

// @Summary List commission strategies
// @Tags commission-strategies
// @Produce json
// @Param active query bool false "Only active strategies, in resolution order"
// @Success 200 {array} resdto.StrategyResponse
// @Failure 400 {object} httperr.Response
// @Router /commission-strategies [get]
func (h *CommissionHandler) List(c *gin.Context) {
	activeOnly := false
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid active flag", nil)
			return
		}
		activeOnly = v
	}
	views, err := h.q.ListStrategies(c.Request.Context(), activeOnly)
	if err != nil {
		abortWithUseCaseError(c, err, 0, "Failed to list strategies")
		return
	}
	c.JSON(http.StatusOK, resdto.FromStrategyViews(views))
}

// @Summary Quote a price
// @Description Resolve pricing with the active strategies exactly as booking creation would, without storing anything
// @Tags pricing
// @Accept json
// @Produce json
// @Param request body reqdto.QuoteRequest true "Quote request"
// @Success 200 {object} resdto.PriceQuoteResponse
// @Failure 400 {object} httperr.Response
// @Router /pricing/quote [post]
func (h *CommissionHandler) Quote(c *gin.Context) {
	var req reqdto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	in, err := req.ToInput()
	if err != nil {
		abortWithUseCaseError(c, err, 0, "Quote failed")
		return
	}
	view, err := h.q.QuotePrice(c.Request.Context(), in)
	if err != nil {
		abortWithUseCaseError(c, err, 0, "Quote failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromPriceQuoteView(view))
}

func (h *CommissionHandler) toggle(
	c *gin.Context,
	failMsg string,
	apply func(ctx context.Context, id uuid.UUID) (*commission.Strategy, error),
) {
	id, ok := strategyIDParam(c)
	if !ok {
		return
	}
	s, err := apply(c.Request.Context(), id)
	if err != nil {
		abortWithUseCaseError(c, err, 0, failMsg)
		return
	}
	c.JSON(http.StatusOK, resdto.FromStrategyView(queries.NewStrategyView(s)))
}

func bindStrategyParams(c *gin.Context) (commission.Params, bool) {
	var req reqdto.StrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return commission.Params{}, false
	}
	params, err := req.ToParams()
	if err != nil {
		abortWithUseCaseError(c, err, 0, "Invalid request")
		return commission.Params{}, false
	}
	return params, true
}

func strategyIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid strategy id", nil)
		return uuid.Nil, false
	}
	return id, true
}
