package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"villaledger/internal/app/commands"
	"villaledger/internal/app/dto"
	pricingapp "villaledger/internal/app/handlers/pricing"
	"villaledger/internal/app/queries"
)

type PricingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h PricingHandler) ListRules(c *gin.Context) {
	q := pricingapp.ListRulesQuery{Unit: c.Query("apart")}
	result, err := queries.Ask[pricingapp.ListRulesQuery, []dto.PriceRule](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type addRuleRequest struct {
	Unit  string  `json:"apart" binding:"required"`
	Start string  `json:"start" binding:"required"`
	End   string  `json:"end" binding:"required"`
	Price float64 `json:"price"`
}

func (h PricingHandler) AddRule(c *gin.Context) {
	var req addRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := pricingapp.AddRuleCommand{
		Unit:         req.Unit,
		Start:        req.Start,
		End:          req.End,
		NightlyPrice: decimal.NewFromFloat(req.Price),
	}
	result, err := commands.Dispatch[pricingapp.AddRuleCommand, dto.PriceRule](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h PricingHandler) DeleteRule(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	result, err := commands.Dispatch[pricingapp.DeleteRuleCommand, []dto.PriceRule](c.Request.Context(), h.Commands, pricingapp.DeleteRuleCommand{ID: id})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PricingHandler) Nightly(c *gin.Context) {
	day, err := parseDay(c.Query("date"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	q := pricingapp.ResolveNightlyQuery{Unit: c.Query("apart"), Date: day}
	result, err := queries.Ask[pricingapp.ResolveNightlyQuery, dto.NightlyPrice](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PricingHandler) Range(c *gin.Context) {
	checkIn, err := parseDay(c.Query("cin"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	checkOut, err := parseDay(c.Query("cout"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	q := pricingapp.RangePriceQuery{Unit: c.Query("apart"), CheckIn: checkIn, CheckOut: checkOut}
	result, err := queries.Ask[pricingapp.RangePriceQuery, dto.RangePrice](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type quoteRequest struct {
	Unit           string   `json:"apart"`
	CheckIn        string   `json:"cin"`
	CheckOut       string   `json:"cout"`
	NightlyPrice   *float64 `json:"price"`
	CommissionRate *float64 `json:"commissionRate"`
	PaidAmount     *float64 `json:"paidAmt"`
	StrictRates    bool     `json:"strict"`
}

func (h PricingHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, err := parseDay(req.CheckIn)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	checkOut, err := parseDay(req.CheckOut)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	q := pricingapp.QuoteStayQuery{
		Unit:           req.Unit,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		NightlyPrice:   nullDecimal(req.NightlyPrice),
		CommissionRate: nullDecimal(req.CommissionRate),
		PaidAmount:     nullDecimal(req.PaidAmount),
		StrictRates:    req.StrictRates,
	}
	result, err := queries.Ask[pricingapp.QuoteStayQuery, dto.StayQuote](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type quickCalcRequest struct {
	Unit         string   `json:"apart"`
	CheckIn      string   `json:"cin"`
	CheckOut     string   `json:"cout"`
	NightlyPrice *float64 `json:"price"`
	Discount     float64  `json:"discount"`
}

func (h PricingHandler) QuickCalc(c *gin.Context) {
	var req quickCalcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, err := parseDay(req.CheckIn)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	checkOut, err := parseDay(req.CheckOut)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	q := pricingapp.QuickCalcQuery{
		Unit:         req.Unit,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		NightlyPrice: nullDecimal(req.NightlyPrice),
		Discount:     decimal.NewFromFloat(req.Discount),
	}
	result, err := queries.Ask[pricingapp.QuickCalcQuery, dto.QuickCalc](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PricingHTTP = PricingHandler{}
