package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/roach88/fractalflow/internal/mystery"
	"github.com/roach88/fractalflow/internal/progress"
	"github.com/roach88/fractalflow/internal/store"
	"github.com/roach88/fractalflow/internal/symbol"
)

// ResolveRequest previews an attempt.
type ResolveRequest struct {
	Symbols   []string `json:"symbols"`
	ProfileID int64    `json:"profileId,omitempty"`
}

// ResolveResponse describes what an attempt would produce. Nothing is
// persisted.
type ResolveResponse struct {
	Match          bool   `json:"match"`
	Kind           string `json:"kind,omitempty"`
	Output         string `json:"output,omitempty"`
	Display        string `json:"display,omitempty"`
	Name           string `json:"name,omitempty"`
	FirstDiscovery bool   `json:"firstDiscovery"`
	Points         int    `json:"points"`
}

// MysteryResponse is today's mystery as seen by a profile.
type MysteryResponse struct {
	Date          string           `json:"date"`
	Hint          string           `json:"hint"`
	Reward        string           `json:"reward"`
	Description   string           `json:"description"`
	Solved        bool             `json:"solved"`
	Progress      mystery.Progress `json:"progress"`
	TimeUntilNext string           `json:"timeUntilNext"`
}

func (h *Handler) getProfile(c *gin.Context) {
	p, err := h.repo.GetProfile(c.Request.Context(), h.profileID)
	if err != nil {
		h.handleServiceError(c, "Profile", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) updateProfile(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var patch store.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "body", "invalid profile data: "+err.Error())
		return
	}

	p, err := h.repo.UpdateProfile(c.Request.Context(), id, patch)
	if err != nil {
		h.handleServiceError(c, "Profile", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) createDiscovery(c *gin.Context) {
	var nd store.NewDiscovery
	if err := c.ShouldBindJSON(&nd); err != nil {
		badRequest(c, "body", "invalid discovery data: "+err.Error())
		return
	}

	d, err := h.repo.CreateDiscovery(c.Request.Context(), nd)
	if err != nil {
		h.handleServiceError(c, "Profile", err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) listDiscoveries(c *gin.Context) {
	profileID := h.profileID
	if c.Param("profileId") != "" {
		id, ok := parseID(c, "profileId")
		if !ok {
			return
		}
		profileID = id
	}

	limit := DefaultDiscoveryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, "limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	list, err := h.repo.ListDiscoveries(c.Request.Context(), profileID, limit)
	if err != nil {
		h.handleServiceError(c, "Profile", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) createSession(c *gin.Context) {
	ns := store.NewSession{ProfileID: h.profileID}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&ns); err != nil {
			badRequest(c, "body", "invalid session data: "+err.Error())
			return
		}
	}

	s, err := h.repo.CreateSession(c.Request.Context(), ns)
	if err != nil {
		h.handleServiceError(c, "Profile", err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) updateSession(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var patch store.SessionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "body", "invalid session data: "+err.Error())
		return
	}

	s, err := h.repo.UpdateSession(c.Request.Context(), id, patch)
	if err != nil {
		h.handleServiceError(c, "Session", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", "invalid resolve request: "+err.Error())
		return
	}

	attempt := make([]symbol.Symbol, 0, len(req.Symbols))
	for _, raw := range req.Symbols {
		sym, err := symbol.Parse(raw)
		if err != nil {
			badRequest(c, "symbols", err.Error())
			return
		}
		attempt = append(attempt, sym)
	}

	profileID := req.ProfileID
	if profileID == 0 {
		profileID = h.profileID
	}
	discovered, err := h.discovered(c, profileID)
	if err != nil {
		h.handleServiceError(c, "Profile", err)
		return
	}

	match, ok := h.engines.Resolver.Resolve(attempt, discovered)
	if !ok {
		c.JSON(http.StatusOK, ResolveResponse{})
		return
	}

	first := progress.IsFirstDiscovery(match.Rule, discovered)
	c.JSON(http.StatusOK, ResolveResponse{
		Match:          true,
		Kind:           string(match.Kind),
		Output:         match.Rule.Output.String(),
		Display:        match.Rule.Output.Display(),
		Name:           h.ruleName(match.Rule.Name, match.Rule.Output),
		FirstDiscovery: first,
		Points:         progress.Points(match.Rule, first),
	})
}

func (h *Handler) getMystery(c *gin.Context) {
	now := h.now()
	discovered, err := h.discovered(c, h.profileID)
	if err != nil {
		h.handleServiceError(c, "Profile", err)
		return
	}

	daily := h.engines.Mysteries.Daily(now)
	c.JSON(http.StatusOK, MysteryResponse{
		Date:          daily.Date,
		Hint:          daily.Hint,
		Reward:        daily.Reward.String(),
		Description:   daily.Description,
		Solved:        h.engines.Mysteries.IsSolved(now, discovered),
		Progress:      h.engines.Mysteries.Progress(c.Request.Context(), now),
		TimeUntilNext: mystery.TimeUntilNext(now),
	})
}

// discovered is the profile's discovered set. Basic symbols are not in it
// until the player has produced them.
func (h *Handler) discovered(c *gin.Context, profileID int64) (*symbol.Set, error) {
	p, err := h.repo.GetProfile(c.Request.Context(), profileID)
	if err != nil {
		return nil, err
	}
	return symbol.SetOf(p.DiscoveredSymbols), nil
}

func (h *Handler) ruleName(name string, out symbol.Symbol) string {
	if name != "" {
		return name
	}
	return h.engines.Registry.Name(out)
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id < 1 {
		badRequest(c, param, "invalid "+param)
		return 0, false
	}
	return id, true
}
