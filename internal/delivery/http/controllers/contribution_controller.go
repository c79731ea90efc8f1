package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"savingscircle/internal/delivery/http/helpers"
	"savingscircle/internal/domain"
)

// SubmitContributionRequest is the request body for POST /groups/{groupID}/contributions.
// Amount 0 means the group's contribution amount.
type SubmitContributionRequest struct {
	Period int   `json:"period"`
	Amount int64 `json:"amount"`
}

// Validate implements Validator.
func (s SubmitContributionRequest) Validate() []string {
	var errs []string
	if s.Period < 1 {
		errs = append(errs, "period must be at least 1")
	}
	if s.Amount < 0 {
		errs = append(errs, "amount must not be negative")
	}
	return errs
}

// ContributionSuccessResponse is the success envelope for a single contribution.
type ContributionSuccessResponse struct {
	Data  *domain.Contribution `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// ContributionPage is one page of a group's contributions.
type ContributionPage struct {
	Items      []*domain.Contribution `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ContributionListSuccessResponse is the success envelope for GET /groups/{groupID}/contributions.
type ContributionListSuccessResponse struct {
	Data  ContributionPage  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type ContributionController struct {
	Logger  *slog.Logger
	Service domain.ContributionService
}

func NewContributionController(logger *slog.Logger, svc domain.ContributionService) *ContributionController {
	return &ContributionController{
		Logger:  logger,
		Service: svc,
	}
}

// Submit godoc
// @Summary Submit a contribution
// @Description Records the caller's payment for a period as pending. Resubmitting while one is pending or confirmed returns it with 200.
// @Tags contributions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param body body SubmitContributionRequest true "Period and amount"
// @Success 201 {object} controllers.ContributionSuccessResponse
// @Success 200 {object} controllers.ContributionSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Router /groups/{groupID}/contributions [post]
func (c *ContributionController) Submit(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	var req SubmitContributionRequest
	if !helpers.DecodeAndValidate(w, r, &req, false) {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	out, created, err := c.Service.Submit(r.Context(), groupID, actor, req.Period, req.Amount)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	helpers.WriteJSONSuccess(w, status, out)
}

// Confirm godoc
// @Summary Confirm a contribution
// @Tags contributions
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param contributionID path string true "Contribution ID"
// @Success 200 {object} controllers.ContributionSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: contribution_out_of_order or invalid_transition"
// @Router /groups/{groupID}/contributions/{contributionID}/confirm [post]
func (c *ContributionController) Confirm(w http.ResponseWriter, r *http.Request) {
	c.review(w, r, c.Service.Confirm)
}

// Reject godoc
// @Summary Reject a contribution
// @Description The member may submit again for the same period.
// @Tags contributions
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param contributionID path string true "Contribution ID"
// @Success 200 {object} controllers.ContributionSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Router /groups/{groupID}/contributions/{contributionID}/reject [post]
func (c *ContributionController) Reject(w http.ResponseWriter, r *http.Request) {
	c.review(w, r, c.Service.Reject)
}

type reviewFunc func(ctx context.Context, groupID, contributionID string, actor domain.Actor) (*domain.Contribution, error)

func (c *ContributionController) review(w http.ResponseWriter, r *http.Request, fn reviewFunc) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	contributionID := r.PathValue("contributionID")
	if contributionID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing contributionID")
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	out, err := fn(r.Context(), groupID, contributionID, actor)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, out)
}

// List godoc
// @Summary List contributions
// @Tags contributions
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param period query int false "Only this period"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Items per page (default 50, max 200)"
// @Success 200 {object} controllers.ContributionListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /groups/{groupID}/contributions [get]
func (c *ContributionController) List(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	if _, ok := requireActor(w, r); !ok {
		return
	}
	period := 0
	if s := r.URL.Query().Get("period"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "period must be a positive integer")
			return
		}
		period = v
	}
	all, err := c.Service.List(r.Context(), groupID, period)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	items, meta := helpers.Page(all, helpers.ParsePagination(r))
	if items == nil {
		items = []*domain.Contribution{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ContributionPage{Items: items, Pagination: meta})
}
