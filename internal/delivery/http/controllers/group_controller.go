package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"savingscircle/internal/delivery/http/helpers"
	"savingscircle/internal/domain"
)

// CreateGroupRequest is the request body for POST /groups.
type CreateGroupRequest struct {
	Name               string `json:"name"`
	Duration           int    `json:"duration"`
	ContributionAmount int64  `json:"contribution_amount"`
	Currency           string `json:"currency"`
	ProductRef         string `json:"product_ref"`
}

// Validate implements Validator.
func (c CreateGroupRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if c.Duration < 1 {
		errs = append(errs, "duration must be at least 1")
	}
	if c.ContributionAmount < 0 {
		errs = append(errs, "contribution_amount must not be negative")
	}
	if c.Currency != "" && len(c.Currency) != 3 {
		errs = append(errs, "currency must be a 3-letter code")
	}
	return errs
}

// JoinGroupRequest is the request body for POST /groups/{groupID}/members. The body is optional.
type JoinGroupRequest struct {
	DisplayName string `json:"display_name"`
	Currency    string `json:"currency"`
}

// GroupSuccessResponse is the success envelope for endpoints returning a group.
type GroupSuccessResponse struct {
	Data  *domain.Group     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// SnapshotSuccessResponse is the success envelope for GET /groups/{groupID}.
type SnapshotSuccessResponse struct {
	Data  *domain.GroupSnapshot `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// MembershipSuccessResponse is the success envelope for POST /groups/{groupID}/members.
type MembershipSuccessResponse struct {
	Data  *domain.Membership `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// DrawSuccessResponse is the success envelope for POST /groups/{groupID}/draw.
type DrawSuccessResponse struct {
	Data  *domain.DrawResult `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// TurnSuccessResponse is the success envelope for POST /groups/{groupID}/turns/advance.
type TurnSuccessResponse struct {
	Data  *domain.TurnOutcome `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// DeliveriesSuccessResponse is the success envelope for GET /groups/{groupID}/deliveries.
type DeliveriesSuccessResponse struct {
	Data  []*domain.Delivery `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

type GroupController struct {
	Logger      *slog.Logger
	Lifecycle   domain.LifecycleService
	Memberships domain.MembershipService
}

func NewGroupController(logger *slog.Logger, lifecycle domain.LifecycleService, memberships domain.MembershipService) *GroupController {
	return &GroupController{
		Logger:      logger,
		Lifecycle:   lifecycle,
		Memberships: memberships,
	}
}

// CreateGroup godoc
// @Summary Create a savings circle
// @Description Creates a group in the forming state. Admin only.
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param group body CreateGroupRequest true "Group terms"
// @Success 201 {object} controllers.GroupSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups [post]
func (c *GroupController) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if !helpers.DecodeAndValidate(w, r, &req, false) {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	g := domain.NewGroup(req.Name, req.Duration, req.ContributionAmount, strings.ToUpper(req.Currency), req.ProductRef, actor.UserID, time.Time{})
	if err := c.Lifecycle.CreateGroup(r.Context(), actor, g); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, g)
}

// GetGroup godoc
// @Summary Get a group's current state
// @Description Returns the group, its memberships and, once drawn, the reveal sequence. Members and admins only.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Success 200 {object} controllers.SnapshotSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /groups/{groupID} [get]
func (c *GroupController) GetGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	snap, err := c.Lifecycle.CurrentState(r.Context(), groupID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	if !requireViewer(c.Logger, w, r, snap, actor) {
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, snap)
}

// Join godoc
// @Summary Join a forming group
// @Description Adds the caller as a member. Repeating the call returns the existing membership with 200. The join that reaches the group's duration fills it.
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Param body body JoinGroupRequest false "Display name and currency"
// @Success 201 {object} controllers.MembershipSuccessResponse
// @Success 200 {object} controllers.MembershipSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Router /groups/{groupID}/members [post]
func (c *GroupController) Join(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	var req JoinGroupRequest
	if !helpers.DecodeAndValidate(w, r, &req, true) {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	m, created, err := c.Memberships.Join(r.Context(), groupID, actor, req.DisplayName, req.Currency)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	helpers.WriteJSONSuccess(w, status, m)
}

// Fill godoc
// @Summary Confirm a group is full
// @Description Moves a forming group whose membership count equals its duration to full. Admin only.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Success 200 {object} controllers.GroupSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Failure 422 {object} helpers.APIResponse "error.code: membership_count_mismatch"
// @Router /groups/{groupID}/fill [post]
func (c *GroupController) Fill(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !actor.IsAdmin() {
		writeServiceError(c.Logger, w, r, domain.ErrPermissionDenied)
		return
	}
	g, err := c.Lifecycle.Fill(r.Context(), groupID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, g)
}

// TriggerDraw godoc
// @Summary Run the position draw
// @Description Assigns every member a position once and starts the group. A repeated call returns the stored result with 200.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Success 201 {object} controllers.DrawSuccessResponse "draw performed"
// @Success 200 {object} controllers.DrawSuccessResponse "draw already performed"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Failure 422 {object} helpers.APIResponse "error.code: membership_count_mismatch"
// @Router /groups/{groupID}/draw [post]
func (c *GroupController) TriggerDraw(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	draw, performed, err := c.Lifecycle.TriggerDraw(r.Context(), groupID, actor)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	status := http.StatusOK
	if performed {
		status = http.StatusCreated
	}
	helpers.WriteJSONSuccess(w, status, draw)
}

// AdvanceTurn godoc
// @Summary Close the current period
// @Description Creates the period's delivery for the position holder and moves to the next turn, or completes the group after the last one. Every member's contribution for the period must be confirmed.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Success 200 {object} controllers.TurnSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: payments_incomplete or invalid_transition"
// @Router /groups/{groupID}/turns/advance [post]
func (c *GroupController) AdvanceTurn(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	out, err := c.Lifecycle.AdvanceTurn(r.Context(), groupID, actor)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, out)
}

// ListDeliveries godoc
// @Summary List a group's deliveries
// @Description Members and admins only.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path string true "Group ID"
// @Success 200 {object} controllers.DeliveriesSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /groups/{groupID}/deliveries [get]
func (c *GroupController) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	snap, err := c.Lifecycle.CurrentState(r.Context(), groupID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	if !requireViewer(c.Logger, w, r, snap, actor) {
		return
	}
	ds, err := c.Lifecycle.ListDeliveries(r.Context(), groupID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	if ds == nil {
		ds = []*domain.Delivery{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ds)
}
