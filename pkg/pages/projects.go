package pages

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/bidzilla/bidzilla-web/pkg/api"
	"github.com/bidzilla/bidzilla-web/pkg/auth"
	"github.com/bidzilla/bidzilla-web/pkg/logging"
	"github.com/bidzilla/bidzilla-web/pkg/models"
)

const (
	msgProjectCreated     = "Project created successfully!"
	msgProjectCreateFail  = "Failed to create project: "
	msgBackendUnavailable = "the marketplace is unavailable, please try again later."
	msgProjectLoadFailed  = "Failed to load project."
	msgBidSubmitted       = "Bid submitted!"
	msgBidFailed          = "Could not submit bid."
	msgInvalidBid         = "Invalid bid selected"
	msgBidAccepted        = "Bid accepted & seller notified!"
	msgAcceptFailed       = "Could not accept the bid."
	msgNotOpen            = "Bids can only be accepted while the project is open."
	msgNotOwner           = "Only the project's buyer can accept bids."
	msgChooseFile         = "Please choose a file to upload."
	msgMarkedComplete     = "Project marked as completed"
	msgMarkCompleteFailed = "Could not complete the project."
)

// NewProject handles GET /projects/new.
func (h *Handler) NewProject(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageProjectNew, view{Title: "Create Project", Data: projectForm{}})
}

// CreateProject handles POST /projects. The buyer id always comes from the
// session, never from the form.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	form := parseProjectForm(r)

	req, err := form.request(user.ID)
	if err != nil {
		h.auditInput(r, "project", err)
		h.render(w, r, http.StatusUnprocessableEntity, pageProjectNew,
			view{Title: "Create Project", Error: userMessage(err, msgProjectRequired), Data: form})
		return
	}

	project, err := h.backend.CreateProject(r.Context(), req)
	if err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		h.logger.Warn("Project creation failed",
			zap.Int64("buyer_id", user.ID),
			zap.String("error", logging.SanitizeError(err)))
		h.render(w, r, http.StatusUnprocessableEntity, pageProjectNew,
			view{Title: "Create Project", Error: msgProjectCreateFail + api.ErrorMessage(err, msgBackendUnavailable), Data: form})
		return
	}

	fields := []zap.Field{zap.Int64("buyer_id", user.ID)}
	if project != nil && project.ID != 0 {
		fields = append(fields, zap.Int64("project_id", project.ID))
	}
	h.logger.Info("Project created", fields...)
	h.noticeAndRedirect(w, r, msgProjectCreated, models.RoleBuyer.DashboardPath())
}

type projectDetailData struct {
	Project         *models.Project
	Bids            []models.Bid
	Deliverables    []models.Deliverable
	IsOwner         bool
	CanDeliver      bool
	CanMarkComplete bool
	CanBid          bool
	CanAcceptBids   bool
}

// ProjectDetail handles GET /projects/{id}. Reads run in order: the project,
// then its bids (owner only), then its deliverables. Any failure sends the
// browser home with an alert.
func (h *Handler) ProjectDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	user := auth.UserFromContext(r.Context())

	data := projectDetailData{}
	err := NewLoader().
		Step("project", func(ctx context.Context) error {
			var err error
			data.Project, err = h.backend.GetProject(ctx, id)
			return err
		}).
		StepIf(func() bool { return models.OwnsProject(user, data.Project) }, "bids", func(ctx context.Context) error {
			var err error
			data.Bids, err = h.backend.ProjectBids(ctx, id)
			return err
		}).
		Step("deliverables", func(ctx context.Context) error {
			var err error
			data.Deliverables, err = h.backend.ProjectDeliverables(ctx, id)
			return err
		}).
		Load(r.Context())
	if err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		h.logger.Warn("Failed to load project", zap.Int64("project_id", id), zap.Error(err))
		h.alertAndRedirect(w, r, msgProjectLoadFailed, auth.HomePath)
		return
	}

	p := data.Project
	data.IsOwner = models.OwnsProject(user, p)
	data.CanDeliver = models.CanDeliver(user, p)
	data.CanMarkComplete = models.CanMarkComplete(user, p)
	data.CanBid = models.CanBid(user, p)
	data.CanAcceptBids = data.IsOwner && models.CanAcceptBids(p)

	h.render(w, r, http.StatusOK, pageProjectDetail, view{Title: p.Title, Data: data})
}

// SubmitBid handles POST /projects/{id}/bids.
func (h *Handler) SubmitBid(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}

	req, err := parseBidForm(r, id)
	if err != nil {
		h.auditInput(r, "bid", err)
		h.alertAndRedirect(w, r, userMessage(err, msgBidFields), projectPath(id))
		return
	}

	if err := h.backend.SubmitBid(r.Context(), req); err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		h.logger.Warn("Bid submission failed", zap.Int64("project_id", id), zap.String("error", logging.SanitizeError(err)))
		h.alertAndRedirect(w, r, msgBidFailed, projectPath(id))
		return
	}

	h.noticeAndRedirect(w, r, msgBidSubmitted, models.RoleSeller.DashboardPath())
}

// AcceptBid handles POST /projects/{id}/accept-bid. The project and its bids
// are re-read so the request is sent only for an open project and a bid that
// exists, and it is sent exactly once.
func (h *Handler) AcceptBid(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}
	back := projectPath(id)

	bidID, ok := parseID(r.PostFormValue("bidId"))
	if !ok {
		h.alertAndRedirect(w, r, msgInvalidBid, back)
		return
	}

	var (
		project *models.Project
		bids    []models.Bid
	)
	err := NewLoader().
		Step("project", func(ctx context.Context) error {
			var err error
			project, err = h.backend.GetProject(ctx, id)
			return err
		}).
		Step("bids", func(ctx context.Context) error {
			var err error
			bids, err = h.backend.ProjectBids(ctx, id)
			return err
		}).
		Load(r.Context())
	if err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		h.logger.Warn("Failed to load project for bid acceptance", zap.Int64("project_id", id), zap.Error(err))
		h.alertAndRedirect(w, r, msgAcceptFailed, back)
		return
	}

	if !models.OwnsProject(auth.UserFromContext(r.Context()), project) {
		h.alertAndRedirect(w, r, msgNotOwner, back)
		return
	}
	if !models.CanAcceptBids(project) {
		h.alertAndRedirect(w, r, msgNotOpen, back)
		return
	}

	bid, found := models.FindBid(bids, bidID)
	if !found {
		h.alertAndRedirect(w, r, msgInvalidBid, back)
		return
	}

	req := models.AcceptBidRequest{ProjectID: project.ID, SellerID: bid.SellerUserID()}
	if err := h.backend.AcceptBid(r.Context(), req); err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		h.logger.Warn("Bid acceptance failed",
			zap.Int64("project_id", id),
			zap.Int64("bid_id", bidID),
			zap.String("error", logging.SanitizeError(err)))
		h.alertAndRedirect(w, r, msgAcceptFailed, back)
		return
	}

	h.logger.Info("Bid accepted", zap.Int64("project_id", id), zap.Int64("seller_id", req.SellerID))
	h.noticeAndRedirect(w, r, msgBidAccepted, back)
}

// UploadDeliverable handles POST /projects/{id}/deliverables. Without a file
// nothing is sent.
func (h *Handler) UploadDeliverable(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}

	upload, ok := h.readUpload(w, r)
	if !ok {
		h.alertAndRedirect(w, r, msgChooseFile, projectPath(id))
		return
	}
	defer upload.Close()

	h.sendUpload(w, r, id, upload, projectPath(id))
}

// MarkComplete handles POST /projects/{id}/complete.
func (h *Handler) MarkComplete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.projectID(w, r)
	if !ok {
		return
	}

	if err := h.backend.MarkComplete(r.Context(), id); err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		h.logger.Warn("Mark complete failed", zap.Int64("project_id", id), zap.String("error", logging.SanitizeError(err)))
		h.alertAndRedirect(w, r, msgMarkCompleteFailed, projectPath(id))
		return
	}

	h.noticeAndRedirect(w, r, msgMarkedComplete, projectPath(id))
}
