package pages

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/bidzilla/bidzilla-web/pkg/auth"
	"github.com/bidzilla/bidzilla-web/pkg/logging"
	"github.com/bidzilla/bidzilla-web/pkg/models"
)

const (
	msgBuyerLoadFailed    = "Failed to load projects."
	msgSellerLoadFailed   = "Error loading projects"
	msgProjectsLoadFailed = "Failed to load projects"
	msgInvalidProjectID   = "Missing or invalid project ID."
	msgUploaded           = "Deliverable uploaded!"
	msgUploadFailed       = "Upload failed."
)

type projectListData struct {
	Heading   string
	CanCreate bool
	Projects  []models.Project
}

// BuyerDashboard handles GET /buyer/dashboard: the buyer's own projects.
// A load failure renders the page with an alert; redirecting home would
// bounce straight back here.
func (h *Handler) BuyerDashboard(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var projects []models.Project
	err := NewLoader().
		Step("projects", func(ctx context.Context) error {
			all, err := h.backend.ListProjects(ctx)
			if err != nil {
				return err
			}
			projects = ownedBy(all, user.ID)
			return nil
		}).
		Load(r.Context())

	v := view{Title: "Buyer Dashboard"}
	if err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		h.logger.Warn("Failed to load buyer projects", zap.Error(err))
		v.Error = msgBuyerLoadFailed
	}

	v.Data = projectListData{Projects: projects}
	h.render(w, r, http.StatusOK, pageBuyerDashboard, v)
}

// ownedBy keeps the projects posted by buyerID.
func ownedBy(projects []models.Project, buyerID int64) []models.Project {
	var out []models.Project
	for _, p := range projects {
		if p.BuyerID == buyerID {
			out = append(out, p)
		}
	}
	return out
}

// SellerDashboard handles GET /seller/dashboard: projects assigned to the seller.
func (h *Handler) SellerDashboard(w http.ResponseWriter, r *http.Request) {
	var projects []models.Project
	err := NewLoader().
		Step("projects", func(ctx context.Context) error {
			var err error
			projects, err = h.backend.SellerProjects(ctx)
			return err
		}).
		Load(r.Context())

	v := view{Title: "Seller Dashboard"}
	if err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		h.logger.Warn("Failed to load seller projects", zap.Error(err))
		v.Error = msgSellerLoadFailed
	}

	v.Data = projectListData{Projects: projects}
	h.render(w, r, http.StatusOK, pageSellerDashboard, v)
}

// DashboardUpload handles POST /seller/dashboard/deliverables. Nothing is
// sent unless both a numeric project id and a file were submitted.
func (h *Handler) DashboardUpload(w http.ResponseWriter, r *http.Request) {
	const back = "/seller/dashboard"

	upload, ok := h.readUpload(w, r)
	if !ok {
		h.alertAndRedirect(w, r, msgInvalidProjectID, back)
		return
	}
	defer upload.Close()

	projectID, ok := parseID(r.PostFormValue("projectId"))
	if !ok {
		h.alertAndRedirect(w, r, msgInvalidProjectID, back)
		return
	}

	h.sendUpload(w, r, projectID, upload, back)
}

// Projects handles GET /projects. Buyers see their own projects, everyone
// else sees the open projects.
func (h *Handler) Projects(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	isBuyer := user.Role == models.RoleBuyer

	data := projectListData{Heading: "All Open Projects"}
	list := h.backend.ListProjects
	if isBuyer {
		data = projectListData{Heading: "Your Projects", CanCreate: true}
		list = h.backend.MyProjects
	}

	err := NewLoader().
		Step("projects", func(ctx context.Context) error {
			var err error
			data.Projects, err = list(ctx)
			return err
		}).
		Load(r.Context())

	v := view{Title: "Projects"}
	if err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		h.logger.Warn("Failed to load projects", zap.Error(err))
		v.Error = msgProjectsLoadFailed
		data.Projects = nil
	}

	v.Data = data
	h.render(w, r, http.StatusOK, pageProjects, v)
}

// sendUpload forwards one deliverable to the backend and redirects to back.
func (h *Handler) sendUpload(w http.ResponseWriter, r *http.Request, projectID int64, upload *upload, back string) {
	if err := h.backend.UploadDeliverable(r.Context(), projectID, upload.name, upload.file); err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		h.logger.Warn("Deliverable upload failed",
			zap.Int64("project_id", projectID),
			zap.String("error", logging.SanitizeError(err)))
		h.alertAndRedirect(w, r, msgUploadFailed, back)
		return
	}

	h.noticeAndRedirect(w, r, msgUploaded, back)
}
