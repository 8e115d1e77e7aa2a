package api

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"github.com/bidzilla/bidzilla-web/pkg/logging"
	"github.com/bidzilla/bidzilla-web/pkg/models"
)

// ListProjects returns GET /projects. Visibility depends on the caller's role.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.Get(ctx, "list_projects", "/projects", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// MyProjects returns the calling buyer's own projects.
func (c *Client) MyProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.Get(ctx, "my_projects", "/projects/my", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// SellerProjects returns the projects assigned to the calling seller.
func (c *Client) SellerProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.Get(ctx, "seller_projects", "/projects/seller", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject returns a single project.
func (c *Client) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	var project models.Project
	if err := c.Get(ctx, "get_project", "/projects/"+strconv.FormatInt(id, 10), &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject posts a new project on behalf of req.BuyerID.
// The backend's response shape is not relied upon: the returned project is
// best-effort and may be zero-valued even on success.
// Any 2xx counts as created, whatever the body holds.
func (c *Client) CreateProject(ctx context.Context, req models.CreateProjectRequest) (*models.Project, error) {
	var raw []byte
	if _, err := c.Post(ctx, "create_project", "/projects", req, &raw); err != nil {
		return nil, err
	}

	var project models.Project
	if !json.Valid(raw) {
		c.logger.Debug("Create project response is not JSON", zap.String("body", logging.SanitizeBody(raw)))
		return &project, nil
	}
	if err := json.Unmarshal(raw, &project); err != nil || project.ID == 0 {
		var wrapped struct {
			Project models.Project `json:"project"`
		}
		if err := json.Unmarshal(raw, &wrapped); err == nil {
			project = wrapped.Project
		}
	}
	return &project, nil
}

// AcceptBid assigns the project to the bidding seller.
func (c *Client) AcceptBid(ctx context.Context, req models.AcceptBidRequest) error {
	_, err := c.Post(ctx, "accept_bid", "/projects/accept-bid", req, nil)
	return err
}

// MarkComplete moves an in-progress project to COMPLETED.
func (c *Client) MarkComplete(ctx context.Context, id int64) error {
	_, err := c.Put(ctx, "mark_complete", "/projects/"+strconv.FormatInt(id, 10)+"/mark-complete", nil, nil)
	return err
}
