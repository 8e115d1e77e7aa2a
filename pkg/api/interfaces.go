package api

import (
	"context"
	"io"

	"github.com/bidzilla/bidzilla-web/pkg/models"
)

// Marketplace is the set of backend operations the pages use.
// *Client implements it; tests substitute fakes.
type Marketplace interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) error

	ListProjects(ctx context.Context) ([]models.Project, error)
	MyProjects(ctx context.Context) ([]models.Project, error)
	SellerProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	CreateProject(ctx context.Context, req models.CreateProjectRequest) (*models.Project, error)
	AcceptBid(ctx context.Context, req models.AcceptBidRequest) error
	MarkComplete(ctx context.Context, id int64) error

	ProjectBids(ctx context.Context, projectID int64) ([]models.Bid, error)
	SubmitBid(ctx context.Context, req models.SubmitBidRequest) error

	ProjectDeliverables(ctx context.Context, projectID int64) ([]models.Deliverable, error)
	UploadDeliverable(ctx context.Context, projectID int64, fileName string, content io.Reader) error
}

var _ Marketplace = (*Client)(nil)
