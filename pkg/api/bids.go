package api

import (
	"context"
	"io"
	"strconv"

	"github.com/bidzilla/bidzilla-web/pkg/models"
)

// ProjectBids returns the bids placed on a project (owning buyer only).
func (c *Client) ProjectBids(ctx context.Context, projectID int64) ([]models.Bid, error) {
	var bids []models.Bid
	if err := c.Get(ctx, "project_bids", "/bids/project/"+strconv.FormatInt(projectID, 10), &bids); err != nil {
		return nil, err
	}
	return bids, nil
}

// SubmitBid places a seller's bid.
func (c *Client) SubmitBid(ctx context.Context, req models.SubmitBidRequest) error {
	_, err := c.Post(ctx, "submit_bid", "/bids", req, nil)
	return err
}

// ProjectDeliverables returns the files uploaded against a project.
func (c *Client) ProjectDeliverables(ctx context.Context, projectID int64) ([]models.Deliverable, error) {
	var deliverables []models.Deliverable
	if err := c.Get(ctx, "project_deliverables", "/deliverables/project/"+strconv.FormatInt(projectID, 10), &deliverables); err != nil {
		return nil, err
	}
	return deliverables, nil
}

// UploadDeliverable sends a file for a project as multipart {projectId, file}.
func (c *Client) UploadDeliverable(ctx context.Context, projectID int64, fileName string, content io.Reader) error {
	_, err := c.PostMultipart(ctx, "upload_deliverable", "/deliverables/upload",
		map[string]string{"projectId": strconv.FormatInt(projectID, 10)},
		FilePart{FieldName: "file", FileName: fileName, Content: content},
		nil)
	return err
}
