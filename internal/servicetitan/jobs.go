package servicetitan

import (
	"context"
	"strconv"
	"strings"
)

// scannerSectionHeader marks the block of the job summary owned by the
// scanner; re-running a job replaces the block instead of stacking copies.
const scannerSectionHeader = "--- Equipment Scan ---"

func (c *Client) GetJob(ctx context.Context, jobID int64) (Job, error) {
	result := &Job{}

	req, err := c.req(ctx, result)
	if err != nil {
		return Job{}, err
	}

	_, err = handleError(req.
		SetPathParam("jobId", strconv.FormatInt(jobID, 10)).
		Get("/jpm/v2/tenant/{tenant}/jobs/{jobId}"))

	return *result, err
}

func (c *Client) GetLocation(ctx context.Context, locationID int64) (Location, error) {
	result := &Location{}

	req, err := c.req(ctx, result)
	if err != nil {
		return Location{}, err
	}

	_, err = handleError(req.
		SetPathParam("locationId", strconv.FormatInt(locationID, 10)).
		Get("/crm/v2/tenant/{tenant}/locations/{locationId}"))

	return *result, err
}

// UpdateJobSummary writes the scan section into the job's summary. Existing
// summary text above the scanner section is preserved; a previous scan
// section is replaced.
func (c *Client) UpdateJobSummary(ctx context.Context, jobID int64, scanSummary string) error {
	job, err := c.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	summary := mergeSummary(job.Summary, scanSummary)

	req, err := c.req(ctx, nil)
	if err != nil {
		return err
	}

	_, err = handleError(req.
		SetPathParam("jobId", strconv.FormatInt(jobID, 10)).
		SetBody(map[string]string{"summary": summary}).
		Patch("/jpm/v2/tenant/{tenant}/jobs/{jobId}"))

	return err
}

func mergeSummary(existing, scanSummary string) string {
	if idx := strings.Index(existing, scannerSectionHeader); idx >= 0 {
		existing = strings.TrimRight(existing[:idx], "\n")
	}

	section := scannerSectionHeader + "\n" + scanSummary
	if existing == "" {
		return section
	}
	return existing + "\n\n" + section
}
