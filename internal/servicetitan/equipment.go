package servicetitan

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

type installedEquipmentResponse struct {
	Data []InstalledEquipment `json:"data"`
}

// ListInstalledEquipment returns the equipment already on file for a
// location.
func (c *Client) ListInstalledEquipment(ctx context.Context, locationID int64) ([]InstalledEquipment, error) {
	result := &installedEquipmentResponse{}

	req, err := c.req(ctx, result)
	if err != nil {
		return nil, err
	}

	_, err = handleError(req.
		SetQueryParam("locationId", strconv.FormatInt(locationID, 10)).
		Get("/equipmentsystems/v2/tenant/{tenant}/installed-equipment"))

	return result.Data, err
}

// FindBySerial looks for existing equipment at the location with a matching
// serial number. Serial comparison ignores case and surrounding whitespace.
func (c *Client) FindBySerial(ctx context.Context, locationID int64, serial string) (*InstalledEquipment, error) {
	if strings.TrimSpace(serial) == "" {
		return nil, nil
	}

	existing, err := c.ListInstalledEquipment(ctx, locationID)
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(strings.TrimSpace(serial))
	for i := range existing {
		if strings.ToLower(strings.TrimSpace(existing[i].SerialNumber)) == want {
			return &existing[i], nil
		}
	}
	return nil, nil
}

func (c *Client) CreateEquipment(ctx context.Context, payload EquipmentPayload) (InstalledEquipment, error) {
	result := &InstalledEquipment{}

	req, err := c.req(ctx, result)
	if err != nil {
		return InstalledEquipment{}, err
	}

	_, err = handleError(req.
		SetBody(payload).
		Post("/equipmentsystems/v2/tenant/{tenant}/installed-equipment"))

	return *result, err
}

func (c *Client) UpdateEquipment(ctx context.Context, equipmentID int64, payload EquipmentPayload) (InstalledEquipment, error) {
	result := &InstalledEquipment{}

	req, err := c.req(ctx, result)
	if err != nil {
		return InstalledEquipment{}, err
	}

	_, err = handleError(req.
		SetPathParam("equipmentId", strconv.FormatInt(equipmentID, 10)).
		SetBody(payload).
		Patch("/equipmentsystems/v2/tenant/{tenant}/installed-equipment/{equipmentId}"))

	return *result, err
}

// CreateOrUpdateEquipment upserts by serial number: an existing record at the
// location with the same serial is updated in place, otherwise a new record
// is created.
func (c *Client) CreateOrUpdateEquipment(ctx context.Context, payload EquipmentPayload) (InstalledEquipment, error) {
	existing, err := c.FindBySerial(ctx, payload.LocationID, payload.SerialNumber)
	if err != nil {
		return InstalledEquipment{}, err
	}

	if existing != nil {
		log.Info().
			Int64("equipmentId", existing.ID).
			Str("serial", payload.SerialNumber).
			Msg("updating existing equipment record")
		return c.UpdateEquipment(ctx, existing.ID, payload)
	}

	log.Info().
		Int64("locationId", payload.LocationID).
		Str("serial", payload.SerialNumber).
		Msg("creating equipment record")
	return c.CreateEquipment(ctx, payload)
}

// UploadAttachment attaches a data plate photo to an equipment record.
func (c *Client) UploadAttachment(ctx context.Context, equipmentID int64, filename string, photo []byte) error {
	req, err := c.req(ctx, nil)
	if err != nil {
		return err
	}

	_, err = handleError(req.
		SetPathParam("equipmentId", strconv.FormatInt(equipmentID, 10)).
		SetFileReader("file", filename, bytes.NewReader(photo)).
		Post("/equipmentsystems/v2/tenant/{tenant}/installed-equipment/{equipmentId}/attachments"))

	return err
}
