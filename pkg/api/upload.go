package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// ImageField is the multipart field the backend reads uploads from.
const ImageField = "vehicleImage"

// UploadedImage describes a stored vehicle image.
type UploadedImage struct {
	Filename string `json:"filename"`
	ImageURL string `json:"imageUrl"`
	Size     int64  `json:"size,omitempty"`
	MimeType string `json:"mimetype,omitempty"`
}

// UploadVehicleImage stores an image and returns where it can be fetched.
func (c *Client) UploadVehicleImage(ctx context.Context, filename string, r io.Reader) (*UploadedImage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(ImageField, filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finish form: %w", err)
	}

	req := request{
		op:          "upload_vehicle_image",
		method:      http.MethodPost,
		path:        "/upload/vehicle-image",
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
	}
	var out UploadedImage
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteVehicleImage removes a stored image.
func (c *Client) DeleteVehicleImage(ctx context.Context, filename string) error {
	req := request{op: "delete_vehicle_image", method: http.MethodDelete, path: "/upload/vehicle-image/" + segment(filename)}
	return c.call(ctx, req, nil)
}

// VehicleImageInfo returns metadata about a stored image.
func (c *Client) VehicleImageInfo(ctx context.Context, filename string) (*UploadedImage, error) {
	var out UploadedImage
	req := request{op: "vehicle_image_info", method: http.MethodGet, path: "/upload/vehicle-image/" + segment(filename)}
	if err := c.call(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
