package api

import (
	"cuegrid/internal/media"
	"cuegrid/internal/slots"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ClickResponse struct {
	Key    string `json:"key"`
	Status string `json:"status"`
}

type AssignRequest struct {
	Path     string          `json:"path"`
	Text     *media.TextSpec `json:"text,omitempty"`
	Speed    float64         `json:"speed,omitempty"`
	Opacity  float64         `json:"opacity,omitempty"`
	Volume   float64         `json:"volume,omitempty"`
	Scale    float64         `json:"scale,omitempty"`
	Rotation float64         `json:"rotation,omitempty"`
}

type AssignResponse struct {
	Slot slots.Slot `json:"slot"`
}

type GridResponse struct {
	Slots []slots.Slot `json:"slots"`
}
