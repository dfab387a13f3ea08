package dto

import "github.com/relvanta/relvanta-api/internal/models"

type ProductListResponse struct {
	Products []models.Product `json:"products"`
	Total    int              `json:"total"`
}

type ServiceListResponse struct {
	Services []models.Service `json:"services"`
	Total    int              `json:"total"`
}

type LabListResponse struct {
	Labs  []models.Lab `json:"labs"`
	Total int          `json:"total"`
}

type RedirectListResponse struct {
	Redirects []models.Redirect `json:"redirects"`
}
