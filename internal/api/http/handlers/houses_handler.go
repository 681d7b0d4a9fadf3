package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exeat-service/internal/api/dto"
	"github.com/spec-kit/exeat-service/internal/service"
)

// HousesHandler serves the public house reference endpoint.
type HousesHandler struct {
	directory *service.DirectoryService
}

// NewHousesHandler constructs handler.
func NewHousesHandler(directory *service.DirectoryService) *HousesHandler {
	return &HousesHandler{directory: directory}
}

// List GET /api/houses.
func (h *HousesHandler) List(c *fiber.Ctx) error {
	houses, err := h.directory.ListHouses(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.HouseResponse, 0, len(houses))
	for _, house := range houses {
		items = append(items, dto.HouseResponse{ID: house.ID, Name: house.Name})
	}
	return success(c, items)
}
