package controllers

import (
	"fmt"
	"net/http"

	"closetapi/models"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type CreateItemIn struct {
	Name            string   `json:"name" validate:"required,max=100"`
	Type            string   `json:"type" validate:"omitempty,max=100"`
	Color           string   `json:"color" validate:"omitempty,max=50"`
	Category        string   `json:"category" validate:"required,max=50"`
	Style           string   `json:"style" validate:"omitempty,max=100"`
	Characteristics []string `json:"characteristics"`
	Season          []string `json:"season"`
	State           string   `json:"state" validate:"omitempty,max=50"`
	ImageURL        *string  `json:"image_url" validate:"omitempty,max=500"`
	ForSale         *bool    `json:"for_sale"`
	Price           *float64 `json:"price" validate:"omitempty,gte=0"`
}

type UpdateItemIn struct {
	Name            *string  `json:"name" validate:"omitempty,max=100"`
	Type            *string  `json:"type" validate:"omitempty,max=100"`
	Color           *string  `json:"color" validate:"omitempty,max=50"`
	Category        *string  `json:"category" validate:"omitempty,max=50"`
	Style           *string  `json:"style" validate:"omitempty,max=100"`
	Characteristics []string `json:"characteristics"`
	Season          []string `json:"season"`
	State           *string  `json:"state" validate:"omitempty,max=50"`
	ImageURL        *string  `json:"image_url" validate:"omitempty,max=500"`
	ForSale         *bool    `json:"for_sale"`
	Price           *float64 `json:"price" validate:"omitempty,gte=0"`
}

type ItemsListResponse struct {
	Tops    []models.ClothingItem `json:"tops"`
	Bottoms []models.ClothingItem `json:"bottoms"`
	Shoes   []models.ClothingItem `json:"shoes"`
	Other   []models.ClothingItem `json:"other"`
}

type ItemsController struct {
}

func (controller *ItemsController) ItemRoutes(g *echo.Group) {
	g.GET("/items", controller.ListItems)
	g.POST("/items", controller.CreateItem)
	g.PUT("/items/:id", controller.UpdateItem)
	g.GET("/marketplace", controller.ListMarketplace)
}

func (controller *ItemsController) ListItems(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)

	var items []models.ClothingItem
	if err := db.Where("owner_id = ?", user.ID).Order("id desc").Find(&items).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch wardrobe"})
	}

	response := ItemsListResponse{
		Tops:    []models.ClothingItem{},
		Bottoms: []models.ClothingItem{},
		Shoes:   []models.ClothingItem{},
		Other:   []models.ClothingItem{},
	}
	for _, item := range items {
		switch item.Category {
		case "TOP":
			response.Tops = append(response.Tops, item)
		case "BOTTOM":
			response.Bottoms = append(response.Bottoms, item)
		case "SHOES":
			response.Shoes = append(response.Shoes, item)
		default:
			response.Other = append(response.Other, item)
		}
	}
	return c.JSON(http.StatusOK, response)
}

func (controller *ItemsController) CreateItem(c echo.Context) error {
	var req CreateItemIn
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)

	item := models.ClothingItem{
		OwnerID:         user.ID,
		Name:            req.Name,
		Type:            req.Type,
		Color:           req.Color,
		Category:        req.Category,
		Style:           req.Style,
		Characteristics: pq.StringArray(req.Characteristics),
		Season:          pq.StringArray(req.Season),
		State:           req.State,
		ImageURL:        req.ImageURL,
		Price:           req.Price,
	}
	if req.ForSale != nil {
		item.ForSale = *req.ForSale
	}
	if err := db.Create(&item).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save item"})
	}
	fmt.Printf("[User %v] Created clothing item %v (%s)\n", user.ID, item.ID, item.Category)
	return c.JSON(http.StatusCreated, item)
}

func (controller *ItemsController) UpdateItem(c echo.Context) error {
	var itemId uint
	if err := echo.PathParamsBinder(c).Uint("id", &itemId).BindError(); err != nil {
		return echo.ErrBadRequest
	}

	var req UpdateItemIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)

	var item models.ClothingItem
	if err := db.Where("id = ? AND owner_id = ?", itemId, user.ID).First(&item).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Item not found"})
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Type != nil {
		item.Type = *req.Type
	}
	if req.Color != nil {
		item.Color = *req.Color
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Style != nil {
		item.Style = *req.Style
	}
	if req.Characteristics != nil {
		item.Characteristics = pq.StringArray(req.Characteristics)
	}
	if req.Season != nil {
		item.Season = pq.StringArray(req.Season)
	}
	if req.State != nil {
		item.State = *req.State
	}
	if req.ImageURL != nil {
		item.ImageURL = req.ImageURL
	}
	if req.ForSale != nil {
		item.ForSale = *req.ForSale
	}
	if req.Price != nil {
		item.Price = req.Price
	}

	if err := db.Save(&item).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update item"})
	}
	return c.JSON(http.StatusOK, item)
}

// ListMarketplace returns every for-sale item regardless of owner. The
// generation fallback sources missing categories from the same pool.
func (controller *ItemsController) ListMarketplace(c echo.Context) error {
	if _, ok := c.Get("currentUser").(models.UserAccount); !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)

	var items []models.ClothingItem
	if err := db.Where("for_sale = ?", true).Order("id desc").Find(&items).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch marketplace"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": items})
}
