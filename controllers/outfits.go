package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"closetapi/models"
	"closetapi/recommendation"
	"closetapi/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type GenerateOutfitIn struct {
	Event        string          `json:"event" validate:"required,max=500"`
	EventDetails json.RawMessage `json:"event_details"`
}

type OutfitFeedbackIn struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=1000"`
}

type OutfitWithItems struct {
	Outfit models.Outfit         `json:"outfit"`
	Items  []models.ClothingItem `json:"items"`
}

type OutfitsController struct {
	Engine *recommendation.Engine
}

func (controller *OutfitsController) OutfitRoutes(g *echo.Group) {
	g.POST("/outfits/generate", controller.GenerateOutfit)
	g.GET("/outfits", controller.ListOutfits)
	g.POST("/outfits/:id/feedback", controller.SubmitFeedback)
	g.GET("/outfits/analytics", controller.Analytics)
}

func (controller *OutfitsController) GenerateOutfit(c echo.Context) error {
	var req GenerateOutfitIn
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

	eventJSON := ""
	if len(req.EventDetails) > 0 {
		eventJSON = string(req.EventDetails)
	}

	result, err := controller.Engine.GenerateOutfit(c.Request().Context(), user.ID, req.Event, eventJSON, user.Gender)
	if err != nil {
		var genErr *recommendation.GenerationError
		if errors.As(err, &genErr) {
			fmt.Printf("[User %v] Generation refused: %v\n", user.ID, genErr)
			return c.JSON(http.StatusUnprocessableEntity, genErr)
		}
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to generate outfit, please try again later"})
	}

	return c.JSON(http.StatusCreated, result)
}

func (controller *OutfitsController) ListOutfits(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db := c.Get("__db").(*gorm.DB)

	var outfits []models.Outfit
	if err := db.Where("owner_id = ?", user.ID).Order("id desc").Find(&outfits).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch outfits"})
	}

	response := make([]OutfitWithItems, 0, len(outfits))
	for _, outfit := range outfits {
		items, err := controller.Engine.OutfitItemsFull(outfit.ItemIDs)
		if err != nil {
			sentry.CaptureException(err)
			items = []models.ClothingItem{}
		}
		response = append(response, OutfitWithItems{Outfit: outfit, Items: items})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"outfits": response})
}

func (controller *OutfitsController) SubmitFeedback(c echo.Context) error {
	var outfitId uint
	if err := echo.PathParamsBinder(c).Uint("id", &outfitId).BindError(); err != nil {
		return echo.ErrBadRequest
	}

	var req OutfitFeedbackIn
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

	feedback, err := controller.Engine.RecordFeedback(c.Request().Context(), user.ID, outfitId, req.Rating, req.Comment)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Outfit not found"})
		}
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save feedback"})
	}

	// a high rating is worth relearning the taste profile for
	if req.Rating >= 4 {
		asynqClient, ok := c.Get("__asynqclient").(*asynq.Client)
		if ok && asynqClient != nil {
			task, err := tasks.NewPreferenceRefreshTask(user.ID)
			if err == nil {
				_, err = asynqClient.Enqueue(task, asynq.Queue("preferences"), asynq.MaxRetry(3))
			}
			if err != nil {
				fmt.Printf("[User %v] Failed to enqueue preference refresh: %v\n", user.ID, err)
				sentry.CaptureException(err)
			}
		}
	}

	return c.JSON(http.StatusCreated, feedback)
}

func (controller *OutfitsController) Analytics(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	summary, err := controller.Engine.Analytics(user.ID)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to compute analytics"})
	}
	return c.JSON(http.StatusOK, summary)
}
