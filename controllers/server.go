package controllers

import (
	"net/http"
	"os"

	"closetapi/recommendation"

	"github.com/go-playground/validator"
	"github.com/hibiken/asynq"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		// Optionally, you could return the error to give each route more control over the status code
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func SetupServer(
	db *gorm.DB,
	engine *recommendation.Engine,
	asynqClient *asynq.Client,
	asynqInspector *asynq.Inspector,
) *echo.Echo {

	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("__db", db)
			c.Set("__asynqclient", asynqClient)
			c.Set("__asynqinspector", asynqInspector)
			return next(c)
		}
	})

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	closetGroup := e.Group("/closet", echojwt.JWT([]byte(os.Getenv("JWT_SECRET"))))
	closetGroup.Use(UserMiddleware)

	itemsController := ItemsController{}
	itemsController.ItemRoutes(closetGroup)

	outfitsController := OutfitsController{Engine: engine}
	outfitsController.OutfitRoutes(closetGroup)

	return e
}
