package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prajin1910/eval/core/task"
)

type taskApi struct {
	svc      *task.Service
	validate *validator.Validate
}

func registerTaskAPI(g *echo.Group, svc *task.Service, validate *validator.Validate) {
	api := taskApi{svc: svc, validate: validate}

	tg := g.Group("/tasks")
	tg.POST("", api.create)
	tg.GET("/student/:student_id", api.queryByStudent)
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id/status", api.updateStatus)
}

func (api *taskApi) create(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Create(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	t, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) queryByStudent(ctx echo.Context) error {
	tasks, err := api.svc.QueryByStudent(ctx.Param("student_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tasks)
}

type updateStatusRequest struct {
	Status task.Status `json:"status" validate:"required,oneof=PENDING IN_PROGRESS COMPLETED"`
}

func (api *taskApi) updateStatus(ctx echo.Context) error {
	var data updateStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to updateStatusRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	t, err := api.svc.UpdateStatus(ctx.Param("id"), data.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}
