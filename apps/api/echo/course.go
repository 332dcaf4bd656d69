package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/elimuhq/elimu/core/course"
)

type courseApi struct {
	service course.Service
}

func registerCourseAPI(g *echo.Group, sessionMW, instructorMW echo.MiddlewareFunc, svc course.Service) {
	api := courseApi{service: svc}

	cg := g.Group("/courses", sessionMW, instructorMW)
	cg.POST("/sections", api.sectionCreate)
	cg.PUT("/sections", api.sectionUpdate)
	cg.DELETE("/sections", api.sectionDelete)
	cg.POST("/subsections", api.subSectionCreate)
	cg.DELETE("/subsections/:id", api.subSectionDelete)
}

func (api *courseApi) sectionCreate(ctx echo.Context) error {
	var ns course.NewSection
	if err := ctx.Bind(&ns); err != nil {
		return errors.Wrap(err, "binding NewSection")
	}
	if err := ns.Validate(); err != nil {
		return err
	}

	crs, err := api.service.CreateSection(ctx.Request().Context(), ns)
	if err != nil {
		return err
	}
	return ok(ctx, response{Message: "section created successfully", Data: crs})
}

func (api *courseApi) sectionUpdate(ctx echo.Context) error {
	var us course.UpdateSection
	if err := ctx.Bind(&us); err != nil {
		return errors.Wrap(err, "binding UpdateSection")
	}
	if err := us.Validate(); err != nil {
		return err
	}

	crs, err := api.service.UpdateSection(ctx.Request().Context(), us)
	if err != nil {
		return err
	}
	return ok(ctx, response{Message: "section updated successfully", Data: crs})
}

func (api *courseApi) sectionDelete(ctx echo.Context) error {
	var ds course.DeleteSection
	if err := ctx.Bind(&ds); err != nil {
		return errors.Wrap(err, "binding DeleteSection")
	}
	if err := ds.Validate(); err != nil {
		return err
	}

	crs, err := api.service.DeleteSection(ctx.Request().Context(), ds)
	if err != nil {
		return err
	}
	return ok(ctx, response{Message: "section deleted successfully", Data: crs})
}

func (api *courseApi) subSectionCreate(ctx echo.Context) error {
	var ns course.NewSubSection
	if err := ctx.Bind(&ns); err != nil {
		return errors.Wrap(err, "binding NewSubSection")
	}
	if err := ns.Validate(); err != nil {
		return err
	}

	sec, err := api.service.CreateSubSection(ctx.Request().Context(), ns)
	if err != nil {
		return err
	}
	return ok(ctx, response{Message: "sub-section created successfully", Data: sec})
}

func (api *courseApi) subSectionDelete(ctx echo.Context) error {
	sec, err := api.service.DeleteSubSection(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ok(ctx, response{Message: "sub-section deleted successfully", Data: sec})
}
