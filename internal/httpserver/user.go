package httpserver

import (
	"net/http"
	"strconv"

	"github.com/Skotchmaster/authgate/internal/logging"
	"github.com/Skotchmaster/authgate/internal/middleware/auth"
	"github.com/Skotchmaster/authgate/internal/service"
	"github.com/Skotchmaster/authgate/internal/transport"
	"github.com/labstack/echo/v4"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_list")

	page := queryInt(c, "page", 1)
	size := queryInt(c, "size", 0)

	res, err := h.Svc.List(ctx, page, size)
	if err != nil {
		return httpError(l, "list_failed", err)
	}
	return c.JSON(http.StatusOK, transport.NewUserListResponse(res))
}

func (h *UserHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_me")

	id, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	user, err := h.Svc.Me(ctx, id.UserID)
	if err != nil {
		return httpError(l, "me_failed", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_search")

	q := c.QueryParam("q")
	total, users, err := h.Svc.Search(ctx, q, queryInt(c, "page", 1), queryInt(c, "size", 0))
	if err != nil {
		return httpError(l, "search_failed", err)
	}
	return c.JSON(http.StatusOK, transport.SearchResponse{Total: total, Data: users})
}

func (h *UserHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_get")

	id, err := pathID(c)
	if err != nil {
		return err
	}

	user, err := h.Svc.Get(ctx, id)
	if err != nil {
		return httpError(l, "get_failed", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_update")

	caller, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req transport.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		return httpError(l, "update_error", err)
	}

	user, err := h.Svc.Update(ctx, caller.UserID, id, req.Input())
	if err != nil {
		return httpError(l, "update_failed", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_delete")

	caller, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.Delete(ctx, caller.UserID, id); err != nil {
		return httpError(l, "delete_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func queryInt(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
