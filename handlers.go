package prismblog

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/prismblog/blog"
	"github.com/eringen/prismblog/prismic"
	"github.com/eringen/prismblog/views"
)

const maxWebhookBody = 1 << 20

// loadMoreHeader marks load-more requests sent by the page script, which
// expect a bare fragment. Plain navigations get a full page.
const loadMoreHeader = "X-Load-More"

func (a *App) handleHome(c echo.Context) error {
	page, err := a.Cache.FirstPage(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, views.Home(a.views, blog.NewListing(page)))
}

func (a *App) handleLoadMore(c echo.Context) error {
	cursor := c.QueryParam("cursor")
	if cursor == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing cursor")
	}
	if !a.moreLimiter.Allow(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
	}

	ctx := c.Request().Context()
	l := &blog.Listing{NextPage: cursor}
	res := l.LoadMore(ctx, a.Content)
	if res.Err != nil {
		if errors.Is(res.Err, prismic.ErrForeignCursor) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid cursor")
		}
		// The partial carries the error state and a retry control. The retry
		// link is this same URL, so the failure must not be cached.
		a.Logger.Warn(ctx, "load more failed", "cursor", prismic.PublicCursor(cursor), "error", res.Err)
		c.Response().Header().Set("Cache-Control", "no-store")
	}
	c.Response().Header().Add("Vary", loadMoreHeader)
	if c.Request().Header.Get(loadMoreHeader) == "" {
		return Render(c, views.MorePage(a.views, l, res))
	}
	return Render(c, views.LoadMorePartial(a.views, l, res))
}

func (a *App) handlePost(c echo.Context) error {
	uid := c.Param("uid")
	if !validUID(uid) {
		return RenderStatus(c, http.StatusNotFound, views.NotFound(a.views))
	}
	post, err := a.Cache.Post(c.Request().Context(), uid)
	if err != nil {
		if errors.Is(err, prismic.ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, views.NotFound(a.views))
		}
		return err
	}
	return Render(c, views.Post(a.views, blog.NewDetail(post, a.views.Location)))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.AllPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.AllPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, robotsTxt(a.Config))
}

func (a *App) handleHealth(c echo.Context) error {
	docs, err := a.Store.Count()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "ok", "documents": docs})
}

// webhookPayload is the part of a Prismic webhook body we read.
type webhookPayload struct {
	Type   string `json:"type"`
	Secret string `json:"secret"`
}

// handleRevalidate is the target of the Prismic publish webhook. It drops
// every cached and stored copy so the next request refetches.
func (a *App) handleRevalidate(c echo.Context) error {
	if a.Config.WebhookSecret == "" {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	ip := c.RealIP()
	if !a.hookLimiter.Check(ip) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
	}

	var payload webhookPayload
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if subtle.ConstantTimeCompare([]byte(payload.Secret), []byte(a.Config.WebhookSecret)) != 1 {
		a.hookLimiter.Record(ip)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid secret")
	}

	ctx := c.Request().Context()
	a.Cache.Invalidate()
	purged, err := a.Store.Purge()
	if err != nil {
		return err
	}
	a.Logger.Info(ctx, "content revalidated", "type", payload.Type, "purged", purged)
	return c.JSON(http.StatusOK, map[string]any{"revalidated": true, "purged": purged})
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.views))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error(c.Request().Context(), "server error", "uri", c.Request().RequestURI, "error", err)
		_ = RenderStatus(c, code, views.ServerError(a.views))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
