// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"melodia/internal/infrastructure/http/v1/handlers"
)

// CatalogRouteHandler defines the route set every catalog handler exposes.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	GetBySlug(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
}

// registerCatalogRoutes wires the standard CRUD routes for a catalog group.
// The permission guard runs at the parent group level and matches against
// the registered route pattern, so no per-route wiring is needed here.
func registerCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.GET("/slug/:slug", handler.GetBySlug)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
	group.POST("/:id/deletion-mark", handler.SetDeletionMark)
}

func registerProfileRoutes(group *gin.RouterGroup, h *handlers.UsersHandler) {
	me := group.Group("/users/me")
	{
		me.GET("", h.Me)
		me.PUT("", h.UpdateMe)
		me.GET("/favorites", h.ListFavorites)
		me.POST("/favorites/:songId", h.AddFavorite)
		me.DELETE("/favorites/:songId", h.RemoveFavorite)
		me.POST("/playlists/:playlistId", h.AttachPlaylist)
		me.DELETE("/playlists/:playlistId", h.DetachPlaylist)
	}
}

func registerSongRoutes(group *gin.RouterGroup, h *handlers.SongsHandler) {
	songs := group.Group("/songs")
	{
		songs.GET("", h.List)
		songs.GET("/:id", h.Get)
		songs.GET("/slug/:slug", h.GetBySlug)
		songs.POST("", h.Publish)
		songs.PUT("/:id", h.UpdateOwned)
		songs.DELETE("/:id", h.DeleteOwned)
		songs.POST("/:id/listen", h.Listen)
		songs.POST("/:id/like", h.Like)
		songs.DELETE("/:id/like", h.Unlike)
	}
	group.GET("/singers/:id/songs", h.ListBySinger)
}

func registerPlaylistRoutes(group *gin.RouterGroup, h *handlers.PlaylistsHandler) {
	playlists := group.Group("/playlists")
	{
		playlists.GET("", h.List)
		playlists.POST("", h.Create)
		playlists.GET("/:id", h.Get)
		playlists.GET("/slug/:slug", h.GetBySlug)
		playlists.PUT("/:id", h.Update)
		playlists.PUT("/:id/songs", h.ReplaceSongs)
		playlists.DELETE("/:id", h.Delete)
		playlists.POST("/:id/deletion-mark", h.SetDeletionMark)
	}
}

func registerOrderRoutes(group *gin.RouterGroup, h *handlers.OrdersHandler) {
	ordersGroup := group.Group("/orders")
	{
		ordersGroup.POST("", h.Create)
		ordersGroup.GET("", h.ListMine)
		ordersGroup.GET("/:id", h.Get)
	}
}

func registerMediaRoutes(group *gin.RouterGroup, h *handlers.MediaHandler) {
	mediaGroup := group.Group("/media")
	{
		mediaGroup.POST("", h.Upload)
		mediaGroup.GET("/:key", h.Download)
		mediaGroup.GET("/:key/url", h.Presign)
		mediaGroup.DELETE("/:key", h.Delete)
	}
}

func registerAdminRoutes(
	group *gin.RouterGroup,
	usersH *handlers.UsersHandler,
	accessH *handlers.AccessHandler,
	singersH *handlers.SingersHandler,
	songsH *handlers.SongsHandler,
	ordersH *handlers.OrdersHandler,
) {
	admin := group.Group("/admin")

	adminUsers := admin.Group("/users")
	{
		adminUsers.GET("", usersH.List)
		adminUsers.POST("", usersH.Create)
		adminUsers.GET("/:id", usersH.Get)
		adminUsers.DELETE("/:id", usersH.Delete)
		adminUsers.POST("/:id/status", usersH.SetStatus)
		adminUsers.POST("/:id/role", usersH.ChangeRole)
		adminUsers.POST("/:id/singer", usersH.LinkSinger)
		adminUsers.DELETE("/:id/singer", usersH.UnlinkSinger)
		adminUsers.POST("/reset-active", usersH.ResetAllToActive)
	}

	permissions := admin.Group("/permissions")
	{
		permissions.GET("", accessH.ListPermissions)
		permissions.POST("", accessH.CreatePermission)
		permissions.GET("/:id", accessH.GetPermission)
		permissions.PUT("/:id", accessH.UpdatePermission)
		permissions.DELETE("/:id", accessH.DeletePermission)
		permissions.DELETE("", accessH.DeleteAllPermissions)
	}

	roles := admin.Group("/roles")
	{
		roles.GET("", accessH.ListRoles)
		roles.POST("", accessH.CreateRole)
		roles.GET("/:id", accessH.GetRole)
		roles.PUT("/:id", accessH.UpdateRole)
		roles.DELETE("/:id", accessH.DeleteRole)
	}

	admin.POST("/singers/:id/status", singersH.SetStatus)
	admin.POST("/singers/:id/songs/normalize", songsH.NormalizePositions)

	adminOrders := admin.Group("/orders")
	{
		adminOrders.GET("", ordersH.ListMonth)
		adminOrders.POST("/:id/complete", ordersH.Complete)
	}
}
