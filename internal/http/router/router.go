// Package router mounts every HTTP endpoint under /api.
package router

import (
	"net/http"

	"github.com/go-redis/redis/v8"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/princekumarofficial/journal-service/internal/cache"
	"github.com/princekumarofficial/journal-service/internal/config"
	"github.com/princekumarofficial/journal-service/internal/http/handlers/feed"
	"github.com/princekumarofficial/journal-service/internal/http/handlers/journal"
	"github.com/princekumarofficial/journal-service/internal/http/handlers/media"
	"github.com/princekumarofficial/journal-service/internal/http/handlers/users"
	wsHandler "github.com/princekumarofficial/journal-service/internal/http/handlers/websocket"
	"github.com/princekumarofficial/journal-service/internal/http/middleware"
	"github.com/princekumarofficial/journal-service/internal/services/account"
	feedService "github.com/princekumarofficial/journal-service/internal/services/feed"
	journalService "github.com/princekumarofficial/journal-service/internal/services/journal"
	mediaService "github.com/princekumarofficial/journal-service/internal/services/media"
	"github.com/princekumarofficial/journal-service/internal/session"
	"github.com/princekumarofficial/journal-service/internal/storage"
	"github.com/princekumarofficial/journal-service/internal/utils/jwt"
	"github.com/princekumarofficial/journal-service/internal/websocket"
)

// Deps are the constructed services the routes dispatch to. Media may be nil.
type Deps struct {
	Config   *config.Config
	Redis    *redis.Client
	Store    storage.Storage
	Sessions *session.Registry
	Accounts *account.Service
	Journal  *journalService.Service
	Feed     *feedService.Service
	Media    *mediaService.Service
	Hub      *websocket.Hub
}

func New(d Deps) http.Handler {
	secret := d.Config.JWT.Secret
	access := middleware.Access(d.Sessions, secret)
	refresh := middleware.Refresh(d.Sessions, secret)
	limits := middleware.NewRateLimitConfig(d.Redis, d.Config.RateLimit)

	// social actions are limited after the gates resolved the user
	social := func(action string, h http.HandlerFunc) http.Handler {
		return access(limits.RateLimitedHandler(action, middleware.ByUser, h))
	}

	router := http.NewServeMux()

	// auth
	router.Handle("POST /api/register", users.SignUp(d.Accounts))
	router.Handle("POST /api/login", limits.RateLimitedHandler(middleware.ActionLogin, middleware.ByClientIP, users.Login(d.Accounts)))
	router.Handle("POST /api/refresh", refresh(users.Refresh(d.Accounts)))
	router.Handle("POST /api/logout", access(users.Logout(d.Accounts)))
	router.Handle("GET /api/{$}", access(users.WhoAmI()))

	// journal
	router.Handle("POST /api/log", access(journal.Log(d.Journal)))

	// feed
	router.Handle("GET /api/feed/get_posts", access(feed.GetPosts(d.Feed)))
	router.Handle("GET /api/feed/post", access(feed.GetPost(d.Feed)))
	router.Handle("GET /api/feed/post_comments", access(feed.PostComments(d.Feed)))
	router.Handle("POST /api/feed/like", social(middleware.ActionLike, feed.Like(d.Feed)))
	router.Handle("POST /api/feed/unlike", social(middleware.ActionUnlike, feed.Unlike(d.Feed)))
	router.Handle("POST /api/feed/comment", social(middleware.ActionComment, feed.Comment(d.Feed)))
	router.Handle("PUT /api/feed/update_comment", access(feed.UpdateComment(d.Feed)))
	router.Handle("DELETE /api/feed/delete_comment", access(feed.DeleteComment(d.Feed)))

	// me
	router.Handle("GET /api/me/get_infos", access(users.GetInfos(d.Accounts)))
	router.Handle("GET /api/me/streaks", access(users.GetStreaks(d.Accounts)))
	router.Handle("GET /api/me/posts", access(users.MyPosts(d.Accounts)))
	router.Handle("PUT /api/me/update_infos", access(users.UpdateInfos(d.Accounts)))
	router.Handle("PUT /api/me/update_password", access(users.UpdatePassword(d.Accounts)))
	router.Handle("PUT /api/me/update_post", access(users.UpdatePost(d.Accounts)))
	router.Handle("DELETE /api/me/delete_post", access(users.DeletePost(d.Accounts)))
	router.Handle("DELETE /api/me/delete_user", access(users.DeleteUser(d.Accounts)))

	// media
	router.Handle("POST /api/media/upload-url", access(media.UploadURL(d.Media)))
	router.Handle("GET /api/media/download-url", access(media.DownloadURL(d.Media)))
	router.Handle("GET /api/media", access(media.List(d.Media)))

	// notifications
	wsGate := middleware.Chain(
		middleware.BearerGate(middleware.FromQuery, secret, jwt.AccessToken),
		middleware.RevocationGate(d.Sessions, session.Access),
	)
	router.Handle("GET /api/ws", wsGate(wsHandler.WebSocketHandler(d.Hub)))

	router.HandleFunc("GET /api/health", cache.Health(d.Redis, d.Store))
	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	return router
}
