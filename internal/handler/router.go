package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/aura/backend/internal/config"
	"github.com/zhouzirui/aura/backend/internal/handler/advice"
	"github.com/zhouzirui/aura/backend/internal/handler/chat"
	"github.com/zhouzirui/aura/backend/internal/handler/diary"
	helplineHandler "github.com/zhouzirui/aura/backend/internal/handler/helpline"
	"github.com/zhouzirui/aura/backend/internal/handler/speech"
	"github.com/zhouzirui/aura/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/aura/backend/internal/middleware"
	"github.com/zhouzirui/aura/backend/internal/model/helpline"
	"github.com/zhouzirui/aura/backend/internal/service/advisory"
	"github.com/zhouzirui/aura/backend/internal/service/conversation"
	"github.com/zhouzirui/aura/backend/internal/service/journal"
	speechService "github.com/zhouzirui/aura/backend/internal/service/speech"
	"github.com/zhouzirui/aura/backend/pkg/utils"
)

// Dependencies 路由所需的核心服务，Player 为 nil 表示语音未启用。
type Dependencies struct {
	Sessions  *conversation.Manager
	Journal   *journal.Service
	Advisory  *advisory.Service
	Helplines helpline.Store
	Player    *speechService.Player
	CORS      config.CORSConfig
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.CORS))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"speech": deps.Player != nil,
		})
	})

	// clips 为 nil 接口时会话结束不需要清理语音
	var clips chat.ClipStore
	if deps.Player != nil {
		clips = deps.Player
	}

	r.Route("/api", func(api chi.Router) {
		chat.New(deps.Sessions, clips).RegisterRoutes(api)
		stream.New(deps.Sessions).RegisterRoutes(api)
		speech.New(deps.Player, deps.Sessions).RegisterRoutes(api)
		diary.New(deps.Journal).RegisterRoutes(api)
		advice.New(deps.Advisory).RegisterRoutes(api)
		helplineHandler.New(deps.Helplines).RegisterRoutes(api)
	})

	return r
}
