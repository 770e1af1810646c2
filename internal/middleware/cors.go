package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/zhouzirui/aura/backend/internal/config"
)

// CORS 根据配置生成跨域中间件。允许全部来源时不携带凭证。
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	allowAll := false
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
			break
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Speech-Emotion"},
		AllowCredentials: !allowAll,
		MaxAge:           300,
	})
}
