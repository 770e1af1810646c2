package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/zhouzirui/aura/backend/internal/config"
	"github.com/zhouzirui/aura/backend/internal/handler"
	"github.com/zhouzirui/aura/backend/internal/model/helpline"
	speechModel "github.com/zhouzirui/aura/backend/internal/model/speech"
	"github.com/zhouzirui/aura/backend/internal/service/advisory"
	"github.com/zhouzirui/aura/backend/internal/service/ai"
	"github.com/zhouzirui/aura/backend/internal/service/conversation"
	"github.com/zhouzirui/aura/backend/internal/service/journal"
	"github.com/zhouzirui/aura/backend/internal/service/speech"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	helplines := helpline.NewMemoryStore(helpline.Seed())
	diary := journal.NewService()

	// 未配置 Ark 凭证时进入降级模式，回复固定提示文本
	provider, err := ai.NewProvider(ctx, cfg.AI, ai.WithHistoryLimit(cfg.Chat.HistoryLimit))
	if err != nil {
		log.Fatalf("failed to initialize AI provider: %v", err)
	}
	if provider.Configured() {
		log.Println("AI provider initialized successfully")
	} else {
		log.Println("Ark 凭证未配置，AI 以降级模式运行")
	}

	var player *speech.Player
	if cfg.Speech.Enabled {
		player = speech.NewPlayer(&speechModel.SpeechConfig{
			AppID:       cfg.Speech.AppID,
			AccessToken: cfg.Speech.AccessToken,
			APIKey:      cfg.Speech.APIKey,
			Region:      cfg.Speech.Region,
			BaseURL:     cfg.Speech.BaseURL,
			TTSVoice:    cfg.Speech.TTSVoice,
			TTSSpeed:    cfg.Speech.TTSSpeed,
			TTSVolume:   cfg.Speech.TTSVolume,
			TTSLanguage: cfg.Speech.TTSLanguage,
			Timeout:     cfg.Speech.Timeout,
		})
		log.Println("Speech playback initialized successfully")
	} else {
		log.Println("语音服务凭证未配置，跳过语音功能初始化")
	}

	opts := []conversation.Option{
		conversation.WithExchangeTimeout(cfg.Chat.ExchangeTimeout),
		conversation.WithContextSource(ai.NewContextBuilder(diary, helplines, cfg.AI.ShareJournal)),
	}
	if player != nil && cfg.Chat.SpeakReplies {
		opts = append(opts, conversation.WithSpeaker(player))
	}

	router := handler.NewRouter(handler.Dependencies{
		Sessions:  conversation.NewManager(provider, opts...),
		Journal:   diary,
		Advisory:  advisory.NewService(provider, diary),
		Helplines: helplines,
		Player:    player,
		CORS:      cfg.CORS,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Aura backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
