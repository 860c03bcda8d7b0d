// Package app assembles the services behind the HTTP server and the admin CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/learnhub/backend/internal/config"
	"github.com/learnhub/backend/internal/docstore"
	"github.com/learnhub/backend/internal/handler"
	"github.com/learnhub/backend/internal/handler/stream"
	"github.com/learnhub/backend/internal/handler/webhook"
	"github.com/learnhub/backend/internal/model/mcq"
	"github.com/learnhub/backend/internal/model/react"
	topicmodel "github.com/learnhub/backend/internal/model/topic"
	"github.com/learnhub/backend/internal/service/ai"
	"github.com/learnhub/backend/internal/service/assistant"
	chatservice "github.com/learnhub/backend/internal/service/chat"
	mcqservice "github.com/learnhub/backend/internal/service/mcq"
	"github.com/learnhub/backend/internal/service/reactlearning"
	"github.com/learnhub/backend/internal/service/reacttopic"
	"github.com/learnhub/backend/internal/service/room"
	"github.com/learnhub/backend/internal/service/topic"
)

// Collection names shared by the server and the CLI. They match the names
// existing databases already use for these resources.
const (
	CollectionSystemDesign  = "systemdesigns"
	CollectionAgenticAI     = "agenticais"
	CollectionMCQ           = "mcqtrainings"
	CollectionReactLearning = "reactlearnings"
	CollectionReactTopics   = "reacttopics"
)

// Resources holds the document-backed learning services.
type Resources struct {
	SystemDesign  *topic.Service
	AgenticAI     *topic.Service
	MCQ           *mcqservice.Service
	ReactLearning *reactlearning.Service
	ReactTopics   *reacttopic.Service
}

// BindResources binds every resource collection on backend.
func BindResources(ctx context.Context, backend *docstore.Backend) (*Resources, error) {
	systemDesign, err := docstore.Bind[topicmodel.Topic](ctx, backend, CollectionSystemDesign)
	if err != nil {
		return nil, err
	}
	agenticAI, err := docstore.Bind[topicmodel.Topic](ctx, backend, CollectionAgenticAI)
	if err != nil {
		return nil, err
	}
	questions, err := docstore.Bind[mcq.Question](ctx, backend, CollectionMCQ)
	if err != nil {
		return nil, err
	}
	sections, err := docstore.Bind[react.Section](ctx, backend, CollectionReactLearning, react.SectionRefs...)
	if err != nil {
		return nil, err
	}
	topics, err := docstore.Bind[react.Topic](ctx, backend, CollectionReactTopics, react.TopicRefs...)
	if err != nil {
		return nil, err
	}

	reactTopics := reacttopic.NewService(topics)
	return &Resources{
		SystemDesign:  topic.NewService(systemDesign, "Systemdesign"),
		AgenticAI:     topic.NewService(agenticAI, "AgenticAI"),
		MCQ:           mcqservice.NewService(questions),
		ReactLearning: reactlearning.NewService(sections, reactTopics),
		ReactTopics:   reactTopics,
	}, nil
}

// App owns every long-lived dependency of the API server.
type App struct {
	cfg       *config.Config
	backend   *docstore.Backend
	resources *Resources
	aiSvc     *ai.Service
	rooms     *room.Service
	assistant *assistant.Service
	hub       *stream.Hub
	history   chatservice.Store
	closers   []func() error
}

// New connects the document store and builds the optional providers.
// Missing provider credentials disable the feature instead of failing.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	backend, err := docstore.Open(ctx, docstore.Options{
		Driver:     cfg.Store.Driver,
		MongoURI:   cfg.Store.MongoURI,
		Database:   cfg.Store.Database,
		SQLitePath: cfg.Store.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}
	log.Printf("document store ready (driver=%s)", backend.Driver())

	a := &App{cfg: cfg, backend: backend, hub: stream.NewHub()}

	a.resources, err = BindResources(ctx, backend)
	if err != nil {
		backend.Close(context.Background())
		return nil, fmt.Errorf("bind collections: %w", err)
	}

	if cfg.AI.Enabled() {
		a.aiSvc, err = newAIService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality")
		} else {
			log.Printf("AI service initialized (provider=%s model=%s)", cfg.AI.Provider, cfg.AI.Model)
		}
	} else {
		log.Println("AI 凭证未配置，跳过 AI 功能初始化")
	}

	roomCfg := room.Config{URL: cfg.LiveKit.URL, APIKey: cfg.LiveKit.APIKey, APISecret: cfg.LiveKit.APISecret}
	if cfg.LiveKit.Enabled() {
		a.rooms = room.NewService(room.NewClient(roomCfg), roomCfg)
		log.Printf("LiveKit room service configured (%s)", cfg.LiveKit.URL)
	} else {
		a.rooms = room.NewService(nil, roomCfg)
		log.Println("LiveKit 凭证未配置，房间功能不可用")
	}

	a.history, err = openHistory(ctx, cfg.Session)
	if err != nil {
		a.Close(context.Background())
		return nil, fmt.Errorf("open session store: %w", err)
	}
	if closer, ok := a.history.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}

	// typed nil would hide the disabled provider from the orchestrator
	var completer assistant.Completer
	if a.aiSvc != nil {
		completer = a.aiSvc
	}
	a.assistant = assistant.NewService(a.rooms, completer, a.history)

	return a, nil
}

func newAIService(ctx context.Context, cfg config.AIConfig) (*ai.Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, err
	}
	return ai.NewService(ctx, chatModel)
}

func openHistory(ctx context.Context, cfg config.SessionConfig) (chatservice.Store, error) {
	if cfg.Backend == config.SessionStoreSQLite {
		store, err := chatservice.OpenSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Printf("session history stored in %s", cfg.SQLitePath)
		return store, nil
	}
	return chatservice.NewMemoryStore(), nil
}

// Router builds the HTTP handler.
func (a *App) Router() http.Handler {
	receiver := webhook.NewReceiver()
	if a.cfg.LiveKit.VerifyWebhook {
		receiver = webhook.NewVerifyingReceiver(a.cfg.LiveKit.APIKey, a.cfg.LiveKit.APISecret)
	}

	return handler.NewRouter(handler.Deps{
		SystemDesign:  a.resources.SystemDesign,
		AgenticAI:     a.resources.AgenticAI,
		MCQ:           a.resources.MCQ,
		ReactLearning: a.resources.ReactLearning,
		ReactTopics:   a.resources.ReactTopics,
		AI:            a.aiSvc,
		Rooms:         a.rooms,
		Assistant:     a.assistant,
		Hub:           a.hub,
		Webhooks:      receiver,
		CORSOrigins:   a.cfg.Server.CORSOrigins,
	})
}

// Close stops in-flight generations and releases the stores.
func (a *App) Close(ctx context.Context) error {
	a.hub.CloseAll()

	var errs []error
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.backend.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
