package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/livekit/protocol/livekit"

	"github.com/learnhub/backend/internal/handler/apidoc"
	assistanthandler "github.com/learnhub/backend/internal/handler/assistant"
	"github.com/learnhub/backend/internal/handler/chat"
	"github.com/learnhub/backend/internal/handler/gateway"
	livekithandler "github.com/learnhub/backend/internal/handler/livekit"
	mcqhandler "github.com/learnhub/backend/internal/handler/mcq"
	"github.com/learnhub/backend/internal/handler/reactlearning"
	"github.com/learnhub/backend/internal/handler/reacttopic"
	"github.com/learnhub/backend/internal/handler/realtime"
	"github.com/learnhub/backend/internal/handler/stream"
	topichandler "github.com/learnhub/backend/internal/handler/topic"
	"github.com/learnhub/backend/internal/handler/webhook"
	middlewarePkg "github.com/learnhub/backend/internal/middleware"
	"github.com/learnhub/backend/internal/service/ai"
	"github.com/learnhub/backend/internal/service/assistant"
	"github.com/learnhub/backend/internal/service/mcq"
	reactlearningService "github.com/learnhub/backend/internal/service/reactlearning"
	reacttopicService "github.com/learnhub/backend/internal/service/reacttopic"
	"github.com/learnhub/backend/internal/service/room"
	"github.com/learnhub/backend/internal/service/topic"
)

// APIVersion is reported in the generated OpenAPI document.
const APIVersion = "1.0.0"

// Deps collects the services behind the HTTP surface. AI may be nil.
type Deps struct {
	SystemDesign  *topic.Service
	AgenticAI     *topic.Service
	MCQ           *mcq.Service
	ReactLearning *reactlearningService.Service
	ReactTopics   *reacttopicService.Service
	AI            *ai.Service
	Rooms         *room.Service
	Assistant     *assistant.Service
	Hub           *stream.Hub
	Webhooks      *webhook.Receiver
	CORSOrigins   []string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.CORSOrigins))

	receiver := deps.Webhooks
	if receiver == nil {
		receiver = webhook.NewReceiver()
	}
	roomEvents := func(ctx context.Context, event *livekit.WebhookEvent) error {
		deps.Rooms.HandleEvent(ctx, event)
		return nil
	}

	apidoc.New("LearnHub API", APIVersion).RegisterRoutes(r)

	// 学习资源
	r.Route("/systemdesign", topichandler.New(deps.SystemDesign, topichandler.WithDeleteMessage()).RegisterRoutes)
	r.Route("/agentic-ai", topichandler.New(deps.AgenticAI).RegisterRoutes)
	r.Route("/mcq-training", mcqhandler.New(deps.MCQ).RegisterRoutes)
	r.Route("/react-learning", reactlearning.New(deps.ReactLearning).RegisterRoutes)
	r.Route("/react-topics", reacttopic.New(deps.ReactTopics).RegisterRoutes)

	// 聊天与实时
	r.Route("/openai", chat.New(deps.AI).RegisterRoutes)
	r.Route("/livekit", func(lk chi.Router) {
		livekithandler.New(deps.Rooms).RegisterRoutes(lk)
		webhook.New(receiver, roomEvents).RegisterRoutes(lk)
	})
	r.Route("/ai-livekit", func(al chi.Router) {
		assistanthandler.New(deps.Assistant).RegisterRoutes(al)
		webhook.New(receiver, deps.Assistant.HandleRoomEvent).RegisterRoutes(al)
	})
	r.Route("/realtime-chat", realtime.New(deps.Rooms, deps.AI, deps.Hub).RegisterRoutes)
	webhook.New(receiver, deps.Assistant.HandleRoomEvent).RegisterRoutes(r)
	gateway.New(deps.AI).RegisterRoutes(r)

	return r
}
