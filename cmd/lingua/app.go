package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/lingua/adapters/embedding"
	"github.com/satriahrh/lingua/adapters/imagegen"
	"github.com/satriahrh/lingua/adapters/imagestore"
	"github.com/satriahrh/lingua/adapters/llm"
	"github.com/satriahrh/lingua/adapters/memory"
	mongostore "github.com/satriahrh/lingua/adapters/mongo"
	"github.com/satriahrh/lingua/adapters/sentiment"
	"github.com/satriahrh/lingua/adapters/sqlite"
	"github.com/satriahrh/lingua/adapters/stt"
	"github.com/satriahrh/lingua/adapters/translation"
	"github.com/satriahrh/lingua/adapters/tts"
	"github.com/satriahrh/lingua/domain/repositories"
	"github.com/satriahrh/lingua/internal/config"
	"github.com/satriahrh/lingua/internal/dialogue"
	"github.com/satriahrh/lingua/internal/imagejob"
	"github.com/satriahrh/lingua/internal/jobs"
	"github.com/satriahrh/lingua/internal/metrics"
	"github.com/satriahrh/lingua/usecase"
)

// app is the wired object graph shared by the sub-commands
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	conversations repositories.ConversationRepository
	sessions      repositories.SessionRepository
	health        func(ctx context.Context) error

	jobs         *jobs.Manager
	chat         *usecase.ChatService
	conversation *usecase.ConversationService
	tts          repositories.TextToSpeech
	metrics      *metrics.Metrics
	closers      []func(ctx context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	if err := a.initStorage(ctx); err != nil {
		return nil, err
	}

	var client *genai.Client
	if cfg.LLM.Provider == config.ProviderGemini ||
		cfg.Embedding.Provider == config.ProviderGemini ||
		cfg.ImageGen.Provider == config.ProviderGemini {
		client, err = llm.NewClient(ctx, cfg.LLM.Gemini.APIKey)
		if err != nil {
			return nil, err
		}
	}

	var model repositories.LargeLanguageModel
	var translator repositories.Translator
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		gemini, err := llm.NewGeminiLLM(client, cfg.LLM.Gemini, logger)
		if err != nil {
			return nil, err
		}
		model = gemini
		translator = translation.NewCachedTranslator(translation.NewLLMTranslator(gemini, logger), translation.DefaultCacheSize)
	case config.ProviderMock:
		model = llm.NewMockLLM()
		translator = translation.Passthrough{}
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}

	var embedder repositories.Embedder
	switch cfg.Embedding.Provider {
	case config.ProviderGemini:
		embedder = embedding.NewGeminiEmbedder(client, cfg.Embedding.Model, logger)
	case config.ProviderLocal, config.ProviderMock:
		embedder = embedding.NewHashingEmbedder(embedding.DefaultDimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}

	var generator repositories.ImageGenerator
	switch cfg.ImageGen.Provider {
	case config.ProviderGemini:
		generator = imagegen.NewImagenGenerator(client, cfg.ImageGen.Imagen, logger)
	case config.ProviderMock:
		generator = imagegen.PlaceholderGenerator{}
	default:
		return nil, fmt.Errorf("unknown image_gen provider %q", cfg.ImageGen.Provider)
	}

	images, err := imagestore.New(cfg.Images, logger)
	if err != nil {
		return nil, err
	}

	var speech repositories.SpeechToText
	switch cfg.Speech.Provider {
	case config.ProviderGoogle:
		google, err := stt.NewGoogleSpeechToText(ctx, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return google.Close() })
		speech = google
	case config.ProviderMock:
		speech = stt.NewMockSpeechToText(logger)
	case config.ProviderNone:
	default:
		return nil, fmt.Errorf("unknown speech provider %q", cfg.Speech.Provider)
	}

	switch cfg.TTS.Provider {
	case config.ProviderElevenLabs:
		eleven, err := tts.NewElevenLabsTTS(cfg.TTS.ElevenLabs, logger)
		if err != nil {
			return nil, err
		}
		a.tts = eleven
	case config.ProviderMock:
		a.tts = tts.MockTTS{}
	case config.ProviderNone, "":
	default:
		return nil, fmt.Errorf("unknown tts provider %q", cfg.TTS.Provider)
	}

	var scorer repositories.SentimentScorer
	switch cfg.Sentiment.Provider {
	case config.ProviderVader:
		scorer = sentiment.NewVaderScorer()
	case config.ProviderMock:
		scorer = sentiment.NewLexiconScorer()
	default:
		return nil, fmt.Errorf("unknown sentiment provider %q", cfg.Sentiment.Provider)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(reg)

	a.jobs = jobs.NewManager(cfg.Jobs, logger)
	a.jobs.Subscribe(a.metrics.ObserveJob)
	tracker := imagejob.NewTracker(a.jobs, generator, images, a.conversations, cfg.Jobs.Timeout, logger)

	engine := dialogue.NewEngine(
		dialogue.NewIntentClassifier(embedder, model, cfg.Dialogue, logger),
		dialogue.NewConfirmationDetector(embedder, cfg.Dialogue, logger),
		model,
		scorer,
		tracker,
		logger,
	)

	locks := usecase.NewUserLocks()
	a.chat = usecase.NewChatService(usecase.ChatServiceDeps{
		Engine:        engine,
		Conversations: a.conversations,
		Sessions:      a.sessions,
		SpeechToText:  speech,
		Translator:    translator,
		Images:        images,
		Metrics:       a.metrics,
		Locks:         locks,
	}, logger)
	a.conversation = usecase.NewConversationService(a.conversations, tracker, locks, logger)

	logger.Info("Application wired",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("llm", cfg.LLM.Provider),
		zap.String("embedding", cfg.Embedding.Provider),
		zap.String("sentiment", cfg.Sentiment.Provider),
		zap.String("imageGen", cfg.ImageGen.Provider),
		zap.String("speech", cfg.Speech.Provider),
		zap.String("tts", cfg.TTS.Provider))
	return a, nil
}

func (a *app) initStorage(ctx context.Context) error {
	switch a.cfg.Storage.Driver {
	case config.StorageMemory:
		a.conversations = memory.NewConversationRepository()
		a.sessions = memory.NewSessionRepository()

	case config.StorageSQLite:
		store, err := sqlite.Open(ctx, a.cfg.Storage.SQLite.Path, a.logger)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		a.conversations = store.Conversations()
		a.sessions = store.Sessions()
		a.health = store.Ping

	case config.StorageMongo:
		client, err := mongostore.NewClient(ctx, a.cfg.Storage.Mongo, a.logger)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Close)
		a.conversations = mongostore.NewConversationRepository(client.Database, a.logger)
		a.sessions = mongostore.NewSessionRepository(client.Database, a.logger)
		a.health = func(ctx context.Context) error { return client.Ping(ctx, nil) }

	default:
		return fmt.Errorf("unknown storage driver %q", a.cfg.Storage.Driver)
	}
	return nil
}

// Close releases storage and provider clients in reverse order
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("Failed to close resource", zap.Error(err))
		}
	}
	a.closers = nil
}
