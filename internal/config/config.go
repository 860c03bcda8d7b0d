package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"

	SessionStoreMemory = "memory"
	SessionStoreSQLite = "sqlite"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	AI      AIConfig
	LiveKit LiveKitConfig
	Session SessionConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	livekit, err := loadLiveKitConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		Store:   LoadStoreConfig(),
		AI:      ai,
		LiveKit: livekit,
		Session: session,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	origins := splitList(getEnvOrDefault("CORS_ORIGINS", "*"))

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":3000" 或 "127.0.0.1:3000"。
		return ServerConfig{Addr: port, CORSOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, CORSOrigins: origins}, nil
}

// StoreConfig 描述文档存储。
type StoreConfig struct {
	Driver     string
	MongoURI   string
	Database   string
	SQLitePath string
}

// LoadStoreConfig 读取存储配置；提供 MONGODB_URI 时默认使用 mongo。
func LoadStoreConfig() StoreConfig {
	uri := strings.TrimSpace(os.Getenv("MONGODB_URI"))
	driver := "sqlite"
	if uri != "" {
		driver = "mongo"
	}
	return StoreConfig{
		Driver:     strings.ToLower(getEnvOrDefault("STORE_DRIVER", driver)),
		MongoURI:   uri,
		Database:   getEnvOrDefault("MONGODB_DATABASE", "learnhub"),
		SQLitePath: getEnvOrDefault("SQLITE_PATH", "data/learnhub.db"),
	}
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider    string
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	if c.Model == "" {
		return false
	}
	if c.Provider == ProviderOpenAI {
		return c.APIKey != ""
	}
	return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		if c.Provider == ProviderOpenAI {
			return nil, fmt.Errorf("OpenAI 凭证缺失，需要 OPENAI_API_KEY")
		}
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	if c.Provider == ProviderOpenAI {
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	})
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("CHAT_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("CHAT_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("CHAT_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	provider := strings.ToLower(getEnvOrDefault("CHAT_PROVIDER", ProviderArk))
	switch provider {
	case ProviderOpenAI:
		return AIConfig{
			Provider:    ProviderOpenAI,
			APIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			Model:       getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:     getEnvOrDefault("OPENAI_BASE_URL", ""),
			Temperature: temperature,
			TopP:        topP,
			MaxTokens:   maxTokens,
		}, nil
	case ProviderArk:
		return AIConfig{
			Provider:    ProviderArk,
			APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
			AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
			SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
			Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
			BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
			Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
			Temperature: temperature,
			TopP:        topP,
			MaxTokens:   maxTokens,
		}, nil
	default:
		return AIConfig{}, fmt.Errorf("invalid CHAT_PROVIDER value %q", provider)
	}
}

// LiveKitConfig 描述实时音视频房间服务。
type LiveKitConfig struct {
	URL           string
	APIKey        string
	APISecret     string
	VerifyWebhook bool
}

// Enabled 表示 LiveKit 凭证是否齐全。
func (c LiveKitConfig) Enabled() bool {
	return c.URL != "" && c.APIKey != "" && c.APISecret != ""
}

func loadLiveKitConfig() (LiveKitConfig, error) {
	verify, err := parseBoolEnv("LIVEKIT_WEBHOOK_VERIFY", false)
	if err != nil {
		return LiveKitConfig{}, err
	}
	return LiveKitConfig{
		URL:           strings.TrimSpace(os.Getenv("LIVEKIT_URL")),
		APIKey:        strings.TrimSpace(os.Getenv("LIVEKIT_API_KEY")),
		APISecret:     strings.TrimSpace(os.Getenv("LIVEKIT_API_SECRET")),
		VerifyWebhook: verify,
	}, nil
}

// SessionConfig 描述 AI 房间会话历史的存储方式。
type SessionConfig struct {
	Backend    string
	SQLitePath string
}

func loadSessionConfig() (SessionConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("SESSION_STORE", SessionStoreMemory))
	if backend != SessionStoreMemory && backend != SessionStoreSQLite {
		return SessionConfig{}, fmt.Errorf("invalid SESSION_STORE value %q", backend)
	}
	return SessionConfig{
		Backend:    backend,
		SQLitePath: getEnvOrDefault("SESSION_SQLITE_PATH", "data/sessions.db"),
	}, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
