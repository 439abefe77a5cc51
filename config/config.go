package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config armazena todas as configurações do núcleo Final Feliz.
type Config struct {
	// Geral
	Environment string
	LogLevel    string

	// Banco de Dados (PostgreSQL)
	DatabaseURL   string
	DBTimeout     time.Duration
	ListenChanges bool // repassa NOTIFY de outros processos ao feed de mudanças

	// Cache e sessão (Redis). Vazio = chave/valor em memória.
	RedisAddr string
	CacheTTL  time.Duration

	// Sessão (JWT)
	SessionSecret string
	SessionTTL    time.Duration // 0 = sem expiração

	// Limite de tentativas de login por email
	LoginMaxAttempts int // 0 desliga
	LoginWindow      time.Duration

	// Conta administrativa garantida a cada abertura do DB
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
// godotenv.Load() já deve ter sido chamado pelo main.
func LoadConfig() *Config {
	cfg := &Config{
		// 1. Geral
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// 2. Banco de Dados (PostgreSQL)
		// mustGetEnv garante que a aplicação não inicie sem credenciais de DB
		DatabaseURL:   mustGetEnv("DATABASE_URL"),
		DBTimeout:     getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second, // 5s padrão
		ListenChanges: getBoolEnv("LISTEN_CHANGES", true),

		// 3. Cache (Redis)
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTTL:  getDurationEnv("CACHE_TTL_MIN", 5) * time.Minute, // 5 min padrão

		// 4. Sessão
		SessionSecret: mustGetEnv("SESSION_SECRET"),
		SessionTTL:    getDurationEnv("SESSION_TTL_DAYS", 0) * 24 * time.Hour,

		// 5. Limite de tentativas de login
		LoginMaxAttempts: getIntEnv("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindow:      getDurationEnv("LOGIN_WINDOW_MIN", 15) * time.Minute,

		// 6. Administrador
		AdminName:     getEnv("ADMIN_NAME", "Administrador"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@finalfeliz.cl"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "Admin123!"),
	}

	return cfg
}

// IsProduction informa se ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration.
func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getBoolEnv aceita os formatos de strconv.ParseBool.
func getBoolEnv(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é booleano. Usando padrão (%t).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
