package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/logger"
)

type Config struct {
	Minio    *MinIOCfg
	Http     *HTTPConfig
	Grpc     *GRPCConfig
	Db       *PGDBCfg
	Redis    *RedisCfg
	Kafka    *KafkaCfg
	Auth     *AuthCfg
	Checkout *CheckoutCfg
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
	OutboxBatchSize   int
	WriterBatchSize   int
	BatchTimeout      time.Duration
	WriteTimeout      time.Duration
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Бакет для архива заказов
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
	Region            string
	UploadRetries     int // Сколько раз повторять загрузку архива заказа
}

type HTTPConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	ConnectTimeout  time.Duration
	MigrationsPath  string // каталог с *.sql для golang-migrate
}

type RedisCfg struct {
	Addr           string
	Password       string
	User           string
	DB             int
	PoolSize       int
	MaxRetries     int
	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ProductTTL     time.Duration // TTL карточки товара в кэше
	IdempotencyTTL time.Duration // сколько живёт ключ идемпотентности заказа
}

// AuthCfg описывает проверку bearer-токенов покупателей.
type AuthCfg struct {
	JWTSecret string
	Issuer    string // пусто: не проверяется
	Audience  string // пусто: не проверяется
}

// CheckoutCfg задаёт политику сверки итоговой суммы заказа.
type CheckoutCfg struct {
	TotalPolicy    string // audit | reject
	TotalTolerance decimal.Decimal
	SnowflakeNode  int64
}

const (
	TotalPolicyAudit  = "audit"
	TotalPolicyReject = "reject"
)

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	auth, err := loadAuthCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	checkout, err := loadCheckoutCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Minio:    minio,
		Http:     http,
		Grpc:     loadGRPCConfig(),
		Db:       db,
		Redis:    redis,
		Kafka:    kafka,
		Auth:     auth,
		Checkout: checkout,
	}, nil
}

// LoadLoggerOptions читает настройки логгера. Вызывается до создания логгера, поэтому не логирует.
func LoadLoggerOptions() logger.Options {
	return logger.Options{
		Mode:     getEnvOrDefault("LOG_MODE", "development"),
		Filename: getEnv("LOG_FILE"),
	}
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultTopic             = "storefront.events"
		defaultOutboxBatchSize   = 100
		defaultWriterBatchSize   = 10
		defaultBatchTimeout      = 50 * time.Millisecond
		defaultWriteTimeout      = 10 * time.Second
	)

	brokerStr := os.Getenv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}
	brokers := strings.Split(brokerStr, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	batchSize, err := parseIntEnv("OUTBOX_BATCH_SIZE", defaultOutboxBatchSize)
	if err != nil {
		return nil, e.Wrap("OUTBOX_BATCH_SIZE", err)
	}

	writerBatchSize, err := parseIntEnv("KAFKA_WRITER_BATCH_SIZE", defaultWriterBatchSize)
	if err != nil {
		return nil, e.Wrap("KAFKA_WRITER_BATCH_SIZE", err)
	}

	batchTimeout, err := parseDurationEnv("KAFKA_BATCH_TIMEOUT", defaultBatchTimeout)
	if err != nil {
		return nil, e.Wrap("KAFKA_BATCH_TIMEOUT", err)
	}

	writeTimeout, err := parseDurationEnv("KAFKA_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		return nil, e.Wrap("KAFKA_WRITE_TIMEOUT", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
		OutboxBatchSize:   batchSize,
		WriterBatchSize:   writerBatchSize,
		BatchTimeout:      batchTimeout,
		WriteTimeout:      writeTimeout,
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL        = false
		defaultEndpoint      = "minio:9000"
		defaultBucket        = "order-archive"
		defaultUploadRetries = 3
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	retries, err := parseIntEnv("MINIO_UPLOAD_RETRIES", defaultUploadRetries)
	if err != nil {
		log.Errorf(err, "invalid MINIO_UPLOAD_RETRIES")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        getEnvOrDefault("BUCKET_NAME", defaultBucket),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		Region:            getEnv("MINIO_REGION"),
		UploadRetries:     retries,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort           = "8080"
		defaultReadTimeout    = 5 * time.Second
		defaultWriteTimeout   = 10 * time.Second
		defaultIdleTimeout    = 60 * time.Second
		defaultRequestTimeout = 8 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	requestTimeout, err := parseDurationEnv("HTTP_REQUEST_TIMEOUT", defaultRequestTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_REQUEST_TIMEOUT")
		return nil, err
	}

	return &HTTPConfig{
		Port:           port,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		RequestTimeout: requestTimeout,
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost            = "localhost"
		defaultPort            = "5432"
		defaultSSLMode         = "disable"
		defaultMaxConns        = 20
		defaultMinConns        = 2
		defaultMaxConnLifetime = 30 * time.Minute
		defaultConnectTimeout  = 5 * time.Second
		defaultMigrationsPath  = "db/migrations"
	)

	res := &PGDBCfg{
		Host:           getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:           getEnvOrDefault("POSTGRES_PORT", defaultPort),
		SSLMode:        getEnvOrDefault("SSL_MODE", defaultSSLMode),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}

	required := []struct {
		key string
		dst *string
	}{
		{"POSTGRES_USER", &res.User},
		{"POSTGRES_PASSWORD", &res.Password},
		{"POSTGRES_DB", &res.DBName},
	}
	for _, v := range required {
		*v.dst = getEnv(v.key)
		if *v.dst == "" {
			err := fmt.Errorf("%s is required", v.key)
			log.Errorf(err, "missing %s", v.key)
			return nil, err
		}
	}

	maxConns, err := parseIntEnv("POSTGRES_MAX_CONNS", defaultMaxConns)
	if err != nil {
		log.Errorf(err, "invalid POSTGRES_MAX_CONNS")
		return nil, err
	}

	minConns, err := parseIntEnv("POSTGRES_MIN_CONNS", defaultMinConns)
	if err != nil {
		log.Errorf(err, "invalid POSTGRES_MIN_CONNS")
		return nil, err
	}

	if maxConns <= 0 || minConns < 0 || minConns > maxConns {
		err := fmt.Errorf("%w: POSTGRES_MIN_CONNS=%d POSTGRES_MAX_CONNS=%d", e.ErrIncorrectEnvVariable, minConns, maxConns)
		log.Errorf(err, "invalid postgres pool size")
		return nil, err
	}
	res.MaxConns, res.MinConns = int32(maxConns), int32(minConns)

	if res.MaxConnLifetime, err = parseDurationEnv("POSTGRES_MAX_CONN_LIFETIME", defaultMaxConnLifetime); err != nil {
		log.Errorf(err, "invalid POSTGRES_MAX_CONN_LIFETIME")
		return nil, err
	}

	if res.ConnectTimeout, err = parseDurationEnv("POSTGRES_CONNECT_TIMEOUT", defaultConnectTimeout); err != nil {
		log.Errorf(err, "invalid POSTGRES_CONNECT_TIMEOUT")
		return nil, err
	}

	return res, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr           = "localhost:6379"
		defaultPoolSize       = 20
		defaultMaxRetries     = 3
		defaultDialTimeout    = 5 * time.Second
		defaultReadTimeout    = 500 * time.Millisecond
		defaultWriteTimeout   = 500 * time.Millisecond
		defaultProductTTL     = 3 * time.Minute
		defaultIdempotencyTTL = 24 * time.Hour
	)

	res := &RedisCfg{
		Addr:     getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password: getEnv("REDIS_PASSWORD"),
		User:     getEnv("REDIS_USER"),
	}

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"REDIS_DB_ID", 0, &res.DB},
		{"REDIS_POOL_SIZE", defaultPoolSize, &res.PoolSize},
		{"REDIS_MAX_RETRIES", defaultMaxRetries, &res.MaxRetries},
	}
	for _, v := range ints {
		n, err := parseIntEnv(v.key, v.def)
		if err != nil {
			log.Errorf(err, "invalid %s", v.key)
			return nil, err
		}
		*v.dst = n
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"REDIS_DIAL_TIMEOUT", defaultDialTimeout, &res.DialTimeout},
		{"REDIS_READ_TIMEOUT", defaultReadTimeout, &res.ReadTimeout},
		{"REDIS_WRITE_TIMEOUT", defaultWriteTimeout, &res.WriteTimeout},
		{"PRODUCT_TTL", defaultProductTTL, &res.ProductTTL},
		{"IDEMPOTENCY_TTL", defaultIdempotencyTTL, &res.IdempotencyTTL},
	}
	for _, v := range durations {
		d, err := parseDurationEnv(v.key, v.def)
		if err != nil {
			log.Errorf(err, "invalid %s", v.key)
			return nil, err
		}
		*v.dst = d
	}

	if res.PoolSize <= 0 {
		err := fmt.Errorf("%w: REDIS_POOL_SIZE must be positive", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid REDIS_POOL_SIZE")
		return nil, err
	}

	if res.ProductTTL <= 0 || res.IdempotencyTTL <= 0 {
		err := fmt.Errorf("%w: PRODUCT_TTL and IDEMPOTENCY_TTL must be positive", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid redis ttl")
		return nil, err
	}

	return res, nil
}

func loadAuthCfg(log logger.Logger) (*AuthCfg, error) {
	secret := getEnv("JWT_SECRET")
	if secret == "" {
		err := fmt.Errorf("JWT_SECRET is required")
		log.Errorf(err, "missing JWT_SECRET")
		return nil, err
	}

	return &AuthCfg{
		JWTSecret: secret,
		Issuer:    getEnv("JWT_ISSUER"),
		Audience:  getEnv("JWT_AUDIENCE"),
	}, nil
}

func loadCheckoutCfg(log logger.Logger) (*CheckoutCfg, error) {
	const (
		defaultPolicy    = TotalPolicyAudit
		defaultTolerance = "0"
		defaultNode      = 1
		maxSnowflakeNode = 1023
	)

	policy := strings.ToLower(getEnvOrDefault("CHECKOUT_TOTAL_POLICY", defaultPolicy))
	if policy != TotalPolicyAudit && policy != TotalPolicyReject {
		err := fmt.Errorf("%w: CHECKOUT_TOTAL_POLICY=%q", e.ErrIncorrectEnvVariable, policy)
		log.Errorf(err, "invalid CHECKOUT_TOTAL_POLICY")
		return nil, err
	}

	tolerance, err := decimal.NewFromString(getEnvOrDefault("CHECKOUT_TOTAL_TOLERANCE", defaultTolerance))
	if err != nil || tolerance.IsNegative() {
		err = fmt.Errorf("%w: CHECKOUT_TOTAL_TOLERANCE", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid CHECKOUT_TOTAL_TOLERANCE")
		return nil, err
	}

	node, err := parseIntEnv("SNOWFLAKE_NODE", defaultNode)
	if err != nil || node < 0 || node > maxSnowflakeNode {
		err = fmt.Errorf("%w: SNOWFLAKE_NODE", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid SNOWFLAKE_NODE")
		return nil, err
	}

	return &CheckoutCfg{
		TotalPolicy:    policy,
		TotalTolerance: tolerance,
		SnowflakeNode:  int64(node),
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
