package constants

import (
	"net/http"
	"time"
)

const (
	AppName = "pixgate"
	Version = "0.3.0"
)

// Network defaults
const (
	DefaultPort      = "8080"
	DefaultServerURL = "http://localhost:8080"
	CleanupInterval  = 30 * time.Second
	ShutdownTimeout  = 5 * time.Second
	ReadHeaderLimit  = 10 * time.Second
	IdleTimeout      = 120 * time.Second
)

// Session settings
const (
	SessionDuration       = 24 * time.Hour
	SessionCookieName     = "session"
	SessionCookieSameSite = http.SameSiteLaxMode
	SessionSecretMinLen   = 32
	RedisKeyPrefix        = "pixgate:session:"
	RedisConsumedPrefix   = "pixgate:consumed:"
	RedisExpiryGrace      = 2 * CleanupInterval
	StoreCookie           = "cookie"
	StoreMemory           = "memory"
	StoreRedis            = "redis"
)

// Challenge defaults
const (
	ChallengeSize        = 9
	PrimaryProbability   = 0.5
	PrimaryPoolName      = "car"
	PrimaryPoolSize      = 10
	SecondaryPoolName    = "bicycle"
	SecondaryPoolSize    = 13
	DefaultImageDir      = "public/cars-and-bicycles"
	ImageExtension       = ".png"
	ImageContentType     = "image/png"
	DefaultTargetPrimary = "primary"
)

// Delivery
const (
	SinkLog          = "log"
	SinkRedis        = "redis"
	RedisMessageList = "pixgate:messages"
	MaxMessageLength = 2000
)

// Abuse protection
const (
	MaxCaptchaFailures    = 5
	BlockDuration         = 15 * time.Minute
	MaxBodySize           = 16 * 1024
	MaxAuditLogsPerMinute = 600
	MinDiskSpaceRequired  = 50 * 1024 * 1024
)

// API endpoints
const (
	EndpointRoot           = "/"
	EndpointCaptchaImage   = "/api/captcha-image"
	EndpointCaptchaRefresh = "/api/captcha/refresh"
	EndpointSend           = "/api/send"
	EndpointHealth         = "/healthz"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorDim    = "\033[2m"
	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
)

// Messages
const (
	MsgInvalidJSON      = "Invalid JSON"
	MsgMethodNotAllowed = "Method not allowed"
	MsgInvalidIndex     = "Invalid index"
	MsgImageUnavailable = "Failed to load image"
	MsgMessageRequired  = "The message is required"
	MsgMessageTooLong   = "The message is too long"
	MsgTooManyFailures  = "Too many wrong answers. Try again later."
	MsgSessionFailure   = "Session unavailable"
	MsgDeliveryFailed   = "Failed to deliver message"
	MsgInternalError    = "Internal Server Error"
	MsgUsage            = "Usage: pixgate-client [-server URL] [-dir DIR]"
	MsgWrongCaptcha     = "Wrong CAPTCHA. Try again."
	MsgMessageSent      = "Message sent"
)
