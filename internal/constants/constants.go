package constants

import "time"

// Endpoint defaults (KONE sandbox)
const (
	DefaultTokenEndpoint = "https://dev.kone.com/api/v2/oauth2/token"
	DefaultWSEndpoint    = "wss://dev.kone.com/stream-v2"
	DefaultScope         = "application/inventory callgiving/*"
	WSSubprotocol        = "koneapi"
)

// Connection settings
const (
	WSHandshakeTimeout = 10 * time.Second
	WSBufferSize       = 32768
	MaxWSMessageSize   = 1024 * 1024
	PongWait           = 70 * time.Second
	PingPeriod         = 30 * time.Second
	WriteWait          = 10 * time.Second
)

// Request settings
const (
	DefaultRequestTimeout = 30 * time.Second
	EventQueueCapacity    = 1024
	TokenSafetyMargin     = 60 * time.Second
	TokenHTTPTimeout      = 15 * time.Second
)

// Call constraints
const (
	MaxCallDelay         = 30
	DefaultCallAction    = 2 // destination call
	DefaultTerminal      = 1
	DefaultMonitorSub    = "status"
	MaxMonitorDuration   = 300
	DefaultMonitorWindow = 10
)

// Building conventions
const (
	BuildingPrefix = "building:"
	AreasPerFloor  = 1000
	DefaultGroupID = "1"
)

// Redis token cache
const (
	RedisKeyPrefix = "kone:token:"
)

// Time formats
const (
	TimeFormatISO = "2006-01-02T15:04:05.000Z"
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

const Version = "0.3.0"
