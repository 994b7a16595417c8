package constants

import "time"

const (
	CHANNEL_SIZE        = 256  // 每个推送会话的出站队列大小
	HUB_CHANNEL_SIZE    = 1024 // Hub 事件循环的广播通道大小
	REDIS_TIMEOUT       = 1    // redis timeout (分钟)
	MAX_CONTENT_LENGTH  = 4000 // 单条消息最大字符数
	DEFAULT_PAGE_LIMIT  = 100  // 历史消息默认条数
	MAX_PAGE_LIMIT      = 500  // 历史消息单次上限
	WELCOME_HISTORY_LEN = 100  // 推送会话建立时下发的最近消息条数
)

// WS_READ_LIMIT 单帧上限：按每字符最坏 12 字节（代理对转义 \uXXXX\uXXXX）估算，另留帧头余量
const WS_READ_LIMIT = MAX_CONTENT_LENGTH*12 + 1024

const (
	LIVENESS_TIMEOUT = 5 * time.Minute  // 超过该时长未活动视为离线
	PING_INTERVAL    = 30 * time.Second // 推送会话保活探测周期
	STATUS_INTERVAL  = 60 * time.Second // 在线状态定期广播周期
	WS_WRITE_TIMEOUT = 10 * time.Second // 单帧写超时
	TICKET_EXPIRY    = 1 * time.Minute  // WebSocket ticket 默认有效期
)
