package profile

// 定义与会话相关的Redis键名
const (
	// RevokedSessionsKey 是一个Set，用于记录被主动吊销的会话令牌。
	// 令牌默认有效，登出操作把令牌加入集合，实现服务端吊销。
	// 采用吊销名单而不是有效名单，Redis不可用期间签发的令牌
	// 在Redis恢复后依然有效。
	// Key: revoked_sessions
	// Member: 完整的会话令牌字符串
	RevokedSessionsKey = "revoked_sessions"
)
