package network

const (
	MsgTypeHeartbeat = 1

	// 客户端 -> 服务端
	MsgTypeJoinQueue  = 101
	MsgTypeLeaveQueue = 102
	MsgTypePlayCard   = 201

	// 服务端 -> 客户端
	MsgTypeWaitingForOpponent = 301
	MsgTypeQueueLeft          = 302
	MsgTypeDuelStart          = 303
	MsgTypeRoundSummary       = 304
	MsgTypeRoundResult        = 305
	MsgTypeNextRound          = 306
	MsgTypeDuelEnded          = 307

	MsgTypeError     = 401
	MsgTypeAuthError = 402
)
