package network

// Message ids. 1xx are client room operations, 2xx client game operations,
// 3xx server pushes, 4xx server rejections.
const (
	MsgTypeHeartbeat = 1

	MsgTypeCreateRoom       = 101
	MsgTypeJoinRoom         = 102
	MsgTypeUpdatePlayerInfo = 103

	MsgTypeStartRound     = 201
	MsgTypeSignalRoundEnd = 202
	MsgTypeSubmitVote     = 203

	MsgTypeRoomCreated     = 301
	MsgTypeRoomJoined      = 302
	MsgTypeRoomUpdated     = 303
	MsgTypeRoundStarted    = 304
	MsgTypeRoundUpdated    = 305
	MsgTypeCheckingOutcome = 306
	MsgTypeOutcomeProgress = 307
	MsgTypeOutcomeResult   = 308
	MsgTypeEnterVoting     = 309
	MsgTypeVoteUpdated     = 310
	MsgTypeVoteRoundReset  = 311
	MsgTypeRoundEnded      = 312

	MsgTypeError = 401
)
