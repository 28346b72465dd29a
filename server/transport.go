//go:generate go run go.uber.org/mock/mockgen -source=transport.go -destination=mocks/mock_transport.go -package=mocks
package server

import "gridarena/room"

// Transport 出站投递抽象。Send 不得阻塞，投递失败由实现自行处理，路由层不重试。
type Transport interface {
	Send(to room.PlayerID, msg Outbound)
}

// Dispatcher 传输层把入站帧与断开事件交给路由层
type Dispatcher interface {
	HandleFrame(sender room.PlayerID, payload []byte)
	Disconnect(sender room.PlayerID)
}
