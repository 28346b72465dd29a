package main

import "gridarena/cmd"

// gridarena 入口：serve 启动 HTTP + WebSocket 协调服务，stats 查询运行中的服务
func main() {
	cmd.Execute()
}
