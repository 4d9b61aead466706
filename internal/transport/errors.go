package transport

import "fmt"

// ConnectError は接続確立の失敗（拒否・到達不能など）
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// IoError は接続中の送受信の失敗
type IoError struct {
	Op  string // "send", "recv"
	Err error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}
