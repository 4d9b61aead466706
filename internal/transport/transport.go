package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"kvload/internal/command"
)

// RecvBufferSize は1回の受信で読み込む最大バイト数
const RecvBufferSize = 1024

// ErrClosed はクローズ済みのTransportを使ったことを示す
var ErrClosed = errors.New("transport is closed")

// Transport は1本のTCP接続をラップする
type Transport struct {
	conn net.Conn
	buf  []byte

	closeOnce sync.Once
	closed    bool
}

// Dial はサーバーに接続する
//
// 明示的なタイムアウトは設けず、OSのデフォルトに任せる。ctx のキャンセルのみで中断する。
func Dial(ctx context.Context, addr string) (*Transport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnectError{Addr: addr, Err: err}
	}
	return New(conn), nil
}

// New は既存の接続からTransportを作成する
func New(conn net.Conn) *Transport {
	return &Transport{
		conn: conn,
		buf:  make([]byte, RecvBufferSize),
	}
}

// SendCommand はコマンドを改行付きで送信する
func (t *Transport) SendCommand(cmd command.Command) error {
	return t.write("send", cmd.Wire())
}

// SendLine は任意の1行を改行付きで送信する
//
// 末尾に改行が含まれていても、送信されるのはちょうど1つ。
func (t *Transport) SendLine(line string) error {
	return t.write("send", command.Frame(line))
}

// SendRaw はフレーミングなしでバイト列をそのまま送信する
func (t *Transport) SendRaw(b []byte) error {
	return t.write("send", b)
}

// write は短い書き込みが起きても全バイト送るまで繰り返す
func (t *Transport) write(op string, b []byte) error {
	if t.closed {
		return &IoError{Op: op, Err: ErrClosed}
	}
	for len(b) > 0 {
		n, err := t.conn.Write(b)
		if err != nil {
			return &IoError{Op: op, Err: err}
		}
		b = b[n:]
	}
	return nil
}

// RecvResponse は1回だけ読み込み、届いた分をそのまま返す
//
// 行全体が揃っている保証はない。
func (t *Transport) RecvResponse() (string, error) {
	if t.closed {
		return "", &IoError{Op: "recv", Err: ErrClosed}
	}
	n, err := t.conn.Read(t.buf)
	if n > 0 {
		return string(t.buf[:n]), nil
	}
	if err == nil {
		err = io.ErrNoProgress
	}
	return "", &IoError{Op: "recv", Err: err}
}

// RemoteAddr は接続先アドレスを返す
func (t *Transport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

// Close はソケットを解放する（冪等）
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.closed = true
		err = t.conn.Close()
	})
	return err
}
