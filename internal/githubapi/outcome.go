package githubapi

import (
	"net/http"
	"time"
)

// Status phân loại kết quả của một lần gọi API.
// Caller phân nhánh theo loại kết quả thay vì so khớp chuỗi lỗi.
type Status int

const (
	// StatusOk nhận được dữ liệu hợp lệ
	StatusOk Status = iota
	// StatusEmpty subject không có dữ liệu (404 hoặc response rỗng), không phải lỗi
	StatusEmpty
	// StatusRateLimited bị giới hạn tốc độ, RetryAfter cho biết cần chờ bao lâu
	StatusRateLimited
	// StatusFailed lỗi thật sự sau khi đã hết retry budget
	StatusFailed
)

type Outcome struct {
	Status     Status
	Body       []byte
	Header     http.Header
	RetryAfter time.Duration
	Err        error
}

func (o Outcome) Ok() bool {
	return o.Status == StatusOk
}
