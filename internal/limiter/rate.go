package limiter

import (
	"context"
	"sync"
	"time"
)

// Giới hạn số lượng request trong 1 giây
type RateLimiter struct {
	requestTimes []time.Time
	maxRequests  int
	mu           sync.Mutex
}

func NewRateLimiter(maxRequests int) *RateLimiter {
	return &RateLimiter{
		requestTimes: make([]time.Time, 0, maxRequests),
		maxRequests:  maxRequests,
	}
}

// Allow kiểm tra xem có thể thực hiện request mới hay không
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	oneSecondAgo := now.Add(-1 * time.Second)

	// Xóa các request cũ hơn 1 giây
	validTimes := make([]time.Time, 0, len(r.requestTimes))
	for _, t := range r.requestTimes {
		if t.After(oneSecondAgo) {
			validTimes = append(validTimes, t)
		}
	}
	r.requestTimes = validTimes

	// Nếu số lượng request trong 1 giây vừa qua nhỏ hơn giới hạn thì add request mới và cho phép thực hiện
	if len(r.requestTimes) < r.maxRequests {
		r.requestTimes = append(r.requestTimes, now)
		return true
	}

	return false
}

// Pacer giữ khoảng cách tối thiểu giữa hai request liên tiếp.
// Dùng khi chạy không có PAT: GitHub yêu cầu tối đa ~1 request/giây.
// Trạng thái last-request nằm trong struct, không dùng biến global.
type Pacer struct {
	minInterval time.Duration
	last        time.Time
	mu          sync.Mutex
}

func NewPacer(minInterval time.Duration) *Pacer {
	return &Pacer{minInterval: minInterval}
}

// Wait chặn cho tới khi đủ khoảng cách với request trước đó.
// Trả về lỗi của ctx nếu bị hủy trong lúc chờ.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	now := time.Now()
	var sleep time.Duration
	if !p.last.IsZero() {
		elapsed := now.Sub(p.last)
		if elapsed < p.minInterval {
			sleep = p.minInterval - elapsed
		}
	}
	p.last = now.Add(sleep)
	p.mu.Unlock()

	if sleep <= 0 {
		return nil
	}

	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
