// Gói warehouse cung cấp client cho ClickHouse HTTP interface.
// Truy vấn được gửi dưới dạng raw SQL, kết quả trả về theo format JSONEachRow.

package warehouse

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/thep200/github-recommender/cfg"
	"github.com/thep200/github-recommender/pkg/log"
)

// QueryError là lỗi terminal sau khi đã hết retry budget, giữ nguyên nhân cuối cùng
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("clickhouse query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Row là một bản ghi JSONEachRow đã decode.
// ClickHouse có thể trả số dưới dạng string tùy setting nên giá trị để dạng any.
type Row map[string]interface{}

type Client struct {
	Logger log.Logger
	Config *cfg.Config
	client *http.Client
}

func NewClient(logger log.Logger, config *cfg.Config) *Client {
	timeout := time.Duration(config.Clickhouse.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		Logger: logger,
		Config: config,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *Client) queryUrl() string {
	params := url.Values{}
	params.Set("default_format", "JSONEachRow")
	if c.Config.Clickhouse.Username != "" {
		params.Set("user", c.Config.Clickhouse.Username)
	}
	if c.Config.Clickhouse.Password != "" {
		params.Set("password", c.Config.Clickhouse.Password)
	}
	return strings.TrimRight(c.Config.Clickhouse.Url, "/") + "/?" + params.Encode()
}

// Query gửi một câu SQL và decode kết quả JSONEachRow.
// Lỗi mạng và response không phải 2xx được retry với backoff tuyến tính.
func (c *Client) Query(ctx context.Context, sql string) ([]Row, error) {
	maxRetries := c.Config.Clickhouse.MaxRetries
	if maxRetries < 1 {
		maxRetries = 3
	}
	backoff := time.Duration(c.Config.Clickhouse.RetryBackoffMs) * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryUrl(), bytes.NewBufferString(sql))
		if err != nil {
			return nil, &QueryError{Err: err}
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			lastErr = fmt.Errorf("status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
		} else {
			rows, errParse := decodeRows(resp.Body)
			resp.Body.Close()
			if errParse != nil {
				// Response không parse được là lỗi per-subject, không retry thêm
				return nil, &QueryError{Err: errParse}
			}
			return rows, nil
		}

		if attempt == maxRetries {
			break
		}

		c.Logger.Warn(ctx, "ClickHouse request thất bại (lần %d/%d): %v, thử lại sau %v", attempt, maxRetries, lastErr, backoff*time.Duration(attempt))
		select {
		case <-ctx.Done():
			return nil, &QueryError{Err: ctx.Err()}
		case <-time.After(backoff * time.Duration(attempt)):
		}
	}

	return nil, &QueryError{Err: lastErr}
}

func decodeRows(r io.Reader) ([]Row, error) {
	rows := make([]Row, 0, 64)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		row := Row{}
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, fmt.Errorf("malformed JSONEachRow line: %w", err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// AsInt ép một giá trị JSONEachRow về int, chấp nhận cả số lẫn string
func AsInt(v interface{}) int {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return int(t)
	case int64:
		return int(t)
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// AsFloat ép một giá trị JSONEachRow về float64, trả về false nếu null hoặc không hợp lệ
func AsFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		if t == "" || t == "null" {
			return 0, false
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsString ép một giá trị JSONEachRow về string
func AsString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
