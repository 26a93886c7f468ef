// Caller chịu trách nhiệm thực hiện yêu cầu API.
// Nó xử lý xác thực bằng mã thông báo truy cập nếu được cung cấp,
// retry với backoff tuyến tính cho lỗi tạm thời, và chờ-rồi-tiếp-tục khi bị rate limit.

package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/thep200/github-recommender/cfg"
	"github.com/thep200/github-recommender/internal/limiter"
	"github.com/thep200/github-recommender/pkg/log"
)

type Caller struct {
	Logger      log.Logger
	Config      *cfg.Config
	client      *http.Client
	rateLimiter *limiter.RateLimiter
	pacer       *limiter.Pacer
}

func NewCaller(logger log.Logger, config *cfg.Config) *Caller {
	c := &Caller{
		Logger: logger,
		Config: config,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	// Có PAT thì dùng sliding-window limiter theo cấu hình,
	// không có PAT thì serialize request với khoảng cách tối thiểu 1 giây
	if config.GithubApi.UsePat {
		c.rateLimiter = limiter.NewRateLimiter(config.GithubApi.RequestsPerSecond)
	} else {
		c.pacer = limiter.NewPacer(time.Second)
	}

	return c
}

func (c *Caller) throttle(ctx context.Context) error {
	if c.pacer != nil {
		return c.pacer.Wait(ctx)
	}
	for !c.rateLimiter.Allow() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(c.Config.GithubApi.ThrottleDelay) * time.Millisecond):
		}
	}
	return nil
}

// rateLimitWait đọc thời gian reset từ header khi nhận 403/429.
// Trả về khoảng thời gian cần chờ và true nếu đây đúng là rate limit.
func (c *Caller) rateLimitWait(resp *http.Response) (time.Duration, bool) {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return 0, false
	}

	resetTimeStr := resp.Header.Get("X-RateLimit-Reset")
	if resetTimeStr == "" {
		return 0, false
	}

	resetTimeInt, err := strconv.ParseInt(resetTimeStr, 10, 64)
	if err != nil {
		// Không parse được thời gian reset thì dùng cấu hình mặc định
		return time.Duration(c.Config.GithubApi.RateLimitResetMin) * time.Minute, true
	}

	waitTime := time.Until(time.Unix(resetTimeInt, 0))
	if waitTime < 0 {
		waitTime = 0
	}

	// Cộng thêm một khoảng đệm nhỏ sau thời điểm reset
	return waitTime + time.Second, true
}

func (c *Caller) newRequest(ctx context.Context, rawUrl string, params url.Values) (*http.Request, error) {
	if len(params) > 0 {
		if strings.Contains(rawUrl, "?") {
			rawUrl += "&" + params.Encode()
		} else {
			rawUrl += "?" + params.Encode()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawUrl, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", fmt.Sprintf("%s/%s", c.Config.App.Name, c.Config.App.Version))
	if c.Config.GithubApi.UsePat && c.Config.GithubApi.AccessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("token %s", c.Config.GithubApi.AccessToken))
	}

	return req, nil
}

// GetJSON thực hiện một request GET với retry budget.
// Chờ rate limit không tính vào retry budget vì đó là điều kiện bình thường, không phải lỗi.
func (c *Caller) GetJSON(ctx context.Context, rawUrl string, params url.Values) Outcome {
	maxAttempts := c.Config.GithubApi.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	baseDelay := time.Duration(c.Config.GithubApi.BackoffDelayMs) * time.Millisecond

	var lastErr error
	attempt := 0
	for attempt < maxAttempts {
		if err := c.throttle(ctx); err != nil {
			return Outcome{Status: StatusFailed, Err: err}
		}

		req, err := c.newRequest(ctx, rawUrl, params)
		if err != nil {
			return Outcome{Status: StatusFailed, Err: err}
		}

		resp, err := c.client.Do(req)
		if err != nil {
			// Lỗi mạng hoặc timeout, tính vào retry budget
			attempt++
			lastErr = err
			if attempt >= maxAttempts {
				break
			}
			select {
			case <-ctx.Done():
				return Outcome{Status: StatusFailed, Err: ctx.Err()}
			case <-time.After(baseDelay * time.Duration(attempt)):
			}
			continue
		}

		if wait, limited := c.rateLimitWait(resp); limited {
			resp.Body.Close()
			c.Logger.Warn(ctx, "Rate limit hit, chờ %v rồi tiếp tục request: %s", wait.Round(time.Second), rawUrl)
			select {
			case <-ctx.Done():
				return Outcome{Status: StatusRateLimited, RetryAfter: wait, Err: ctx.Err()}
			case <-time.After(wait):
			}
			// Resume lại đúng request này, không tính vào retry budget
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return Outcome{Status: StatusEmpty, Header: resp.Header}
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			attempt++
			lastErr = fmt.Errorf("server error: %s", resp.Status)
			if attempt >= maxAttempts {
				break
			}
			select {
			case <-ctx.Done():
				return Outcome{Status: StatusFailed, Err: ctx.Err()}
			case <-time.After(baseDelay * time.Duration(attempt)):
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			// Các lỗi còn lại coi như subject không có dữ liệu, log và tiếp tục run
			resp.Body.Close()
			c.Logger.Warn(ctx, "Bỏ qua response không mong đợi %s cho %s", resp.Status, rawUrl)
			return Outcome{Status: StatusEmpty, Header: resp.Header}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			attempt++
			lastErr = err
			continue
		}

		return Outcome{Status: StatusOk, Body: body, Header: resp.Header}
	}

	return Outcome{Status: StatusFailed, Err: fmt.Errorf("hết %d lần thử cho %s: %w", maxAttempts, rawUrl, lastErr)}
}

// extractLastPage đọc số trang cuối từ Link header.
// Không có rel="last" nghĩa là chỉ có một trang.
func extractLastPage(link string) int {
	if link == "" {
		return 1
	}

	for _, part := range strings.Split(link, ",") {
		if !strings.Contains(part, `rel="last"`) {
			continue
		}
		segment := strings.TrimSpace(strings.Split(part, ";")[0])
		segment = strings.TrimPrefix(segment, "<")
		segment = strings.TrimSuffix(segment, ">")
		parsed, err := url.Parse(segment)
		if err != nil {
			return 1
		}
		page, err := strconv.Atoi(parsed.Query().Get("page"))
		if err != nil || page < 1 {
			return 1
		}
		return page
	}

	return 1
}

// paginate duyệt qua một collection endpoint theo trang.
// Dừng khi đạt limit, hết trang, hoặc gặp lỗi terminal; dữ liệu đã gom được vẫn trả về.
func (c *Caller) paginate(ctx context.Context, path string, limit int) ([]json.RawMessage, error) {
	perPage := c.Config.GithubApi.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 100
	}

	fullUrl := c.Config.GithubApi.ApiUrl + path
	items := make([]json.RawMessage, 0, perPage)
	lastPage := 1

	for page := 1; page <= lastPage; page++ {
		params := url.Values{}
		params.Set("per_page", strconv.Itoa(perPage))
		params.Set("page", strconv.Itoa(page))

		out := c.GetJSON(ctx, fullUrl, params)
		if !out.Ok() {
			if out.Status == StatusEmpty {
				return items, nil
			}
			// Lỗi terminal: trả về những gì đã gom được, caller quyết định có bỏ qua subject hay không
			c.Logger.Warn(ctx, "Dừng phân trang %s tại trang %d: %v", path, page, out.Err)
			return items, out.Err
		}

		var pageItems []json.RawMessage
		if err := json.Unmarshal(out.Body, &pageItems); err != nil {
			return items, fmt.Errorf("response không phải JSON array cho %s trang %d: %w", path, page, err)
		}

		if len(pageItems) == 0 {
			return items, nil
		}

		items = append(items, pageItems...)

		if page == 1 {
			lastPage = extractLastPage(out.Header.Get("Link"))
		}

		if limit > 0 && len(items) >= limit {
			return items[:limit], nil
		}
	}

	return items, nil
}

// UserStarred trả về các repository mà user đã star, mới nhất trước
func (c *Caller) UserStarred(ctx context.Context, login string, limit int) ([]RepoSummary, error) {
	raw, err := c.paginate(ctx, fmt.Sprintf("/users/%s/starred", url.PathEscape(login)), limit)

	repos := make([]RepoSummary, 0, len(raw))
	for _, item := range raw {
		var repo RepoSummary
		if errDecode := json.Unmarshal(item, &repo); errDecode != nil {
			c.Logger.Warn(ctx, "Bỏ qua starred item không hợp lệ của %s: %v", login, errDecode)
			continue
		}
		repos = append(repos, repo)
	}

	return repos, err
}

// RepoStargazers trả về danh sách user đã star một repository
func (c *Caller) RepoStargazers(ctx context.Context, fullName string, limit int) ([]Stargazer, error) {
	raw, err := c.paginate(ctx, fmt.Sprintf("/repos/%s/stargazers", fullName), limit)

	stargazers := make([]Stargazer, 0, len(raw))
	for _, item := range raw {
		var sg Stargazer
		if errDecode := json.Unmarshal(item, &sg); errDecode != nil {
			c.Logger.Warn(ctx, "Bỏ qua stargazer item không hợp lệ của %s: %v", fullName, errDecode)
			continue
		}
		stargazers = append(stargazers, sg)
	}

	return stargazers, err
}
