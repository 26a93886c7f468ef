// Gói githubapi cung cấp một caller cho GitHub API, để lấy dữ liệu starred repos và stargazers.
// Chuyển đổi phản hồi api github thành một cấu trúc

package githubapi

type Owner struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

type RepoSummary struct {
	Id              int64  `json:"id"`
	FullName        string `json:"full_name"`
	HtmlUrl         string `json:"html_url"`
	Language        string `json:"language"`
	Description     string `json:"description"`
	StargazersCount int64  `json:"stargazers_count"`
	ForksCount      int64  `json:"forks_count"`
	Fork            bool   `json:"fork"`
	Owner           Owner  `json:"owner"`
}

type Stargazer struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}
