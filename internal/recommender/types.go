// Gói recommender chứa phần lõi: gom đếm overlap giữa các neighbor
// và xếp hạng các repository ứng viên.

package recommender

import "time"

// Kind là loại tương tác giữa actor và repository
type Kind int

const (
	Star Kind = iota
	Fork
)

// Repo là metadata tùy chọn của một repository, lấy được từ nguồn khi có.
// Thiếu metadata không được làm hỏng việc xếp hạng, chỉ thiếu trường hiển thị.
type Repo struct {
	FullName        string `json:"full_name"`
	HtmlUrl         string `json:"html_url,omitempty"`
	Language        string `json:"language,omitempty"`
	Description     string `json:"description,omitempty"`
	StargazersCount int64  `json:"stargazers_count,omitempty"`
	ForksCount      int64  `json:"forks_count,omitempty"`
}

// Interaction là một cạnh trong đồ thị: actor đã star hoặc fork một repo.
// Meta đi kèm khi nguồn có sẵn thông tin repository.
type Interaction struct {
	Repo string
	Kind Kind
	Meta *Repo
}

// Candidate là một repo ứng viên cùng các số đếm overlap của nó
type Candidate struct {
	Repo       string
	Stargazers int
	Forkers    int
	Ratio      float64
	HasRatio   bool
	Meta       *Repo
}

// Entry là một khuyến nghị trong kết quả cuối cùng
type Entry struct {
	Repo       string   `json:"repo"`
	Count      int      `json:"count"`
	Stargazers int      `json:"stargazers"`
	Forkers    int      `json:"forkers,omitempty"`
	Ratio      *float64 `json:"ratio,omitempty"`
	Meta       *Repo    `json:"meta,omitempty"`
}

// SubjectResult là kết quả cho một subject repo
type SubjectResult struct {
	Repo              string  `json:"repo"`
	Recommendations   []Entry `json:"recommendations"`
	NeighborsSampled  int     `json:"neighbors_sampled"`
	NeighborsWithData int     `json:"neighbors_with_data"`
	CandidatesFound   int     `json:"candidates_found"`
	Err               string  `json:"error,omitempty"`
}

// Result là kết quả của một lần chạy cho một seed
type Result struct {
	Seed        string          `json:"seed"`
	GeneratedAt time.Time       `json:"generated_at"`
	Subjects    []SubjectResult `json:"results"`
}
