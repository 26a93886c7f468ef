package recommender

import "context"

// Source là nguồn cạnh tương tác, hoặc từ GitHub API hoặc từ event warehouse.
// Hai biến thể phải thay thế được cho nhau đối với phần còn lại của pipeline.
type Source interface {
	// UserStars trả về các repo mà actor đã star, mới nhất trước, tối đa limit phần tử
	UserStars(ctx context.Context, login string, limit int) ([]Repo, error)
	// RepoStargazers trả về login của các actor đã star repo, mới nhất trước
	RepoStargazers(ctx context.Context, fullName string, limit int) ([]string, error)
}

// OverlapQuerier là khả năng tùy chọn của nguồn: trả về thẳng các ứng viên
// đã được gộp đếm phía nguồn bằng một câu query duy nhất.
// Kết quả vẫn đi qua Select phía client như mọi nguồn khác.
type OverlapQuerier interface {
	OverlapCandidates(ctx context.Context, fullName string) ([]Candidate, error)
}
