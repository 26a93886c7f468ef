package recommender

type tally struct {
	stars int
	forks int
	meta  *Repo
}

// Aggregator gom đếm tần suất xuất hiện của các repo ứng viên qua các neighbor.
// Mỗi neighbor đóng góp tối đa một đơn vị đếm cho mỗi ứng viên mỗi loại tương tác,
// dù có bao nhiêu interaction với repo đó đi nữa.
// Việc cộng dồn là giao hoán nên kết quả không phụ thuộc thứ tự hoàn thành của các fetch.
type Aggregator struct {
	subject       string
	maxNeighbors  int
	counts        map[string]*tally
	order         []string
	neighborsSeen int
	stopped       bool
}

func NewAggregator(subject string, maxNeighbors int) *Aggregator {
	return &Aggregator{
		subject:      subject,
		maxNeighbors: maxNeighbors,
		counts:       make(map[string]*tally),
		order:        make([]string, 0, 256),
	}
}

// Accumulate cộng edge set của một neighbor vào bộ đếm.
// Trả về false khi đã đạt giới hạn max neighbors: overlap một phần là
// xấp xỉ sampling được chấp nhận, không phải lỗi.
func (a *Aggregator) Accumulate(neighbor string, edges []Interaction) bool {
	if a.stopped {
		return false
	}
	if a.maxNeighbors > 0 && a.neighborsSeen >= a.maxNeighbors {
		a.stopped = true
		return false
	}
	a.neighborsSeen++

	// Dedupe trong phạm vi một neighbor: đếm theo actor phân biệt, không theo số cạnh
	seenStar := make(map[string]bool, len(edges))
	seenFork := make(map[string]bool)

	for _, edge := range edges {
		if edge.Repo == "" || edge.Repo == a.subject {
			continue
		}

		t, ok := a.counts[edge.Repo]
		if !ok {
			t = &tally{}
			a.counts[edge.Repo] = t
			a.order = append(a.order, edge.Repo)
		}
		if t.meta == nil && edge.Meta != nil {
			t.meta = edge.Meta
		}

		switch edge.Kind {
		case Star:
			if !seenStar[edge.Repo] {
				seenStar[edge.Repo] = true
				t.stars++
			}
		case Fork:
			if !seenFork[edge.Repo] {
				seenFork[edge.Repo] = true
				t.forks++
			}
		}
	}

	return true
}

func (a *Aggregator) NeighborsSeen() int {
	return a.neighborsSeen
}

// Candidates trả về các ứng viên theo thứ tự phát hiện.
// Thứ tự này là tie-break ổn định cho selector.
func (a *Aggregator) Candidates() []Candidate {
	candidates := make([]Candidate, 0, len(a.order))
	for _, repo := range a.order {
		t := a.counts[repo]
		c := Candidate{
			Repo:       repo,
			Stargazers: t.stars,
			Forkers:    t.forks,
			Meta:       t.meta,
		}
		if t.forks > 0 {
			c.Ratio = float64(t.stars) / float64(t.forks)
			c.HasRatio = true
		}
		candidates = append(candidates, c)
	}
	return candidates
}
