package models

type SweepResult struct {
	Requests      int64 `json:"requests"`
	Offers        int64 `json:"offers"`
	Notifications int64 `json:"notifications"`
}

func (r SweepResult) Total() int64 {
	return r.Requests + r.Offers + r.Notifications
}
