package model

// PaginationRequest defines pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit" form:"limit"`
	Offset int `json:"offset" form:"offset"`
}

// Normalize clamps pagination values to sane bounds.
func (p *PaginationRequest) Normalize() {
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}
