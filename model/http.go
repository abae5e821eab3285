package model

type SessionRequestBody struct {
	Document Document `json:"document"`
}

type SessionResponse struct {
	ID         string `json:"id"`
	TotalSteps int    `json:"total_steps"`
}

type AdvanceRequestBody struct {
	Step int `json:"step"`
}

type FlushRequestBody struct {
	Step  int `json:"step"`
	Prime int `json:"prime"`
}

type AdvanceResponse struct {
	Step        int         `json:"step"`
	Intensity   float64     `json:"intensity"`
	TempoOffset float64     `json:"tempo_offset"`
	Notes       []NoteEvent `json:"notes"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
