package entity

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PlayerView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Host bool   `json:"host"`
}
