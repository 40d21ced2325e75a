package admin

// Overview feeds the admin dashboard cards.
type Overview struct {
	Users            int            `json:"users"`
	Admins           int            `json:"admins"`
	RequestsByStatus map[string]int `json:"requests_by_status"`
	ContactMessages  int            `json:"contact_messages"`
	ProjectsByStatus map[string]int `json:"projects_by_status"`
	RealtimeClients  int            `json:"realtime_clients"`
}
