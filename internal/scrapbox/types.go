package scrapbox

// User is the /api/users/me record. Guests carry isGuest=true and no id.
type User struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Photo       string `json:"photo,omitempty"`
	CSRFToken   string `json:"csrfToken,omitempty"`
	IsGuest     bool   `json:"isGuest,omitempty"`
}

// IsMember reports whether the profile belongs to a logged-in user.
func (u User) IsMember() bool {
	return u.ID != "" && !u.IsGuest
}

// Label is the name shown to the user: display name, else login name.
func (u User) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}

type ImportPage struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

type ImportData struct {
	Pages []ImportPage `json:"pages"`
}

type importResponse struct {
	Message string `json:"message"`
}

type Line struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// PageInfo is the subset of /api/pages/<project>/<title> we use. The service
// answers for titles that do not exist yet with Persistent=false.
type PageInfo struct {
	ID         string `json:"id,omitempty"`
	Title      string `json:"title"`
	Persistent bool   `json:"persistent"`
	Lines      []Line `json:"lines,omitempty"`
}
