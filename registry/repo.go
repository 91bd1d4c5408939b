package registry

// Repo provides read-only lookup of registered clients and test subjects.
// Lookups have no side effects and no failure mode beyond "not found".
type Repo interface {
	FindClient(id string) (*Client, bool)
	FindSubject(id string) (*Subject, bool)
	Subjects() []*Subject
}

// StaticRepo is an immutable in-memory Repo built once at startup.
type StaticRepo struct {
	clients  map[string]*Client
	subjects map[string]*Subject
	order    []string
}

// NewStaticRepo indexes the given clients and subjects. Subject iteration
// order follows the input slice so selection forms render deterministically.
func NewStaticRepo(clients []Client, subjects []Subject) *StaticRepo {
	r := &StaticRepo{
		clients:  make(map[string]*Client, len(clients)),
		subjects: make(map[string]*Subject, len(subjects)),
	}
	for i := range clients {
		c := clients[i]
		r.clients[c.ID] = &c
	}
	for i := range subjects {
		s := subjects[i]
		r.subjects[s.ID] = &s
		r.order = append(r.order, s.ID)
	}
	return r
}

func (r *StaticRepo) FindClient(id string) (*Client, bool) {
	c, ok := r.clients[id]
	return c, ok
}

func (r *StaticRepo) FindSubject(id string) (*Subject, bool) {
	s, ok := r.subjects[id]
	return s, ok
}

func (r *StaticRepo) Subjects() []*Subject {
	out := make([]*Subject, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.subjects[id])
	}
	return out
}

// DefaultClients returns the built-in demo client.
func DefaultClients() []Client {
	return []Client{
		{
			ID:           "demo-client",
			Secret:       "demo-secret",
			RedirectURIs: []string{"/simulator/callback"},
			Name:         "Demo Application",
		},
	}
}

// DefaultSubjects returns the built-in test users.
func DefaultSubjects() []Subject {
	return []Subject{
		{
			ID:            "alice",
			Name:          "Alice Tanaka",
			Email:         "alice@example.com",
			EmailVerified: true,
			Picture:       "https://api.dicebear.com/7.x/avataaars/svg?seed=alice",
		},
		{
			ID:            "bob",
			Name:          "Bob Suzuki",
			Email:         "bob@example.com",
			EmailVerified: true,
			Picture:       "https://api.dicebear.com/7.x/avataaars/svg?seed=bob",
		},
	}
}
