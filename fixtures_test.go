package poke_test

type Repo struct {
	Name string
}

type Service struct {
	Repo *Repo `inject:""`
}

type Handler struct {
	Service *Service `inject:""`
}

type Store interface {
	Get(key string) string
}

type memStore struct {
	Repo *Repo `inject:""`
}

func (m *memStore) Get(key string) string {
	return m.Repo.Name + "/" + key
}
