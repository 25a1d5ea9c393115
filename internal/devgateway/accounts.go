// AngelaMos | 2026
// accounts.go

package devgateway

import (
	"errors"
	"sort"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
)

// SeedPassword is shared by every seeded account.
const SeedPassword = "fooddelivery"

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")
	ErrBadPassword     = errors.New("invalid credentials")
)

type Account struct {
	ID           int64
	Username     string
	PasswordHash []byte
	Name         string
	Email        string
	Phone        string
	Role         auth.Role

	// Approval is only kept for restaurants. ApprovalAsList makes the
	// approval endpoint answer with a one-element collection.
	Approval       *auth.ApprovalState
	ApprovalAsList bool
}

func (a *Account) profile() auth.Profile {
	return auth.Profile{
		ID:       a.ID,
		Username: a.Username,
		Name:     a.Name,
		Email:    a.Email,
		Phone:    a.Phone,
		Role:     string(a.Role),
	}
}

type accountStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	nextID   int64
	cost     int
}

func newAccountStore(cost int) *accountStore {
	return &accountStore{
		accounts: make(map[string]*Account),
		nextID:   1,
		cost:     cost,
	}
}

func (s *accountStore) create(a Account, password string) (*Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[a.Username]; ok {
		return nil, ErrAccountExists
	}

	a.ID = s.nextID
	s.nextID++
	a.PasswordHash = hash
	if a.Role == auth.RoleRestaurant && a.Approval == nil {
		a.Approval = &auth.ApprovalState{Status: auth.ApprovalPending}
	}

	stored := a
	s.accounts[a.Username] = &stored
	return &stored, nil
}

func (s *accountStore) authenticate(username, password string) (Account, error) {
	s.mu.RLock()
	a, ok := s.accounts[username]
	var snapshot Account
	if ok {
		snapshot = *a
	}
	s.mu.RUnlock()

	if !ok {
		return Account{}, ErrBadPassword
	}
	if err := bcrypt.CompareHashAndPassword(snapshot.PasswordHash, []byte(password)); err != nil {
		return Account{}, ErrBadPassword
	}
	return snapshot, nil
}

func (s *accountStore) get(username string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[username]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return *a, nil
}

func (s *accountStore) restaurants() []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Account, 0)
	for _, a := range s.accounts {
		if a.Role == auth.RoleRestaurant {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *accountStore) setApproval(username string, state auth.ApprovalState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[username]
	if !ok || a.Role != auth.RoleRestaurant {
		return ErrAccountNotFound
	}
	a.Approval = &state
	return nil
}

func seedAccounts() []Account {
	return []Account{
		{Username: "cliente", Name: "Carla Cliente", Email: "cliente@fooddelivery.test", Phone: "600111222", Role: auth.RoleCustomer},
		{
			Username: "restaurante", Name: "La Tasca", Email: "tasca@fooddelivery.test", Role: auth.RoleRestaurant,
			Approval: &auth.ApprovalState{Status: auth.ApprovalApproved},
		},
		{
			Username: "pendiente", Name: "El Rincón", Email: "rincon@fooddelivery.test", Role: auth.RoleRestaurant,
			Approval: &auth.ApprovalState{Status: auth.ApprovalPending}, ApprovalAsList: true,
		},
		{
			Username: "rechazado", Name: "Bar Cerrado", Email: "cerrado@fooddelivery.test", Role: auth.RoleRestaurant,
			Approval: &auth.ApprovalState{Status: auth.ApprovalRejected, Reason: "Licencia sanitaria caducada"},
			ApprovalAsList: true,
		},
		{Username: "admin", Name: "Ada Admin", Email: "admin@fooddelivery.test", Role: auth.RoleAdmin},
		{Username: "repartidor", Name: "Rafa Reparto", Email: "reparto@fooddelivery.test", Phone: "600333444", Role: auth.RoleCourier},
	}
}

func SeedUsernames() []string {
	seeds := seedAccounts()
	out := make([]string, 0, len(seeds))
	for _, a := range seeds {
		out = append(out, a.Username)
	}
	return out
}
