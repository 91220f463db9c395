package services

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/identia/apiserver/config"
	"github.com/identia/apiserver/internal/store"
	"github.com/identia/apiserver/types"
)

// --- test doubles ---

type memRepo struct {
	users  map[int]types.User
	nextID int
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[int]types.User{}, nextID: 1}
}

func (r *memRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memRepo) GetByNickname(ctx context.Context, nickname string) (types.User, error) {
	for _, user := range r.users {
		if user.Nickname == nickname {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Nickname == user.Nickname {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.Verified = false
	r.users[user.ID] = user
	return user, nil
}

func (r *memRepo) MarkVerified(ctx context.Context, id int) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.Verified = true
	user.PendingCode = ""
	r.users[id] = user
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeNotifier struct {
	fail  bool
	sent  []string
	codes []string
}

func (n *fakeNotifier) SendVerificationCode(ctx context.Context, email, code string) error {
	if n.fail {
		return errors.New("smtp down")
	}
	n.sent = append(n.sent, email)
	n.codes = append(n.codes, code)
	return nil
}

func newTestService(repo UserRepository, notifier Notifier) *UserService {
	cfg := config.TokenConfig{Secret: "test-secret", TTL: 24 * time.Hour}
	return NewUserService(repo, notifier, cfg, nil)
}

// --- register ---

func TestRegisterMissingFields(t *testing.T) {
	svc := newTestService(newMemRepo(), &fakeNotifier{})

	cases := [][3]string{
		{"", "alice", "pw"},
		{"a@x.com", "", "pw"},
		{"a@x.com", "alice", ""},
		{"   ", "alice", "pw"},
	}
	for _, c := range cases {
		if _, err := svc.Register(context.Background(), c[0], c[1], c[2]); !errors.Is(err, ErrValidation) {
			t.Fatalf("Register(%q,%q,%q) = %v, want ErrValidation", c[0], c[1], c[2], err)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &fakeNotifier{})

	if _, err := svc.Register(context.Background(), "a@x.com", "alice", "pw"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	if _, err := svc.Register(context.Background(), "a@x.com", "bob", "pw"); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("duplicate email = %v, want ErrDuplicate", err)
	}
	if _, err := svc.Register(context.Background(), "b@x.com", "alice", "pw"); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("duplicate nickname = %v, want ErrDuplicate", err)
	}
}

func TestRegisterSendsCode(t *testing.T) {
	repo := newMemRepo()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)

	user, err := svc.Register(context.Background(), "a@x.com", "alice", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if user.Verified {
		t.Fatalf("new user must start unverified")
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != "a@x.com" {
		t.Fatalf("unexpected notifier calls: %v", notifier.sent)
	}
	if got := notifier.codes[0]; len(got) != 6 {
		t.Fatalf("expected 6-digit code, got %q", got)
	}
	stored := repo.users[user.ID]
	if stored.PendingCode != notifier.codes[0] {
		t.Fatalf("stored code %q does not match sent code %q", stored.PendingCode, notifier.codes[0])
	}
	if stored.PasswordHash == "pw" || stored.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}
}

func TestRegisterDeliveryFailureRollsBack(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &fakeNotifier{fail: true})

	if _, err := svc.Register(context.Background(), "a@x.com", "alice", "pw"); !errors.Is(err, ErrDelivery) {
		t.Fatalf("register = %v, want ErrDelivery", err)
	}
	if len(repo.users) != 0 {
		t.Fatalf("expected rollback to remove the user, found %d rows", len(repo.users))
	}

	// The failed attempt must leave no trace: the same email registers cleanly.
	svc = newTestService(repo, &fakeNotifier{})
	if _, err := svc.Register(context.Background(), "a@x.com", "alice", "pw"); err != nil {
		t.Fatalf("re-register after rollback: %v", err)
	}
}

// --- verify ---

func TestVerifyLifecycle(t *testing.T) {
	repo := newMemRepo()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)

	user, err := svc.Register(context.Background(), "a@x.com", "alice", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	code := notifier.codes[0]

	if err := svc.Verify(context.Background(), "ghost@x.com", code); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("verify unknown email = %v, want ErrNotFound", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := svc.Verify(context.Background(), "a@x.com", wrong); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("verify wrong code = %v, want ErrInvalidCode", err)
	}
	if repo.users[user.ID].Verified {
		t.Fatalf("wrong code must leave the user unverified")
	}

	if err := svc.Verify(context.Background(), "a@x.com", code); err != nil {
		t.Fatalf("verify: %v", err)
	}
	stored := repo.users[user.ID]
	if !stored.Verified {
		t.Fatalf("expected user verified")
	}
	if stored.PendingCode != "" {
		t.Fatalf("expected pending code cleared, got %q", stored.PendingCode)
	}

	if err := svc.Verify(context.Background(), "a@x.com", code); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("second verify = %v, want ErrAlreadyVerified", err)
	}
}

func TestVerifyMissingInput(t *testing.T) {
	svc := newTestService(newMemRepo(), &fakeNotifier{})

	if err := svc.Verify(context.Background(), "", "123456"); !errors.Is(err, ErrValidation) {
		t.Fatalf("verify without email = %v, want ErrValidation", err)
	}
	if err := svc.Verify(context.Background(), "a@x.com", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("verify without code = %v, want ErrValidation", err)
	}
}

// --- login ---

func TestLoginBeforeAndAfterVerify(t *testing.T) {
	repo := newMemRepo()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)

	user, err := svc.Register(context.Background(), "a@x.com", "alice", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(context.Background(), "a@x.com", "pw"); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("login before verify = %v, want ErrNotVerified", err)
	}
	if _, err := svc.Login(context.Background(), "a@x.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("login with wrong password = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "ghost@x.com", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("login with unknown email = %v, want ErrInvalidCredentials", err)
	}

	if err := svc.Verify(context.Background(), "a@x.com", notifier.codes[0]); err != nil {
		t.Fatalf("verify: %v", err)
	}

	result, err := svc.Login(context.Background(), "a@x.com", "pw")
	if err != nil {
		t.Fatalf("login after verify: %v", err)
	}
	if result.UserID != user.ID || result.Nickname != "alice" {
		t.Fatalf("unexpected login result: %+v", result)
	}
	if result.Token == "" {
		t.Fatalf("expected a token")
	}
}

func TestLoginTokenClaims(t *testing.T) {
	repo := newMemRepo()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)

	user, err := svc.Register(context.Background(), "a@x.com", "alice", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Verify(context.Background(), "a@x.com", notifier.codes[0]); err != nil {
		t.Fatalf("verify: %v", err)
	}

	result, err := svc.Login(context.Background(), "a@x.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims := jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(result.Token, &claims, func(token *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != strconv.Itoa(user.ID) {
		t.Fatalf("token subject = %q, want %q", claims.Subject, strconv.Itoa(user.ID))
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatalf("expected iat and exp claims")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 24*time.Hour {
		t.Fatalf("token lifetime = %v, want 24h", got)
	}
}

// --- search ---

func TestSearchByIDAndNickname(t *testing.T) {
	repo := newMemRepo()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier)

	user, err := svc.Register(context.Background(), "a@x.com", "alice", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	byNickname, err := svc.Search(context.Background(), "alice")
	if err != nil {
		t.Fatalf("search by nickname: %v", err)
	}
	byID, err := svc.Search(context.Background(), strconv.Itoa(user.ID))
	if err != nil {
		t.Fatalf("search by id: %v", err)
	}
	if byNickname != byID {
		t.Fatalf("searches disagree: %+v vs %+v", byNickname, byID)
	}

	if byNickname.Email != EmailPlaceholder {
		t.Fatalf("unverified email leaked: %q", byNickname.Email)
	}

	if err := svc.Verify(context.Background(), "a@x.com", notifier.codes[0]); err != nil {
		t.Fatalf("verify: %v", err)
	}
	verified, err := svc.Search(context.Background(), "alice")
	if err != nil {
		t.Fatalf("search after verify: %v", err)
	}
	if verified.Email != "a@x.com" {
		t.Fatalf("verified search email = %q, want real address", verified.Email)
	}
}

func TestSearchMisses(t *testing.T) {
	svc := newTestService(newMemRepo(), &fakeNotifier{})

	if _, err := svc.Search(context.Background(), ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty query = %v, want ErrValidation", err)
	}
	if _, err := svc.Search(context.Background(), "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown nickname = %v, want ErrNotFound", err)
	}
	if _, err := svc.Search(context.Background(), "99"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown id = %v, want ErrNotFound", err)
	}
}
