package services

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"rental-system/internal/dto"
	"rental-system/internal/entities"
	"rental-system/internal/repositories"
	"rental-system/pkg/constants"
	apperrors "rental-system/pkg/errors"
	"rental-system/pkg/contextkeys"
	"rental-system/pkg/service"
	"rental-system/pkg/types"
)

// Тестовые двойники репозиториев: хранят данные в памяти, но повторяют
// контрактное поведение БД — уникальные ключи, CAS-обновления, upsert.

func ctxWithClaims(role, email string) context.Context {
	return context.WithValue(context.Background(), contextkeys.UserClaimsKey,
		&service.JwtCustomClaim{UserID: 1, Email: email, Role: role})
}

// --- Транзакции ---

type fakeTxManager struct{}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

// --- Кеш ---

type fakeCacheRepo struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{data: map[string]string{}}
}

func (r *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := value.(string); ok {
		r.data[key] = s
	}
	return nil
}

func (r *fakeCacheRepo) Get(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.data[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (r *fakeCacheRepo) Del(ctx context.Context, key ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range key {
		delete(r.data, k)
	}
	return nil
}

// --- Оборудование ---

type fakeEquipmentRepo struct {
	mu     sync.Mutex
	nextID uint64
	items  map[uint64]*entities.Equipment
}

func newFakeEquipmentRepo() *fakeEquipmentRepo {
	return &fakeEquipmentRepo{nextID: 1, items: map[uint64]*entities.Equipment{}}
}

func (r *fakeEquipmentRepo) put(e entities.Equipment) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == 0 {
		e.ID = r.nextID
		r.nextID++
	} else if e.ID >= r.nextID {
		r.nextID = e.ID + 1
	}
	copied := e
	r.items[copied.ID] = &copied
	return copied.ID
}

func (r *fakeEquipmentRepo) GetEquipments(ctx context.Context, filter types.Filter, onlyBookable bool) ([]*entities.Equipment, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*entities.Equipment
	for _, e := range r.items {
		if onlyBookable && !e.IsBookable() {
			continue
		}
		copied := *e
		list = append(list, &copied)
	}
	return list, uint64(len(list)), nil
}

func (r *fakeEquipmentRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeEquipmentRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *fakeEquipmentRepo) Create(ctx context.Context, e entities.Equipment) (uint64, error) {
	return r.put(e), nil
}

func (r *fakeEquipmentRepo) Update(ctx context.Context, id uint64, d dto.UpdateEquipmentDTO) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if d.Name.Valid {
		e.Name = d.Name.String
	}
	if d.DailyRate.Valid {
		e.DailyRate = d.DailyRate.Float64
	}
	if d.WeeklyRate.Valid {
		v := d.WeeklyRate.Float64
		e.WeeklyRate = &v
	}
	if d.MonthlyRate.Valid {
		v := d.MonthlyRate.Float64
		e.MonthlyRate = &v
	}
	if d.MinRentalDays.Valid {
		e.MinRentalDays = d.MinRentalDays.Int
	}
	return nil
}

func (r *fakeEquipmentRepo) SetApproval(ctx context.Context, id uint64, approved bool, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	e.IsApproved = approved
	e.Status = status
	return nil
}

func (r *fakeEquipmentRepo) SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	e.Status = status
	return nil
}

// --- Корзина ---

type holdKey struct {
	sessionID   string
	equipmentID uint64
}

type fakeCartRepo struct {
	mu        sync.Mutex
	holds     map[holdKey]entities.CartHold
	equipment *fakeEquipmentRepo
}

func newFakeCartRepo(equipment *fakeEquipmentRepo) *fakeCartRepo {
	return &fakeCartRepo{holds: map[holdKey]entities.CartHold{}, equipment: equipment}
}

func (r *fakeCartRepo) UpsertHold(ctx context.Context, hold entities.CartHold) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.holds[holdKey{hold.SessionID, hold.EquipmentID}] = hold
	return nil
}

func (r *fakeCartRepo) FindHold(ctx context.Context, tx pgx.Tx, sessionID string, equipmentID uint64) (*entities.CartHold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.holds[holdKey{sessionID, equipmentID}]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := h
	return &copied, nil
}

func (r *fakeCartRepo) ListHolds(ctx context.Context, sessionID string) ([]*entities.CartHold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*entities.CartHold
	for key, h := range r.holds {
		if key.sessionID != sessionID {
			continue
		}
		copied := h
		if e, err := r.equipment.FindByID(ctx, nil, h.EquipmentID); err == nil {
			copied.Equipment = e
		}
		list = append(list, &copied)
	}
	return list, nil
}

func (r *fakeCartRepo) DeleteHold(ctx context.Context, tx pgx.Tx, sessionID string, equipmentID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := holdKey{sessionID, equipmentID}
	if _, ok := r.holds[key]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.holds, key)
	return nil
}

func (r *fakeCartRepo) Clear(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.holds {
		if key.sessionID == sessionID {
			delete(r.holds, key)
		}
	}
	return nil
}

// --- Аренды ---

type fakeRentalRepo struct {
	mu     sync.Mutex
	nextID uint64
	items  map[uint64]*entities.Rental

	// Имитация конкурентного перехода: следующий CAS не применится.
	failNextCAS bool
}

func newFakeRentalRepo() *fakeRentalRepo {
	return &fakeRentalRepo{nextID: 1, items: map[uint64]*entities.Rental{}}
}

func (r *fakeRentalRepo) CreateRentalInTx(ctx context.Context, tx pgx.Tx, rental entities.Rental) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.RentalNumber == rental.RentalNumber {
			return 0, apperrors.ErrConflict
		}
	}
	rental.ID = r.nextID
	r.nextID++
	now := time.Now()
	rental.CreatedAt = &now
	rental.UpdatedAt = &now
	copied := rental
	r.items[copied.ID] = &copied
	return copied.ID, nil
}

func (r *fakeRentalRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Rental, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rent, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *rent
	return &copied, nil
}

func (r *fakeRentalRepo) FindByNumber(ctx context.Context, number string) (*entities.Rental, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rent := range r.items {
		if rent.RentalNumber == number {
			copied := *rent
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeRentalRepo) GetRentals(ctx context.Context, filter types.Filter, scope repositories.RentalScope) ([]*entities.Rental, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*entities.Rental
	for _, rent := range r.items {
		if scope.CustomerEmail != "" && rent.CustomerEmail != scope.CustomerEmail {
			continue
		}
		copied := *rent
		list = append(list, &copied)
	}
	return list, uint64(len(list)), nil
}

func (r *fakeRentalRepo) UpdateStatusCAS(ctx context.Context, tx pgx.Tx, id uint64, fromStatus, toStatus string, cancelReason *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNextCAS {
		r.failNextCAS = false
		return false, nil
	}
	rent, ok := r.items[id]
	if !ok || rent.Status != fromStatus {
		return false, nil
	}
	rent.Status = toStatus
	if cancelReason != nil {
		rent.CancelReason = cancelReason
	}
	now := time.Now()
	switch toStatus {
	case constants.RentalStatusConfirmed:
		rent.ConfirmedAt = &now
	case constants.RentalStatusInProgress:
		rent.StartedAt = &now
	case constants.RentalStatusCompleted:
		rent.CompletedAt = &now
	case constants.RentalStatusCancelled:
		rent.CancelledAt = &now
	}
	return true, nil
}

func (r *fakeRentalRepo) UpdatePaymentStatusCAS(ctx context.Context, id uint64, fromStatus, toStatus string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rent, ok := r.items[id]
	if !ok || rent.PaymentStatus != fromStatus {
		return false, nil
	}
	rent.PaymentStatus = toStatus
	return true, nil
}

func (r *fakeRentalRepo) HasOverlapping(ctx context.Context, tx pgx.Tx, equipmentID uint64, startDate, endDate time.Time, blockingStatuses []string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rent := range r.items {
		if rent.EquipmentID != equipmentID {
			continue
		}
		blocking := false
		for _, status := range blockingStatuses {
			if rent.Status == status {
				blocking = true
				break
			}
		}
		if !blocking {
			continue
		}
		if !rent.StartDate.After(endDate) && !rent.EndDate.Before(startDate) {
			return true, nil
		}
	}
	return false, nil
}

// --- Профили ---

type profileKey struct {
	email   string
	version int
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	nextID   uint64
	versions map[profileKey]*entities.UserProfile

	// Сколько ближайших вставок завершить конфликтом.
	conflictsLeft int
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{nextID: 1, versions: map[profileKey]*entities.UserProfile{}}
}

func (r *fakeProfileRepo) seed(p entities.UserProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.nextID
	r.nextID++
	copied := p
	r.versions[profileKey{p.Email, p.Version}] = &copied
}

func (r *fakeProfileRepo) FindCurrentByEmail(ctx context.Context, tx pgx.Tx, email string) (*entities.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var current *entities.UserProfile
	for key, p := range r.versions {
		if key.email != email || p.Status != constants.ProfileStatusActive {
			continue
		}
		if current == nil || p.Version > current.Version {
			current = p
		}
	}
	if current == nil {
		return nil, apperrors.ErrNotFound
	}
	copied := *current
	return &copied, nil
}

func (r *fakeProfileRepo) AppendVersionInTx(ctx context.Context, tx pgx.Tx, profile entities.UserProfile) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return 0, apperrors.ErrConflict
	}
	key := profileKey{profile.Email, profile.Version}
	if _, exists := r.versions[key]; exists {
		return 0, apperrors.ErrConflict
	}
	profile.ID = r.nextID
	r.nextID++
	copied := profile
	r.versions[key] = &copied
	return copied.ID, nil
}

func (r *fakeProfileRepo) DemotePriorVersionsInTx(ctx context.Context, tx pgx.Tx, email string, beforeVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, p := range r.versions {
		if key.email == email && p.Version < beforeVersion {
			p.Status = constants.ProfileStatusInactive
		}
	}
	return nil
}

func (r *fakeProfileRepo) GetHistory(ctx context.Context, email string) ([]*entities.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*entities.UserProfile
	for key, p := range r.versions {
		if key.email == email {
			copied := *p
			list = append(list, &copied)
		}
	}
	return list, nil
}
